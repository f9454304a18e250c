// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package archive ships generated export artifacts to cold storage.
// Archival is strictly best-effort: the export pipeline treats every
// failure here as non-fatal.
package archive

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// uploadTimeout bounds a single object write.
const uploadTimeout = 30 * time.Second

// GCSArchiver writes artifacts to a Google Cloud Storage bucket.
type GCSArchiver struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSArchiver connects to GCS. credentialsFile may be empty to use
// ambient credentials (workload identity, GOOGLE_APPLICATION_CREDENTIALS).
func NewGCSArchiver(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSArchiver, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCSArchiver{client: client, bucket: bucket, prefix: prefix}, nil
}

// Store uploads one artifact under the configured prefix.
func (a *GCSArchiver) Store(ctx context.Context, name, contentType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	object := a.client.Bucket(a.bucket).Object(a.prefix + name)
	w := object.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying client.
func (a *GCSArchiver) Close() error {
	return a.client.Close()
}
