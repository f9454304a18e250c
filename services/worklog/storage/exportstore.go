// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v4"

	"github.com/evidenthq/evident/services/worklog/datatypes"
)

// ExportStore persists export records.
//
// Keys embed the creation instant inverted, so a forward prefix scan
// yields records newest first and Recent never loads more rows than it
// returns.
type ExportStore struct {
	db *DB
}

// NewExportStore returns a store backed by db.
func NewExportStore(db *DB) *ExportStore {
	return &ExportStore{db: db}
}

func exportKey(r datatypes.ExportRecord) []byte {
	reverse := uint64(math.MaxInt64 - r.CreatedAt.UnixNano())
	return []byte(fmt.Sprintf("export/%s/%020d/%s", r.OwnerID, reverse, r.ID))
}

func exportPrefix(ownerID string) []byte {
	return []byte(fmt.Sprintf("export/%s/", ownerID))
}

// Create writes a new export record.
func (s *ExportStore) Create(ctx context.Context, r datatypes.ExportRecord) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal export record: %w", err)
	}

	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(exportKey(r), raw)
	})
}

// Recent returns up to limit of the owner's export records, newest
// first.
func (s *ExportStore) Recent(ctx context.Context, ownerID string, limit int) ([]datatypes.ExportRecord, error) {
	var records []datatypes.ExportRecord

	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := exportPrefix(ownerID)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(records) < limit; it.Next() {
			var record datatypes.ExportRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}
