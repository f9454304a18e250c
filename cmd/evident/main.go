// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command evident starts the worklog HTTP server.
//
// # Usage
//
//	# Build
//	go build -o evident ./cmd/evident
//
//	# Run with a config file
//	./evident serve --config config.yaml
//
//	# Or configured entirely from the environment
//	EVIDENT_JWT_SECRET=... ./evident serve
//
// # Environment Variables
//
//   - EVIDENT_HOST / EVIDENT_PORT: HTTP listener (default: 0.0.0.0:8080)
//   - EVIDENT_DB_PATH: BadgerDB directory (default: data/evident)
//   - EVIDENT_JWT_SECRET: token signing secret (required)
//   - EVIDENT_LOG_LEVEL / EVIDENT_LOG_DIR: logging
//   - EVIDENT_OTLP_ENDPOINT: OpenTelemetry collector, enables tracing
//   - EVIDENT_ARCHIVE_BUCKET: GCS bucket, enables export archival
package main

import (
	"log"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "evident",
	Short: "Evident worklog service",
	Long:  "Evident records daily work logs and generates entitlement-gated summary exports.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config YAML (optional)")
	rootCmd.AddCommand(serveCmd)
}
