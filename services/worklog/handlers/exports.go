// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evidenthq/evident/services/worklog/datatypes"
	"github.com/evidenthq/evident/services/worklog/export"
	"github.com/evidenthq/evident/services/worklog/middleware"
)

// ExportService is the export surface the handlers need.
type ExportService interface {
	Generate(ctx context.Context, ownerID string, req datatypes.GenerateExportRequest) (export.Result, error)
	History(ctx context.Context, ownerID string) ([]datatypes.ExportHistoryItem, error)
}

// GenerateExport produces a summary and returns it as JSON. The format
// field selects TEXT (default) or PDF bookkeeping; the binary document
// itself is served by GenerateExportPDF.
func GenerateExport(svc ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.GenerateExportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		ownerID := middleware.OwnerID(c)
		result, err := svc.Generate(c.Request.Context(), ownerID, req)
		if err != nil {
			writeError(c, err)
			return
		}

		slog.Info("export generated",
			"accountId", ownerID,
			"exportId", result.Summary.ID,
			"format", result.Summary.Format,
			"logCount", result.Summary.LogCount)
		c.JSON(http.StatusOK, result.Summary)
	}
}

// GenerateExportPDF produces a summary and streams the PDF document with
// a download filename.
func GenerateExportPDF(svc ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.GenerateExportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		req.Format = string(datatypes.FormatPDF)

		ownerID := middleware.OwnerID(c)
		result, err := svc.Generate(c.Request.Context(), ownerID, req)
		if err != nil {
			writeError(c, err)
			return
		}

		slog.Info("export generated",
			"accountId", ownerID,
			"exportId", result.Summary.ID,
			"format", result.Summary.Format,
			"logCount", result.Summary.LogCount)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
		c.Data(http.StatusOK, "application/pdf", result.Document)
	}
}

// ExportHistory lists the caller's recent exports, newest first, without
// their text bodies.
func ExportHistory(svc ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.History(c.Request.Context(), middleware.OwnerID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		if items == nil {
			items = []datatypes.ExportHistoryItem{}
		}
		c.JSON(http.StatusOK, items)
	}
}
