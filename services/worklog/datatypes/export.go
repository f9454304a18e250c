// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// ExportFormat selects the output representation of a generated summary.
// The canonical text rendering is stored on the export record regardless
// of which format was requested.
type ExportFormat string

const (
	FormatText ExportFormat = "TEXT"
	FormatPDF  ExportFormat = "PDF"
)

// ExportRecord is the persisted artifact of one completed export. Records
// are written exactly once per successful generation and never mutated.
type ExportRecord struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	WindowStart time.Time    `json:"window_start"`
	WindowEnd   time.Time    `json:"window_end"`
	Format      ExportFormat `json:"format"`
	TextContent string       `json:"text_content"`
	CreatedAt   time.Time    `json:"created_at"`
}

// GenerateExportRequest asks for a summary over an explicit date range.
type GenerateExportRequest struct {
	StartDate string `json:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" binding:"required,datetime=2006-01-02"`
	Format    string `json:"format" binding:"omitempty,oneof=TEXT PDF"`
}

// ResolvedFormat returns the requested format, defaulting to FormatText
// when the field was omitted.
func (r GenerateExportRequest) ResolvedFormat() ExportFormat {
	if r.Format == "" {
		return FormatText
	}
	return ExportFormat(r.Format)
}

// ExportSummary is returned by POST /v1/exports/generate.
type ExportSummary struct {
	ID          string       `json:"id"`
	Format      ExportFormat `json:"format"`
	TextContent string       `json:"textContent"`
	DateRange   DateRange    `json:"dateRange"`
	LogCount    int          `json:"logCount"`
}

// DateRange carries the resolved window bounds of a summary.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ExportHistoryItem is the projection used by GET /v1/exports/history; it
// deliberately omits the rendered text body.
type ExportHistoryItem struct {
	ID          string       `json:"id"`
	WindowStart time.Time    `json:"startDate"`
	WindowEnd   time.Time    `json:"endDate"`
	Format      ExportFormat `json:"format"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// HistoryItemOf projects an export record onto its history shape.
func HistoryItemOf(rec ExportRecord) ExportHistoryItem {
	return ExportHistoryItem{
		ID:          rec.ID,
		WindowStart: rec.WindowStart,
		WindowEnd:   rec.WindowEnd,
		Format:      rec.Format,
		CreatedAt:   rec.CreatedAt,
	}
}
