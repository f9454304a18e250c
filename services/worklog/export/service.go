// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package export orchestrates summary generation: window resolution,
// entitlement, retrieval, aggregation, rendering, persistence, and usage
// accounting, in that order.
//
// The ordering is the contract. Entitlement is checked before any log is
// fetched, the canonical text is rendered before any binary document,
// the record is persisted before usage is recorded, and a render or
// store failure leaves no trace: no record, no usage consumed.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/evidenthq/evident/services/worklog/apperr"
	"github.com/evidenthq/evident/services/worklog/datatypes"
	"github.com/evidenthq/evident/services/worklog/dates"
	"github.com/evidenthq/evident/services/worklog/entitlement"
	"github.com/evidenthq/evident/services/worklog/observability"
	"github.com/evidenthq/evident/services/worklog/render"
	"github.com/evidenthq/evident/services/worklog/report"
)

// HistoryLimit caps the number of records returned by History.
const HistoryLimit = 20

// LogFinder retrieves a window of log entries for one owner.
type LogFinder interface {
	FindByWindow(ctx context.Context, ownerID string, w dates.Window) ([]datatypes.LogEntry, error)
}

// Entitlements gates generation and records consumed usage.
type Entitlements interface {
	CheckExport(ctx context.Context, accountID string) (entitlement.Decision, error)
	RecordUsage(ctx context.Context, accountID string) (datatypes.Account, error)
}

// RecordStore persists and lists export records.
type RecordStore interface {
	Create(ctx context.Context, r datatypes.ExportRecord) error
	Recent(ctx context.Context, ownerID string, limit int) ([]datatypes.ExportRecord, error)
}

// Archiver receives a best-effort copy of each generated artifact.
type Archiver interface {
	Store(ctx context.Context, name string, contentType string, data []byte) error
}

// Result is a completed generation. Document is non-nil only for PDF
// exports; TextContent on the summary always carries the canonical text.
type Result struct {
	Summary  datatypes.ExportSummary
	Document []byte
	FileName string
}

// Service is the export engine.
type Service struct {
	logs         LogFinder
	entitlements Entitlements
	records      RecordStore
	renderer     render.DocumentRenderer
	archiver     Archiver
	clock        dates.Clock
	logger       *slog.Logger
}

// NewService wires the export engine. archiver may be nil.
func NewService(
	logs LogFinder,
	entitlements Entitlements,
	records RecordStore,
	renderer render.DocumentRenderer,
	archiver Archiver,
	clock dates.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		logs:         logs,
		entitlements: entitlements,
		records:      records,
		renderer:     renderer,
		archiver:     archiver,
		clock:        clock,
		logger:       logger,
	}
}

// Generate produces a summary for an explicit date range.
//
// Failure modes, in evaluation order: ErrRangeTooLarge before any store
// access, an entitlement denial before any log fetch, a render failure
// before any persistence, and a store failure before any usage is
// consumed.
func (s *Service) Generate(ctx context.Context, ownerID string, req datatypes.GenerateExportRequest) (Result, error) {
	format := req.ResolvedFormat()
	started := s.clock.Now()

	result, err := s.generate(ctx, ownerID, format, req)
	observability.ExportDuration.WithLabelValues(string(format)).Observe(time.Since(started).Seconds())
	observability.ExportsTotal.WithLabelValues(string(format), outcome(err)).Inc()
	return result, err
}

func (s *Service) generate(ctx context.Context, ownerID string, format datatypes.ExportFormat, req datatypes.GenerateExportRequest) (Result, error) {
	w, err := resolveWindow(req, s.clock.Now().Location())
	if err != nil {
		return Result{}, err
	}

	decision, err := s.entitlements.CheckExport(ctx, ownerID)
	if err != nil {
		return Result{}, err
	}
	if !decision.Allowed {
		return Result{}, apperr.Denied(decision.Reason)
	}

	entries, err := s.logs.FindByWindow(ctx, ownerID, w)
	if err != nil {
		return Result{}, err
	}
	buckets := report.Aggregate(entries)

	text := render.Text(w, buckets)

	var document []byte
	if format == datatypes.FormatPDF {
		observability.ActiveRenders.Inc()
		document, err = s.renderer.RenderDocument(ctx, render.HTML(w, buckets))
		observability.ActiveRenders.Dec()
		if err != nil {
			return Result{}, err
		}
	}

	record := datatypes.ExportRecord{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		WindowStart: w.Start,
		WindowEnd:   w.End,
		Format:      format,
		TextContent: text,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		return Result{}, err
	}

	if _, err := s.entitlements.RecordUsage(ctx, ownerID); err != nil {
		return Result{}, err
	}

	s.archive(ctx, record, document)

	return Result{
		Summary: datatypes.ExportSummary{
			ID:          record.ID,
			Format:      format,
			TextContent: text,
			DateRange:   datatypes.DateRange{Start: w.Start, End: w.End},
			LogCount:    report.Count(buckets),
		},
		Document: document,
		FileName: render.FileName(w, extensionOf(format)),
	}, nil
}

// History returns the owner's most recent export records, newest first,
// without their text bodies.
func (s *Service) History(ctx context.Context, ownerID string) ([]datatypes.ExportHistoryItem, error) {
	records, err := s.records.Recent(ctx, ownerID, HistoryLimit)
	if err != nil {
		return nil, err
	}

	items := make([]datatypes.ExportHistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, datatypes.HistoryItemOf(rec))
	}
	return items, nil
}

// archive ships the export's artifacts to cold storage under
// exports/<owner>/<id>.<ext>, keyed so artifacts never collide across
// owners or repeated exports of the same window. The canonical text is
// always archived; PDF exports archive the document alongside it.
// Failures are logged and swallowed; archival never fails an export.
func (s *Service) archive(ctx context.Context, record datatypes.ExportRecord, document []byte) {
	if s.archiver == nil {
		return
	}

	s.archiveObject(ctx, archiveName(record, "txt"), "text/plain; charset=utf-8", []byte(record.TextContent))
	if record.Format == datatypes.FormatPDF {
		s.archiveObject(ctx, archiveName(record, "pdf"), "application/pdf", document)
	}
}

func (s *Service) archiveObject(ctx context.Context, name, contentType string, data []byte) {
	if err := s.archiver.Store(ctx, name, contentType, data); err != nil && s.logger != nil {
		s.logger.Warn("export archive failed",
			slog.String("artifact", name),
			slog.String("error", err.Error()))
	}
}

func archiveName(record datatypes.ExportRecord, ext string) string {
	return fmt.Sprintf("exports/%s/%s.%s", record.OwnerID, record.ID, ext)
}

func resolveWindow(req datatypes.GenerateExportRequest, loc *time.Location) (dates.Window, error) {
	start, err := dates.ParseDay(req.StartDate, loc)
	if err != nil {
		return dates.Window{}, err
	}
	end, err := dates.ParseDay(req.EndDate, loc)
	if err != nil {
		return dates.Window{}, err
	}
	return dates.ResolveExplicit(start, end)
}

func extensionOf(format datatypes.ExportFormat) string {
	if format == datatypes.FormatPDF {
		return "pdf"
	}
	return "txt"
}

// outcome labels an error for the exports counter.
func outcome(err error) string {
	switch {
	case err == nil:
		return "generated"
	case errors.Is(err, apperr.ErrRangeTooLarge):
		return "range_too_large"
	case errors.Is(err, apperr.ErrExportDenied):
		return "denied"
	case errors.Is(err, apperr.ErrRenderUnavailable):
		return "render_failed"
	default:
		return "store_failed"
	}
}
