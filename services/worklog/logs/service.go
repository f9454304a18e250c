// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logs implements work log CRUD, period queries, and offline
// batch sync on top of the storage layer.
package logs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/evidenthq/evident/services/worklog/datatypes"
	"github.com/evidenthq/evident/services/worklog/dates"
	"github.com/evidenthq/evident/services/worklog/storage"
)

// Store is the log persistence the service needs.
type Store interface {
	Create(ctx context.Context, e datatypes.LogEntry) error
	Get(ctx context.Context, ownerID, id string) (datatypes.LogEntry, error)
	Replace(ctx context.Context, prev, next datatypes.LogEntry) error
	Delete(ctx context.Context, ownerID, id string) error
	FindByWindow(ctx context.Context, ownerID string, w dates.Window) ([]datatypes.LogEntry, error)
}

var _ Store = (*storage.LogStore)(nil)

// Service owns log entry lifecycle for authenticated owners.
type Service struct {
	store Store
	clock dates.Clock
}

// NewService returns a log service using the given store and clock.
func NewService(store Store, clock dates.Clock) *Service {
	return &Service{store: store, clock: clock}
}

// Create validates and persists one entry for the owner. Times arrive as
// RFC 3339 strings; the stored SyncedAt is the service's receive time.
func (s *Service) Create(ctx context.Context, ownerID string, req datatypes.CreateLogRequest) (datatypes.LogEntry, error) {
	entry, err := s.build(ownerID, req)
	if err != nil {
		return datatypes.LogEntry{}, err
	}
	if err := s.store.Create(ctx, entry); err != nil {
		return datatypes.LogEntry{}, err
	}
	return entry, nil
}

// Sync persists a batch of offline entries concurrently. Results keep
// the input order regardless of completion order; the batch fails as a
// unit if any entry is invalid or fails to persist.
func (s *Service) Sync(ctx context.Context, ownerID string, req datatypes.SyncLogsRequest) (datatypes.SyncLogsResponse, error) {
	results := make([]datatypes.LogEntry, len(req.Logs))

	g, gctx := errgroup.WithContext(ctx)
	for i, logReq := range req.Logs {
		g.Go(func() error {
			entry, err := s.build(ownerID, logReq)
			if err != nil {
				return err
			}
			if err := s.store.Create(gctx, entry); err != nil {
				return err
			}
			results[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return datatypes.SyncLogsResponse{}, err
	}

	return datatypes.SyncLogsResponse{Synced: len(results), Logs: results}, nil
}

// Today returns the owner's entries for the current calendar day.
func (s *Service) Today(ctx context.Context, ownerID string) ([]datatypes.LogEntry, error) {
	return s.named(ctx, ownerID, dates.PeriodToday)
}

// ThisWeek returns the owner's entries for the running Monday-start week.
func (s *Service) ThisWeek(ctx context.Context, ownerID string) ([]datatypes.LogEntry, error) {
	return s.named(ctx, ownerID, dates.PeriodThisWeek)
}

// LastWeek returns the owner's entries for the previous Monday-start week.
func (s *Service) LastWeek(ctx context.Context, ownerID string) ([]datatypes.LogEntry, error) {
	return s.named(ctx, ownerID, dates.PeriodLastWeek)
}

// Range returns the owner's entries for an explicit inclusive date range.
func (s *Service) Range(ctx context.Context, ownerID, startDate, endDate string) ([]datatypes.LogEntry, error) {
	w, err := resolveRange(startDate, endDate, s.clock.Now().Location())
	if err != nil {
		return nil, err
	}
	return s.store.FindByWindow(ctx, ownerID, w)
}

// Update applies a partial update to an owned entry. Missing ownership
// surfaces as not-found, indistinguishable from a missing id.
func (s *Service) Update(ctx context.Context, ownerID, id string, req datatypes.UpdateLogRequest) (datatypes.LogEntry, error) {
	prev, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		return datatypes.LogEntry{}, err
	}

	next := prev
	if req.StartTime != nil {
		start, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			return datatypes.LogEntry{}, fmt.Errorf("parse start time: %w", err)
		}
		next.StartTime = start
	}
	if req.EndTime != nil {
		end, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			return datatypes.LogEntry{}, fmt.Errorf("parse end time: %w", err)
		}
		next.EndTime = end
	}
	if req.Activity != nil {
		next.Activity = datatypes.ActivityKind(*req.Activity)
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if req.Reference != nil {
		next.Reference = *req.Reference
	}

	if err := s.store.Replace(ctx, prev, next); err != nil {
		return datatypes.LogEntry{}, err
	}
	return next, nil
}

// Delete removes an owned entry.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.Delete(ctx, ownerID, id)
}

// FindByWindow exposes windowed retrieval for the export orchestrator.
func (s *Service) FindByWindow(ctx context.Context, ownerID string, w dates.Window) ([]datatypes.LogEntry, error) {
	return s.store.FindByWindow(ctx, ownerID, w)
}

func (s *Service) named(ctx context.Context, ownerID string, period dates.Period) ([]datatypes.LogEntry, error) {
	w, err := dates.ResolveNamed(s.clock, period)
	if err != nil {
		return nil, err
	}
	return s.store.FindByWindow(ctx, ownerID, w)
}

func (s *Service) build(ownerID string, req datatypes.CreateLogRequest) (datatypes.LogEntry, error) {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return datatypes.LogEntry{}, fmt.Errorf("parse start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return datatypes.LogEntry{}, fmt.Errorf("parse end time: %w", err)
	}

	return datatypes.LogEntry{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Date:        req.Date,
		StartTime:   start,
		EndTime:     end,
		Activity:    datatypes.ActivityKind(req.Activity),
		Description: req.Description,
		Reference:   req.Reference,
		Source:      req.ResolvedSource(),
		SyncedAt:    s.clock.Now(),
	}, nil
}

// resolveRange turns date-only bounds into an inclusive window.
func resolveRange(startDate, endDate string, loc *time.Location) (dates.Window, error) {
	start, err := dates.ParseDay(startDate, loc)
	if err != nil {
		return dates.Window{}, err
	}
	end, err := dates.ParseDay(endDate, loc)
	if err != nil {
		return dates.Window{}, err
	}
	return dates.ResolveExplicit(start, end)
}
