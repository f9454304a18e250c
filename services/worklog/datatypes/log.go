// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the domain records and request/response shapes
// of the worklog service: log entries, accounts, export records, and the
// DTOs bound by the HTTP layer.
//
// Optional enum fields are resolved to their defaults at the binding
// boundary (see CreateLogRequest.ResolvedSource and
// GenerateExportRequest.ResolvedFormat) so the services below the HTTP
// layer always receive fully-specified values.
package datatypes

import "time"

// CalendarDateLayout is the wire and storage layout for date-only values.
const CalendarDateLayout = "2006-01-02"

// ActivityKind classifies what a log entry's time was spent on.
type ActivityKind string

const (
	ActivityWork    ActivityKind = "WORK"
	ActivityMeeting ActivityKind = "MEETING"
	ActivityField   ActivityKind = "FIELD"
	ActivityTravel  ActivityKind = "TRAVEL"
	ActivityAdmin   ActivityKind = "ADMIN"
)

// LogSource records which client created a log entry.
type LogSource string

const (
	SourceWeb    LogSource = "WEB"
	SourceMobile LogSource = "MOBILE"
)

// LogEntry is one recorded activity interval. Entries are immutable once
// created except through an explicit partial update, and are exclusively
// owned by one account.
//
// Date is the calendar day the entry is grouped under. It is stored
// separately from StartTime because the two may legitimately diverge
// (an overnight shift is logged under the day it belongs to, not the day
// its clock time falls on).
type LogEntry struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	Date        string       `json:"date"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     time.Time    `json:"end_time"`
	Activity    ActivityKind `json:"activity_type"`
	Description string       `json:"description"`
	Reference   string       `json:"reference,omitempty"`
	Source      LogSource    `json:"source"`
	SyncedAt    time.Time    `json:"synced_at"`
}

// CreateLogRequest is the payload for creating a single log entry, and the
// element type of a sync batch.
type CreateLogRequest struct {
	Date        string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime   string `json:"startTime" binding:"required"`
	EndTime     string `json:"endTime" binding:"required"`
	Activity    string `json:"activityType" binding:"required,oneof=WORK MEETING FIELD TRAVEL ADMIN"`
	Description string `json:"description" binding:"required,max=120"`
	Reference   string `json:"reference" binding:"omitempty,max=100"`
	Source      string `json:"source" binding:"omitempty,oneof=WEB MOBILE"`
}

// ResolvedSource returns the request's source, defaulting to SourceWeb
// when the field was omitted.
func (r CreateLogRequest) ResolvedSource() LogSource {
	if r.Source == "" {
		return SourceWeb
	}
	return LogSource(r.Source)
}

// UpdateLogRequest is a partial update; nil fields are left unchanged.
// Reference uses a pointer so callers can distinguish "clear the
// reference" (empty string) from "leave it alone" (nil).
type UpdateLogRequest struct {
	StartTime   *string `json:"startTime" binding:"omitempty"`
	EndTime     *string `json:"endTime" binding:"omitempty"`
	Activity    *string `json:"activityType" binding:"omitempty,oneof=WORK MEETING FIELD TRAVEL ADMIN"`
	Description *string `json:"description" binding:"omitempty,max=120"`
	Reference   *string `json:"reference" binding:"omitempty,max=100"`
}

// SyncLogsRequest is a batch of entries uploaded by a client that was
// offline; all entries are created for the authenticated owner.
type SyncLogsRequest struct {
	Logs []CreateLogRequest `json:"logs" binding:"required,min=1,dive"`
}

// SyncLogsResponse reports the outcome of a batch sync.
type SyncLogsResponse struct {
	Synced int        `json:"synced"`
	Logs   []LogEntry `json:"logs"`
}
