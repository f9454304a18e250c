// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package apperr defines the error taxonomy shared across the worklog
// service. Collaborator errors propagate unmodified; the HTTP layer maps
// them to status codes in exactly one place.
//
// Denial and range errors carry stable, user-facing reason strings.
// Infrastructure failures (storage, renderer) are wrapped so handlers can
// classify them without leaking internal detail to clients.
package apperr

import (
	"errors"
	"fmt"
)

// ErrRangeTooLarge rejects an explicit export window longer than seven
// days. Raised before any store access.
var ErrRangeTooLarge = errors.New("Date range cannot exceed 7 days")

// ErrNotFound marks a referenced record that does not exist or is not
// owned by the caller.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken marks a registration attempt with an email that already
// has an account.
var ErrEmailTaken = errors.New("Email already registered")

// ErrInvalidCredentials marks a failed login. The same error is returned
// for unknown email and wrong password.
var ErrInvalidCredentials = errors.New("Invalid credentials")

// ErrExportDenied is the sentinel matched by errors.Is for any
// entitlement denial; the concrete reason travels in DeniedError.
var ErrExportDenied = errors.New("export denied")

// ErrRenderUnavailable is the sentinel for document renderer failures.
var ErrRenderUnavailable = errors.New("renderer unavailable")

// DeniedError is an entitlement denial with a display-ready reason.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return e.Reason }

// Unwrap lets errors.Is(err, ErrExportDenied) match any denial.
func (e *DeniedError) Unwrap() error { return ErrExportDenied }

// Denied builds an entitlement denial carrying the given reason.
func Denied(reason string) error {
	return &DeniedError{Reason: reason}
}

// RenderError wraps a document-backend failure. The orchestrator must not
// persist an export record or charge usage when one occurs.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render document: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return ErrRenderUnavailable }

// Render wraps err as a RenderError.
func Render(err error) error {
	return &RenderError{Err: err}
}
