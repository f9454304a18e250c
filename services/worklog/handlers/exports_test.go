// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidenthq/evident/services/worklog/apperr"
	"github.com/evidenthq/evident/services/worklog/datatypes"
	"github.com/evidenthq/evident/services/worklog/export"
)

type fakeExports struct {
	result export.Result
	err    error
}

func (f *fakeExports) Generate(_ context.Context, _ string, _ datatypes.GenerateExportRequest) (export.Result, error) {
	return f.result, f.err
}

func (f *fakeExports) History(_ context.Context, _ string) ([]datatypes.ExportHistoryItem, error) {
	return nil, f.err
}

func postGenerate(svc ExportService, body any) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/generate", GenerateExport(svc))

	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validBody() gin.H {
	return gin.H{"startDate": "2024-06-03", "endDate": "2024-06-09"}
}

func TestGenerateExport_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "range too large",
			err:        apperr.ErrRangeTooLarge,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Date range cannot exceed 7 days",
		},
		{
			name:       "entitlement denied",
			err:        apperr.Denied("Exporting summaries requires a subscription."),
			wantStatus: http.StatusForbidden,
			wantBody:   "Exporting summaries requires a subscription.",
		},
		{
			name:       "renderer down",
			err:        apperr.Render(errors.New("chromium exited")),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "temporarily unavailable",
		},
		{
			name:       "storage failure stays generic",
			err:        errors.New("badger: disk corruption at level 3"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Something went wrong",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postGenerate(&fakeExports{err: tt.err}, validBody())
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestGenerateExport_InternalDetailNeverLeaks(t *testing.T) {
	w := postGenerate(&fakeExports{err: errors.New("badger: disk corruption at level 3")}, validBody())
	assert.NotContains(t, w.Body.String(), "badger")
}

func TestGenerateExport_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body gin.H
	}{
		{"missing end date", gin.H{"startDate": "2024-06-03"}},
		{"malformed date", gin.H{"startDate": "June 3rd", "endDate": "2024-06-09"}},
		{"unknown format", gin.H{"startDate": "2024-06-03", "endDate": "2024-06-09", "format": "DOCX"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postGenerate(&fakeExports{}, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGenerateExport_ReturnsSummary(t *testing.T) {
	svc := &fakeExports{result: export.Result{
		Summary: datatypes.ExportSummary{
			ID:          "export-1",
			Format:      datatypes.FormatText,
			TextContent: "WORK SUMMARY\n",
			LogCount:    3,
		},
	}}

	w := postGenerate(svc, validBody())
	require.Equal(t, http.StatusOK, w.Code)

	var summary datatypes.ExportSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "export-1", summary.ID)
	assert.Equal(t, 3, summary.LogCount)
}
