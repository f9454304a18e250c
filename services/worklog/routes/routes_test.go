// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidenthq/evident/services/worklog/auth"
	"github.com/evidenthq/evident/services/worklog/datatypes"
	"github.com/evidenthq/evident/services/worklog/entitlement"
	"github.com/evidenthq/evident/services/worklog/export"
	"github.com/evidenthq/evident/services/worklog/logs"
	"github.com/evidenthq/evident/services/worklog/middleware"
	"github.com/evidenthq/evident/services/worklog/storage"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type stubRenderer struct{}

func (stubRenderer) RenderDocument(_ context.Context, _ string) ([]byte, error) {
	return []byte("%PDF-1.4 stub"), nil
}

// Wednesday 2024-06-05.
var routerNow = time.Date(2024, 6, 5, 15, 0, 0, 0, time.UTC)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := fixedClock{now: routerNow}
	accountStore := storage.NewAccountStore(db)
	logStore := storage.NewLogStore(db)
	exportStore := storage.NewExportStore(db)

	authSvc := auth.NewService(accountStore, []byte("router-test-secret"), clock)
	logSvc := logs.NewService(logStore, clock)
	engine := entitlement.NewEngine(accountStore, accountStore)
	exportSvc := export.NewService(logSvc, engine, exportStore, stubRenderer{}, nil, clock, nil)

	router := gin.New()
	SetupRoutes(router, Deps{
		Auth:     authSvc,
		Verifier: authSvc,
		Logs:     logSvc,
		Exports:  exportSvc,
		Accounts: accountStore,
		Checker:  engine,
	})
	return router
}

func doJSON(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAccount(t *testing.T, router *gin.Engine, email string) (token, accountID string) {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email":    email,
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp datatypes.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken, resp.User.ID
}

func logPayload(date string, hour int, desc string) gin.H {
	start := time.Date(2024, 6, 5, hour, 0, 0, 0, time.UTC)
	return gin.H{
		"date":         date,
		"startTime":    start.Format(time.RFC3339),
		"endTime":      start.Add(time.Hour).Format(time.RFC3339),
		"activityType": "WORK",
		"description":  desc,
	}
}

func TestRoutes_HealthAndMetricsAreOpen(t *testing.T) {
	router := testRouter(t)

	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/metrics", "", nil).Code)
}

func TestRoutes_ProtectedEndpointsRequireAuth(t *testing.T) {
	router := testRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/users/me"},
		{http.MethodGet, "/v1/logs/today"},
		{http.MethodPost, "/v1/exports/generate"},
		{http.MethodGet, "/v1/exports/history"},
		{http.MethodGet, "/v1/subscriptions/status"},
	}
	for _, p := range paths {
		w := doJSON(router, p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, p.path)
	}
}

func TestRoutes_RegisterLoginAndProfile(t *testing.T) {
	router := testRouter(t)
	token, accountID := registerAccount(t, router, "a@example.com")

	w := doJSON(router, http.MethodGet, "/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var profile datatypes.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, accountID, profile.ID)
	assert.Equal(t, datatypes.StatusTrial, profile.SubscriptionStatus)

	login := doJSON(router, http.MethodPost, "/v1/auth/login", "", gin.H{
		"email":    "a@example.com",
		"password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusOK, login.Code)
}

func TestRoutes_DuplicateRegistrationConflicts(t *testing.T) {
	router := testRouter(t)
	registerAccount(t, router, "a@example.com")

	w := doJSON(router, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email":    "a@example.com",
		"password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRoutes_LogLifecycle(t *testing.T) {
	router := testRouter(t)
	token, _ := registerAccount(t, router, "a@example.com")

	created := doJSON(router, http.MethodPost, "/v1/logs", token, logPayload("2024-06-05", 9, "Standup"))
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	var entry datatypes.LogEntry
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &entry))

	today := doJSON(router, http.MethodGet, "/v1/logs/today", token, nil)
	require.Equal(t, http.StatusOK, today.Code)
	assert.Contains(t, today.Body.String(), "Standup")

	patched := doJSON(router, http.MethodPatch, "/v1/logs/"+entry.ID, token, gin.H{"description": "Standup notes"})
	require.Equal(t, http.StatusOK, patched.Code)
	assert.Contains(t, patched.Body.String(), "Standup notes")

	deleted := doJSON(router, http.MethodDelete, "/v1/logs/"+entry.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, deleted.Code)

	empty := doJSON(router, http.MethodGet, "/v1/logs/today", token, nil)
	require.Equal(t, http.StatusOK, empty.Code)
	assert.Equal(t, "[]", empty.Body.String())
}

func TestRoutes_LogOwnershipIsolation(t *testing.T) {
	router := testRouter(t)
	aliceToken, _ := registerAccount(t, router, "alice@example.com")
	bobToken, _ := registerAccount(t, router, "bob@example.com")

	created := doJSON(router, http.MethodPost, "/v1/logs", aliceToken, logPayload("2024-06-05", 9, "private"))
	require.Equal(t, http.StatusCreated, created.Code)
	var entry datatypes.LogEntry
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &entry))

	w := doJSON(router, http.MethodPatch, "/v1/logs/"+entry.ID, bobToken, gin.H{"description": "stolen"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodDelete, "/v1/logs/"+entry.ID, bobToken, nil).Code)
}

func TestRoutes_SyncBatch(t *testing.T) {
	router := testRouter(t)
	token, _ := registerAccount(t, router, "a@example.com")

	w := doJSON(router, http.MethodPost, "/v1/logs/sync", token, gin.H{
		"logs": []gin.H{
			logPayload("2024-06-03", 9, "first"),
			logPayload("2024-06-04", 9, "second"),
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp datatypes.SyncLogsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Synced)
}

func TestRoutes_RangeQueryValidation(t *testing.T) {
	router := testRouter(t)
	token, _ := registerAccount(t, router, "a@example.com")

	ok := doJSON(router, http.MethodGet, "/v1/logs/range?startDate=2024-06-03&endDate=2024-06-07", token, nil)
	assert.Equal(t, http.StatusOK, ok.Code)

	missing := doJSON(router, http.MethodGet, "/v1/logs/range?startDate=2024-06-03", token, nil)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestRoutes_ExportFlowWithTrialPolicy(t *testing.T) {
	router := testRouter(t)
	token, _ := registerAccount(t, router, "a@example.com")

	created := doJSON(router, http.MethodPost, "/v1/logs", token, logPayload("2024-06-05", 9, "Standup"))
	require.Equal(t, http.StatusCreated, created.Code)

	can := doJSON(router, http.MethodGet, "/v1/users/can-export", token, nil)
	require.Equal(t, http.StatusOK, can.Code)
	assert.Contains(t, can.Body.String(), `"allowed":true`)

	exportReq := gin.H{"startDate": "2024-06-03", "endDate": "2024-06-09"}
	first := doJSON(router, http.MethodPost, "/v1/exports/generate", token, exportReq)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	var summary datatypes.ExportSummary
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &summary))
	assert.Contains(t, summary.TextContent, "WORK SUMMARY")
	assert.Equal(t, 1, summary.LogCount)

	// The trial allowance is spent.
	second := doJSON(router, http.MethodPost, "/v1/exports/generate", token, exportReq)
	assert.Equal(t, http.StatusForbidden, second.Code)
	assert.Contains(t, second.Body.String(), "Exporting summaries requires a subscription.")

	history := doJSON(router, http.MethodGet, "/v1/exports/history", token, nil)
	require.Equal(t, http.StatusOK, history.Code)
	var items []datatypes.ExportHistoryItem
	require.NoError(t, json.Unmarshal(history.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.NotContains(t, history.Body.String(), "WORK SUMMARY")
}

func TestRoutes_ExportRangeTooLarge(t *testing.T) {
	router := testRouter(t)
	token, _ := registerAccount(t, router, "a@example.com")

	w := doJSON(router, http.MethodPost, "/v1/exports/generate", token, gin.H{
		"startDate": "2024-06-01",
		"endDate":   "2024-06-30",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Date range cannot exceed 7 days")
}

func TestRoutes_ExportPDFDownload(t *testing.T) {
	router := testRouter(t)
	token, _ := registerAccount(t, router, "a@example.com")

	w := doJSON(router, http.MethodPost, "/v1/exports/pdf", token, gin.H{
		"startDate": "2024-06-03",
		"endDate":   "2024-06-09",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "summary-2024-06-03-to-2024-06-09.pdf")
	assert.Equal(t, "%PDF-1.4 stub", w.Body.String())
}

func TestRoutes_BillingWebhookUnlocksExports(t *testing.T) {
	router := testRouter(t)
	token, accountID := registerAccount(t, router, "a@example.com")

	exportReq := gin.H{"startDate": "2024-06-03", "endDate": "2024-06-09"}

	// Spend the trial, then upgrade through the webhook.
	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/v1/exports/generate", token, exportReq).Code)
	require.Equal(t, http.StatusForbidden, doJSON(router, http.MethodPost, "/v1/exports/generate", token, exportReq).Code)

	hook := doJSON(router, http.MethodPost, "/v1/subscriptions/webhook", "", gin.H{
		"type":      "checkout.completed",
		"accountId": accountID,
	})
	require.Equal(t, http.StatusOK, hook.Code)

	status := doJSON(router, http.MethodGet, "/v1/subscriptions/status", token, nil)
	require.Equal(t, http.StatusOK, status.Code)
	assert.Contains(t, status.Body.String(), `"subscriptionStatus":"ACTIVE"`)

	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/v1/exports/generate", token, exportReq).Code)

	// Downgrade locks exports again.
	downgrade := doJSON(router, http.MethodPost, "/v1/subscriptions/webhook", "", gin.H{
		"type":      "subscription.deleted",
		"accountId": accountID,
	})
	require.Equal(t, http.StatusOK, downgrade.Code)
	assert.Equal(t, http.StatusForbidden, doJSON(router, http.MethodPost, "/v1/exports/generate", token, exportReq).Code)
}

func TestRoutes_WebhookRejectsUnknownEvent(t *testing.T) {
	router := testRouter(t)
	_, accountID := registerAccount(t, router, "a@example.com")

	w := doJSON(router, http.MethodPost, "/v1/subscriptions/webhook", "", gin.H{
		"type":      "invoice.finalized",
		"accountId": accountID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutes_ExportHistoryNewestFirstCap(t *testing.T) {
	router := testRouter(t)
	token, accountID := registerAccount(t, router, "a@example.com")

	// Active subscription so every generation passes.
	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/v1/subscriptions/webhook", "", gin.H{
		"type":      "checkout.completed",
		"accountId": accountID,
	}).Code)

	for i := 0; i < 22; i++ {
		day := fmt.Sprintf("2024-06-%02d", 1+i%28)
		w := doJSON(router, http.MethodPost, "/v1/exports/generate", token, gin.H{
			"startDate": day,
			"endDate":   day,
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	history := doJSON(router, http.MethodGet, "/v1/exports/history", token, nil)
	require.Equal(t, http.StatusOK, history.Code)

	var items []datatypes.ExportHistoryItem
	require.NoError(t, json.Unmarshal(history.Body.Bytes(), &items))
	assert.Len(t, items, export.HistoryLimit)
}

func TestRoutes_AuthRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := fixedClock{now: routerNow}
	accountStore := storage.NewAccountStore(db)
	authSvc := auth.NewService(accountStore, []byte("router-test-secret"), clock)
	logSvc := logs.NewService(storage.NewLogStore(db), clock)
	engine := entitlement.NewEngine(accountStore, accountStore)
	exportSvc := export.NewService(logSvc, engine, storage.NewExportStore(db), stubRenderer{}, nil, clock, nil)

	limiter := middleware.NewRateLimiter(0.1, 2)
	t.Cleanup(limiter.Close)

	router := gin.New()
	SetupRoutes(router, Deps{
		Auth:        authSvc,
		Verifier:    authSvc,
		Logs:        logSvc,
		Exports:     exportSvc,
		Accounts:    accountStore,
		Checker:     engine,
		AuthLimiter: limiter,
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := doJSON(router, http.MethodPost, "/v1/auth/login", "", gin.H{
			"email":    "a@example.com",
			"password": "hunter2hunter2",
		})
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}
