// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evidenthq/evident/services/worklog/datatypes"
	"github.com/evidenthq/evident/services/worklog/middleware"
	"github.com/evidenthq/evident/services/worklog/observability"
)

// LogService is the log surface the handlers need.
type LogService interface {
	Create(ctx context.Context, ownerID string, req datatypes.CreateLogRequest) (datatypes.LogEntry, error)
	Sync(ctx context.Context, ownerID string, req datatypes.SyncLogsRequest) (datatypes.SyncLogsResponse, error)
	Today(ctx context.Context, ownerID string) ([]datatypes.LogEntry, error)
	ThisWeek(ctx context.Context, ownerID string) ([]datatypes.LogEntry, error)
	LastWeek(ctx context.Context, ownerID string) ([]datatypes.LogEntry, error)
	Range(ctx context.Context, ownerID, startDate, endDate string) ([]datatypes.LogEntry, error)
	Update(ctx context.Context, ownerID, id string, req datatypes.UpdateLogRequest) (datatypes.LogEntry, error)
	Delete(ctx context.Context, ownerID, id string) error
}

func CreateLog(svc LogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CreateLogRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		entry, err := svc.Create(c.Request.Context(), middleware.OwnerID(c), req)
		if err != nil {
			writeError(c, err)
			return
		}

		observability.LogsCreated.WithLabelValues(string(entry.Source)).Inc()
		c.JSON(http.StatusCreated, entry)
	}
}

func SyncLogs(svc LogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SyncLogsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		ownerID := middleware.OwnerID(c)
		resp, err := svc.Sync(c.Request.Context(), ownerID, req)
		if err != nil {
			writeError(c, err)
			return
		}

		for _, entry := range resp.Logs {
			observability.LogsCreated.WithLabelValues(string(entry.Source)).Inc()
		}
		slog.Info("log batch synced", "accountId", ownerID, "count", resp.Synced)
		c.JSON(http.StatusOK, resp)
	}
}

func ListToday(svc LogService) gin.HandlerFunc {
	return listPeriod(svc.Today)
}

func ListThisWeek(svc LogService) gin.HandlerFunc {
	return listPeriod(svc.ThisWeek)
}

func ListLastWeek(svc LogService) gin.HandlerFunc {
	return listPeriod(svc.LastWeek)
}

func listPeriod(query func(ctx context.Context, ownerID string) ([]datatypes.LogEntry, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := query(c.Request.Context(), middleware.OwnerID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		if entries == nil {
			entries = []datatypes.LogEntry{}
		}
		c.JSON(http.StatusOK, entries)
	}
}

// rangeQuery binds the explicit date range query parameters.
type rangeQuery struct {
	StartDate string `form:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"endDate" binding:"required,datetime=2006-01-02"`
}

func ListRange(svc LogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q rangeQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			bindError(c, err)
			return
		}

		entries, err := svc.Range(c.Request.Context(), middleware.OwnerID(c), q.StartDate, q.EndDate)
		if err != nil {
			writeError(c, err)
			return
		}
		if entries == nil {
			entries = []datatypes.LogEntry{}
		}
		c.JSON(http.StatusOK, entries)
	}
}

func UpdateLog(svc LogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.UpdateLogRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		entry, err := svc.Update(c.Request.Context(), middleware.OwnerID(c), c.Param("logId"), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func DeleteLog(svc LogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), middleware.OwnerID(c), c.Param("logId")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
