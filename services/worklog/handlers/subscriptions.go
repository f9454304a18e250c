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
)

// AccountUpdater mutates subscription state in response to billing
// events.
type AccountUpdater interface {
	AccountReader
	SetSubscriptionStatus(ctx context.Context, id string, status datatypes.SubscriptionStatus) error
}

// SubscriptionStatus returns the caller's entitlement-relevant fields.
func SubscriptionStatus(accounts AccountReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := accounts.Get(c.Request.Context(), middleware.OwnerID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, datatypes.SubscriptionState{
			SubscriptionStatus: account.SubscriptionStatus,
			TrialExportUsed:    account.TrialExportUsed,
			ExportCount:        account.ExportCount,
		})
	}
}

// BillingWebhook applies a normalized billing event to an account. The
// endpoint is unauthenticated; the proxy in front verifies provider
// signatures before forwarding.
func BillingWebhook(accounts AccountUpdater) gin.HandlerFunc {
	transitions := map[string]datatypes.SubscriptionStatus{
		"checkout.completed":   datatypes.StatusActive,
		"subscription.deleted": datatypes.StatusCancelled,
		"payment.failed":       datatypes.StatusExpired,
	}

	return func(c *gin.Context) {
		var req datatypes.BillingEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		status := transitions[req.Type]
		if err := accounts.SetSubscriptionStatus(c.Request.Context(), req.AccountID, status); err != nil {
			writeError(c, err)
			return
		}

		slog.Info("billing event applied",
			"accountId", req.AccountID,
			"event", req.Type,
			"status", status)
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
