// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evidenthq/evident/services/worklog/datatypes"
	"github.com/evidenthq/evident/services/worklog/entitlement"
	"github.com/evidenthq/evident/services/worklog/middleware"
)

// AccountReader provides point reads of accounts.
type AccountReader interface {
	Get(ctx context.Context, id string) (datatypes.Account, error)
}

// EntitlementChecker evaluates the export policy without consuming
// anything.
type EntitlementChecker interface {
	CheckExport(ctx context.Context, accountID string) (entitlement.Decision, error)
}

// Me returns the authenticated account's profile.
func Me(accounts AccountReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := accounts.Get(c.Request.Context(), middleware.OwnerID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, datatypes.ProfileOf(&account))
	}
}

// CanExport reports whether the caller could generate an export right
// now. Read-only; the trial allowance is not consumed.
func CanExport(checker EntitlementChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := checker.CheckExport(c.Request.Context(), middleware.OwnerID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, decision)
	}
}
