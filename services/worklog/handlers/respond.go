// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP endpoints of the worklog service.
//
// Handlers are thin: bind, call the service, map the error. All error to
// status mapping lives in writeError so the policy exists in one place.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/evidenthq/evident/services/worklog/apperr"
)

// writeError maps a service error onto a response.
//
// Denial and range errors carry their stable reason strings verbatim;
// infrastructure failures return a generic retry message so internal
// detail never reaches a client.
func writeError(c *gin.Context, err error) {
	var denied *apperr.DeniedError

	switch {
	case errors.Is(err, apperr.ErrRangeTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"error": denied.Reason})

	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})

	case errors.Is(err, apperr.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, apperr.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, apperr.ErrRenderUnavailable):
		slog.Error("document renderer failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Document generation is temporarily unavailable, please try again"})

	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again"})
	}
}

// bindError reports a request validation failure. Field-level validator
// errors are summarized by field and rule; anything else (malformed
// JSON, wrong types) gets a generic message.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid value for field %s (rule: %s)", fe.Field(), fe.Tag()),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}
