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
	"github.com/evidenthq/evident/services/worklog/observability"
)

// AuthService is the authentication surface the handlers need.
type AuthService interface {
	Register(ctx context.Context, req datatypes.RegisterRequest) (datatypes.AuthResponse, error)
	Login(ctx context.Context, req datatypes.LoginRequest) (datatypes.AuthResponse, error)
}

func Register(svc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		resp, err := svc.Register(c.Request.Context(), req)
		if err != nil {
			observability.AuthAttempts.WithLabelValues("register", "failed").Inc()
			writeError(c, err)
			return
		}

		observability.AuthAttempts.WithLabelValues("register", "ok").Inc()
		slog.Info("account registered", "accountId", resp.User.ID)
		c.JSON(http.StatusCreated, resp)
	}
}

func Login(svc AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		resp, err := svc.Login(c.Request.Context(), req)
		if err != nil {
			observability.AuthAttempts.WithLabelValues("login", "failed").Inc()
			writeError(c, err)
			return
		}

		observability.AuthAttempts.WithLabelValues("login", "ok").Inc()
		c.JSON(http.StatusOK, resp)
	}
}
