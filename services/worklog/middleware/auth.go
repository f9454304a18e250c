// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the worklog service.
//
// # Authentication Flow
//
// The auth middleware extracts a bearer token from the Authorization
// header, verifies it with the configured TokenVerifier, and stores the
// owner id in the Gin context for downstream handlers.
//
//	Request
//	   │
//	   ▼
//	RequireAuth
//	   │
//	   ├─► Extract token from "Authorization: Bearer <token>"
//	   │
//	   ├─► verifier.Verify(token)
//	   │
//	   └─► Store owner id in context
//	           │
//	           ▼
//	       Handler (retrieves via OwnerID)
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// =============================================================================
// Context Keys
// =============================================================================

// ownerIDKey is the context key for the authenticated account id.
const ownerIDKey = "evident_owner_id"

// =============================================================================
// Context Helpers
// =============================================================================

// SetOwnerID stores the authenticated account id in the Gin context.
// Called by RequireAuth after successful verification.
func SetOwnerID(c *gin.Context, ownerID string) {
	c.Set(ownerIDKey, ownerID)
}

// OwnerID retrieves the authenticated account id from the Gin context.
// Returns empty string if the request was not authenticated.
func OwnerID(c *gin.Context) string {
	if v, exists := c.Get(ownerIDKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// =============================================================================
// Auth Middleware
// =============================================================================

// TokenVerifier validates a bearer token and returns the account id it
// was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireAuth creates a Gin middleware that authenticates requests.
//
// Requests without a valid bearer token are rejected with 401 before
// reaching the handler. Verification failures never leak detail to the
// client.
//
// Thread Safety: the returned middleware can be used concurrently.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		ownerID, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		SetOwnerID(c, ownerID)
		c.Next()
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

// extractBearerToken extracts the token from the Authorization header.
// Returns empty string if the header is missing or malformed. The
// "Bearer" prefix is case-insensitive per RFC 7235.
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
