// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evidenthq/evident/services/worklog/handlers"
	"github.com/evidenthq/evident/services/worklog/middleware"
)

// Deps carries everything the router needs.
type Deps struct {
	Auth     handlers.AuthService
	Verifier middleware.TokenVerifier
	Logs     handlers.LogService
	Exports  handlers.ExportService
	Accounts handlers.AccountUpdater
	Checker  handlers.EntitlementChecker

	// AuthLimiter throttles register and login. Optional; nil disables
	// throttling (tests).
	AuthLimiter *middleware.RateLimiter
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		if deps.AuthLimiter != nil {
			auth.Use(deps.AuthLimiter.Middleware())
		}
		{
			auth.POST("/register", handlers.Register(deps.Auth))
			auth.POST("/login", handlers.Login(deps.Auth))
		}

		// Billing events arrive unauthenticated; the fronting proxy
		// verifies provider signatures.
		v1.POST("/subscriptions/webhook", handlers.BillingWebhook(deps.Accounts))

		authed := v1.Group("")
		authed.Use(middleware.RequireAuth(deps.Verifier))
		{
			users := authed.Group("/users")
			{
				users.GET("/me", handlers.Me(deps.Accounts))
				users.GET("/can-export", handlers.CanExport(deps.Checker))
			}

			logs := authed.Group("/logs")
			{
				logs.POST("", handlers.CreateLog(deps.Logs))
				logs.POST("/sync", handlers.SyncLogs(deps.Logs))
				logs.GET("/today", handlers.ListToday(deps.Logs))
				logs.GET("/this-week", handlers.ListThisWeek(deps.Logs))
				logs.GET("/last-week", handlers.ListLastWeek(deps.Logs))
				logs.GET("/range", handlers.ListRange(deps.Logs))
				logs.PATCH("/:logId", handlers.UpdateLog(deps.Logs))
				logs.DELETE("/:logId", handlers.DeleteLog(deps.Logs))
			}

			exports := authed.Group("/exports")
			{
				exports.POST("/generate", handlers.GenerateExport(deps.Exports))
				exports.POST("/pdf", handlers.GenerateExportPDF(deps.Exports))
				exports.GET("/history", handlers.ExportHistory(deps.Exports))
			}

			authed.GET("/subscriptions/status", handlers.SubscriptionStatus(deps.Accounts))
		}
	}
}
