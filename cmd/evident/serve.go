// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/evidenthq/evident/pkg/logging"
	"github.com/evidenthq/evident/services/worklog/archive"
	"github.com/evidenthq/evident/services/worklog/auth"
	"github.com/evidenthq/evident/services/worklog/config"
	"github.com/evidenthq/evident/services/worklog/dates"
	"github.com/evidenthq/evident/services/worklog/entitlement"
	"github.com/evidenthq/evident/services/worklog/export"
	"github.com/evidenthq/evident/services/worklog/logs"
	"github.com/evidenthq/evident/services/worklog/middleware"
	"github.com/evidenthq/evident/services/worklog/render"
	"github.com/evidenthq/evident/services/worklog/routes"
	"github.com/evidenthq/evident/services/worklog/storage"
)

const serviceName = "evident-worklog"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the worklog HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: serviceName,
		JSON:    cfg.Logging.JSON,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, func(next config.Config) {
			logger.SetLevel(logging.ParseLevel(next.Logging.Level))
		}, logger.Slog())
		if err != nil {
			logger.Warn("config watcher disabled", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	if cfg.Tracing.Enabled {
		cleanup, err := initTracer(cfg.Tracing.Endpoint)
		if err != nil {
			return fmt.Errorf("setup OTLP tracer: %w", err)
		}
		defer cleanup(context.Background())
	}

	db, err := storage.Open(storage.Config{
		Path:       cfg.Database.Path,
		SyncWrites: cfg.Database.SyncWrites,
		Logger:     logger.Slog(),
		GCInterval: 5 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	clock := dates.SystemClock()
	accountStore := storage.NewAccountStore(db)
	logStore := storage.NewLogStore(db)
	exportStore := storage.NewExportStore(db)

	authSvc := auth.NewService(accountStore, []byte(cfg.Auth.JWTSecret), clock)
	logSvc := logs.NewService(logStore, clock)
	engine := entitlement.NewEngine(accountStore, accountStore)

	renderer := render.NewChromeRenderer()
	if cfg.Render.TimeoutSeconds > 0 {
		renderer.Timeout = time.Duration(cfg.Render.TimeoutSeconds) * time.Second
	}

	var archiver export.Archiver
	if cfg.Archive.Enabled {
		gcs, err := archive.NewGCSArchiver(context.Background(),
			cfg.Archive.Bucket, cfg.Archive.Prefix, cfg.Archive.CredentialsFile)
		if err != nil {
			logger.Warn("export archival disabled", "error", err)
		} else {
			defer gcs.Close()
			archiver = gcs
		}
	}

	exportSvc := export.NewService(logSvc, engine, exportStore, renderer, archiver, clock, logger.Slog())

	router := gin.Default()
	if cfg.Tracing.Enabled {
		router.Use(otelgin.Middleware(serviceName))
	}

	authLimiter := middleware.NewRateLimiter(cfg.Auth.RateLimitPerSecond, cfg.Auth.RateLimitBurst)
	defer authLimiter.Close()

	routes.SetupRoutes(router, routes.Deps{
		Auth:        authSvc,
		Verifier:    authSvc,
		Logs:        logSvc,
		Exports:     exportSvc,
		Accounts:    accountStore,
		Checker:     engine,
		AuthLimiter: authLimiter,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}
