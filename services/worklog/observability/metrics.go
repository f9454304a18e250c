// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability defines the service's Prometheus metrics.
// Collectors register themselves on the default registry; the router
// exposes them on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "evident"

var (
	// ExportsTotal counts export attempts by requested format and outcome.
	// Status is one of: generated, denied, range_too_large, render_failed,
	// store_failed.
	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exports",
		Name:      "total",
		Help:      "Export generation attempts by format and outcome.",
	}, []string{"format", "status"})

	// ExportDuration observes end-to-end generation latency in seconds,
	// PDF printing included.
	ExportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "exports",
		Name:      "duration_seconds",
		Help:      "Export generation latency in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"format"})

	// ActiveRenders gauges in-flight PDF print operations.
	ActiveRenders = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "exports",
		Name:      "active_renders",
		Help:      "In-flight document render operations.",
	})

	// LogsCreated counts persisted log entries by source.
	LogsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "logs",
		Name:      "created_total",
		Help:      "Log entries persisted, by originating client.",
	}, []string{"source"})

	// AuthAttempts counts register and login attempts by outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Authentication attempts by operation and outcome.",
	}, []string{"operation", "status"})
)
