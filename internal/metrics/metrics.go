// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

// Package metrics provides Prometheus instrumentation for Coursebridge:
// sync pass outcomes, remote API behavior, rate limiting, HTTP latency,
// and the snapshot cache.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync Metrics
	SyncPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_passes_total",
			Help: "Total number of reconciliation passes by operation and outcome",
		},
		[]string{"operation", "outcome"}, // operation: full|single|selective|auto, outcome: ok|partial|aborted
	)

	SyncCoursesUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_courses_upserted_total",
			Help: "Total course mirror rows written by reconciliation",
		},
		[]string{"created"}, // "true" for inserts, "false" for updates
	)

	SyncAssignmentsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_assignments_upserted_total",
			Help: "Total assignment mirror rows written by reconciliation",
		},
		[]string{"created"},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total per-entity sync failures by error kind",
		},
		[]string{"kind"}, // transient|permanent|auth|rate_limited
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_pass_duration_seconds",
			Help:    "Duration of reconciliation passes in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	// Remote API Metrics
	RemoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classroom_api_requests_total",
			Help: "Total requests to the external classroom platform",
		},
		[]string{"endpoint", "status"},
	)

	RemoteRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classroom_api_retries_total",
			Help: "Total retried classroom platform calls",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Rate Limiter Metrics
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_rate_limit_rejections_total",
			Help: "Total sync operations rejected by the per-owner rate limiter",
		},
		[]string{"operation"},
	)

	// Snapshot Cache Metrics
	SnapshotCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_cache_hits_total",
			Help: "Total submission snapshot cache hits",
		},
	)

	SnapshotCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_cache_misses_total",
			Help: "Total submission snapshot cache misses (expired or absent)",
		},
	)

	SnapshotsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshots_swept_total",
			Help: "Total expired snapshots removed by the periodic sweeper",
		},
	)

	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

// ObserveHTTPRequest records one completed HTTP request.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}
