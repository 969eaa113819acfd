// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

// Package metrics provides Prometheus instrumentation for the sync engine:
// sync pass outcomes and duration, batch upload fan-out, remote API call
// classification, circuit breaker state and the deferred-job queue.
// Metrics are exposed at /metrics in Prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync Pass Metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "urlsync_sync_duration_seconds",
			Help:    "Duration of full sync passes in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	SyncOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urlsync_sync_outcomes_total",
			Help: "Sync attempts by terminal outcome",
		},
		[]string{"outcome"}, // "completed", "rate_gated", "empty", "failed"
	)

	SyncURLCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "urlsync_sync_urls",
			Help:    "URLs uploaded per completed sync pass",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000, 10000, 50000},
		},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "urlsync_sync_last_success_timestamp",
			Help: "Unix timestamp of last completed sync",
		},
	)

	// Batch Upload Metrics
	UploadBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urlsync_upload_batches_total",
			Help: "Batch upload sub-requests by result",
		},
		[]string{"result"}, // "ok", "failed"
	)

	UploadBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "urlsync_upload_batch_size",
			Help:    "Items per batch upload sub-request",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000},
		},
	)

	UploadCommits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "urlsync_upload_commits_total",
			Help: "Commit (start-sync) calls issued",
		},
	)

	// Remote API Client Metrics
	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "urlsync_api_call_duration_seconds",
			Help:    "Duration of remote API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APICallResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urlsync_api_call_results_total",
			Help: "Remote API calls by classified result kind",
		},
		[]string{"endpoint", "kind"}, // kind: "ok", "raw", "unauthorized", ...
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "urlsync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urlsync_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urlsync_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Deferred Job Queue Metrics
	JobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urlsync_jobs_enqueued_total",
			Help: "Deferred sync jobs enqueued (upserts count once each)",
		},
		[]string{"kind"},
	)

	JobsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urlsync_jobs_executed_total",
			Help: "Deferred sync jobs executed by result",
		},
		[]string{"kind", "result"}, // "ok", "failed"
	)

	// HTTP Surface Metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urlsync_http_requests_total",
			Help: "HTTP requests handled by the trigger/status API",
		},
		[]string{"method", "path", "status"},
	)
)
