// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/urlsync/internal/metrics"
)

// PrometheusMetrics records per-request counters with method, route
// pattern and status labels.
func PrometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapper := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		metrics.HTTPRequests.WithLabelValues(
			r.Method,
			r.URL.Path,
			strconv.Itoa(wrapper.statusCode),
		).Inc()
	})
}

// statusResponseWriter wraps http.ResponseWriter to capture the status
// code. Status is recorded once by the first WriteHeader, matching
// net/http semantics.
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
	wrote      bool
}

func (rw *statusResponseWriter) WriteHeader(code int) {
	if !rw.wrote {
		rw.statusCode = code
		rw.wrote = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// RequestLogging emits one structured log line per request with method,
// path, status, duration and the request ID.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		logRequest(r, wrapper.statusCode, time.Since(start))
	})
}
