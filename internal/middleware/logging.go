// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/urlsync/internal/logging"
)

func logRequest(r *http.Request, status int, duration time.Duration) {
	var event *zerolog.Event
	switch {
	case status >= 500:
		event = logging.Error()
	case status >= 400:
		event = logging.Warn()
	default:
		event = logging.Info()
	}
	event.
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Dur("duration", duration).
		Str("request_id", GetRequestID(r.Context())).
		Str("remote", r.RemoteAddr).
		Msg("HTTP request")
}
