// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/urlsync/internal/remote"
	"github.com/tomtom215/urlsync/internal/scheduler"
)

// SyncEngine runs sync passes and reports gate state.
type SyncEngine interface {
	RequestSync(ctx context.Context, force bool) (scheduler.Report, error)
	Status(ctx context.Context) (lastSync time.Time, gated bool, err error)
}

// JobQueue registers deferred sync jobs.
type JobQueue interface {
	EnqueueFull(ctx context.Context) error
	EnqueueSingleContent(ctx context.Context, contentID int64) error
}

// Handler implements the trigger and status endpoints.
type Handler struct {
	engine SyncEngine
	queue  JobQueue
	remote remote.API
}

// NewHandler creates the endpoint handler.
func NewHandler(engine SyncEngine, queue JobQueue, remoteAPI remote.API) *Handler {
	return &Handler{engine: engine, queue: queue, remote: remoteAPI}
}

// Sync handles POST /api/v1/sync. It runs a full sync synchronously; the
// rate gate answers 429 unless force=true is passed.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	report, err := h.engine.RequestSync(r.Context(), force)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, report.Message)
		return
	}

	switch report.Outcome {
	case scheduler.OutcomeRateGated:
		writeJSON(w, http.StatusTooManyRequests, APIResponse{
			Success: false,
			Data:    report,
			Error:   &APIError{Code: ErrCodeTooManyRequests, Message: report.Message},
			Meta:    &APIMeta{Timestamp: time.Now().UTC()},
		})
	case scheduler.OutcomeFailed:
		writeError(w, http.StatusBadGateway, ErrCodeServiceUnavailable, report.Message)
	default:
		writeSuccess(w, http.StatusOK, report)
	}
}

// SyncDeferred handles POST /api/v1/sync/deferred. It enqueues a
// debounced full sync and returns immediately, mirroring what the daily
// cron does.
func (h *Handler) SyncDeferred(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.EnqueueFull(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "enqueueing sync failed")
		return
	}
	writeSuccess(w, http.StatusAccepted, map[string]string{"status": "enqueued"})
}

// ContentSync handles POST /api/v1/content/{id}/sync. This is the
// content-saved hook: it enqueues a debounced single-content sync, so a
// burst of saves collapses into one upload.
func (h *Handler) ContentSync(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid content ID")
		return
	}

	if err := h.queue.EnqueueSingleContent(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "enqueueing sync failed")
		return
	}
	writeSuccess(w, http.StatusAccepted, map[string]interface{}{
		"status":     "enqueued",
		"content_id": id,
	})
}

// SyncStatus handles GET /api/v1/sync/status.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	last, gated, err := h.engine.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "reading sync state failed")
		return
	}

	data := map[string]interface{}{
		"rate_gated": gated,
	}
	if !last.IsZero() {
		data["last_sync_at"] = last.UTC()
	}
	writeSuccess(w, http.StatusOK, data)
}

// Account handles GET /api/v1/account. It proxies the tracking service's
// account-details endpoint so operators can check credential and
// activation state without digging through logs.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	details, res, err := remote.FetchAccountDetails(r.Context(), h.remote)
	if err != nil {
		writeError(w, http.StatusBadGateway, ErrCodeServiceUnavailable, "tracking service unreachable")
		return
	}
	if !res.OK() {
		writeJSON(w, http.StatusOK, APIResponse{
			Success: false,
			Data:    map[string]string{"state": res.Kind.String()},
			Error:   &APIError{Code: ErrCodeServiceUnavailable, Message: "account unavailable: " + res.Kind.String()},
			Meta:    &APIMeta{Timestamp: time.Now().UTC()},
		})
		return
	}
	writeSuccess(w, http.StatusOK, details)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
