// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

// Package scheduler owns sync orchestration: the rate-gated sync engine,
// the deferred-job queue, the polling worker and the daily cron.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/urlsync/internal/config"
	"github.com/tomtom215/urlsync/internal/logging"
	"github.com/tomtom215/urlsync/internal/metrics"
	"github.com/tomtom215/urlsync/internal/models"
	"github.com/tomtom215/urlsync/internal/remote"
)

// Collector produces the normalized inventory for a sync pass.
type Collector interface {
	Collect(ctx context.Context) ([]models.InventoryItem, error)
	CollectSingle(ctx context.Context, contentID int64) ([]models.InventoryItem, error)
}

// Uploader ships inventory batches to the tracking service.
type Uploader interface {
	Upload(ctx context.Context, collectionID string, items []models.InventoryItem) remote.UploadResult
	Commit(ctx context.Context, collectionID string, deleteMissing bool) (remote.Result, error)
}

// StateStore persists the rate-gate timestamp.
type StateStore interface {
	LastSyncAt(ctx context.Context) (time.Time, error)
	SetLastSyncAt(ctx context.Context, t time.Time) error
}

// Outcome is the terminal classification of a sync request.
type Outcome string

const (
	// OutcomeCompleted means inventory was uploaded and committed.
	OutcomeCompleted Outcome = "completed"

	// OutcomeRateGated means the request arrived inside the rate
	// interval and no work was done.
	OutcomeRateGated Outcome = "rate_gated"

	// OutcomeEmpty means the pass ran but produced no inventory, so no
	// upload or commit was issued.
	OutcomeEmpty Outcome = "empty"

	// OutcomeFailed means the pass ran but uploading or committing failed.
	OutcomeFailed Outcome = "failed"
)

// Report describes the result of one sync request.
type Report struct {
	Outcome    Outcome   `json:"outcome"`
	Message    string    `json:"message"`
	URLCount   int       `json:"url_count"`
	LastSyncAt time.Time `json:"last_sync_at,omitempty"`
}

// Engine runs sync passes: collect, chunk, upload, commit.
//
// A pass is admitted at most once per rate interval unless forced. The
// gate timestamp is written before any work starts, so a crashed or slow
// pass still holds the gate and concurrent triggers cannot stampede the
// remote service. A process-local mutex serializes passes within one
// daemon.
type Engine struct {
	collector Collector
	uploader  Uploader
	state     StateStore
	cfg       *config.SyncConfig
	log       zerolog.Logger

	mu  sync.Mutex
	now func() time.Time // test seam
}

// NewEngine builds the sync engine.
func NewEngine(collector Collector, uploader Uploader, state StateStore, cfg *config.SyncConfig) *Engine {
	return &Engine{
		collector: collector,
		uploader:  uploader,
		state:     state,
		cfg:       cfg,
		log:       logging.With().Str("component", "sync-engine").Logger(),
		now:       time.Now,
	}
}

// RequestSync runs a full-site sync pass unless the rate gate holds.
// force bypasses the gate but still stamps it.
func (e *Engine) RequestSync(ctx context.Context, force bool) (Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.now()

	last, err := e.state.LastSyncAt(ctx)
	if err != nil {
		return Report{Outcome: OutcomeFailed, Message: "reading sync state failed"}, err
	}
	if !force && !last.IsZero() && start.Sub(last) < e.cfg.RateInterval {
		metrics.SyncOutcomes.WithLabelValues(string(OutcomeRateGated)).Inc()
		e.log.Info().Time("last_sync", last).Msg("Sync request rate-gated")
		return Report{
			Outcome:    OutcomeRateGated,
			Message:    fmt.Sprintf("sync already ran at %s", last.Format(time.RFC1123)),
			LastSyncAt: last,
		}, nil
	}

	// Stamp the gate before doing any work so a concurrent or crashed
	// pass cannot trigger a second burst against the remote.
	if err := e.state.SetLastSyncAt(ctx, start); err != nil {
		return Report{Outcome: OutcomeFailed, Message: "writing sync state failed"}, err
	}

	report, err := e.runPass(ctx, start)
	metrics.SyncDuration.Observe(e.now().Sub(start).Seconds())
	metrics.SyncOutcomes.WithLabelValues(string(report.Outcome)).Inc()
	return report, err
}

func (e *Engine) runPass(ctx context.Context, start time.Time) (Report, error) {
	collectionID := uuid.NewString()
	log := e.log.With().Str("collection_id", collectionID).Logger()

	items, err := e.collector.Collect(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Inventory collection failed")
		return Report{Outcome: OutcomeFailed, Message: "inventory collection failed"}, err
	}
	if len(items) == 0 {
		log.Warn().Msg("Inventory empty, skipping upload and commit")
		return Report{Outcome: OutcomeEmpty, Message: "no URLs to sync", LastSyncAt: start}, nil
	}

	// Chunk per category so taxonomy groups stay within the smaller term
	// batch bound; flattening first would let a term group grow to the
	// content page size.
	var failedChunks, chunks int
	for _, group := range groupedByCategory(items) {
		for chunk := range chunked(group, e.batchCap(group[0].CategoryKey)) {
			chunks++
			if res := e.uploader.Upload(ctx, collectionID, chunk); res.AllFailed() {
				failedChunks++
			}
		}
	}
	if failedChunks == chunks {
		log.Error().Int("chunks", chunks).Msg("Every upload chunk failed, skipping commit")
		return Report{Outcome: OutcomeFailed, Message: "all upload batches failed", LastSyncAt: start}, nil
	}

	commit, err := e.uploader.Commit(ctx, collectionID, e.cfg.DeleteMissing)
	if err != nil {
		log.Error().Err(err).Msg("Commit failed")
		return Report{Outcome: OutcomeFailed, Message: "commit request failed", LastSyncAt: start}, err
	}
	if !commit.OK() {
		log.Error().Str("kind", commit.Kind.String()).Int("status", commit.StatusCode).Msg("Commit rejected")
		return Report{
			Outcome:    OutcomeFailed,
			Message:    fmt.Sprintf("commit rejected: %s", commit.Kind),
			LastSyncAt: start,
		}, nil
	}

	metrics.SyncURLCount.Observe(float64(len(items)))
	metrics.SyncLastSuccess.SetToCurrentTime()
	log.Info().Int("urls", len(items)).Int("chunks", chunks).Msg("Sync pass completed")
	return Report{
		Outcome:    OutcomeCompleted,
		Message:    fmt.Sprintf("sync completed at %s", start.Format(time.RFC1123)),
		URLCount:   len(items),
		LastSyncAt: start,
	}, nil
}

// SyncSingle syncs one content item without touching the rate gate: a
// content-saved hook must propagate promptly even right after a full
// pass. The commit never deletes missing URLs since the pass carries only
// a fragment of the inventory.
func (e *Engine) SyncSingle(ctx context.Context, contentID int64) (Report, error) {
	items, err := e.collector.CollectSingle(ctx, contentID)
	if err != nil {
		return Report{Outcome: OutcomeFailed, Message: "loading content failed"}, err
	}
	if len(items) == 0 {
		return Report{Outcome: OutcomeEmpty, Message: fmt.Sprintf("content %d has nothing to sync", contentID)}, nil
	}

	collectionID := uuid.NewString()
	res := e.uploader.Upload(ctx, collectionID, items)
	if res.AllFailed() {
		return Report{Outcome: OutcomeFailed, Message: "upload failed"}, nil
	}
	commit, err := e.uploader.Commit(ctx, collectionID, false)
	if err != nil {
		return Report{Outcome: OutcomeFailed, Message: "commit request failed"}, err
	}
	if !commit.OK() {
		return Report{Outcome: OutcomeFailed, Message: fmt.Sprintf("commit rejected: %s", commit.Kind)}, nil
	}

	e.log.Info().Int64("content_id", contentID).Msg("Single-content sync completed")
	return Report{Outcome: OutcomeCompleted, Message: "content synced", URLCount: len(items)}, nil
}

// Status reports the last sync timestamp and whether the gate currently
// holds.
func (e *Engine) Status(ctx context.Context) (time.Time, bool, error) {
	last, err := e.state.LastSyncAt(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	gated := !last.IsZero() && e.now().Sub(last) < e.cfg.RateInterval
	return last, gated, nil
}

// batchCap returns the upload chunk bound for a category: taxonomy term
// groups are capped at the term page size, everything else at the
// content page size.
func (e *Engine) batchCap(categoryKey string) int {
	if models.CategoryTypeSlug(categoryKey) == models.TypeSlugTaxonomy {
		return e.cfg.TermPageSize
	}
	return e.cfg.ContentPageSize
}

// groupedByCategory splits items into per-category-key groups,
// preserving first-appearance order across groups and item order within
// each group.
func groupedByCategory(items []models.InventoryItem) [][]models.InventoryItem {
	index := make(map[string]int)
	var groups [][]models.InventoryItem
	for _, item := range items {
		i, ok := index[item.CategoryKey]
		if !ok {
			i = len(groups)
			index[item.CategoryKey] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], item)
	}
	return groups
}

// chunked yields items in slices of at most size elements.
func chunked(items []models.InventoryItem, size int) func(func([]models.InventoryItem) bool) {
	return func(yield func([]models.InventoryItem) bool) {
		if size <= 0 {
			size = len(items)
		}
		for start := 0; start < len(items); start += size {
			end := start + size
			if end > len(items) {
				end = len(items)
			}
			if !yield(items[start:end]) {
				return
			}
		}
	}
}
