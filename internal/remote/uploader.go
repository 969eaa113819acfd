// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package remote

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tomtom215/urlsync/internal/config"
	"github.com/tomtom215/urlsync/internal/logging"
	"github.com/tomtom215/urlsync/internal/metrics"
	"github.com/tomtom215/urlsync/internal/models"
)

// batchPayload is the wire format of one batch upload sub-request.
type batchPayload struct {
	CollectionID string                            `json:"collection_id"`
	URLs         map[string][]models.InventoryItem `json:"urls"`
}

// commitPayload is the wire format of the start-sync commit call.
type commitPayload struct {
	CollectionID      string `json:"collection_id"`
	DeleteMissingURLs bool   `json:"delete_missing_urls"`
}

// UploadResult is the best-effort aggregate of one batch upload call.
type UploadResult struct {
	Groups int // sub-requests issued (one per category group)
	Failed int // sub-requests that failed or were rejected
	Items  int // inventory items submitted
}

// AllFailed reports whether no sub-request went through.
func (r UploadResult) AllFailed() bool {
	return r.Groups > 0 && r.Failed == r.Groups
}

// Uploader performs the multi-request batch call against the tracking API.
//
// One logical Upload fans out into N concurrent sub-requests, one per
// category group, all sharing the same collection ID and auth context.
// A failed sub-request is logged and counted; it never aborts its siblings.
//
// The commit (start-sync) call is separate and issued by the caller exactly
// once per collection, after all chunks across all categories went out.
// The uploader does not buffer globally and does not enforce that ordering.
type Uploader struct {
	api           API
	limiter       *rate.Limiter
	maxConcurrent int
	log           zerolog.Logger
}

// NewUploader builds an Uploader over the given API client.
func NewUploader(api API, cfg *config.SyncConfig) *Uploader {
	maxConcurrent := cfg.MaxConcurrentUploads
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	var limiter *rate.Limiter
	if cfg.UploadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.UploadsPerSecond), 1)
	}
	return &Uploader{
		api:           api,
		limiter:       limiter,
		maxConcurrent: maxConcurrent,
		log:           logging.With().Str("component", "uploader").Logger(),
	}
}

// Upload submits one pre-chunked batch of inventory items, grouped by
// category key, as concurrent sub-requests under collectionID.
func (u *Uploader) Upload(ctx context.Context, collectionID string, items []models.InventoryItem) UploadResult {
	groups := groupByCategory(items)
	result := UploadResult{Items: len(items)}
	if len(groups) == 0 {
		return result
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(u.maxConcurrent)

	for key, group := range groups {
		g.Go(func() error {
			failed := u.uploadGroup(ctx, collectionID, key, group)

			mu.Lock()
			result.Groups++
			if failed {
				result.Failed++
			}
			mu.Unlock()

			// Sibling sub-requests always run to completion.
			return nil
		})
	}

	_ = g.Wait() // goroutines never return errors

	return result
}

// uploadGroup submits one category group and reports whether it failed.
func (u *Uploader) uploadGroup(ctx context.Context, collectionID, key string, group []models.InventoryItem) bool {
	if u.limiter != nil {
		if err := u.limiter.Wait(ctx); err != nil {
			u.log.Error().Err(err).Str("category", key).Msg("Upload canceled while rate limited")
			metrics.UploadBatches.WithLabelValues("failed").Inc()
			return true
		}
	}

	metrics.UploadBatchSize.Observe(float64(len(group)))

	payload := batchPayload{
		CollectionID: collectionID,
		URLs:         map[string][]models.InventoryItem{key: group},
	}

	res, err := u.api.Call(ctx, http.MethodPost, EndpointBatchURLs, payload)
	switch {
	case err != nil:
		u.log.Error().Err(err).Str("category", key).Int("items", len(group)).Msg("Batch upload failed")
	case !res.OK():
		u.log.Error().
			Str("category", key).
			Str("kind", res.Kind.String()).
			Int("status", res.StatusCode).
			Int("items", len(group)).
			Msg("Batch upload rejected")
	default:
		metrics.UploadBatches.WithLabelValues("ok").Inc()
		u.log.Debug().Str("category", key).Int("items", len(group)).Msg("Batch uploaded")
		return false
	}

	metrics.UploadBatches.WithLabelValues("failed").Inc()
	return true
}

// Commit issues the start-sync call consuming the collection. deleteMissing
// asks the remote to drop URLs it tracks that were absent from this sync.
func (u *Uploader) Commit(ctx context.Context, collectionID string, deleteMissing bool) (Result, error) {
	metrics.UploadCommits.Inc()
	u.log.Info().Str("collection_id", collectionID).Bool("delete_missing", deleteMissing).Msg("Committing sync collection")

	return u.api.Call(ctx, http.MethodPost, EndpointStartSync, commitPayload{
		CollectionID:      collectionID,
		DeleteMissingURLs: deleteMissing,
	})
}

// groupByCategory splits items into per-category-key groups, preserving
// item order within each group.
func groupByCategory(items []models.InventoryItem) map[string][]models.InventoryItem {
	groups := make(map[string][]models.InventoryItem)
	for _, item := range items {
		groups[item.CategoryKey] = append(groups[item.CategoryKey], item)
	}
	return groups
}
