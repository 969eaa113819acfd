// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package inventory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/urlsync/internal/config"
	"github.com/tomtom215/urlsync/internal/logging"
	"github.com/tomtom215/urlsync/internal/models"
)

// EnumerateFunc is one page of normalized enumeration: items plus whether
// another page may follow. The locale merger drives it per locale.
type EnumerateFunc func(ctx context.Context, t models.SyncURLType, offset, limit int) ([]models.InventoryItem, bool)

// Adapter enumerates raw CMS content in bounded pages and normalizes it.
//
// Enumeration is a pure read; a store error ends enumeration for that
// category with whatever was collected so far and a logged diagnostic.
// Errors never propagate upward, so one broken category cannot abort a
// sync pass.
type Adapter struct {
	src             Source
	contentPageSize int
	termPageSize    int
	log             zerolog.Logger
}

// NewAdapter builds an Adapter with the configured page bounds.
func NewAdapter(src Source, cfg *config.SyncConfig) *Adapter {
	contentPageSize := cfg.ContentPageSize
	if contentPageSize <= 0 {
		contentPageSize = 1000
	}
	termPageSize := cfg.TermPageSize
	if termPageSize <= 0 {
		termPageSize = 500
	}
	return &Adapter{
		src:             src,
		contentPageSize: contentPageSize,
		termPageSize:    termPageSize,
		log:             logging.With().Str("component", "adapter").Logger(),
	}
}

// PageSize returns the enumeration page bound for a category: taxonomy
// terms page smaller than primary content.
func (a *Adapter) PageSize(t models.SyncURLType) int {
	if t.IsTaxonomy() {
		return a.termPageSize
	}
	return a.contentPageSize
}

// Enumerate returns one normalized page of the category starting at
// offset. hasMore is true when the caller should ask for the next page.
func (a *Adapter) Enumerate(ctx context.Context, t models.SyncURLType, offset, limit int) ([]models.InventoryItem, bool) {
	if t.IsFrontpage() {
		// The synthetic frontpage entry is produced by the resolver,
		// never enumerated.
		return nil, false
	}

	if t.IsTaxonomy() {
		terms, err := a.src.TermPage(ctx, t.ContentTypeSlug, offset, limit)
		if err != nil {
			a.log.Error().Err(err).Str("taxonomy", t.ContentTypeSlug).Int("offset", offset).Msg("Term enumeration failed")
			return nil, false
		}
		items := make([]models.InventoryItem, 0, len(terms))
		for _, term := range terms {
			items = append(items, NormalizeTerm(term, t))
		}
		return items, len(terms) == limit
	}

	raw, err := a.src.ContentPage(ctx, t.ContentTypeSlug, offset, limit)
	if err != nil {
		a.log.Error().Err(err).Str("kind", t.ContentTypeSlug).Int("offset", offset).Msg("Content enumeration failed")
		return nil, false
	}
	items := make([]models.InventoryItem, 0, len(raw))
	for _, item := range raw {
		items = append(items, NormalizeContent(item, t))
	}
	return items, len(raw) == limit
}
