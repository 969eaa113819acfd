// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package inventory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/urlsync/internal/logging"
	"github.com/tomtom215/urlsync/internal/models"
)

// Collector is the inventory pipeline front door: type configuration,
// frontpage resolution, per-locale enumeration and global deduplication,
// composed into one pass.
type Collector struct {
	src      Source
	cache    *TypeCache
	resolver *Resolver
	merger   *Merger
	log      zerolog.Logger
}

// NewCollector wires the pipeline pieces together.
func NewCollector(src Source, cache *TypeCache, resolver *Resolver, merger *Merger) *Collector {
	return &Collector{
		src:      src,
		cache:    cache,
		resolver: resolver,
		merger:   merger,
		log:      logging.With().Str("component", "collector").Logger(),
	}
}

// Collect enumerates the full site inventory: every configured category
// in every active locale, deduplicated by source, plus the synthetic
// frontpage entries when the site shows latest posts. The type
// configuration is force-refreshed so a pass never runs on stale config.
func (c *Collector) Collect(ctx context.Context) ([]models.InventoryItem, error) {
	types, err := c.cache.Get(ctx, true)
	if err != nil {
		return nil, err
	}
	types, synthetic, err := c.resolver.Resolve(ctx, types)
	if err != nil {
		return nil, err
	}
	c.cache.Put(types)

	seen := make(map[string]bool)
	var all []models.InventoryItem
	for _, t := range types {
		if t.IsFrontpage() {
			continue
		}
		drained := c.merger.Drain(ctx, t, seen)
		c.log.Debug().
			Str("category", models.CategoryKey(t.TypeSlug, t.ContentTypeSlug)).
			Int("items", len(drained)).
			Msg("Category drained")
		all = append(all, drained...)
	}
	return append(all, DedupeBySource(synthetic, seen)...), nil
}

// CollectSingle builds the inventory entry for one content item, or nil
// when the item is absent, unpublished, or its kind is not a configured
// sync URL type.
func (c *Collector) CollectSingle(ctx context.Context, contentID int64) ([]models.InventoryItem, error) {
	item, err := c.src.ContentByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Status != models.ContentStatusPublished {
		return nil, nil
	}

	types, err := c.cache.Get(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		if t.TypeSlug == models.TypeSlugContent && t.ContentTypeSlug == item.Kind {
			return []models.InventoryItem{NormalizeContent(*item, t)}, nil
		}
	}
	c.log.Debug().Int64("content_id", contentID).Str("kind", item.Kind).Msg("Content kind not configured for sync")
	return nil, nil
}
