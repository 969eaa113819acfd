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

// Merger drains a category completely for every active locale, switching
// the enumeration context per locale and restoring it afterwards.
//
// On a monolingual site (no locale switcher, or one locale) it
// degenerates to a single drain in the ambient context.
type Merger struct {
	adapter  *Adapter
	switcher LocaleSwitcher // nil on monolingual installs
	log      zerolog.Logger
}

// NewMerger probes src for locale-switching support. Sources that cannot
// switch locales produce a merger that enumerates once.
func NewMerger(adapter *Adapter, src Source) *Merger {
	switcher, _ := src.(LocaleSwitcher)
	return &Merger{
		adapter:  adapter,
		switcher: switcher,
		log:      logging.With().Str("component", "locale-merger").Logger(),
	}
}

// Drain enumerates every page of the category in every active locale and
// returns the deduplicated union. seen is shared across categories so a
// source item uploaded under one category is never repeated under
// another.
func (m *Merger) Drain(ctx context.Context, t models.SyncURLType, seen map[string]bool) []models.InventoryItem {
	locales := m.activeLocales(ctx)

	var merged []models.InventoryItem
	if len(locales) == 0 {
		merged = m.drainOne(ctx, t)
	} else {
		for _, locale := range locales {
			merged = append(merged, m.drainLocale(ctx, t, locale)...)
		}
	}
	return DedupeBySource(merged, seen)
}

func (m *Merger) activeLocales(ctx context.Context) []models.Locale {
	if m.switcher == nil {
		return nil
	}
	locales, err := m.switcher.ActiveLocales(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("Locale enumeration failed, continuing in ambient locale")
		return nil
	}
	return locales
}

func (m *Merger) drainLocale(ctx context.Context, t models.SyncURLType, locale models.Locale) []models.InventoryItem {
	restore, err := m.switcher.SwitchLocale(locale.Code)
	if err != nil {
		m.log.Error().Err(err).Str("locale", locale.Code).Msg("Locale switch failed, skipping locale")
		return nil
	}
	defer restore()
	return m.drainOne(ctx, t)
}

func (m *Merger) drainOne(ctx context.Context, t models.SyncURLType) []models.InventoryItem {
	limit := m.adapter.PageSize(t)
	var all []models.InventoryItem
	offset := 0
	for {
		page, hasMore := m.adapter.Enumerate(ctx, t, offset, limit)
		all = append(all, page...)
		if !hasMore {
			return all
		}
		offset += limit
	}
}
