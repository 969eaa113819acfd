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

// FrontpageLabel is the human-readable category label the synthetic
// frontpage entry is grouped under.
const FrontpageLabel = "Frontpage"

// Resolver reconciles the frontpage marker in the sync URL type
// configuration with the site's actual frontpage mode, and synthesizes
// the inventory entry for sites whose frontpage lists latest posts.
//
// A site with a static frontpage has that page enumerated as ordinary
// content, so the marker must be absent; a latest-posts frontpage is
// backed by no content record and needs both the marker and a synthetic
// item per locale.
type Resolver struct {
	site     SiteReader
	store    TypeConfigStore
	switcher LocaleSwitcher // nil on monolingual installs
	log      zerolog.Logger
}

// NewResolver probes src for locale switching the same way the merger
// does.
func NewResolver(site SiteReader, store TypeConfigStore, src Source) *Resolver {
	switcher, _ := src.(LocaleSwitcher)
	return &Resolver{
		site:     site,
		store:    store,
		switcher: switcher,
		log:      logging.With().Str("component", "frontpage").Logger(),
	}
}

// Resolve returns the type list with the frontpage marker reconciled,
// plus the synthetic frontpage items (empty on static-frontpage sites).
// The configuration is persisted only when the marker actually changed,
// so repeated resolution is idempotent.
func (r *Resolver) Resolve(ctx context.Context, types []models.SyncURLType) ([]models.SyncURLType, []models.InventoryItem, error) {
	opts, err := r.site.SiteOptions(ctx)
	if err != nil {
		return nil, nil, err
	}

	updated, changed := reconcileMarker(types, opts.ShowLatestPosts)
	if changed {
		if err := r.store.SaveSyncURLTypes(ctx, updated); err != nil {
			return nil, nil, err
		}
		r.log.Info().Bool("latest_posts", opts.ShowLatestPosts).Msg("Frontpage marker updated")
	}

	if !opts.ShowLatestPosts {
		return updated, nil, nil
	}
	return updated, r.syntheticItems(ctx, opts), nil
}

// reconcileMarker adds or removes the frontpage pseudo-type, reporting
// whether the list changed.
func reconcileMarker(types []models.SyncURLType, latestPosts bool) ([]models.SyncURLType, bool) {
	idx := -1
	for i, t := range types {
		if t.IsFrontpage() {
			idx = i
			break
		}
	}

	switch {
	case latestPosts && idx < 0:
		updated := make([]models.SyncURLType, 0, len(types)+1)
		updated = append(updated, types...)
		updated = append(updated, models.SyncURLType{
			TypeSlug:         models.TypeSlugFrontpage,
			TypeLabel:        FrontpageLabel,
			ContentTypeSlug:  models.TypeSlugFrontpage,
			ContentTypeLabel: FrontpageLabel,
		})
		return updated, true
	case !latestPosts && idx >= 0:
		updated := make([]models.SyncURLType, 0, len(types)-1)
		updated = append(updated, types[:idx]...)
		updated = append(updated, types[idx+1:]...)
		return updated, true
	default:
		return types, false
	}
}

// syntheticItems builds one frontpage entry per active locale, using each
// locale's home URL and the site title. Locale enumeration failures
// degrade to the ambient locale's single entry.
func (r *Resolver) syntheticItems(ctx context.Context, opts models.SiteOptions) []models.InventoryItem {
	key := models.CategoryKey(models.TypeSlugFrontpage, FrontpageLabel)

	var locales []models.Locale
	if r.switcher != nil {
		var err error
		locales, err = r.switcher.ActiveLocales(ctx)
		if err != nil {
			r.log.Error().Err(err).Msg("Locale enumeration failed, emitting single frontpage entry")
			locales = nil
		}
	}

	if len(locales) == 0 {
		return []models.InventoryItem{{
			URL:         models.StripScheme(opts.HomeURL),
			Title:       opts.Title,
			CategoryKey: key,
			SourceID:    "frontpage:default",
		}}
	}

	items := make([]models.InventoryItem, 0, len(locales))
	for _, locale := range locales {
		items = append(items, models.InventoryItem{
			URL:         models.StripScheme(locale.HomeURL),
			Title:       opts.Title,
			CategoryKey: key,
			SourceID:    "frontpage:" + locale.Code,
		})
	}
	return items
}
