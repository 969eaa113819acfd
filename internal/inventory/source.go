// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

// Package inventory turns CMS content into the normalized URL inventory
// the tracking service consumes: paginated enumeration, URL normalization,
// per-locale merging and the synthetic frontpage entry.
package inventory

import (
	"context"

	"github.com/tomtom215/urlsync/internal/models"
)

// Source is the read side of the CMS content store.
//
// Implemented by database.DB in production and by fakes in tests.
type Source interface {
	// ContentPage returns one page of published content of a kind,
	// ordered stably, scoped to the currently active locale.
	ContentPage(ctx context.Context, kind string, offset, limit int) ([]models.ContentItem, error)

	// TermPage returns one page of taxonomy terms, ordered stably,
	// scoped to the currently active locale.
	TermPage(ctx context.Context, taxonomy string, offset, limit int) ([]models.Term, error)

	// ContentByID fetches a single content item, nil when absent.
	ContentByID(ctx context.Context, id int64) (*models.ContentItem, error)
}

// LocaleSwitcher is the optional multilingual capability of a Source.
// The locale merger probes for it with a type assertion; a Source without
// it is enumerated once with no locale switching.
type LocaleSwitcher interface {
	// ActiveLocales lists the site's active locales. Sites without a
	// multilingual layer report exactly one locale.
	ActiveLocales(ctx context.Context) ([]models.Locale, error)

	// SwitchLocale scopes subsequent Source reads to the locale and
	// returns a restore function. Callers must defer the restore so the
	// previous locale context survives errors mid-enumeration.
	SwitchLocale(code string) (func(), error)
}

// SiteReader exposes the site configuration subset the engine reads.
type SiteReader interface {
	SiteOptions(ctx context.Context) (models.SiteOptions, error)
}

// TypeConfigStore persists the per-website sync URL type configuration.
// The engine treats it as read-only input except for the frontpage marker
// maintained by the resolver.
type TypeConfigStore interface {
	SyncURLTypes(ctx context.Context) ([]models.SyncURLType, error)
	SaveSyncURLTypes(ctx context.Context, types []models.SyncURLType) error
}
