// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

// Package models defines the shared data model for the inventory
// synchronization engine: inventory items, sync URL type configuration,
// deferred sync jobs, and the raw content records the engine enumerates.
package models

import "strings"

// Type slugs for sync URL type configuration.
//
// TypeSlugContent covers primary content (pages, posts, custom types),
// TypeSlugTaxonomy covers taxonomy term archives, and TypeSlugFrontpage
// marks the synthetic site-root entry injected when the site shows latest
// posts instead of a static front page.
const (
	TypeSlugContent   = "types"
	TypeSlugTaxonomy  = "taxonomies"
	TypeSlugFrontpage = "frontpage"
)

// CategoryKeySeparator joins the type slug and the human-readable label
// inside a category key. The key carries no identity semantics; it is used
// purely for grouping items on upload.
const CategoryKeySeparator = "%%"

// CategoryKey builds the composite grouping key for an upload payload,
// e.g. CategoryKey("types", "Posts") == "types%%Posts".
func CategoryKey(typeSlug, label string) string {
	return typeSlug + CategoryKeySeparator + label
}

// CategoryTypeSlug returns the type-slug half of a category key:
// CategoryTypeSlug("taxonomies%%Categories") == "taxonomies".
func CategoryTypeSlug(key string) string {
	slug, _, _ := strings.Cut(key, CategoryKeySeparator)
	return slug
}

// InventoryItem is one URL record in a sync pass.
//
// URL is scheme-stripped ("example.com/page", never "https://example.com/page").
// SourceID identifies the originating content record ("content:42", "term:7")
// and is used only for deduplication; it never leaves the process.
type InventoryItem struct {
	URL         string `json:"url"`
	Title       string `json:"html_title"`
	CategoryKey string `json:"-"`
	SourceID    string `json:"-"`
}

// SyncURLType declares one CMS content category eligible for sync.
//
// The list of sync URL types is owned by the website configuration and is
// read-only input to the engine, with one exception: the frontpage resolver
// adds or removes the synthetic frontpage entry.
type SyncURLType struct {
	TypeSlug         string `json:"type_slug"`
	TypeLabel        string `json:"type_label"`
	ContentTypeSlug  string `json:"content_slug"`
	ContentTypeLabel string `json:"content_label"`
}

// IsFrontpage reports whether this entry is the synthetic frontpage marker.
func (t SyncURLType) IsFrontpage() bool {
	return t.TypeSlug == TypeSlugFrontpage
}

// IsTaxonomy reports whether this entry enumerates taxonomy terms.
func (t SyncURLType) IsTaxonomy() bool {
	return t.TypeSlug == TypeSlugTaxonomy
}

// StripScheme removes a leading http:// or https:// from a URL.
// All inventory URLs are stored and uploaded scheme-stripped.
func StripScheme(rawURL string) string {
	if rest, ok := strings.CutPrefix(rawURL, "https://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(rawURL, "http://"); ok {
		return rest
	}
	return rawURL
}
