// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package models

// ContentStatusPublished is the only content status visible to the engine.
// Drafts, pending and trashed items never enter the inventory.
const ContentStatusPublished = "publish"

// ContentItem is a raw primary-content record (page, post, custom type)
// as served by the content store.
type ContentItem struct {
	ID     int64
	Kind   string // content kind slug: "page", "post", custom type slugs
	Title  string
	URL    string // absolute permalink, scheme included
	Status string
	Locale string
}

// Term is a raw taxonomy term record (category, tag, custom taxonomy).
type Term struct {
	ID       int64
	Taxonomy string
	Name     string
	URL      string // absolute archive permalink, scheme included
	Locale   string
}

// Locale describes one active site language.
type Locale struct {
	Code    string // e.g. "en", "de_DE"
	HomeURL string // absolute home URL for this locale
	Default bool
}

// SiteOptions is the subset of site configuration the engine reads.
type SiteOptions struct {
	Title   string
	HomeURL string // absolute site home URL, scheme included

	// ShowLatestPosts is true when the site root renders the blog listing
	// ("show latest posts" mode) rather than a dedicated static page. Only
	// in this mode does the synthetic frontpage inventory entry exist.
	ShowLatestPosts bool
}
