// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package inventory

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tomtom215/urlsync/internal/models"
)

// NormalizeContent converts a raw content record into an inventory item:
// scheme-stripped URL, title, and the grouping category key derived from
// the sync URL type. Pure function, best-effort on malformed input.
func NormalizeContent(item models.ContentItem, t models.SyncURLType) models.InventoryItem {
	return models.InventoryItem{
		URL:         models.StripScheme(item.URL),
		Title:       item.Title,
		CategoryKey: models.CategoryKey(t.TypeSlug, categoryLabel(t)),
		SourceID:    fmt.Sprintf("content:%d", item.ID),
	}
}

// NormalizeTerm converts a raw taxonomy term into an inventory item.
func NormalizeTerm(term models.Term, t models.SyncURLType) models.InventoryItem {
	return models.InventoryItem{
		URL:         models.StripScheme(term.URL),
		Title:       term.Name,
		CategoryKey: models.CategoryKey(t.TypeSlug, categoryLabel(t)),
		SourceID:    fmt.Sprintf("term:%d", term.ID),
	}
}

// categoryLabel returns the registered human-readable label for the
// content category, falling back to a capitalized slug.
func categoryLabel(t models.SyncURLType) string {
	if t.ContentTypeLabel != "" {
		return t.ContentTypeLabel
	}
	return CapitalizeSlug(t.ContentTypeSlug)
}

// CapitalizeSlug renders a machine slug human-readable:
// "job_listing" -> "Job Listing", "post" -> "Post". The first rune is
// decoded as UTF-8 so multibyte slugs stay intact.
func CapitalizeSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + word[size:]
	}
	return strings.Join(words, " ")
}

// DedupeBySource removes items whose source identifier was already seen,
// preserving first-occurrence order. seen carries state across calls so a
// multi-locale enumeration dedups globally.
func DedupeBySource(items []models.InventoryItem, seen map[string]bool) []models.InventoryItem {
	out := items[:0]
	for _, item := range items {
		if seen[item.SourceID] {
			continue
		}
		seen[item.SourceID] = true
		out = append(out, item)
	}
	return out
}
