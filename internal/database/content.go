// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/urlsync/internal/models"
)

// Site option keys read by the engine.
const (
	OptionSiteTitle       = "site_title"
	OptionHomeURL         = "home_url"
	OptionShowLatestPosts = "show_latest_posts"
)

// ContentPage returns one page of published content of the given kind in
// the current enumeration locale, ordered by ID.
func (db *DB) ContentPage(ctx context.Context, kind string, offset, limit int) ([]models.ContentItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, kind, title, url, status, locale
		   FROM content
		  WHERE kind = ? AND status = ? AND locale = ?
		  ORDER BY id
		  LIMIT ? OFFSET ?`,
		kind, models.ContentStatusPublished, db.enumerationLocale(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query content page: %w", err)
	}
	defer rows.Close()

	var items []models.ContentItem
	for rows.Next() {
		var item models.ContentItem
		if err := rows.Scan(&item.ID, &item.Kind, &item.Title, &item.URL, &item.Status, &item.Locale); err != nil {
			return nil, fmt.Errorf("scan content row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// TermPage returns one page of taxonomy terms in the current enumeration
// locale, ordered by ID.
func (db *DB) TermPage(ctx context.Context, taxonomy string, offset, limit int) ([]models.Term, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, taxonomy, name, url, locale
		   FROM terms
		  WHERE taxonomy = ? AND locale = ?
		  ORDER BY id
		  LIMIT ? OFFSET ?`,
		taxonomy, db.enumerationLocale(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query term page: %w", err)
	}
	defer rows.Close()

	var terms []models.Term
	for rows.Next() {
		var term models.Term
		if err := rows.Scan(&term.ID, &term.Taxonomy, &term.Name, &term.URL, &term.Locale); err != nil {
			return nil, fmt.Errorf("scan term row: %w", err)
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

// ContentByID fetches one content item regardless of status or locale.
// Returns nil without error when the item does not exist.
func (db *DB) ContentByID(ctx context.Context, id int64) (*models.ContentItem, error) {
	var item models.ContentItem
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, kind, title, url, status, locale FROM content WHERE id = ?`, id).
		Scan(&item.ID, &item.Kind, &item.Title, &item.URL, &item.Status, &item.Locale)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query content %d: %w", id, err)
	}
	return &item, nil
}

// ActiveLocales lists the site's active locales. A site without a
// multilingual layer reports exactly one locale with an empty code.
func (db *DB) ActiveLocales(ctx context.Context) ([]models.Locale, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT code, home_url, is_default FROM locales ORDER BY is_default DESC, code`)
	if err != nil {
		return nil, fmt.Errorf("query locales: %w", err)
	}
	defer rows.Close()

	var locales []models.Locale
	for rows.Next() {
		var loc models.Locale
		if err := rows.Scan(&loc.Code, &loc.HomeURL, &loc.Default); err != nil {
			return nil, fmt.Errorf("scan locale row: %w", err)
		}
		locales = append(locales, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(locales) == 0 {
		home, err := db.siteOption(ctx, OptionHomeURL)
		if err != nil {
			return nil, err
		}
		locales = []models.Locale{{Code: "", HomeURL: home, Default: true}}
	}
	return locales, nil
}

// SwitchLocale scopes subsequent content and term queries to the given
// locale. It returns a restore function that reinstates the previous
// locale; callers defer it so the original context is restored even when
// enumeration fails mid-way.
func (db *DB) SwitchLocale(code string) (func(), error) {
	db.localeMu.Lock()
	previous := db.currentLocale
	db.currentLocale = code
	db.localeMu.Unlock()

	return func() {
		db.localeMu.Lock()
		db.currentLocale = previous
		db.localeMu.Unlock()
	}, nil
}

// enumerationLocale returns the locale scoping content queries.
func (db *DB) enumerationLocale() string {
	db.localeMu.Lock()
	defer db.localeMu.Unlock()
	return db.currentLocale
}

// SiteOptions reads the site configuration subset the engine cares about.
func (db *DB) SiteOptions(ctx context.Context) (models.SiteOptions, error) {
	title, err := db.siteOption(ctx, OptionSiteTitle)
	if err != nil {
		return models.SiteOptions{}, err
	}
	home, err := db.siteOption(ctx, OptionHomeURL)
	if err != nil {
		return models.SiteOptions{}, err
	}
	latest, err := db.siteOption(ctx, OptionShowLatestPosts)
	if err != nil {
		return models.SiteOptions{}, err
	}
	return models.SiteOptions{
		Title:           title,
		HomeURL:         home,
		ShowLatestPosts: latest == "1" || latest == "true",
	}, nil
}

// SetSiteOption writes one site option (used by seed tooling and tests).
func (db *DB) SetSiteOption(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO site_options (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set site option %s: %w", key, err)
	}
	return nil
}

// siteOption reads one option, empty string when absent.
func (db *DB) siteOption(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM site_options WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query site option %s: %w", key, err)
	}
	return value, nil
}
