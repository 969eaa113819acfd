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
	"time"

	"github.com/tomtom215/urlsync/internal/models"
)

// stateKeyLastSyncAt is the rate-gate timestamp key in sync_state.
const stateKeyLastSyncAt = "last_sync_at"

// LastSyncAt returns the rate-gate timestamp, zero time when no sync ran yet.
func (db *DB) LastSyncAt(ctx context.Context) (time.Time, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM sync_state WHERE key = ?`, stateKeyLastSyncAt).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query last sync time: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last sync time %q: %w", value, err)
	}
	return t, nil
}

// SetLastSyncAt persists the rate-gate timestamp.
func (db *DB) SetLastSyncAt(ctx context.Context, t time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sync_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		stateKeyLastSyncAt, t.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set last sync time: %w", err)
	}
	return nil
}

// SyncURLTypes returns the persisted sync URL type configuration in
// insertion order.
func (db *DB) SyncURLTypes(ctx context.Context) ([]models.SyncURLType, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT type_slug, type_label, content_slug, content_label
		   FROM sync_url_types
		  ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query sync url types: %w", err)
	}
	defer rows.Close()

	var types []models.SyncURLType
	for rows.Next() {
		var t models.SyncURLType
		if err := rows.Scan(&t.TypeSlug, &t.TypeLabel, &t.ContentTypeSlug, &t.ContentTypeLabel); err != nil {
			return nil, fmt.Errorf("scan sync url type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// SaveSyncURLTypes replaces the persisted sync URL type configuration.
func (db *DB) SaveSyncURLTypes(ctx context.Context, types []models.SyncURLType) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync url types tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM sync_url_types`); err != nil {
		return fmt.Errorf("clear sync url types: %w", err)
	}
	for _, t := range types {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sync_url_types (type_slug, type_label, content_slug, content_label)
			 VALUES (?, ?, ?, ?)`,
			t.TypeSlug, t.TypeLabel, t.ContentTypeSlug, t.ContentTypeLabel); err != nil {
			return fmt.Errorf("insert sync url type %s/%s: %w", t.TypeSlug, t.ContentTypeSlug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sync url types: %w", err)
	}
	return nil
}
