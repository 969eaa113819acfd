// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

// Package database provides the SQLite-backed local state of the sync
// engine: the CMS content mirror the adapter enumerates, the persisted
// sync URL type configuration, the rate-gate timestamp, and the deferred
// sync job queue.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // sqlite driver (pure Go)

	"github.com/tomtom215/urlsync/internal/config"
	"github.com/tomtom215/urlsync/internal/logging"
)

// DB wraps the SQLite connection and provides data access methods.
//
// One DB value implements all store interfaces the engine consumes:
// inventory.Source, inventory.LocaleSwitcher, inventory.TypeConfigStore,
// scheduler.StateStore and scheduler.SyncJobStore.
type DB struct {
	conn *sql.DB

	// localeMu guards the current enumeration locale, which scopes
	// content and term queries while the locale merger iterates.
	localeMu      sync.Mutex
	currentLocale string
}

// New opens (creating if necessary) the database at cfg.Path and applies
// the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	if dbDir := filepath.Dir(cfg.Path); dbDir != "" && dbDir != "." && cfg.Path != ":memory:" {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", cfg.Path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn between the worker and the HTTP surface.
	conn.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	logging.Info().Str("path", cfg.Path).Msg("Database ready")
	return db, nil
}

// migrate applies the schema. Statements are idempotent.
func (db *DB) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS content (
			id INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'publish',
			locale TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_content_kind_status ON content(kind, status, locale)`,
		`CREATE TABLE IF NOT EXISTS terms (
			id INTEGER PRIMARY KEY,
			taxonomy TEXT NOT NULL,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			locale TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_terms_taxonomy ON terms(taxonomy, locale)`,
		`CREATE TABLE IF NOT EXISTS locales (
			code TEXT PRIMARY KEY,
			home_url TEXT NOT NULL,
			is_default INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS site_options (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sync_url_types (
			position INTEGER PRIMARY KEY AUTOINCREMENT,
			type_slug TEXT NOT NULL,
			type_label TEXT NOT NULL,
			content_slug TEXT NOT NULL,
			content_label TEXT NOT NULL,
			UNIQUE(type_slug, content_slug)
		)`,
		`CREATE TABLE IF NOT EXISTS sync_jobs (
			task_name TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			payload BLOB,
			scheduled_at INTEGER NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Conn exposes the underlying connection for tests and seed tooling.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
