// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/urlsync/internal/models"
)

// TypeCache memoizes the sync URL type configuration for the duration of
// a sync pass. The configuration changes rarely, so re-reading it per
// category would be pure overhead; a forced refresh at the start of each
// pass keeps it current.
type TypeCache struct {
	store TypeConfigStore
	ttl   time.Duration

	mu        sync.Mutex
	types     []models.SyncURLType
	fetchedAt time.Time
}

// NewTypeCache builds a cache with the given staleness bound.
func NewTypeCache(store TypeConfigStore, ttl time.Duration) *TypeCache {
	return &TypeCache{store: store, ttl: ttl}
}

// Get returns the cached configuration, re-reading the store when forced
// or stale.
func (c *TypeCache) Get(ctx context.Context, forceRefresh bool) ([]models.SyncURLType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !forceRefresh && c.types != nil && time.Since(c.fetchedAt) < c.ttl {
		return c.types, nil
	}

	types, err := c.store.SyncURLTypes(ctx)
	if err != nil {
		return nil, err
	}
	c.types = types
	c.fetchedAt = time.Now()
	return types, nil
}

// Put replaces the cached configuration, keeping the cache coherent when
// the frontpage resolver rewrites it mid-pass.
func (c *TypeCache) Put(types []models.SyncURLType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = types
	c.fetchedAt = time.Now()
}
