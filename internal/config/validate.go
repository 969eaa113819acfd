// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package config

import (
	"fmt"

	"github.com/tomtom215/urlsync/internal/validation"
)

// Validate checks that required configuration is present and consistent.
// Structural rules live in `validate` struct tags; cross-field rules that
// tags cannot express are checked here.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if c.Sync.Delay >= c.Sync.RateInterval {
		return fmt.Errorf("sync.delay (%s) must be shorter than sync.rate_interval (%s)", c.Sync.Delay, c.Sync.RateInterval)
	}

	// The term page must not exceed the content page; the remote sizes its
	// batch handling around the larger bound.
	if c.Sync.TermPageSize > c.Sync.ContentPageSize {
		return fmt.Errorf("sync.term_page_size (%d) must not exceed sync.content_page_size (%d)",
			c.Sync.TermPageSize, c.Sync.ContentPageSize)
	}

	return nil
}
