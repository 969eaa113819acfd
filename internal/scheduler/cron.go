// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/urlsync/internal/logging"
)

// Cron enqueues one full-site sync per day at the configured local hour.
// It implements suture.Service. The sync itself still passes through the
// rate gate, so a manual sync shortly before the scheduled hour simply
// makes the cron pass a no-op.
type Cron struct {
	queue *Queue
	hour  int
	log   zerolog.Logger
	now   func() time.Time // test seam
}

// NewCron builds the daily scheduler. A negative hour disables it.
func NewCron(queue *Queue, hour int) *Cron {
	return &Cron{
		queue: queue,
		hour:  hour,
		log:   logging.With().Str("component", "sync-cron").Logger(),
		now:   time.Now,
	}
}

// Serve sleeps until the next scheduled hour, enqueues a full sync, and
// repeats until the context ends.
func (c *Cron) Serve(ctx context.Context) error {
	if c.hour < 0 {
		c.log.Info().Msg("Daily sync disabled")
		return suture.ErrDoNotRestart
	}

	for {
		next := c.nextRun()
		c.log.Info().Time("next", next).Msg("Daily sync scheduled")

		timer := time.NewTimer(next.Sub(c.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := c.queue.EnqueueFull(ctx); err != nil {
			c.log.Error().Err(err).Msg("Enqueueing daily sync failed")
		}
	}
}

// nextRun returns the next occurrence of the configured hour, strictly in
// the future.
func (c *Cron) nextRun() time.Time {
	now := c.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), c.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
