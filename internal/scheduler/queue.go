// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/urlsync/internal/logging"
	"github.com/tomtom215/urlsync/internal/metrics"
	"github.com/tomtom215/urlsync/internal/models"
)

// SyncJobStore persists deferred sync jobs keyed by task name.
type SyncJobStore interface {
	UpsertJob(ctx context.Context, job models.DeferredSyncJob) error
	DueJobs(ctx context.Context, now time.Time) ([]models.DeferredSyncJob, error)
	DeleteJob(ctx context.Context, taskName string) error
}

// Queue registers deferred sync jobs. Jobs are keyed by task name, so a
// burst of triggers within the delay window collapses into one pending
// job carrying the last payload written.
type Queue struct {
	store SyncJobStore
	delay time.Duration
	log   zerolog.Logger
	now   func() time.Time // test seam
}

// NewQueue builds a queue with the configured debounce delay.
func NewQueue(store SyncJobStore, delay time.Duration) *Queue {
	return &Queue{
		store: store,
		delay: delay,
		log:   logging.With().Str("component", "sync-queue").Logger(),
		now:   time.Now,
	}
}

// EnqueueFull registers a deferred full-site sync.
func (q *Queue) EnqueueFull(ctx context.Context) error {
	return q.enqueue(ctx, models.NewFullSyncJob(q.now().Add(q.delay)))
}

// EnqueueSingleContent registers a deferred sync of one content item.
func (q *Queue) EnqueueSingleContent(ctx context.Context, contentID int64) error {
	job, err := models.NewSingleContentJob(contentID, q.now().Add(q.delay))
	if err != nil {
		return fmt.Errorf("build single-content job: %w", err)
	}
	return q.enqueue(ctx, job)
}

func (q *Queue) enqueue(ctx context.Context, job models.DeferredSyncJob) error {
	if err := q.store.UpsertJob(ctx, job); err != nil {
		return fmt.Errorf("enqueue %s: %w", job.TaskName, err)
	}
	metrics.JobsEnqueued.WithLabelValues(string(job.Kind)).Inc()
	q.log.Debug().Str("task", job.TaskName).Time("due", job.ScheduledAt).Msg("Sync job enqueued")
	return nil
}

// Worker polls the job store and executes due jobs. It implements
// suture.Service and runs under the daemon's supervision tree.
//
// A job is deleted once executed, successful or not; the next trigger
// re-enqueues it. Failed jobs are not retried to avoid hammering a
// broken remote on every poll tick.
type Worker struct {
	store    SyncJobStore
	engine   *Engine
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time // test seam
}

// NewWorker builds the polling worker.
func NewWorker(store SyncJobStore, engine *Engine, interval time.Duration) *Worker {
	return &Worker{
		store:    store,
		engine:   engine,
		interval: interval,
		log:      logging.With().Str("component", "sync-worker").Logger(),
		now:      time.Now,
	}
}

// Serve polls until the context ends.
func (w *Worker) Serve(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Sync worker started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Sync worker stopping")
			return ctx.Err()
		case <-ticker.C:
			w.RunDue(ctx)
		}
	}
}

// RunDue executes every job whose schedule has passed. Exposed for tests
// and for a final drain on shutdown.
func (w *Worker) RunDue(ctx context.Context) {
	jobs, err := w.store.DueJobs(ctx, w.now())
	if err != nil {
		w.log.Error().Err(err).Msg("Polling due jobs failed")
		return
	}

	for _, job := range jobs {
		result := "ok"
		if err := w.execute(ctx, job); err != nil {
			result = "failed"
			w.log.Error().Err(err).Str("task", job.TaskName).Msg("Sync job failed")
		}
		metrics.JobsExecuted.WithLabelValues(string(job.Kind), result).Inc()

		if err := w.store.DeleteJob(ctx, job.TaskName); err != nil {
			w.log.Error().Err(err).Str("task", job.TaskName).Msg("Deleting executed job failed")
		}
	}
}

func (w *Worker) execute(ctx context.Context, job models.DeferredSyncJob) error {
	switch job.Kind {
	case models.JobKindFull:
		// Deferred full syncs respect the rate gate; only explicit
		// operator requests force through it.
		report, err := w.engine.RequestSync(ctx, false)
		if err != nil {
			return err
		}
		if report.Outcome == OutcomeFailed {
			return fmt.Errorf("full sync: %s", report.Message)
		}
		return nil

	case models.JobKindSingleContent:
		var payload models.SingleContentPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		report, err := w.engine.SyncSingle(ctx, payload.ContentID)
		if err != nil {
			return err
		}
		if report.Outcome == OutcomeFailed {
			return fmt.Errorf("single-content sync: %s", report.Message)
		}
		return nil

	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}
