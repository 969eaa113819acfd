// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/urlsync/internal/models"
)

// UpsertJob registers a deferred sync job. Jobs are keyed by task name, so
// re-registering within the delay window overwrites payload and due time:
// the burst coalesces and the last write wins.
//
// Schedules are stored as Unix nanoseconds so the due-time comparison in
// SQL is numeric. A textual timestamp column would compare
// lexicographically, and variable-width fractional seconds break that
// ordering.
func (db *DB) UpsertJob(ctx context.Context, job models.DeferredSyncJob) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sync_jobs (task_name, kind, payload, scheduled_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(task_name) DO UPDATE SET
			kind = excluded.kind,
			payload = excluded.payload,
			scheduled_at = excluded.scheduled_at`,
		job.TaskName, string(job.Kind), []byte(job.Payload), job.ScheduledAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", job.TaskName, err)
	}
	return nil
}

// DueJobs returns jobs whose scheduled time has passed, in scheduled-at
// order. Jobs stay queued until deleted by the worker after execution.
func (db *DB) DueJobs(ctx context.Context, now time.Time) ([]models.DeferredSyncJob, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT task_name, kind, payload, scheduled_at
		   FROM sync_jobs
		  WHERE scheduled_at <= ?
		  ORDER BY scheduled_at`,
		now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.DeferredSyncJob
	for rows.Next() {
		var (
			job       models.DeferredSyncJob
			kind      string
			payload   []byte
			scheduled int64
		)
		if err := rows.Scan(&job.TaskName, &kind, &payload, &scheduled); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		job.Kind = models.JobKind(kind)
		job.Payload = payload
		job.ScheduledAt = time.Unix(0, scheduled).UTC()
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// DeleteJob removes a job after execution. Deleting an already-removed
// task name is a no-op.
func (db *DB) DeleteJob(ctx context.Context, taskName string) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM sync_jobs WHERE task_name = ?`, taskName); err != nil {
		return fmt.Errorf("delete job %s: %w", taskName, err)
	}
	return nil
}
