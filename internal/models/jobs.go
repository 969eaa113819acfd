// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// JobKind identifies the flavor of a deferred sync job.
type JobKind string

const (
	// JobKindSingleContent syncs the URL variants of one content item,
	// triggered by a content-saved hook.
	JobKindSingleContent JobKind = "single-content"

	// JobKindFull syncs the entire site inventory, triggered manually or
	// by the daily cron.
	JobKindFull JobKind = "full"
)

// TaskName returns the stable queue task name for this kind. Repeated
// triggers within the delay window upsert the same task name, so a burst
// coalesces into a single eventual execution that picks up the latest
// registered payload.
func (k JobKind) TaskName() string {
	return "sync:" + string(k)
}

// DeferredSyncJob is a sync deferred to run asynchronously after a short
// delay. Jobs are deduplicated by TaskName; the payload of the last write
// wins.
type DeferredSyncJob struct {
	TaskName    string          `json:"task_name"`
	Kind        JobKind         `json:"kind"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	ScheduledAt time.Time       `json:"scheduled_at"`
}

// SingleContentPayload is the payload of a JobKindSingleContent job.
type SingleContentPayload struct {
	ContentID int64 `json:"content_id"`
}

// NewSingleContentJob builds a single-content job due at the given time.
func NewSingleContentJob(contentID int64, due time.Time) (DeferredSyncJob, error) {
	payload, err := json.Marshal(SingleContentPayload{ContentID: contentID})
	if err != nil {
		return DeferredSyncJob{}, err
	}
	return DeferredSyncJob{
		TaskName:    JobKindSingleContent.TaskName(),
		Kind:        JobKindSingleContent,
		Payload:     payload,
		ScheduledAt: due,
	}, nil
}

// NewFullSyncJob builds a full-site job due at the given time.
func NewFullSyncJob(due time.Time) DeferredSyncJob {
	return DeferredSyncJob{
		TaskName:    JobKindFull.TaskName(),
		Kind:        JobKindFull,
		ScheduledAt: due,
	}
}
