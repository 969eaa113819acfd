// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/urlsync/internal/models"
)

// memJobStore is an in-memory SyncJobStore with upsert-by-task-name
// semantics matching the sqlite store.
type memJobStore struct {
	jobs map[string]models.DeferredSyncJob
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]models.DeferredSyncJob)}
}

func (m *memJobStore) UpsertJob(_ context.Context, job models.DeferredSyncJob) error {
	m.jobs[job.TaskName] = job
	return nil
}

func (m *memJobStore) DueJobs(_ context.Context, now time.Time) ([]models.DeferredSyncJob, error) {
	var due []models.DeferredSyncJob
	for _, job := range m.jobs {
		if !job.ScheduledAt.After(now) {
			due = append(due, job)
		}
	}
	return due, nil
}

func (m *memJobStore) DeleteJob(_ context.Context, taskName string) error {
	delete(m.jobs, taskName)
	return nil
}

func TestQueueCoalescesBursts(t *testing.T) {
	store := newMemJobStore()
	queue := NewQueue(store, 5*time.Second)

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := base
	queue.now = func() time.Time { return clock }

	for i := 0; i < 4; i++ {
		clock = base.Add(time.Duration(i) * time.Second)
		if err := queue.EnqueueSingleContent(context.Background(), int64(100+i)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	if len(store.jobs) != 1 {
		t.Fatalf("jobs = %d, want burst coalesced to 1", len(store.jobs))
	}
	job := store.jobs[models.JobKindSingleContent.TaskName()]

	var payload models.SingleContentPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.ContentID != 103 {
		t.Errorf("ContentID = %d, want last write 103", payload.ContentID)
	}
	if want := base.Add(3*time.Second + 5*time.Second); !job.ScheduledAt.Equal(want) {
		t.Errorf("ScheduledAt = %v, want %v", job.ScheduledAt, want)
	}
}

func TestQueueKindsAreIndependent(t *testing.T) {
	store := newMemJobStore()
	queue := NewQueue(store, time.Second)

	queue.EnqueueFull(context.Background())
	queue.EnqueueSingleContent(context.Background(), 7)

	if len(store.jobs) != 2 {
		t.Fatalf("jobs = %d, want full and single-content to coexist", len(store.jobs))
	}
}

func TestWorkerExecutesDueJobsOnce(t *testing.T) {
	store := newMemJobStore()
	queue := NewQueue(store, time.Second)
	uploader := &fakeUploader{}
	engine := testEngine(&fakeCollector{items: nItems(2), single: nItems(1)}, uploader, &fakeState{})
	worker := NewWorker(store, engine, time.Second)

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	queue.now = func() time.Time { return base }
	queue.EnqueueSingleContent(context.Background(), 7)

	// Before the delay elapses nothing runs.
	worker.now = func() time.Time { return base }
	worker.RunDue(context.Background())
	if len(uploader.chunkSizes) != 0 {
		t.Fatal("job ran before its schedule")
	}

	worker.now = func() time.Time { return base.Add(2 * time.Second) }
	worker.RunDue(context.Background())
	if len(uploader.chunkSizes) != 1 {
		t.Fatalf("uploads = %v, want the due job executed", uploader.chunkSizes)
	}
	if len(store.jobs) != 0 {
		t.Errorf("job not deleted after execution")
	}

	worker.RunDue(context.Background())
	if len(uploader.chunkSizes) != 1 {
		t.Errorf("job executed twice")
	}
}

func TestWorkerDeletesFailedJobs(t *testing.T) {
	store := newMemJobStore()
	store.jobs["sync:bogus"] = models.DeferredSyncJob{
		TaskName:    "sync:bogus",
		Kind:        models.JobKind("bogus"),
		ScheduledAt: time.Now().Add(-time.Minute),
	}
	engine := testEngine(&fakeCollector{}, &fakeUploader{}, &fakeState{})
	worker := NewWorker(store, engine, time.Second)

	worker.RunDue(context.Background())
	if len(store.jobs) != 0 {
		t.Error("failed job left in queue, would retry forever")
	}
}

func TestCronNextRun(t *testing.T) {
	cron := NewCron(NewQueue(newMemJobStore(), time.Second), 3)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before the hour runs today",
			now:  time.Date(2026, 8, 30, 1, 30, 0, 0, time.UTC),
			want: time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "after the hour runs tomorrow",
			now:  time.Date(2026, 8, 30, 3, 0, 1, 0, time.UTC),
			want: time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly on the hour runs tomorrow",
			now:  time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cron.now = func() time.Time { return tt.now }
			if got := cron.nextRun(); !got.Equal(tt.want) {
				t.Errorf("nextRun() = %v, want %v", got, tt.want)
			}
		})
	}
}
