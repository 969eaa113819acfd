// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/urlsync/internal/config"
	"github.com/tomtom215/urlsync/internal/models"
	"github.com/tomtom215/urlsync/internal/remote"
)

type fakeCollector struct {
	items      []models.InventoryItem
	single     []models.InventoryItem
	collectErr error
	collects   int
}

func (f *fakeCollector) Collect(context.Context) ([]models.InventoryItem, error) {
	f.collects++
	return f.items, f.collectErr
}

func (f *fakeCollector) CollectSingle(context.Context, int64) ([]models.InventoryItem, error) {
	return f.single, nil
}

type fakeUploader struct {
	chunkSizes  []int
	chunkKeys   []string
	commits     int
	commitDel   []bool
	failUploads bool
	commitKind  remote.ResultKind
	commitErr   error
}

func (f *fakeUploader) Upload(_ context.Context, _ string, items []models.InventoryItem) remote.UploadResult {
	f.chunkSizes = append(f.chunkSizes, len(items))
	key := ""
	if len(items) > 0 {
		key = items[0].CategoryKey
	}
	f.chunkKeys = append(f.chunkKeys, key)
	res := remote.UploadResult{Groups: 1, Items: len(items)}
	if f.failUploads {
		res.Failed = 1
	}
	return res
}

func (f *fakeUploader) Commit(_ context.Context, _ string, deleteMissing bool) (remote.Result, error) {
	f.commits++
	f.commitDel = append(f.commitDel, deleteMissing)
	if f.commitErr != nil {
		return remote.Result{}, f.commitErr
	}
	return remote.Result{Kind: f.commitKind, StatusCode: 200}, nil
}

type fakeState struct {
	last    time.Time
	readErr error
}

func (f *fakeState) LastSyncAt(context.Context) (time.Time, error) {
	return f.last, f.readErr
}

func (f *fakeState) SetLastSyncAt(_ context.Context, t time.Time) error {
	f.last = t
	return nil
}

func nItems(n int) []models.InventoryItem {
	items := make([]models.InventoryItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.InventoryItem{
			URL:         fmt.Sprintf("example.com/p-%d/", i),
			CategoryKey: "types%%Posts",
			SourceID:    fmt.Sprintf("content:%d", i),
		})
	}
	return items
}

func nTermItems(n int) []models.InventoryItem {
	items := make([]models.InventoryItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.InventoryItem{
			URL:         fmt.Sprintf("example.com/category/c-%d/", i),
			CategoryKey: "taxonomies%%Categories",
			SourceID:    fmt.Sprintf("term:%d", i),
		})
	}
	return items
}

func testEngine(collector *fakeCollector, uploader *fakeUploader, state *fakeState) *Engine {
	cfg := &config.SyncConfig{
		RateInterval:    time.Hour,
		ContentPageSize: 1000,
		TermPageSize:    500,
		DeleteMissing:   true,
	}
	return NewEngine(collector, uploader, state, cfg)
}

func TestRequestSyncCompletes(t *testing.T) {
	uploader := &fakeUploader{}
	state := &fakeState{}
	engine := testEngine(&fakeCollector{items: nItems(3)}, uploader, state)

	report, err := engine.RequestSync(context.Background(), false)
	if err != nil {
		t.Fatalf("RequestSync: %v", err)
	}
	if report.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s, want completed: %s", report.Outcome, report.Message)
	}
	if report.URLCount != 3 {
		t.Errorf("URLCount = %d", report.URLCount)
	}
	if uploader.commits != 1 {
		t.Errorf("commits = %d, want 1", uploader.commits)
	}
	if state.last.IsZero() {
		t.Error("gate timestamp not stamped")
	}
}

func TestRequestSyncRateGate(t *testing.T) {
	uploader := &fakeUploader{}
	engine := testEngine(&fakeCollector{items: nItems(1)}, uploader, &fakeState{})

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := base
	engine.now = func() time.Time { return clock }

	if report, _ := engine.RequestSync(context.Background(), false); report.Outcome != OutcomeCompleted {
		t.Fatalf("first sync outcome = %s", report.Outcome)
	}

	clock = base.Add(time.Hour - time.Second)
	report, err := engine.RequestSync(context.Background(), false)
	if err != nil {
		t.Fatalf("gated sync: %v", err)
	}
	if report.Outcome != OutcomeRateGated {
		t.Fatalf("outcome inside interval = %s, want rate_gated", report.Outcome)
	}
	if !report.LastSyncAt.Equal(base) {
		t.Errorf("LastSyncAt = %v, want %v", report.LastSyncAt, base)
	}

	clock = base.Add(time.Hour)
	if report, _ := engine.RequestSync(context.Background(), false); report.Outcome != OutcomeCompleted {
		t.Fatalf("outcome at interval boundary = %s, want completed", report.Outcome)
	}
	if uploader.commits != 2 {
		t.Errorf("commits = %d, want 2", uploader.commits)
	}
}

func TestRequestSyncForceBypassesGate(t *testing.T) {
	uploader := &fakeUploader{}
	engine := testEngine(&fakeCollector{items: nItems(1)}, uploader, &fakeState{})

	engine.RequestSync(context.Background(), false)
	report, _ := engine.RequestSync(context.Background(), true)
	if report.Outcome != OutcomeCompleted {
		t.Fatalf("forced outcome = %s, want completed", report.Outcome)
	}
	if uploader.commits != 2 {
		t.Errorf("commits = %d, want 2", uploader.commits)
	}
}

func TestRequestSyncStampsGateBeforeWork(t *testing.T) {
	// A failed pass still holds the gate so a broken site cannot
	// hammer the remote on every trigger.
	state := &fakeState{}
	engine := testEngine(&fakeCollector{collectErr: errors.New("store gone")}, &fakeUploader{}, state)

	report, err := engine.RequestSync(context.Background(), false)
	if err == nil || report.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %s err = %v, want failed with error", report.Outcome, err)
	}
	if state.last.IsZero() {
		t.Error("gate not stamped before work")
	}

	report, _ = engine.RequestSync(context.Background(), false)
	if report.Outcome != OutcomeRateGated {
		t.Errorf("retry outcome = %s, want rate_gated", report.Outcome)
	}
}

func TestRequestSyncChunksUploadsSingleCommit(t *testing.T) {
	uploader := &fakeUploader{}
	engine := testEngine(&fakeCollector{items: nItems(2500)}, uploader, &fakeState{})

	report, err := engine.RequestSync(context.Background(), false)
	if err != nil || report.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s err = %v", report.Outcome, err)
	}

	want := []int{1000, 1000, 500}
	if len(uploader.chunkSizes) != len(want) {
		t.Fatalf("upload calls = %v, want %v", uploader.chunkSizes, want)
	}
	for i, size := range want {
		if uploader.chunkSizes[i] != size {
			t.Errorf("chunk %d = %d, want %d", i, uploader.chunkSizes[i], size)
		}
	}
	if uploader.commits != 1 {
		t.Errorf("commits = %d, want exactly 1 after all chunks", uploader.commits)
	}
	if len(uploader.commitDel) != 1 || !uploader.commitDel[0] {
		t.Errorf("commit deleteMissing = %v, want [true]", uploader.commitDel)
	}
}

func TestRequestSyncCapsTaxonomyBatches(t *testing.T) {
	// Term groups are bounded by the term page size even when the
	// content page size would allow larger chunks.
	uploader := &fakeUploader{}
	engine := testEngine(&fakeCollector{items: nTermItems(1200)}, uploader, &fakeState{})

	report, err := engine.RequestSync(context.Background(), false)
	if err != nil || report.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s err = %v", report.Outcome, err)
	}

	want := []int{500, 500, 200}
	if len(uploader.chunkSizes) != len(want) {
		t.Fatalf("upload calls = %v, want %v", uploader.chunkSizes, want)
	}
	for i, size := range want {
		if uploader.chunkSizes[i] != size {
			t.Errorf("chunk %d = %d, want %d", i, uploader.chunkSizes[i], size)
		}
	}
	if uploader.commits != 1 {
		t.Errorf("commits = %d, want exactly 1", uploader.commits)
	}
}

func TestRequestSyncChunksPerCategory(t *testing.T) {
	uploader := &fakeUploader{}
	mixed := append(nItems(1500), nTermItems(700)...)
	engine := testEngine(&fakeCollector{items: mixed}, uploader, &fakeState{})

	report, err := engine.RequestSync(context.Background(), false)
	if err != nil || report.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s err = %v", report.Outcome, err)
	}

	want := []int{1000, 500, 500, 200}
	if len(uploader.chunkSizes) != len(want) {
		t.Fatalf("upload calls = %v, want %v", uploader.chunkSizes, want)
	}
	for i, size := range uploader.chunkSizes {
		if size != want[i] {
			t.Errorf("chunk %d = %d, want %d", i, size, want[i])
		}
		if models.CategoryTypeSlug(uploader.chunkKeys[i]) == models.TypeSlugTaxonomy && size > 500 {
			t.Errorf("taxonomy chunk %d carried %d terms, exceeding the term batch bound", i, size)
		}
	}
	if uploader.commits != 1 {
		t.Errorf("commits = %d, want exactly 1 across categories", uploader.commits)
	}
}

func TestRequestSyncEmptyInventorySkipsRemote(t *testing.T) {
	uploader := &fakeUploader{}
	engine := testEngine(&fakeCollector{}, uploader, &fakeState{})

	report, err := engine.RequestSync(context.Background(), false)
	if err != nil {
		t.Fatalf("RequestSync: %v", err)
	}
	if report.Outcome != OutcomeEmpty {
		t.Fatalf("outcome = %s, want empty", report.Outcome)
	}
	if len(uploader.chunkSizes) != 0 || uploader.commits != 0 {
		t.Errorf("remote touched on empty inventory: uploads=%v commits=%d", uploader.chunkSizes, uploader.commits)
	}
}

func TestRequestSyncAllChunksFailedSkipsCommit(t *testing.T) {
	uploader := &fakeUploader{failUploads: true}
	engine := testEngine(&fakeCollector{items: nItems(10)}, uploader, &fakeState{})

	report, err := engine.RequestSync(context.Background(), false)
	if err != nil {
		t.Fatalf("RequestSync: %v", err)
	}
	if report.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", report.Outcome)
	}
	if uploader.commits != 0 {
		t.Errorf("commits = %d, want none when nothing uploaded", uploader.commits)
	}
}

func TestRequestSyncCommitRejection(t *testing.T) {
	uploader := &fakeUploader{commitKind: remote.KindUnauthorized}
	engine := testEngine(&fakeCollector{items: nItems(1)}, uploader, &fakeState{})

	report, err := engine.RequestSync(context.Background(), false)
	if err != nil {
		t.Fatalf("rejected commit must not be a transport error: %v", err)
	}
	if report.Outcome != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", report.Outcome)
	}
}

func TestSyncSingleBypassesGateAndKeepsMissing(t *testing.T) {
	uploader := &fakeUploader{}
	engine := testEngine(&fakeCollector{
		items:  nItems(5),
		single: nItems(1),
	}, uploader, &fakeState{})

	engine.RequestSync(context.Background(), false)

	report, err := engine.SyncSingle(context.Background(), 42)
	if err != nil || report.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s err = %v", report.Outcome, err)
	}
	if uploader.commits != 2 {
		t.Fatalf("commits = %d, want single sync to run right after full sync", uploader.commits)
	}
	if uploader.commitDel[1] {
		t.Error("single-content commit must not delete missing URLs")
	}
}

func TestSyncSingleNothingToSync(t *testing.T) {
	uploader := &fakeUploader{}
	engine := testEngine(&fakeCollector{}, uploader, &fakeState{})

	report, err := engine.SyncSingle(context.Background(), 42)
	if err != nil {
		t.Fatalf("SyncSingle: %v", err)
	}
	if report.Outcome != OutcomeEmpty {
		t.Errorf("outcome = %s, want empty", report.Outcome)
	}
	if len(uploader.chunkSizes) != 0 {
		t.Errorf("remote touched for unsyncable content")
	}
}

func TestStatus(t *testing.T) {
	state := &fakeState{}
	engine := testEngine(&fakeCollector{items: nItems(1)}, &fakeUploader{}, state)

	last, gated, err := engine.Status(context.Background())
	if err != nil || !last.IsZero() || gated {
		t.Fatalf("fresh status = %v/%v/%v, want zero/false/nil", last, gated, err)
	}

	engine.RequestSync(context.Background(), false)
	last, gated, err = engine.Status(context.Background())
	if err != nil || last.IsZero() || !gated {
		t.Fatalf("post-sync status = %v/%v/%v, want stamped/true/nil", last, gated, err)
	}
}
