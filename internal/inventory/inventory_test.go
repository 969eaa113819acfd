// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/urlsync/internal/config"
	"github.com/tomtom215/urlsync/internal/models"
)

// fakeSource is an in-memory Source without locale switching.
type fakeSource struct {
	content map[string][]models.ContentItem // by kind
	terms   map[string][]models.Term        // by taxonomy

	contentErr error
	termErr    error
}

func (f *fakeSource) ContentPage(_ context.Context, kind string, offset, limit int) ([]models.ContentItem, error) {
	if f.contentErr != nil {
		return nil, f.contentErr
	}
	return pageOf(f.content[kind], offset, limit), nil
}

func (f *fakeSource) TermPage(_ context.Context, taxonomy string, offset, limit int) ([]models.Term, error) {
	if f.termErr != nil {
		return nil, f.termErr
	}
	return pageOf(f.terms[taxonomy], offset, limit), nil
}

func (f *fakeSource) ContentByID(_ context.Context, id int64) (*models.ContentItem, error) {
	for _, items := range f.content {
		for _, item := range items {
			if item.ID == id {
				return &item, nil
			}
		}
	}
	return nil, nil
}

func pageOf[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// localeSource layers locale switching over per-locale sources.
type localeSource struct {
	locales []models.Locale
	byCode  map[string]*fakeSource
	current string

	switchErr  error
	localesErr error
	restored   []string
}

func (l *localeSource) active() *fakeSource { return l.byCode[l.current] }

func (l *localeSource) ContentPage(ctx context.Context, kind string, offset, limit int) ([]models.ContentItem, error) {
	return l.active().ContentPage(ctx, kind, offset, limit)
}

func (l *localeSource) TermPage(ctx context.Context, taxonomy string, offset, limit int) ([]models.Term, error) {
	return l.active().TermPage(ctx, taxonomy, offset, limit)
}

func (l *localeSource) ContentByID(ctx context.Context, id int64) (*models.ContentItem, error) {
	return l.active().ContentByID(ctx, id)
}

func (l *localeSource) ActiveLocales(context.Context) ([]models.Locale, error) {
	if l.localesErr != nil {
		return nil, l.localesErr
	}
	return l.locales, nil
}

func (l *localeSource) SwitchLocale(code string) (func(), error) {
	if l.switchErr != nil {
		return nil, l.switchErr
	}
	previous := l.current
	l.current = code
	return func() {
		l.current = previous
		l.restored = append(l.restored, code)
	}, nil
}

// fakeSiteStore serves site options and the type configuration.
type fakeSiteStore struct {
	opts  models.SiteOptions
	types []models.SyncURLType

	optsErr error
	saveErr error
	saves   int
}

func (f *fakeSiteStore) SiteOptions(context.Context) (models.SiteOptions, error) {
	if f.optsErr != nil {
		return models.SiteOptions{}, f.optsErr
	}
	return f.opts, nil
}

func (f *fakeSiteStore) SyncURLTypes(context.Context) ([]models.SyncURLType, error) {
	return f.types, nil
}

func (f *fakeSiteStore) SaveSyncURLTypes(_ context.Context, types []models.SyncURLType) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.types = types
	return nil
}

func syncCfg(content, term int) *config.SyncConfig {
	return &config.SyncConfig{ContentPageSize: content, TermPageSize: term}
}

func pageType() models.SyncURLType {
	return models.SyncURLType{TypeSlug: models.TypeSlugContent, TypeLabel: "Types", ContentTypeSlug: "page", ContentTypeLabel: "Pages"}
}

func postType() models.SyncURLType {
	return models.SyncURLType{TypeSlug: models.TypeSlugContent, TypeLabel: "Types", ContentTypeSlug: "post", ContentTypeLabel: "Posts"}
}

func categoryType() models.SyncURLType {
	return models.SyncURLType{TypeSlug: models.TypeSlugTaxonomy, TypeLabel: "Taxonomies", ContentTypeSlug: "category", ContentTypeLabel: "Categories"}
}

func nContent(kind string, n int, startID int64) []models.ContentItem {
	items := make([]models.ContentItem, 0, n)
	for i := 0; i < n; i++ {
		id := startID + int64(i)
		items = append(items, models.ContentItem{
			ID:     id,
			Kind:   kind,
			Title:  fmt.Sprintf("%s %d", kind, id),
			URL:    fmt.Sprintf("https://example.com/%s-%d/", kind, id),
			Status: models.ContentStatusPublished,
		})
	}
	return items
}

func TestCapitalizeSlug(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"post", "Post"},
		{"job_listing", "Job Listing"},
		{"press-release", "Press Release"},
		{"über-uns", "Über Uns"},
		{"ärzte", "Ärzte"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CapitalizeSlug(tt.slug); got != tt.want {
			t.Errorf("CapitalizeSlug(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}

func TestNormalizeContentStripsSchemeAndKeys(t *testing.T) {
	item := models.ContentItem{ID: 7, Title: "Hello", URL: "https://example.com/hello/"}
	got := NormalizeContent(item, postType())

	if got.URL != "example.com/hello/" {
		t.Errorf("URL = %q, want scheme stripped", got.URL)
	}
	if got.CategoryKey != "types%%Posts" {
		t.Errorf("CategoryKey = %q, want types%%%%Posts", got.CategoryKey)
	}
	if got.SourceID != "content:7" {
		t.Errorf("SourceID = %q", got.SourceID)
	}
}

func TestNormalizeFallsBackToCapitalizedSlug(t *testing.T) {
	typ := models.SyncURLType{TypeSlug: models.TypeSlugContent, ContentTypeSlug: "job_listing"}
	got := NormalizeContent(models.ContentItem{ID: 1, URL: "https://x.test/"}, typ)
	if got.CategoryKey != "types%%Job Listing" {
		t.Errorf("CategoryKey = %q", got.CategoryKey)
	}
}

func TestDedupeBySourceSharedAcrossCalls(t *testing.T) {
	seen := make(map[string]bool)
	first := DedupeBySource([]models.InventoryItem{
		{SourceID: "content:1", URL: "a"},
		{SourceID: "content:2", URL: "b"},
		{SourceID: "content:1", URL: "a-dup"},
	}, seen)
	if len(first) != 2 || first[0].URL != "a" || first[1].URL != "b" {
		t.Fatalf("first pass = %+v, want first-occurrence order", first)
	}

	second := DedupeBySource([]models.InventoryItem{
		{SourceID: "content:2", URL: "b-again"},
		{SourceID: "content:3", URL: "c"},
	}, seen)
	if len(second) != 1 || second[0].URL != "c" {
		t.Fatalf("second pass = %+v, want cross-call dedupe", second)
	}
}

func TestAdapterPagination(t *testing.T) {
	src := &fakeSource{content: map[string][]models.ContentItem{"post": nContent("post", 5, 1)}}
	adapter := NewAdapter(src, syncCfg(2, 2))

	page, hasMore := adapter.Enumerate(context.Background(), postType(), 0, 2)
	if len(page) != 2 || !hasMore {
		t.Fatalf("page 1: len=%d hasMore=%v, want 2/true", len(page), hasMore)
	}

	page, hasMore = adapter.Enumerate(context.Background(), postType(), 4, 2)
	if len(page) != 1 || hasMore {
		t.Fatalf("last page: len=%d hasMore=%v, want 1/false", len(page), hasMore)
	}
}

func TestAdapterFullPageSignalsMore(t *testing.T) {
	// A final page exactly at the limit triggers one extra empty read
	// rather than dropping items.
	src := &fakeSource{content: map[string][]models.ContentItem{"post": nContent("post", 4, 1)}}
	adapter := NewAdapter(src, syncCfg(2, 2))

	page, hasMore := adapter.Enumerate(context.Background(), postType(), 2, 2)
	if len(page) != 2 || !hasMore {
		t.Fatalf("len=%d hasMore=%v, want 2/true", len(page), hasMore)
	}
	page, hasMore = adapter.Enumerate(context.Background(), postType(), 4, 2)
	if len(page) != 0 || hasMore {
		t.Fatalf("trailing page: len=%d hasMore=%v, want 0/false", len(page), hasMore)
	}
}

func TestAdapterStoreErrorEndsEnumeration(t *testing.T) {
	src := &fakeSource{contentErr: errors.New("disk gone")}
	adapter := NewAdapter(src, syncCfg(10, 10))

	page, hasMore := adapter.Enumerate(context.Background(), postType(), 0, 10)
	if page != nil || hasMore {
		t.Fatalf("got %v/%v, want nil/false on store error", page, hasMore)
	}
}

func TestAdapterPageSizePerType(t *testing.T) {
	adapter := NewAdapter(&fakeSource{}, syncCfg(1000, 500))
	if got := adapter.PageSize(postType()); got != 1000 {
		t.Errorf("content page size = %d", got)
	}
	if got := adapter.PageSize(categoryType()); got != 500 {
		t.Errorf("term page size = %d", got)
	}
}

func TestMergerMonolingualDrain(t *testing.T) {
	src := &fakeSource{content: map[string][]models.ContentItem{"post": nContent("post", 5, 1)}}
	merger := NewMerger(NewAdapter(src, syncCfg(2, 2)), src)

	items := merger.Drain(context.Background(), postType(), make(map[string]bool))
	if len(items) != 5 {
		t.Fatalf("got %d items, want 5", len(items))
	}
}

func TestMergerMergesLocalesAndDedupes(t *testing.T) {
	en := &fakeSource{content: map[string][]models.ContentItem{"post": {
		{ID: 1, Kind: "post", Title: "One", URL: "https://example.com/one/", Status: models.ContentStatusPublished},
		{ID: 2, Kind: "post", Title: "Two", URL: "https://example.com/two/", Status: models.ContentStatusPublished},
	}}}
	de := &fakeSource{content: map[string][]models.ContentItem{"post": {
		// Untranslated item 1 shows up again in the de context.
		{ID: 1, Kind: "post", Title: "One", URL: "https://example.com/one/", Status: models.ContentStatusPublished},
		{ID: 3, Kind: "post", Title: "Drei", URL: "https://example.com/de/drei/", Status: models.ContentStatusPublished},
	}}}
	src := &localeSource{
		locales: []models.Locale{{Code: "en", Default: true}, {Code: "de"}},
		byCode:  map[string]*fakeSource{"en": en, "de": de},
		current: "en",
	}
	merger := NewMerger(NewAdapter(src, syncCfg(10, 10)), src)

	items := merger.Drain(context.Background(), postType(), make(map[string]bool))
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3 after cross-locale dedupe: %+v", len(items), items)
	}
	if src.current != "en" {
		t.Errorf("locale context not restored, current = %q", src.current)
	}
	if len(src.restored) != 2 {
		t.Errorf("restore called %d times, want 2", len(src.restored))
	}
}

func TestMergerLocaleFailureFallsBackToAmbient(t *testing.T) {
	src := &localeSource{
		locales:    nil,
		localesErr: errors.New("multilingual layer offline"),
		byCode: map[string]*fakeSource{"": {content: map[string][]models.ContentItem{
			"post": nContent("post", 2, 1),
		}}},
		current: "",
	}
	merger := NewMerger(NewAdapter(src, syncCfg(10, 10)), src)

	items := merger.Drain(context.Background(), postType(), make(map[string]bool))
	if len(items) != 2 {
		t.Fatalf("got %d items, want ambient-locale drain of 2", len(items))
	}
}

func TestResolverAddsMarkerForLatestPosts(t *testing.T) {
	store := &fakeSiteStore{
		opts:  models.SiteOptions{Title: "Example", HomeURL: "https://example.com", ShowLatestPosts: true},
		types: []models.SyncURLType{pageType(), postType()},
	}
	resolver := NewResolver(store, store, &fakeSource{})

	types, synthetic, err := resolver.Resolve(context.Background(), store.types)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(types) != 3 || !types[2].IsFrontpage() {
		t.Fatalf("types = %+v, want frontpage marker appended", types)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
	if len(synthetic) != 1 {
		t.Fatalf("synthetic = %+v, want one entry", synthetic)
	}
	if synthetic[0].URL != "example.com" {
		t.Errorf("URL = %q, want scheme stripped", synthetic[0].URL)
	}
	if synthetic[0].Title != "Example" {
		t.Errorf("Title = %q", synthetic[0].Title)
	}
	if synthetic[0].CategoryKey != "frontpage%%Frontpage" {
		t.Errorf("CategoryKey = %q", synthetic[0].CategoryKey)
	}
}

func TestResolverIdempotentWhenMarkerPresent(t *testing.T) {
	withMarker := []models.SyncURLType{pageType(), {
		TypeSlug: models.TypeSlugFrontpage, ContentTypeSlug: models.TypeSlugFrontpage,
	}}
	store := &fakeSiteStore{
		opts:  models.SiteOptions{Title: "Example", HomeURL: "https://example.com", ShowLatestPosts: true},
		types: withMarker,
	}
	resolver := NewResolver(store, store, &fakeSource{})

	types, _, err := resolver.Resolve(context.Background(), withMarker)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("types = %+v, want unchanged", types)
	}
	if store.saves != 0 {
		t.Errorf("saves = %d, want no persist when nothing changed", store.saves)
	}
}

func TestResolverRemovesMarkerOnStaticFrontpage(t *testing.T) {
	withMarker := []models.SyncURLType{
		pageType(),
		{TypeSlug: models.TypeSlugFrontpage, ContentTypeSlug: models.TypeSlugFrontpage},
		postType(),
	}
	store := &fakeSiteStore{
		opts:  models.SiteOptions{Title: "Example", ShowLatestPosts: false},
		types: withMarker,
	}
	resolver := NewResolver(store, store, &fakeSource{})

	types, synthetic, err := resolver.Resolve(context.Background(), withMarker)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("types = %+v, want marker removed", types)
	}
	for _, typ := range types {
		if typ.IsFrontpage() {
			t.Errorf("frontpage marker survived: %+v", typ)
		}
	}
	if len(synthetic) != 0 {
		t.Errorf("synthetic = %+v, want none on static frontpage", synthetic)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
}

func TestResolverSyntheticPerLocale(t *testing.T) {
	src := &localeSource{
		locales: []models.Locale{
			{Code: "en", HomeURL: "https://example.com", Default: true},
			{Code: "de", HomeURL: "https://example.com/de"},
		},
		byCode:  map[string]*fakeSource{"en": {}, "de": {}},
		current: "en",
	}
	store := &fakeSiteStore{opts: models.SiteOptions{Title: "Example", ShowLatestPosts: true}}
	resolver := NewResolver(store, store, src)

	_, synthetic, err := resolver.Resolve(context.Background(), nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(synthetic) != 2 {
		t.Fatalf("synthetic = %+v, want one per locale", synthetic)
	}
	if synthetic[1].URL != "example.com/de" {
		t.Errorf("locale URL = %q", synthetic[1].URL)
	}
	if synthetic[0].SourceID == synthetic[1].SourceID {
		t.Errorf("synthetic source IDs collide: %q", synthetic[0].SourceID)
	}
}

func TestTypeCacheRefresh(t *testing.T) {
	store := &fakeSiteStore{types: []models.SyncURLType{pageType()}}
	cache := NewTypeCache(store, time.Hour)

	first, err := cache.Get(context.Background(), false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("first = %+v", first)
	}

	store.types = []models.SyncURLType{pageType(), postType()}

	cached, _ := cache.Get(context.Background(), false)
	if len(cached) != 1 {
		t.Errorf("cached read returned %d types, want stale 1", len(cached))
	}

	fresh, _ := cache.Get(context.Background(), true)
	if len(fresh) != 2 {
		t.Errorf("forced refresh returned %d types, want 2", len(fresh))
	}
}

func newCollector(src Source, store *fakeSiteStore) *Collector {
	adapter := NewAdapter(src, syncCfg(1000, 500))
	return NewCollector(src,
		NewTypeCache(store, time.Hour),
		NewResolver(store, store, src),
		NewMerger(adapter, src))
}

func TestCollectorIncludesSyntheticFrontpage(t *testing.T) {
	src := &fakeSource{content: map[string][]models.ContentItem{"post": nContent("post", 2, 1)}}
	store := &fakeSiteStore{
		opts:  models.SiteOptions{Title: "Example", HomeURL: "https://example.com", ShowLatestPosts: true},
		types: []models.SyncURLType{postType()},
	}

	items, err := newCollector(src, store).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 2 posts + 1 frontpage", len(items))
	}
	last := items[len(items)-1]
	if last.CategoryKey != "frontpage%%Frontpage" {
		t.Errorf("last item key = %q, want frontpage group", last.CategoryKey)
	}
}

func TestCollectSingle(t *testing.T) {
	src := &fakeSource{content: map[string][]models.ContentItem{
		"post": {
			{ID: 1, Kind: "post", Title: "Live", URL: "https://example.com/live/", Status: models.ContentStatusPublished},
			{ID: 2, Kind: "post", Title: "Draft", URL: "https://example.com/draft/", Status: "draft"},
		},
		"attachment": {
			{ID: 3, Kind: "attachment", Title: "File", URL: "https://example.com/f/", Status: models.ContentStatusPublished},
		},
	}}
	store := &fakeSiteStore{types: []models.SyncURLType{postType()}}
	collector := newCollector(src, store)

	items, err := collector.CollectSingle(context.Background(), 1)
	if err != nil || len(items) != 1 {
		t.Fatalf("published item: items=%v err=%v, want 1 item", items, err)
	}
	if items[0].SourceID != "content:1" {
		t.Errorf("SourceID = %q", items[0].SourceID)
	}

	for name, id := range map[string]int64{"unpublished": 2, "unconfigured kind": 3, "missing": 99} {
		items, err := collector.CollectSingle(context.Background(), id)
		if err != nil || items != nil {
			t.Errorf("%s: items=%v err=%v, want nil/nil", name, items, err)
		}
	}
}

// Small-site walkthrough: a static-frontpage site with one page, three
// posts and two categories produces six inventory items across three
// category groups and no synthetic frontpage entry.
func TestSmallSiteInventory(t *testing.T) {
	src := &fakeSource{
		content: map[string][]models.ContentItem{
			"page": nContent("page", 1, 1),
			"post": nContent("post", 3, 10),
		},
		terms: map[string][]models.Term{
			"category": {
				{ID: 1, Taxonomy: "category", Name: "News", URL: "https://example.com/category/news/"},
				{ID: 2, Taxonomy: "category", Name: "Ops", URL: "https://example.com/category/ops/"},
			},
		},
	}
	store := &fakeSiteStore{
		opts:  models.SiteOptions{Title: "Example", HomeURL: "https://example.com", ShowLatestPosts: false},
		types: []models.SyncURLType{pageType(), postType(), categoryType()},
	}
	adapter := NewAdapter(src, syncCfg(1000, 500))
	merger := NewMerger(adapter, src)
	resolver := NewResolver(store, store, src)

	types, synthetic, err := resolver.Resolve(context.Background(), store.types)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(synthetic) != 0 {
		t.Fatalf("synthetic = %+v, want none", synthetic)
	}

	seen := make(map[string]bool)
	var all []models.InventoryItem
	for _, typ := range types {
		all = append(all, merger.Drain(context.Background(), typ, seen)...)
	}

	if len(all) != 6 {
		t.Fatalf("got %d items, want 6", len(all))
	}
	groups := make(map[string]int)
	for _, item := range all {
		groups[item.CategoryKey]++
	}
	want := map[string]int{
		"types%%Pages":           1,
		"types%%Posts":           3,
		"taxonomies%%Categories": 2,
	}
	for key, count := range want {
		if groups[key] != count {
			t.Errorf("group %q = %d, want %d", key, groups[key], count)
		}
	}
	if len(groups) != 3 {
		t.Errorf("got %d groups, want 3: %v", len(groups), groups)
	}
}
