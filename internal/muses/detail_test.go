package muses

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestDetail(t *testing.T, analyzer Analyzer) (*DetailService, *Store) {
	t.Helper()
	store, _ := newTestStore(t)
	detail, err := NewDetailService(DetailConfig{
		Store:         store,
		Analyzer:      analyzer,
		FeedSyncDelay: 5 * time.Millisecond,
		Engagement:    func() (int, int) { return 1234, 56 },
	})
	if err != nil {
		t.Fatalf("unexpected detail service error: %v", err)
	}
	return detail, store
}

func TestDetailViewOpensOnMediaTab(t *testing.T) {
	detail, store := newTestDetail(t, nil)
	id := store.Snapshot()[0].ID

	view, err := detail.View(id)
	if err != nil {
		t.Fatalf("unexpected view error: %v", err)
	}
	if view.ActiveTab != TabMedia {
		t.Fatalf("expected media tab, got %q", view.ActiveTab)
	}
	if view.AnalysisPending || view.Analysis != "" {
		t.Fatalf("expected no analysis state on open, got %+v", view)
	}
	if view.Handle == "" || !strings.HasPrefix(view.Handle, "@") {
		t.Fatalf("expected a derived handle, got %q", view.Handle)
	}
	if len(view.Sources) != 3 {
		t.Fatalf("expected three source links, got %d", len(view.Sources))
	}
}

func TestDetailViewUnknownRecord(t *testing.T) {
	detail, _ := newTestDetail(t, nil)
	if _, err := detail.View("missing"); err != ErrMuseNotFound {
		t.Fatalf("expected ErrMuseNotFound, got %v", err)
	}
}

func TestDetailSetTab(t *testing.T) {
	detail, store := newTestDetail(t, nil)
	id := store.Snapshot()[0].ID

	if err := detail.SetTab(id, TabAbout); err != nil {
		t.Fatalf("unexpected tab error: %v", err)
	}
	view, err := detail.View(id)
	if err != nil {
		t.Fatalf("unexpected view error: %v", err)
	}
	if view.ActiveTab != TabAbout {
		t.Fatalf("expected about tab, got %q", view.ActiveTab)
	}
	if err := detail.SetTab("missing", TabAbout); err != ErrMuseNotFound {
		t.Fatalf("expected ErrMuseNotFound for unknown record, got %v", err)
	}
}

func TestRequestAnalysisCachesResult(t *testing.T) {
	analyzer := &stubAnalyzer{result: "A magnetic stage presence."}
	detail, store := newTestDetail(t, analyzer)
	id := store.Snapshot()[0].ID

	first, err := detail.RequestAnalysis(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected analysis error: %v", err)
	}
	if first != "A magnetic stage presence." {
		t.Fatalf("unexpected analysis text: %q", first)
	}

	second, err := detail.RequestAnalysis(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected analysis error: %v", err)
	}
	if second != first {
		t.Fatalf("expected the cached result, got %q", second)
	}
	if analyzer.callCount() != 1 {
		t.Fatalf("expected exactly one generation call, got %d", analyzer.callCount())
	}
}

// blockingAnalyzer parks every call until released so concurrent requests can
// be observed mid-flight.
type blockingAnalyzer struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (a *blockingAnalyzer) GenerateCharmAnalysis(_ context.Context, _ Muse) (string, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	<-a.release
	return "Shared outcome.", nil
}

func (a *blockingAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func TestRequestAnalysisSingleFlight(t *testing.T) {
	analyzer := &blockingAnalyzer{release: make(chan struct{})}
	detail, store := newTestDetail(t, analyzer)
	id := store.Snapshot()[0].ID

	results := make(chan string, 2)
	for caller := 0; caller < 2; caller++ {
		go func() {
			result, err := detail.RequestAnalysis(context.Background(), id)
			if err != nil {
				results <- "error: " + err.Error()
				return
			}
			results <- result
		}()
	}

	// Let both callers reach the session before releasing the generator.
	time.Sleep(20 * time.Millisecond)
	close(analyzer.release)

	for caller := 0; caller < 2; caller++ {
		select {
		case result := <-results:
			if result != "Shared outcome." {
				t.Fatalf("caller got %q", result)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for analysis callers")
		}
	}
	if analyzer.callCount() != 1 {
		t.Fatalf("expected one shared generation call, got %d", analyzer.callCount())
	}
}

func TestRequestAnalysisFallsBackOnFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: errArchiveUnavailable}
	detail, store := newTestDetail(t, analyzer)
	id := store.Snapshot()[0].ID

	result, err := detail.RequestAnalysis(context.Background(), id)
	if err != nil {
		t.Fatalf("expected the failure to degrade, got error %v", err)
	}
	if result != AnalysisFallback {
		t.Fatalf("expected the fallback text, got %q", result)
	}
}

func TestRequestAnalysisWithoutAnalyzerUsesFallback(t *testing.T) {
	detail, store := newTestDetail(t, nil)
	id := store.Snapshot()[0].ID

	result, err := detail.RequestAnalysis(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected analysis error: %v", err)
	}
	if result != AnalysisFallback {
		t.Fatalf("expected the fallback text, got %q", result)
	}
}

func TestCloseDropsCachedAnalysis(t *testing.T) {
	analyzer := &stubAnalyzer{result: "First pass."}
	detail, store := newTestDetail(t, analyzer)
	id := store.Snapshot()[0].ID

	if _, err := detail.RequestAnalysis(context.Background(), id); err != nil {
		t.Fatalf("unexpected analysis error: %v", err)
	}
	detail.Close(id)

	if _, err := detail.RequestAnalysis(context.Background(), id); err != nil {
		t.Fatalf("unexpected analysis error: %v", err)
	}
	if analyzer.callCount() != 2 {
		t.Fatalf("expected a fresh generation after close, got %d calls", analyzer.callCount())
	}
}

func TestFeedSyncRequiresExternalProfile(t *testing.T) {
	detail, store := newTestDetail(t, nil)
	var withoutLink string
	store.Mutate(func(collection Collection) Collection {
		record := collection[0].Clone()
		record.InstagramURL = ""
		withoutLink = record.ID
		return ReplaceMuse(collection, record)
	})

	if _, err := detail.FeedSync(withoutLink, confirmAlways); err != ErrNoExternalProfile {
		t.Fatalf("expected ErrNoExternalProfile, got %v", err)
	}
}

func TestFeedSyncRequiresConfirmation(t *testing.T) {
	detail, store := newTestDetail(t, nil)
	id := store.Snapshot()[0].ID

	if _, err := detail.FeedSync(id, nil); err != ErrNotConfirmed {
		t.Fatalf("expected ErrNotConfirmed for a missing capability, got %v", err)
	}
	if _, err := detail.FeedSync(id, confirmNever); err != ErrNotConfirmed {
		t.Fatalf("expected ErrNotConfirmed for a declined capability, got %v", err)
	}
}

func TestFeedSyncPrependsBatch(t *testing.T) {
	detail, store := newTestDetail(t, nil)
	target := store.Snapshot()[0]
	before := len(target.GalleryImages)

	done, err := detail.FeedSync(target.ID, confirmAlways)
	if err != nil {
		t.Fatalf("unexpected feed sync error: %v", err)
	}

	view, err := detail.View(target.ID)
	if err != nil {
		t.Fatalf("unexpected view error: %v", err)
	}
	if !view.FeedSyncing {
		t.Fatal("expected the view to report feed syncing while pending")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the feed sync to settle")
	}

	collection := store.Snapshot()
	record := collection[collection.IndexOf(target.ID)]
	if len(record.GalleryImages) != before+3 {
		t.Fatalf("expected %d gallery entries after sync, got %d", before+3, len(record.GalleryImages))
	}
	head := record.GalleryImages[0]
	if head.Likes != 1234 || head.Comments != 56 {
		t.Fatalf("expected injected engagement counts, got %+v", head)
	}

	view, err = detail.View(target.ID)
	if err != nil {
		t.Fatalf("unexpected view error: %v", err)
	}
	if view.FeedSyncing {
		t.Fatal("expected the syncing flag to clear once settled")
	}
}

func TestFeedSyncSkipsDeletedRecord(t *testing.T) {
	detail, store := newTestDetail(t, nil)
	target := store.Snapshot()[0]

	done, err := detail.FeedSync(target.ID, confirmAlways)
	if err != nil {
		t.Fatalf("unexpected feed sync error: %v", err)
	}
	store.Mutate(func(collection Collection) Collection {
		return DeleteMuse(collection, target.ID)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the feed sync to settle")
	}
	if store.Snapshot().IndexOf(target.ID) >= 0 {
		t.Fatal("expected the record to stay deleted")
	}
}

func TestDeriveSourcesPrefersOfficialProfile(t *testing.T) {
	record := Muse{
		ID:           "x",
		Name:         "Moka",
		GroupName:    "ILLIT",
		InstagramURL: "https://www.instagram.com/illit.official/",
	}
	sources := deriveSources(record)
	if len(sources) != 3 {
		t.Fatalf("expected three sources, got %d", len(sources))
	}
	if !sources[0].Official || sources[0].URL != record.InstagramURL {
		t.Fatalf("expected the official profile first, got %+v", sources[0])
	}

	record.InstagramURL = ""
	sources = deriveSources(record)
	if sources[0].Official {
		t.Fatalf("expected a tag search without a stored link, got %+v", sources[0])
	}
	if !strings.Contains(sources[0].URL, "instagram.com/explore/tags/") {
		t.Fatalf("expected an instagram tag search, got %q", sources[0].URL)
	}
	if !strings.Contains(sources[1].URL, "pinterest.com") || !strings.Contains(sources[2].URL, "twitter.com") {
		t.Fatalf("unexpected search destinations: %+v", sources[1:])
	}
}

func TestDeriveHandle(t *testing.T) {
	testCases := []struct {
		record   Muse
		expected string
	}{
		{record: Muse{GroupName: "ILLIT"}, expected: "@illit"},
		{record: Muse{GroupName: "fromis 9"}, expected: "@fromis9"},
		{record: Muse{SubCategory: SubCategoryYouTube}, expected: "@youtube"},
	}
	for _, testCase := range testCases {
		if handle := deriveHandle(testCase.record); handle != testCase.expected {
			t.Fatalf("expected handle %q, got %q", testCase.expected, handle)
		}
	}
}

func TestParseTab(t *testing.T) {
	testCases := []struct {
		input    string
		expected Tab
		wantErr  bool
	}{
		{input: "", expected: TabMedia},
		{input: "media", expected: TabMedia},
		{input: "about", expected: TabAbout},
		{input: "sources", expected: TabSources},
		{input: "gallery", wantErr: true},
	}
	for _, testCase := range testCases {
		tab, err := ParseTab(testCase.input)
		if testCase.wantErr {
			if err == nil {
				t.Fatalf("input %q: expected error", testCase.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("input %q: unexpected error: %v", testCase.input, err)
		}
		if tab != testCase.expected {
			t.Fatalf("input %q: expected %q, got %q", testCase.input, testCase.expected, tab)
		}
	}
}
