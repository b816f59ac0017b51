package muses

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tab names the presentation sections of the detail view.
type Tab string

const (
	TabMedia   Tab = "media"
	TabAbout   Tab = "about"
	TabSources Tab = "sources"
)

// ParseTab resolves a raw label to a detail tab.
func ParseTab(value string) (Tab, error) {
	switch strings.TrimSpace(value) {
	case string(TabMedia), "":
		return TabMedia, nil
	case string(TabAbout):
		return TabAbout, nil
	case string(TabSources):
		return TabSources, nil
	default:
		return "", fmt.Errorf("muses: unknown tab %q", value)
	}
}

// AnalysisFallback replaces the generated text whenever the collaborator
// fails or is unreachable. Failures never surface past this string.
const AnalysisFallback = "The charm analysis could not be generated. Please try again later."

const (
	defaultFeedSyncDelay = 2 * time.Second
	feedSyncBatchSize    = 3
)

var (
	// ErrNoExternalProfile indicates a feed sync request for a record without an external link.
	ErrNoExternalProfile = errors.New("muses: record has no external profile link")
)

// Analyzer is the opaque text-generation collaborator: profile fields in,
// one descriptive string out. No retry, streaming, or cancellation semantics
// beyond the context.
type Analyzer interface {
	GenerateCharmAnalysis(ctx context.Context, profile Muse) (string, error)
}

// SourceLink is one derived external destination for a record.
type SourceLink struct {
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	URL      string `json:"url"`
	Official bool   `json:"official"`
}

// DetailView is the tab-scoped presentation snapshot for one selected record.
type DetailView struct {
	Muse            Muse         `json:"muse"`
	ActiveTab       Tab          `json:"activeTab"`
	Handle          string       `json:"handle"`
	Analysis        string       `json:"analysis,omitempty"`
	AnalysisPending bool         `json:"analysisPending"`
	FeedSyncing     bool         `json:"feedSyncing"`
	Sources         []SourceLink `json:"sources"`
}

// DetailConfig bundles the dependencies of the detail view-model service.
type DetailConfig struct {
	Store         *Store
	Analyzer      Analyzer
	Logger        *zap.Logger
	FeedSyncDelay time.Duration
	// Engagement synthesizes cosmetic like/comment counts for feed-sync
	// batches. Defaults to the randomized display values.
	Engagement func() (likes, comments int)
}

// DetailService derives per-record presentation state and owns the two
// asynchronous side effects of the detail view: the charm analysis request
// and the simulated external feed sync.
type DetailService struct {
	store      *Store
	analyzer   Analyzer
	logger     *zap.Logger
	delay      time.Duration
	engagement func() (int, int)

	mu       sync.Mutex
	sessions map[string]*detailSession
}

// detailSession tracks the transient view state for one open record.
type detailSession struct {
	tab          Tab
	analysis     string
	analysisDone bool
	inflight     chan struct{}
	syncing      bool
}

// NewDetailService constructs the detail view-model service.
func NewDetailService(cfg DetailConfig) (*DetailService, error) {
	if cfg.Store == nil {
		return nil, ErrMissingStore
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	delay := cfg.FeedSyncDelay
	if delay <= 0 {
		delay = defaultFeedSyncDelay
	}
	engagement := cfg.Engagement
	if engagement == nil {
		engagement = randomEngagement
	}
	return &DetailService{
		store:      cfg.Store,
		analyzer:   cfg.Analyzer,
		logger:     logger,
		delay:      delay,
		engagement: engagement,
		sessions:   make(map[string]*detailSession),
	}, nil
}

// View assembles the current detail snapshot for a record, opening a session
// on the media tab if none exists.
func (d *DetailService) View(id string) (DetailView, error) {
	record, ok := d.lookup(id)
	if !ok {
		return DetailView{}, ErrMuseNotFound
	}

	d.mu.Lock()
	session := d.ensureSessionLocked(id)
	view := DetailView{
		Muse:            record,
		ActiveTab:       session.tab,
		Handle:          deriveHandle(record),
		Analysis:        session.analysis,
		AnalysisPending: session.inflight != nil,
		FeedSyncing:     session.syncing,
		Sources:         deriveSources(record),
	}
	d.mu.Unlock()
	return view, nil
}

// SetTab switches the active presentation tab for an open record.
func (d *DetailService) SetTab(id string, tab Tab) error {
	if _, ok := d.lookup(id); !ok {
		return ErrMuseNotFound
	}
	d.mu.Lock()
	d.ensureSessionLocked(id).tab = tab
	d.mu.Unlock()
	return nil
}

// Close discards the session for a record, dropping any cached analysis.
// A result still in flight completes and is discarded.
func (d *DetailService) Close(id string) {
	d.mu.Lock()
	delete(d.sessions, id)
	d.mu.Unlock()
}

// RequestAnalysis runs the charm analysis single-flight per record. A cached
// result short-circuits; a concurrent caller waits for the in-progress
// request and shares its outcome; any collaborator failure degrades to the
// fixed fallback string. The result is discarded when the record vanished or
// the session was closed while the request was outstanding.
func (d *DetailService) RequestAnalysis(ctx context.Context, id string) (string, error) {
	if _, ok := d.lookup(id); !ok {
		return "", ErrMuseNotFound
	}

	for {
		d.mu.Lock()
		session := d.ensureSessionLocked(id)
		if session.analysisDone {
			result := session.analysis
			d.mu.Unlock()
			return result, nil
		}
		if session.inflight != nil {
			wait := session.inflight
			d.mu.Unlock()
			select {
			case <-wait:
			case <-ctx.Done():
				return "", ctx.Err()
			}
			continue
		}
		done := make(chan struct{})
		session.inflight = done
		d.mu.Unlock()

		result := d.generate(ctx, id)

		d.mu.Lock()
		if current, ok := d.sessions[id]; ok && current == session {
			if _, present := d.lookup(id); present {
				session.analysis = result
				session.analysisDone = true
			}
			session.inflight = nil
		}
		d.mu.Unlock()
		close(done)
		return result, nil
	}
}

// FeedSync simulates pulling a short batch of fresh photos from the record's
// external profile. It requires an external link and a granted confirmation,
// flags the session as syncing, waits the configured delay, then prepends the
// batch. The returned channel closes when the sync has settled.
func (d *DetailService) FeedSync(id string, confirm ConfirmFunc) (<-chan struct{}, error) {
	record, ok := d.lookup(id)
	if !ok {
		return nil, ErrMuseNotFound
	}
	if strings.TrimSpace(record.InstagramURL) == "" {
		return nil, ErrNoExternalProfile
	}
	if confirm == nil || !confirm() {
		return nil, ErrNotConfirmed
	}

	d.mu.Lock()
	session := d.ensureSessionLocked(id)
	if session.syncing {
		done := make(chan struct{})
		close(done)
		d.mu.Unlock()
		return done, nil
	}
	session.syncing = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(d.delay)

		now := time.Now()
		applied := false
		d.store.Mutate(func(collection Collection) Collection {
			if collection.IndexOf(id) < 0 {
				return collection
			}
			applied = true
			for batch := 0; batch < feedSyncBatchSize; batch++ {
				likes, comments := d.engagement()
				item := GalleryItem{
					URL:      fmt.Sprintf("https://picsum.photos/seed/%d/800/1000", now.UnixMilli()+int64(batch)),
					Likes:    likes,
					Comments: comments,
				}
				collection = prependGalleryItem(collection, id, item)
			}
			return collection
		})

		d.mu.Lock()
		if current, ok := d.sessions[id]; ok {
			current.syncing = false
		}
		d.mu.Unlock()

		if applied {
			d.logger.Info("feed sync applied", zap.String("muse_id", id), zap.Int("photos", feedSyncBatchSize))
		} else {
			d.logger.Debug("feed sync skipped, record gone", zap.String("muse_id", id))
		}
	}()
	return done, nil
}

func (d *DetailService) generate(ctx context.Context, id string) string {
	record, ok := d.lookup(id)
	if !ok {
		return AnalysisFallback
	}
	if d.analyzer == nil {
		return AnalysisFallback
	}
	result, err := d.analyzer.GenerateCharmAnalysis(ctx, record)
	if err != nil || strings.TrimSpace(result) == "" {
		d.logger.Warn("charm analysis failed", zap.String("muse_id", id), zap.Error(err))
		return AnalysisFallback
	}
	return result
}

func (d *DetailService) lookup(id string) (Muse, bool) {
	collection := d.store.Snapshot()
	index := collection.IndexOf(id)
	if index < 0 {
		return Muse{}, false
	}
	return collection[index], true
}

func (d *DetailService) ensureSessionLocked(id string) *detailSession {
	session, ok := d.sessions[id]
	if !ok {
		session = &detailSession{tab: TabMedia}
		d.sessions[id] = session
	}
	return session
}

// prependGalleryItem is the feed-sync variant of AppendGalleryItem that
// carries synthesized engagement counts.
func prependGalleryItem(collection Collection, id string, item GalleryItem) Collection {
	index := collection.IndexOf(id)
	if index < 0 {
		return collection
	}
	record := collection[index].Clone()
	gallery := make([]GalleryItem, 0, len(record.GalleryImages)+1)
	gallery = append(gallery, item)
	gallery = append(gallery, record.GalleryImages...)
	record.GalleryImages = gallery
	return ReplaceMuse(collection, record)
}

// deriveHandle builds the display handle shown under the record name.
func deriveHandle(record Muse) string {
	base := record.GroupName
	if base == "" {
		base = string(record.SubCategory)
	}
	return "@" + strings.ToLower(strings.ReplaceAll(base, " ", ""))
}

// deriveSources lists the external destinations for a record: the official
// profile when a link is stored, otherwise tag/media searches.
func deriveSources(record Muse) []SourceLink {
	affiliation := record.GroupName
	if affiliation == "" {
		affiliation = record.PlatformName
	}
	searchTerm := strings.TrimSpace(record.Name + " " + affiliation)

	instagram := SourceLink{
		Name:     "Instagram Search",
		Icon:     "instagram",
		URL:      "https://www.instagram.com/explore/tags/" + url.PathEscape(strings.ReplaceAll(record.Name, " ", "")) + "/",
		Official: false,
	}
	if record.InstagramURL != "" {
		instagram = SourceLink{Name: "Instagram", Icon: "instagram", URL: record.InstagramURL, Official: true}
	}

	return []SourceLink{
		instagram,
		{
			Name: "Pinterest Board",
			Icon: "pinterest",
			URL:  "https://www.pinterest.com/search/pins/?q=" + url.QueryEscape(searchTerm+" aesthetic"),
		},
		{
			Name: "X (Twitter)",
			Icon: "x",
			URL:  "https://twitter.com/search?q=" + url.QueryEscape(searchTerm) + "&src=typed_query&f=media",
		},
	}
}

// randomEngagement fabricates display-only like/comment counts in the same
// range the seed data uses.
func randomEngagement() (int, int) {
	return rand.Intn(50000) + 1000, rand.Intn(500) + 10
}
