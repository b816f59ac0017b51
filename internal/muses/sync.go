package muses

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultSyncInterval = 5 * time.Second

// ErrMissingStore indicates a component was constructed without the record store.
var ErrMissingStore = errors.New("muses: store is required")

// SyncerConfig bundles the dependencies of the background sync simulator.
type SyncerConfig struct {
	Store    *Store
	Interval time.Duration
	Clock    func() time.Time
	// Pick selects a record index given the collection length. Defaults to a
	// uniform random pick; injected for deterministic tests.
	Pick   func(n int) int
	Logger *zap.Logger
	// Notify, when set, is invoked after every applied tick with the id of
	// the record that received a photo.
	Notify func(museID string)
}

// Syncer emulates an external content feed by periodically prepending a
// synthetic photo to a randomly chosen record. It holds exactly two states,
// idle and syncing; arming while armed and disarming while idle are both
// no-ops, and once Stop returns no further tick can touch the store.
type Syncer struct {
	store    *Store
	interval time.Duration
	clock    func() time.Time
	pick     func(n int) int
	logger   *zap.Logger
	notify   func(museID string)

	mu          sync.Mutex
	stop        chan struct{}
	lastUpdated time.Time
	hasUpdate   bool
}

// NewSyncer constructs a simulator in the idle state.
func NewSyncer(cfg SyncerConfig) (*Syncer, error) {
	if cfg.Store == nil {
		return nil, ErrMissingStore
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	pick := cfg.Pick
	if pick == nil {
		pick = rand.Intn
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		store:    cfg.Store,
		interval: interval,
		clock:    clock,
		pick:     pick,
		logger:   logger,
		notify:   cfg.Notify,
	}, nil
}

// Start arms the repeating timer. Returns false when already syncing so a
// rapid double toggle cannot arm two timers.
func (s *Syncer) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return false
	}
	handle := make(chan struct{})
	s.stop = handle
	go s.run(handle)
	s.logger.Info("feed sync started", zap.Duration("interval", s.interval))
	return true
}

// Stop disarms the timer. Once Stop returns, no tick will mutate the store:
// the handle itself is invalidated under the lock, and every tick re-checks
// the handle before it writes.
func (s *Syncer) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return false
	}
	close(s.stop)
	s.stop = nil
	s.logger.Info("feed sync stopped")
	return true
}

// Syncing reports whether the timer is armed.
func (s *Syncer) Syncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// LastUpdated returns the time of the most recent applied tick.
func (s *Syncer) LastUpdated() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdated, s.hasUpdate
}

func (s *Syncer) run(handle chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-handle:
			return
		case <-ticker.C:
			s.tick(handle)
		}
	}
}

// tick injects one synthetic photo into a random record. An empty collection
// is a no-op, as is a tick whose handle was invalidated by Stop. The lock is
// held across the store write so Stop serializes behind an in-flight tick:
// once Stop returns, no tick has a write outstanding.
func (s *Syncer) tick(handle chan struct{}) {
	s.mu.Lock()
	if s.stop != handle {
		s.mu.Unlock()
		return
	}

	now := s.clock()
	var targetID string
	s.store.Mutate(func(collection Collection) Collection {
		if len(collection) == 0 {
			return collection
		}
		target := collection[s.pick(len(collection))]
		targetID = target.ID
		return AppendGalleryItem(collection, target.ID, syntheticPhotoURL(now))
	})
	if targetID != "" {
		s.lastUpdated = now
		s.hasUpdate = true
	}
	s.mu.Unlock()

	if targetID == "" {
		return
	}
	s.logger.Debug("feed sync tick applied", zap.String("muse_id", targetID))
	if s.notify != nil {
		s.notify(targetID)
	}
}

// syntheticPhotoURL fabricates a fresh image reference seeded by the tick
// time, standing in for an external feed without a network dependency.
func syntheticPhotoURL(at time.Time) string {
	return fmt.Sprintf("https://picsum.photos/seed/%d/800/1000", at.UnixMilli())
}
