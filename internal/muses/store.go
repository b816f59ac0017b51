package muses

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrMissingArchive indicates the store was constructed without durable storage.
var ErrMissingArchive = errors.New("muses: archive is required")

// ConfirmFunc is the confirmation capability destructive operations require.
// The core never prompts anyone itself; callers inject whatever stands in for
// the user-facing prompt.
type ConfirmFunc func() bool

// StoreConfig bundles the dependencies of the record store.
type StoreConfig struct {
	Archive Archive
	Logger  *zap.Logger
}

// Store owns the in-memory collection and mirrors every mutation to the
// durable snapshot slot. It is the single writable owner of the collection;
// consumers only ever receive deep copies. Durable read and write failures
// are logged and absorbed so the running session keeps its in-memory state
// as the source of truth.
type Store struct {
	archive Archive
	logger  *zap.Logger

	mu         sync.RWMutex
	collection Collection
}

// NewStore constructs a store and loads the initial collection, falling back
// to the built-in seed archive when no usable snapshot exists.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Archive == nil {
		return nil, ErrMissingArchive
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := &Store{
		archive: cfg.Archive,
		logger:  logger,
	}
	store.Load()
	return store, nil
}

// Load reads the durable snapshot into memory. A missing slot, a read
// failure, or a malformed payload all degrade to the seed archive; nothing
// propagates to the caller.
func (s *Store) Load() {
	payload, found, err := s.archive.ReadSnapshot(SnapshotKey)
	if err != nil {
		s.logger.Warn("snapshot read failed, using seed archive", zap.Error(err))
		s.replace(DefaultCollection())
		return
	}
	if !found {
		s.logger.Info("no snapshot found, using seed archive", zap.String("slot", SnapshotKey))
		s.replace(DefaultCollection())
		return
	}

	var collection Collection
	if err := json.Unmarshal([]byte(payload), &collection); err != nil {
		s.logger.Warn("snapshot payload malformed, using seed archive", zap.String("slot", SnapshotKey), zap.Error(err))
		s.replace(DefaultCollection())
		return
	}
	s.replace(collection)
}

// Snapshot returns a deep copy of the current collection.
func (s *Store) Snapshot() Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Clone()
}

// Len reports the current number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collection)
}

// Mutate applies a pure transformation to the collection under the store
// lock and persists the resulting snapshot in full. All writers funnel
// through here, so a sync tick racing a delete serializes instead of racing;
// a tick that targets a just-deleted id resolves to a no-op inside the
// transformation. The updated collection is returned as a deep copy.
func (s *Store) Mutate(apply func(Collection) Collection) Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := apply(s.collection.Clone())
	s.collection = next
	s.persistLocked()
	return next.Clone()
}

// Reset clears the durable slot and restores the seed archive, the hard
// reset semantics of wiping the saved database. The confirmation capability
// must grant before anything is touched.
func (s *Store) Reset(confirm ConfirmFunc) bool {
	if confirm == nil || !confirm() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.archive.DeleteSnapshot(SnapshotKey); err != nil {
		s.logger.Warn("snapshot delete failed during reset", zap.Error(err))
	}
	s.collection = DefaultCollection()
	return true
}

func (s *Store) replace(collection Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection = collection
}

// persistLocked writes the whole collection as one snapshot. Write failures
// are logged and swallowed: durability is best effort, the session state wins.
func (s *Store) persistLocked() {
	payload, err := json.Marshal(s.collection)
	if err != nil {
		s.logger.Warn("snapshot serialization failed", zap.Error(err))
		return
	}
	if err := s.archive.WriteSnapshot(SnapshotKey, string(payload)); err != nil {
		s.logger.Warn("snapshot write failed", zap.Error(err))
	}
}
