package muses

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// fakeArchive is an in-memory stand-in for the durable snapshot slot with
// switchable failure modes.
type fakeArchive struct {
	mu        sync.Mutex
	slots     map[string]string
	readErr   error
	writeErr  error
	deleteErr error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{slots: map[string]string{}}
}

func (a *fakeArchive) ReadSnapshot(key string) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.readErr != nil {
		return "", false, a.readErr
	}
	payload, found := a.slots[key]
	return payload, found, nil
}

func (a *fakeArchive) WriteSnapshot(key, payload string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.writeErr != nil {
		return a.writeErr
	}
	a.slots[key] = payload
	return nil
}

func (a *fakeArchive) DeleteSnapshot(key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deleteErr != nil {
		return a.deleteErr
	}
	delete(a.slots, key)
	return nil
}

// sequenceIDs issues deterministic identifiers for tests.
type sequenceIDs struct {
	mu   sync.Mutex
	next int
}

func (s *sequenceIDs) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("test-id-%d", s.next), nil
}

// stubAnalyzer counts invocations and returns a canned result or error.
type stubAnalyzer struct {
	mu     sync.Mutex
	calls  int
	result string
	err    error
}

func (a *stubAnalyzer) GenerateCharmAnalysis(_ context.Context, _ Muse) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	return a.result, nil
}

func (a *stubAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

var errArchiveUnavailable = errors.New("archive unavailable")

func newTestStore(t *testing.T) (*Store, *fakeArchive) {
	t.Helper()
	archive := newFakeArchive()
	store, err := NewStore(StoreConfig{Archive: archive})
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	return store, archive
}

func newTestService(t *testing.T) (*Service, *Store) {
	t.Helper()
	store, _ := newTestStore(t)
	service, err := NewService(ServiceConfig{Store: store, IDProvider: &sequenceIDs{}})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service, store
}

func confirmAlways() bool {
	return true
}

func confirmNever() bool {
	return false
}
