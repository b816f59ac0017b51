package server

import (
	"context"
	"sync"
	"time"
)

const (
	// RealtimeEventMuseChanged marks a record create/update/delete.
	RealtimeEventMuseChanged = "muse-change"
	// RealtimeEventSyncUpdate marks an applied background sync tick.
	RealtimeEventSyncUpdate = "sync-update"
	// RealtimeEventArchiveReset tells clients to reload from scratch.
	RealtimeEventArchiveReset = "archive-reset"
	realtimeEventHeartbeat    = "heartbeat"
)

// RealtimeMessage is one archive event fanned out to every listener. The
// archive has a single curator, so messages are not keyed by user.
type RealtimeMessage struct {
	EventType string    `json:"event"`
	MuseIDs   []string  `json:"muse_ids,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RealtimeDispatcher fans archive events out to subscribed event streams.
// Slow listeners drop messages instead of blocking publishers.
type RealtimeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[int64]*realtimeSubscriber
	nextID      int64
	bufferSize  int
}

type realtimeSubscriber struct {
	id     int64
	stream chan RealtimeMessage
}

func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		subscribers: make(map[int64]*realtimeSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a listener that is torn down when the context ends or
// the cleanup function runs, whichever comes first.
func (d *RealtimeDispatcher) Subscribe(ctx context.Context) (<-chan RealtimeMessage, func()) {
	subscriber := &realtimeSubscriber{
		stream: make(chan RealtimeMessage, d.bufferSize),
	}
	d.mu.Lock()
	d.nextID++
	subscriber.id = d.nextID
	d.subscribers[subscriber.id] = subscriber
	d.mu.Unlock()

	cleanup := func() {
		d.mu.Lock()
		delete(d.subscribers, subscriber.id)
		d.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish fans a message out to every subscriber without blocking.
func (d *RealtimeDispatcher) Publish(message RealtimeMessage) {
	if message.EventType == "" {
		return
	}
	d.mu.RLock()
	copies := make([]*realtimeSubscriber, 0, len(d.subscribers))
	for _, subscriber := range d.subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- message:
		default:
		}
	}
}
