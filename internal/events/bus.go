// Package events provides an in-process event bus for portfolio change
// notifications. Connected dashboards consume the stream over the
// websocket endpoint so an open UI can refresh without polling.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies the kind of change that occurred.
type EventType string

const (
	HoldingCreated   EventType = "holding_created"
	HoldingUpdated   EventType = "holding_updated"
	HoldingDeleted   EventType = "holding_deleted"
	SnapshotCreated  EventType = "snapshot_created"
	SnapshotDeleted  EventType = "snapshot_deleted"
	SnapshotRestored EventType = "snapshot_restored"
	DataImported     EventType = "data_imported"
)

// Event is a single change notification.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// subscriberBuffer bounds each subscriber's channel. A slow consumer
// drops events rather than blocking publishers.
const subscriberBuffer = 16

// Bus fans events out to all current subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	log    zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[int]chan Event),
		log:  log.With().Str("component", "events").Logger(),
	}
}

// Publish sends an event to all subscribers. Never blocks: events to
// subscribers with full buffers are dropped.
func (b *Bus) Publish(eventType EventType, data map[string]interface{}) {
	evt := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.log.Warn().
				Int("subscriber", id).
				Str("type", string(eventType)).
				Msg("Subscriber buffer full, dropping event")
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// removes the subscription and closes the channel; it is idempotent.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
