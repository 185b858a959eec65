package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(HoldingCreated, map[string]interface{}{"id": "abc"})

	select {
	case evt := <-ch:
		assert.Equal(t, HoldingCreated, evt.Type)
		assert.Equal(t, "abc", evt.Data["id"])
		assert.WithinDuration(t, time.Now().UTC(), evt.Timestamp, time.Second)
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	require.Equal(t, 2, bus.SubscriberCount())

	bus.Publish(SnapshotCreated, nil)

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			assert.Equal(t, SnapshotCreated, evt.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ch, cancel := bus.Subscribe()
	cancel()

	assert.Equal(t, 0, bus.SubscriberCount())

	// Channel should be closed
	_, open := <-ch
	assert.False(t, open)

	// Cancel is idempotent
	cancel()
}

func TestPublishNeverBlocks(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	// Subscriber that never reads
	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			bus.Publish(HoldingUpdated, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestPublishWithNoSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	bus.Publish(DataImported, nil) // must not panic
}
