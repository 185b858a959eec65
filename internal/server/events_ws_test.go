package server

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/kwchan/folio/internal/events"
)

func TestEventsWSStreamsBusEvents(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	handler := NewEventsWSHandler(bus, zerolog.Nop())

	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Subscription happens inside the handler; give it a moment before
	// publishing.
	require.Eventually(t, func() bool {
		return bus.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	bus.Publish(events.HoldingCreated, map[string]interface{}{"id": "h1"})

	var evt events.Event
	require.NoError(t, wsjson.Read(ctx, conn, &evt))

	assert.Equal(t, events.HoldingCreated, evt.Type)
	assert.Equal(t, "h1", evt.Data["id"])
}

func TestEventsWSUnsubscribesOnDisconnect(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	handler := NewEventsWSHandler(bus, zerolog.Nop())

	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return bus.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool {
		return bus.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)
}
