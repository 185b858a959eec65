package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/kwchan/folio/internal/events"
)

// EventsWSHandler streams bus events to websocket clients.
type EventsWSHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsWSHandler creates a new websocket event handler.
func NewEventsWSHandler(bus *events.Bus, log zerolog.Logger) *EventsWSHandler {
	return &EventsWSHandler{
		bus: bus,
		log: log.With().Str("handler", "events_ws").Logger(),
	}
}

// ServeHTTP handles GET /events/ws
func (h *EventsWSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")

	ch, cancel := h.bus.Subscribe()
	defer cancel()

	h.log.Debug().Msg("Websocket client connected")

	// The client never sends application messages; CloseRead surfaces
	// disconnects through the returned context.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Msg("Websocket client disconnected")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case evt, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "event bus closed")
				return
			}

			if err := wsjson.Write(ctx, conn, evt); err != nil {
				if !errors.Is(err, context.Canceled) {
					h.log.Debug().Err(err).Msg("Websocket write failed")
				}
				return
			}
		}
	}
}
