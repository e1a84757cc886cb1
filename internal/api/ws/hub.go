// Package ws streams menu change events to admin clients over WebSocket.
package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/hlog"

	redisstore "github.com/gosuda/menuboard/internal/store/redis"
)

// Subscriber is the pub/sub backend the hub relays from.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	sub            Subscriber
	originPatterns []string
}

// NewHub creates a hub. originPatterns are passed to websocket.Accept; "*"
// disables the same-origin check.
func NewHub(sub Subscriber, originPatterns []string) *Hub {
	return &Hub{sub: sub, originPatterns: originPatterns}
}

// ServeChanges relays every message on the menu change channel to the client
// until either side goes away. Callers must authenticate the request first.
func (h *Hub) ServeChanges(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		logger.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Admin clients only listen; CloseRead discards anything they send and
	// cancels ctx when the peer disconnects.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.sub.Subscribe(ctx, redisstore.MenuChangesChannel)
	if err != nil {
		logger.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, ok := <-messages:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				logger.Debug().Err(err).Msg("websocket write")
				return
			}
		}
	}
}
