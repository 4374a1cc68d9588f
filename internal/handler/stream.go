package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/efreitasn/simtrade/internal/service"
)

const (
	streamBuffer       = 32
	streamWriteTimeout = 5 * time.Second
)

// outboundMessage is the envelope for every stream message.
type outboundMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StreamHandler pushes session snapshots over a websocket.
type StreamHandler struct {
	session  *service.Session
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(session *service.Session, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		session:  session,
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// Stream handles GET /stream. It sends the current snapshot, then one
// snapshot per tick, order or reset until the client goes away.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := h.session.Subscribe(streamBuffer)
	defer h.session.Unsubscribe(sub)

	// The server's read deadline survives the hijack. Inbound messages are
	// ignored; reading only detects the close.
	conn.SetReadDeadline(time.Time{})
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(snap service.Snapshot) bool {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(outboundMessage{Type: "snapshot", Data: buildSnapshotResponse(snap)}); err != nil {
			h.logger.Debug("stream write failed", slog.String("error", err.Error()))
			return false
		}
		return true
	}

	if !send(h.session.Snapshot()) {
		return
	}
	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-sub.C:
			if !ok || !send(snap) {
				return
			}
		}
	}
}
