// ABOUTME: WebSocket endpoint turning connections into broadcast observers
// ABOUTME: Buffered send channel with a write pump; a full buffer drops the observer

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 10 * time.Second
	wsPingInterval   = 30 * time.Second
	wsReadTimeout    = 60 * time.Second
	wsSendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS middleware governs the HTTP surface; the stream carries no
		// credentials, so cross-origin reads are acceptable here.
		return true
	},
}

// wsObserver adapts one WebSocket connection to the broadcast.Observer
// contract. Send never blocks the publisher: events go into a buffered
// channel drained by the write pump, and a full buffer fails the Send so
// the registry unsubscribes the connection.
type wsObserver struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func newWSObserver(conn *websocket.Conn) *wsObserver {
	return &wsObserver{
		conn: conn,
		send: make(chan []byte, wsSendBufferSize),
		done: make(chan struct{}),
	}
}

// Send queues one serialized event for delivery.
func (o *wsObserver) Send(data []byte) error {
	select {
	case <-o.done:
		return errors.New("connection closed")
	case o.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// writePump drains the send channel onto the connection and keeps the
// connection alive with pings. Returns when the connection dies.
func (o *wsObserver) writePump(logger *slog.Logger) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		o.conn.Close()
	}()

	for {
		select {
		case <-o.done:
			o.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			o.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-o.send:
			o.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := o.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			o.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := o.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes (and discards) client frames so pongs and close frames
// are processed. Returns when the peer goes away.
func (o *wsObserver) readPump() {
	defer close(o.done)

	o.conn.SetReadLimit(1024)
	o.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	o.conn.SetPongHandler(func(string) error {
		o.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		if _, _, err := o.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// handleWebSocket handles GET /ws/{sessionID}: upgrades the connection and
// registers it as an observer for the session's events until it drops.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	exists, err := s.store.SessionExists(r.Context(), sessionID)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	if !exists {
		s.sendJSONError(w, http.StatusNotFound, "session not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}

	obs := newWSObserver(conn)
	s.registry.Subscribe(obs, sessionID)
	s.logger.Info("websocket connected", "session_id", sessionID)

	go obs.writePump(s.logger)
	obs.readPump()

	s.registry.Unsubscribe(obs, sessionID)
	s.logger.Info("websocket disconnected", "session_id", sessionID)
}
