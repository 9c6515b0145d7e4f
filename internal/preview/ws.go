// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Socket timings shared by preview and editor connections.
const (
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 64 << 10
)

// NewUpgrader returns a websocket upgrader that only accepts origins on
// the policy's allow-list.
func NewUpgrader(policy *OriginPolicy) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     policy.CheckOrigin,
	}
}

// Server upgrades preview requests and streams hub messages to them.
type Server struct {
	hub      *Hub
	upgrader *websocket.Upgrader
}

// NewServer creates a preview socket server.
func NewServer(hub *Hub, policy *OriginPolicy) *Server {
	return &Server{hub: hub, upgrader: NewUpgrader(policy)}
}

// Serve upgrades the request and forwards every message for storeID
// until the client goes away. Clients never send anything meaningful;
// inbound frames are read only to notice disconnects and pongs.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, storeID uuid.UUID) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Debug("preview upgrade refused", "store_id", storeID, "origin", r.Header.Get("Origin"), "error", err)
		return
	}

	sub := s.hub.Subscribe(storeID)
	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, sub, done)
}

// readPump discards inbound frames and closes done when the peer leaves.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(PongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, sub *Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-sub.C():
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(WriteWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
