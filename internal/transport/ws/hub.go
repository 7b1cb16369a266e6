// Package ws fans live updates out to connected websocket clients.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"fleetsync/internal/domain"
)

const (
	// sendBuffer is the per-client queue; a client that cannot drain it
	// loses updates rather than slowing everyone else down.
	sendBuffer = 64

	writeWait = 10 * time.Second
)

type envelope struct {
	Type string `json:"type"` // "telemetry" or "alert"
	Data any    `json:"data"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan envelope
}

// Hub upgrades dashboard connections and broadcasts every published update
// to all of them. It satisfies the broadcast.Sink contract: publishing never
// blocks and never returns an error for a slow or gone client.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboards are served from anywhere during development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

func (h *Hub) Name() string { return "websocket" }

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws: upgrade failed", "err", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan envelope, sendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	slog.Info("ws: client connected", "client", c.id)

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) PublishTelemetry(ctx context.Context, rec domain.TelemetryRecord) error {
	h.publish(envelope{Type: "telemetry", Data: rec})
	return nil
}

func (h *Hub) PublishAlert(ctx context.Context, ev domain.AlertEvent) error {
	h.publish(envelope{Type: "alert", Data: ev})
	return nil
}

func (h *Hub) publish(env envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.send <- env:
		default:
			// Client queue full; drop this update for this client.
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for env := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(env); err != nil {
			slog.Info("ws: client write failed, dropping", "client", c.id, "err", err)
			h.drop(c)
			return
		}
	}

	// Channel closed by Close or readPump.
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
}

// readPump discards inbound frames; the dashboard channel is one-way. Its
// job is to notice disconnects and unregister the client.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}
