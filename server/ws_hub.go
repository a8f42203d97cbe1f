package server

import (
	"log/slog"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// NotifyHub tracks connected sockets that receive page notifications.
type NotifyHub struct {
	mu      sync.Mutex
	clients map[*WSClient]struct{}
}

func NewNotifyHub() *NotifyHub {
	return &NotifyHub{clients: make(map[*WSClient]struct{})}
}

func (h *NotifyHub) AddClientConn(conn *websocket.Conn) *WSClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	cl := NewWSClient(conn, h)
	h.clients[cl] = struct{}{}
	return cl
}

func (h *NotifyHub) RemoveClientConn(c *WSClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *NotifyHub) snapshot() []*WSClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

func (h *NotifyHub) Broadcast(msg []byte) {
	for _, c := range h.snapshot() {
		if err := c.Enqueue(msg); err != nil {
			slog.Warn("dropping notification", "err", err)
		}
	}
}

func (h *NotifyHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *NotifyHub) CloseAll() {
	for _, c := range h.snapshot() {
		c.Close()
	}
}
