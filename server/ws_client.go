package server

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"confluence-mcp/config"

	"github.com/bytedance/sonic"
	"github.com/gofiber/contrib/websocket"
)

var errClientClosed = errors.New("client closed")

// WSClient owns the write side of one socket; all writes go through send.
type WSClient struct {
	conn   *websocket.Conn
	send   chan []byte
	hub    *NotifyHub
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

func NewWSClient(conn *websocket.Conn, hub *NotifyHub) *WSClient {
	c := &WSClient{
		conn: conn,
		send: make(chan []byte, 64),
		hub:  hub,
	}
	go c.writePump()
	return c
}

func (c *WSClient) writePump() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(config.WSWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Error("client write error", "err", err)
			break
		}
	}
	c.conn.Close()
}

// Enqueue queues msg without blocking; a full queue closes the client.
func (c *WSClient) Enqueue(msg []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		go c.Close()
		return errors.New("send queue full")
	}
}

func (c *WSClient) SendJSON(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return c.Enqueue(data)
}

func (c *WSClient) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		c.hub.RemoveClientConn(c)
	})
}
