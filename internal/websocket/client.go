package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	// sendBuffer is the number of outbound payloads queued per client before
	// pushes start being dropped.
	sendBuffer = 256
	// writeTimeout bounds a single websocket write.
	writeTimeout = 10 * time.Second
)

// Client is one live websocket connection bound to a verified identity.
// It implements chat.Channel.
type Client struct {
	identity string
	conn     *websocket.Conn

	mu   sync.RWMutex
	send chan []byte
}

func newClient(identity string, conn *websocket.Conn) *Client {
	return &Client{
		identity: identity,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
}

// Identity returns the identity this channel is bound to.
func (c *Client) Identity() string {
	return c.identity
}

// Push enqueues a payload for delivery. It never blocks: a full buffer means
// the client is lagging and the payload is dropped, which the protocol
// treats as "receiver unreachable".
func (c *Client) Push(payload []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.send == nil {
		return
	}

	select {
	case c.send <- payload:
	default:
		slog.Warn("Client send buffer full, dropping payload", "identity", c.identity)
	}
}

// Close shuts the outbound side down. Safe to call more than once and
// concurrently with Push.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// writePump pumps queued payloads to the websocket connection until the send
// channel is closed or a write fails.
func (c *Client) writePump() {
	defer c.conn.Close(websocket.StatusNormalClosure, "Server-side cleanup")

	c.mu.RLock()
	send := c.send
	c.mu.RUnlock()
	if send == nil {
		return
	}

	for payload := range send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "identity", c.identity, "error", err)
			return
		}
	}
}
