// Package ws is the transport boundary: one websocket per client, a
// buffered outbound queue per connection, and a dispatch table mapping
// inbound events onto the coordinator, relay and speaking components.
package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Outbound queue depth before TrySend reports backpressure.
	sendQueueSize = 32
)

var ErrBackpressure = errors.New("backpressure")

// Conn wraps a websocket connection with a buffered send queue. Writes
// go through TrySend so a slow client can never block the caller.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
	}
}

func (c *Conn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.ws.Close()
}
