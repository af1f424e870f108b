package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownConn = errors.New("unknown connection")

// envelope is the wire frame: every message in both directions is
// {"event": <name>, "data": <payload>}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub maps connection ids to live connections and implements
// app.Sender. It holds no room knowledge; routing decisions stay in the
// app layer.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*Conn)}
}

func (h *Hub) Add(connID string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[connID] = c
}

func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
}

// Send marshals the event envelope and queues it on the target
// connection. A gone target or a full queue comes back as an error for
// the caller to log.
func (h *Hub) Send(connID, event string, data any) error {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return ErrUnknownConn
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(envelope{Event: event, Data: raw})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event, err)
	}
	return c.TrySend(frame)
}
