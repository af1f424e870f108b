package app

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Session binds a live connection to its room and display name. It is
// redundant with the participant record on purpose: the registry is the
// O(1) lookup the coordinator consults on disconnect instead of
// scanning every room.
type Session struct {
	RoomID   string
	Username string
}

// Registry is the single source of truth for "who is connected as
// whom, where". Only the coordinator mutates it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

func (r *Registry) Bind(connID, roomID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[connID] = Session{RoomID: roomID, Username: username}
	log.Info().Str("module", "app.registry").Str("conn", connID).Str("room", roomID).Msg("bound session")
}

func (r *Registry) Lookup(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connID]
	return s, ok
}

func (r *Registry) Unbind(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, connID)
	log.Info().Str("module", "app.registry").Str("conn", connID).Msg("unbound session")
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
