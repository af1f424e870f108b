package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"voicerelay/internal/domain"
)

// Memory is the default backend: mutex-guarded maps with a secondary
// index room id -> participant ids so room listing stays cheap.
type Memory struct {
	mu           sync.RWMutex
	rooms        map[string]*domain.Room
	participants map[string]*domain.Participant
	byRoom       map[string]map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		rooms:        make(map[string]*domain.Room),
		participants: make(map[string]*domain.Participant),
		byRoom:       make(map[string]map[string]struct{}),
	}
}

func (m *Memory) CreateRoom(_ context.Context, room *domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *room
	m.rooms[room.ID] = &cp
	if _, ok := m.byRoom[room.ID]; !ok {
		m.byRoom[room.ID] = make(map[string]struct{})
	}
	log.Debug().Str("module", "store.memory").Str("room", room.ID).Msg("room created")
	return nil
}

func (m *Memory) GetRoom(_ context.Context, id string) (*domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (m *Memory) DeleteRoom(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return ErrRoomNotFound
	}
	delete(m.rooms, id)
	delete(m.byRoom, id)
	log.Debug().Str("module", "store.memory").Str("room", id).Msg("room deleted")
	return nil
}

func (m *Memory) ListRooms(_ context.Context) ([]*domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		cp := *room
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) AddParticipant(_ context.Context, p *domain.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.participants[p.ID] = &cp
	idx, ok := m.byRoom[p.RoomID]
	if !ok {
		idx = make(map[string]struct{})
		m.byRoom[p.RoomID] = idx
	}
	idx[p.ID] = struct{}{}
	return nil
}

func (m *Memory) RemoveParticipant(_ context.Context, connID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[connID]
	if !ok {
		return ErrParticipantNotFound
	}
	delete(m.participants, connID)
	if idx, ok := m.byRoom[p.RoomID]; ok {
		delete(idx, connID)
	}
	return nil
}

func (m *Memory) ListParticipants(_ context.Context, roomID string) ([]*domain.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.byRoom[roomID]
	out := make([]*domain.Participant, 0, len(idx))
	for connID := range idx {
		cp := *m.participants[connID]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) UpdateParticipant(_ context.Context, connID string, upd ParticipantUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[connID]
	if !ok {
		return ErrParticipantNotFound
	}
	if upd.PeerID != nil {
		p.PeerID = *upd.PeerID
	}
	if upd.Speaking != nil {
		p.Speaking = *upd.Speaking
	}
	return nil
}
