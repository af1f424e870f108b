package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"voicerelay/internal/domain"
	"voicerelay/internal/store"
)

// Coordinator owns the join/leave/disconnect protocol. A single mutex
// serializes every state transition, so no transition observes another
// one half-applied, and a store mutation always lands before the
// registry write and before any broadcast. That keeps presence causal:
// a user-left for a connection can never precede its user-joined.
type Coordinator struct {
	mu       sync.Mutex
	store    store.Store
	sessions *Registry
	send     Sender
	now      func() time.Time
}

func NewCoordinator(st store.Store, sessions *Registry, send Sender) *Coordinator {
	return &Coordinator{
		store:    st,
		sessions: sessions,
		send:     send,
		now:      time.Now,
	}
}

// Join puts the connection into roomID, creating the room lazily and
// implicitly leaving any prior room first. It replies with the full
// snapshot to the joiner and broadcasts user-joined to everyone else.
func (c *Coordinator) Join(ctx context.Context, connID, roomID, username string) (*RoomUsers, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sess, ok := c.sessions.Lookup(connID); ok {
		if err := c.leaveLocked(ctx, connID, sess); err != nil {
			return nil, fmt.Errorf("leave previous room %q: %w", sess.RoomID, err)
		}
	}

	if _, err := c.store.GetRoom(ctx, roomID); err != nil {
		if !errors.Is(err, store.ErrRoomNotFound) {
			return nil, fmt.Errorf("get room: %w", err)
		}
		if err := c.store.CreateRoom(ctx, domain.NewRoom(roomID, connID, c.now())); err != nil {
			return nil, fmt.Errorf("create room: %w", err)
		}
		log.Info().Str("module", "app.coordinator").Str("room", roomID).Str("creator", connID).Msg("room created")
	}

	p := &domain.Participant{
		ID:       connID,
		RoomID:   roomID,
		Name:     username,
		JoinedAt: c.now(),
	}
	if err := c.store.AddParticipant(ctx, p); err != nil {
		c.collapseIfEmptyLocked(ctx, roomID)
		return nil, fmt.Errorf("add participant: %w", err)
	}

	c.sessions.Bind(connID, roomID, username)

	users, err := c.usersLocked(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("snapshot room %q: %w", roomID, err)
	}
	snapshot := &RoomUsers{RoomID: roomID, Users: users}

	c.unicast(connID, EventRoomUsers, snapshot)
	c.broadcastLocked(users, connID, EventUserJoined, UserJoined{
		UserID:   connID,
		Username: username,
		Users:    users,
	})
	log.Info().Str("module", "app.coordinator").Str("conn", connID).Str("room", roomID).Str("username", username).Msg("joined")
	return snapshot, nil
}

// Leave removes the connection from roomID. Leaving a room the
// connection is not in is a no-op, not an error.
func (c *Coordinator) Leave(ctx context.Context, connID, roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions.Lookup(connID)
	if !ok || sess.RoomID != roomID {
		log.Debug().Str("module", "app.coordinator").Str("conn", connID).Str("room", roomID).Msg("leave: not a member, ignoring")
		return nil
	}
	return c.leaveLocked(ctx, connID, sess)
}

// Disconnect is the leave path for a dropped transport. The registry
// makes it O(1); a connection that never joined is a no-op.
func (c *Coordinator) Disconnect(ctx context.Context, connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions.Lookup(connID)
	if !ok {
		return
	}
	if err := c.leaveLocked(ctx, connID, sess); err != nil {
		// Nobody left to notify; next reads reconcile.
		log.Error().Err(err).Str("module", "app.coordinator").Str("conn", connID).Msg("disconnect cleanup failed")
	}
}

// UpdatePeerID records the peer identifier the client's media layer
// handed out and announces it to the rest of the room. A stale update
// racing a leave is dropped, not surfaced.
func (c *Coordinator) UpdatePeerID(ctx context.Context, connID, roomID, peerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions.Lookup(connID)
	if !ok || sess.RoomID != roomID {
		log.Debug().Str("module", "app.coordinator").Str("conn", connID).Str("room", roomID).Msg("peer update for non-member, dropping")
		return nil
	}

	err := c.store.UpdateParticipant(ctx, connID, store.ParticipantUpdate{PeerID: &peerID})
	if errors.Is(err, store.ErrParticipantNotFound) {
		log.Debug().Str("module", "app.coordinator").Str("conn", connID).Msg("peer update lost race with leave, dropping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("update peer id: %w", err)
	}

	users, err := c.usersLocked(ctx, roomID)
	if err != nil {
		return fmt.Errorf("list room %q: %w", roomID, err)
	}
	c.broadcastLocked(users, connID, EventUserPeerUpdated, UserPeerUpdated{UserID: connID, PeerID: peerID})
	return nil
}

// ListRooms snapshots the discovery surface. It takes the coordinator
// mutex so counts reflect the state at the instant of the call.
func (c *Coordinator) ListRooms(ctx context.Context) ([]RoomInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms, err := c.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	out := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		parts, err := c.store.ListParticipants(ctx, room.ID)
		if err != nil {
			return nil, fmt.Errorf("list participants of %q: %w", room.ID, err)
		}
		out = append(out, RoomInfo{ID: room.ID, Name: room.Name, ParticipantCount: len(parts)})
	}
	return out, nil
}

// leaveLocked removes the participant, unbinds the session, deletes the
// room if it emptied and otherwise broadcasts user-left. Store first,
// registry second: a failed removal leaves both views untouched.
func (c *Coordinator) leaveLocked(ctx context.Context, connID string, sess Session) error {
	if err := c.store.RemoveParticipant(ctx, connID); err != nil && !errors.Is(err, store.ErrParticipantNotFound) {
		return fmt.Errorf("remove participant: %w", err)
	}
	c.sessions.Unbind(connID)

	remaining, err := c.store.ListParticipants(ctx, sess.RoomID)
	if err != nil {
		return fmt.Errorf("list remaining in %q: %w", sess.RoomID, err)
	}
	if len(remaining) == 0 {
		if err := c.store.DeleteRoom(ctx, sess.RoomID); err != nil && !errors.Is(err, store.ErrRoomNotFound) {
			return fmt.Errorf("delete empty room: %w", err)
		}
		log.Info().Str("module", "app.coordinator").Str("room", sess.RoomID).Msg("room emptied, deleted")
		return nil
	}

	departure := UserLeft{UserID: connID, Username: sess.Username}
	for _, p := range remaining {
		c.unicast(p.ID, EventUserLeft, departure)
	}
	log.Info().Str("module", "app.coordinator").Str("conn", connID).Str("room", sess.RoomID).Msg("left")
	return nil
}

// collapseIfEmptyLocked undoes a lazy room creation whose first join
// failed, keeping the no-empty-rooms invariant.
func (c *Coordinator) collapseIfEmptyLocked(ctx context.Context, roomID string) {
	parts, err := c.store.ListParticipants(ctx, roomID)
	if err != nil || len(parts) > 0 {
		return
	}
	if err := c.store.DeleteRoom(ctx, roomID); err != nil && !errors.Is(err, store.ErrRoomNotFound) {
		log.Error().Err(err).Str("module", "app.coordinator").Str("room", roomID).Msg("failed to collapse empty room")
	}
}

func (c *Coordinator) usersLocked(ctx context.Context, roomID string) (map[string]UserInfo, error) {
	parts, err := c.store.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	users := make(map[string]UserInfo, len(parts))
	for _, p := range parts {
		users[p.ID] = UserInfo{
			ID:         p.ID,
			Username:   p.Name,
			PeerID:     p.PeerID,
			IsSpeaking: p.Speaking,
		}
	}
	return users, nil
}

func (c *Coordinator) broadcastLocked(users map[string]UserInfo, except, event string, data any) {
	for id := range users {
		if id == except {
			continue
		}
		c.unicast(id, event, data)
	}
}

// unicast logs and drops on transport backpressure. Losing one frame to
// a slow client is preferable to blocking the whole state machine.
func (c *Coordinator) unicast(connID, event string, data any) {
	if err := c.send.Send(connID, event, data); err != nil {
		log.Debug().Err(err).Str("module", "app.coordinator").Str("conn", connID).Str("event", event).Msg("send dropped")
	}
}
