package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"voicerelay/internal/store"
)

// Speaking broadcasts per-participant speaking-state changes. The
// boolean arrives already debounced by the capture side; this component
// only guarantees idempotent, per-connection-ordered broadcast. It
// shares the coordinator's mutex so its one field update is serialized
// with membership transitions.
type Speaking struct {
	c *Coordinator
}

func NewSpeaking(c *Coordinator) *Speaking {
	return &Speaking{c: c}
}

// Set updates the participant's speaking flag and broadcasts it to the
// rest of the room. Duplicate booleans are re-broadcast on purpose:
// clients treat them as a timestamp refresh. A connection that is not a
// member of roomID is a no-op.
func (s *Speaking) Set(ctx context.Context, connID, roomID string, isSpeaking bool) error {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions.Lookup(connID)
	if !ok || sess.RoomID != roomID {
		log.Debug().Str("module", "app.speaking").Str("conn", connID).Str("room", roomID).Msg("speaking update for non-member, dropping")
		return nil
	}

	err := c.store.UpdateParticipant(ctx, connID, store.ParticipantUpdate{Speaking: &isSpeaking})
	if errors.Is(err, store.ErrParticipantNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("update speaking flag: %w", err)
	}

	users, err := c.usersLocked(ctx, roomID)
	if err != nil {
		return fmt.Errorf("list room %q: %w", roomID, err)
	}
	c.broadcastLocked(users, connID, EventUserSpeakingState, UserSpeakingState{
		UserID:     connID,
		IsSpeaking: isSpeaking,
	})
	return nil
}
