package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"voicerelay/internal/app"
)

func TestSpeakingBroadcast(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	coord, _, st, send := newCoordinator(t)
	speaking := app.NewSpeaking(coord)

	_, err := coord.Join(ctx, "A", "r1", "Alice")
	req.NoError(err)
	_, err = coord.Join(ctx, "B", "r1", "Bob")
	req.NoError(err)
	send.reset()

	req.NoError(speaking.Set(ctx, "A", "r1", true))

	got := send.ofEvent(app.EventUserSpeakingState)
	req.Len(got, 1)
	req.Equal("B", got[0].ConnID, "speaker must not be echoed its own state")
	ev, ok := got[0].Data.(app.UserSpeakingState)
	req.True(ok)
	req.Equal("A", ev.UserID)
	req.True(ev.IsSpeaking)

	parts, err := st.ListParticipants(ctx, "r1")
	req.NoError(err)
	for _, p := range parts {
		if p.ID == "A" {
			req.True(p.Speaking)
		}
	}
}

func TestSpeakingDuplicateIsRebroadcast(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	coord, _, _, send := newCoordinator(t)
	speaking := app.NewSpeaking(coord)

	_, err := coord.Join(ctx, "A", "r1", "Alice")
	req.NoError(err)
	_, err = coord.Join(ctx, "B", "r1", "Bob")
	req.NoError(err)
	send.reset()

	// Clients treat a repeat as a timestamp refresh, so both go out.
	req.NoError(speaking.Set(ctx, "A", "r1", true))
	req.NoError(speaking.Set(ctx, "A", "r1", true))
	req.Len(send.ofEvent(app.EventUserSpeakingState), 2)
}

func TestSpeakingNonMemberIsNoop(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	coord, _, _, send := newCoordinator(t)
	speaking := app.NewSpeaking(coord)

	_, err := coord.Join(ctx, "A", "r1", "Alice")
	req.NoError(err)
	send.reset()

	req.NoError(speaking.Set(ctx, "ghost", "r1", true))
	req.NoError(speaking.Set(ctx, "A", "other", true))
	req.Empty(send.all())
}
