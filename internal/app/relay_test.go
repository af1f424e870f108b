package app_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"voicerelay/internal/app"
)

func TestRelayDeliversToLiveTarget(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	coord, reg, _, send := newCoordinator(t)
	relay := app.NewRelay(reg, send)

	_, err := coord.Join(ctx, "A", "r1", "Alice")
	req.NoError(err)
	_, err = coord.Join(ctx, "B", "r1", "Bob")
	req.NoError(err)
	send.reset()

	payload := json.RawMessage(`{"sdp":"offer-blob"}`)
	relay.Relay("A", "B", payload)

	got := send.forConn("B")
	req.Len(got, 1)
	req.Equal(app.EventSignal, got[0].Event)
	ev, ok := got[0].Data.(app.SignalEvent)
	req.True(ok)
	req.Equal("A", ev.UserID)
	req.JSONEq(string(payload), string(ev.Signal))
}

func TestRelayToDisconnectedTargetIsDropped(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	coord, reg, _, send := newCoordinator(t)
	relay := app.NewRelay(reg, send)

	_, err := coord.Join(ctx, "A", "r1", "Alice")
	req.NoError(err)
	_, err = coord.Join(ctx, "B", "r1", "Bob")
	req.NoError(err)
	coord.Disconnect(ctx, "B")
	send.reset()

	// Expected race: B vanished mid-negotiation. No delivery, no error
	// surfaced to A.
	relay.Relay("A", "B", json.RawMessage(`{"candidate":"late"}`))
	req.Empty(send.all())
}

func TestRelayToUnknownTargetIsDropped(t *testing.T) {
	req := require.New(t)
	reg := app.NewRegistry()
	send := &recordingSender{}
	relay := app.NewRelay(reg, send)

	relay.Relay("A", "nobody", json.RawMessage(`{}`))
	req.Empty(send.all())
}
