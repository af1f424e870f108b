package app_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voicerelay/internal/app"
)

func TestRegistryBindLookupUnbind(t *testing.T) {
	req := require.New(t)
	reg := app.NewRegistry()

	_, ok := reg.Lookup("A")
	req.False(ok)

	reg.Bind("A", "r1", "Alice")
	sess, ok := reg.Lookup("A")
	req.True(ok)
	req.Equal("r1", sess.RoomID)
	req.Equal("Alice", sess.Username)
	req.Equal(1, reg.Len())

	// Rebinding moves the session; a connection is never in two rooms.
	reg.Bind("A", "r2", "Alice")
	sess, ok = reg.Lookup("A")
	req.True(ok)
	req.Equal("r2", sess.RoomID)
	req.Equal(1, reg.Len())

	reg.Unbind("A")
	_, ok = reg.Lookup("A")
	req.False(ok)
	req.Equal(0, reg.Len())

	// Unbinding twice is harmless.
	reg.Unbind("A")
	req.Equal(0, reg.Len())
}
