package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"voicerelay/internal/adapters/ws"
	"voicerelay/internal/app"
	"voicerelay/internal/store"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory()
	reg := app.NewRegistry()
	hub := ws.NewHub()
	coord := app.NewCoordinator(st, reg, hub)
	relay := app.NewRelay(reg, hub)
	speaking := app.NewSpeaking(coord)
	ctl := ws.NewController(coord, relay, speaking, hub, 65536, 30*time.Second)

	r := gin.New()
	r.GET("/api/ws", func(c *gin.Context) {
		ctl.Handle(context.Background(), c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, c.WriteJSON(envelope{Event: event, Data: raw}))
}

func recv(t *testing.T, c *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	var env envelope
	require.NoError(t, c.ReadJSON(&env))
	return env
}

func TestJoinSignalLeaveOverWebsocket(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	connA := dial(t, srv)
	send(t, connA, "join-room", map[string]any{"roomId": "r1", "username": "Alice"})

	env := recv(t, connA)
	req.Equal("room-users", env.Event)
	var snapA app.RoomUsers
	req.NoError(json.Unmarshal(env.Data, &snapA))
	req.Equal("r1", snapA.RoomID)
	req.Len(snapA.Users, 1)

	var aliceID string
	for id := range snapA.Users {
		aliceID = id
	}

	connB := dial(t, srv)
	send(t, connB, "join-room", map[string]any{"roomId": "r1", "username": "Bob"})

	env = recv(t, connB)
	req.Equal("room-users", env.Event)
	var snapB app.RoomUsers
	req.NoError(json.Unmarshal(env.Data, &snapB))
	req.Len(snapB.Users, 2)

	var bobID string
	for id := range snapB.Users {
		if id != aliceID {
			bobID = id
		}
	}
	req.NotEmpty(bobID)

	env = recv(t, connA)
	req.Equal("user-joined", env.Event)
	var joined app.UserJoined
	req.NoError(json.Unmarshal(env.Data, &joined))
	req.Equal(bobID, joined.UserID)
	req.Equal("Bob", joined.Username)
	req.Len(joined.Users, 2)

	// Point-to-point signal A -> B carries the source id verbatim.
	send(t, connA, "signal", map[string]any{"userId": bobID, "signal": map[string]string{"sdp": "offer"}})
	env = recv(t, connB)
	req.Equal("signal", env.Event)
	var sig app.SignalEvent
	req.NoError(json.Unmarshal(env.Data, &sig))
	req.Equal(aliceID, sig.UserID)
	req.JSONEq(`{"sdp":"offer"}`, string(sig.Signal))

	// A closes the transport: B observes user-left.
	req.NoError(connA.Close())
	env = recv(t, connB)
	req.Equal("user-left", env.Event)
	var left app.UserLeft
	req.NoError(json.Unmarshal(env.Data, &left))
	req.Equal(aliceID, left.UserID)
	req.Equal("Alice", left.Username)
}

func TestBoundaryRejectsMalformedJoin(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	conn := dial(t, srv)
	send(t, conn, "join-room", map[string]any{"roomId": "r1", "username": ""})

	env := recv(t, conn)
	req.Equal("operation-failed", env.Event)
	var fail app.OperationFailed
	req.NoError(json.Unmarshal(env.Data, &fail))
	req.Equal("join-room", fail.Op)

	send(t, conn, "join-room", map[string]any{"roomId": "", "username": "Alice"})
	env = recv(t, conn)
	req.Equal("operation-failed", env.Event)
}

func TestPingPong(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	conn := dial(t, srv)
	send(t, conn, "ping", struct{}{})
	env := recv(t, conn)
	req.Equal("pong", env.Event)
}
