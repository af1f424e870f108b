package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"voicerelay/internal/app"
	"voicerelay/internal/domain"
)

// Inbound event names.
const (
	eventJoinRoom     = "join-room"
	eventLeaveRoom    = "leave-room"
	eventUserPeerID   = "user-peer-id"
	eventSignal       = "signal"
	eventUserSpeaking = "user-speaking"
	eventPing         = "ping"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	coord      *app.Coordinator
	relay      *app.Relay
	speaking   *app.Speaking
	hub        *Hub
	readLimit  int64
	pingPeriod time.Duration
}

func NewController(coord *app.Coordinator, relay *app.Relay, speaking *app.Speaking, hub *Hub, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{
		coord:      coord,
		relay:      relay,
		speaking:   speaking,
		hub:        hub,
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
	}
}

// Handle upgrades the request and runs the connection's pumps. Each
// websocket gets a fresh uuid: participant identity is per connection,
// not per browser.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade failed")
		return
	}

	connID := uuid.NewString()
	conn := newConn(ws)
	ctl.hub.Add(connID, conn)
	log.Info().Str("module", "ws").Str("conn", connID).Msg("connected")

	connCtx, cancel := context.WithCancel(ctx)
	go ctl.writePump(connCtx, conn)
	go func() {
		ctl.readPump(connCtx, connID, conn)
		cancel()
		ctl.hub.Remove(connID)
		conn.Close()
		// Transport-level close is the disconnect event.
		ctl.coord.Disconnect(context.Background(), connID)
		log.Info().Str("module", "ws").Str("conn", connID).Msg("disconnected")
	}()
}

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "ws").Msg("write error")
				return
			}
		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, connID string, c *Conn) {
	c.ws.SetReadLimit(ctl.readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Str("module", "ws").Str("conn", connID).Msg("read error")
				}
				return
			}
			ctl.dispatch(ctx, connID, data)
		}
	}
}

func (ctl *Controller) dispatch(ctx context.Context, connID string, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "ws").Str("conn", connID).Msg("bad frame")
		ctl.fail(connID, "", "", "bad payload")
		return
	}

	switch env.Event {
	case eventJoinRoom:
		ctl.handleJoin(ctx, connID, env.Data)
	case eventLeaveRoom:
		ctl.handleLeave(ctx, connID, env.Data)
	case eventUserPeerID:
		ctl.handlePeerID(ctx, connID, env.Data)
	case eventSignal:
		ctl.handleSignal(connID, env.Data)
	case eventUserSpeaking:
		ctl.handleSpeaking(ctx, connID, env.Data)
	case eventPing:
		if err := ctl.hub.Send(connID, "pong", struct{}{}); err != nil {
			log.Debug().Err(err).Str("module", "ws").Str("conn", connID).Msg("pong dropped")
		}
	default:
		log.Warn().Str("module", "ws").Str("event", env.Event).Msg("unknown event")
	}
}

func (ctl *Controller) handleJoin(ctx context.Context, connID string, data json.RawMessage) {
	var p struct {
		RoomID   string `json:"roomId"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.fail(connID, eventJoinRoom, "", "bad payload")
		return
	}
	if err := domain.ValidateRoomID(p.RoomID); err != nil {
		ctl.fail(connID, eventJoinRoom, p.RoomID, err.Error())
		return
	}
	if err := domain.ValidateUsername(p.Username); err != nil {
		ctl.fail(connID, eventJoinRoom, p.RoomID, err.Error())
		return
	}
	if _, err := ctl.coord.Join(ctx, connID, p.RoomID, p.Username); err != nil {
		log.Error().Err(err).Str("module", "ws").Str("conn", connID).Str("room", p.RoomID).Msg("join failed")
		ctl.fail(connID, eventJoinRoom, p.RoomID, "operation failed")
	}
}

func (ctl *Controller) handleLeave(ctx context.Context, connID string, data json.RawMessage) {
	var p struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.fail(connID, eventLeaveRoom, "", "bad payload")
		return
	}
	if err := ctl.coord.Leave(ctx, connID, p.RoomID); err != nil {
		log.Error().Err(err).Str("module", "ws").Str("conn", connID).Str("room", p.RoomID).Msg("leave failed")
		ctl.fail(connID, eventLeaveRoom, p.RoomID, "operation failed")
	}
}

func (ctl *Controller) handlePeerID(ctx context.Context, connID string, data json.RawMessage) {
	var p struct {
		RoomID string `json:"roomId"`
		PeerID string `json:"peerId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.fail(connID, eventUserPeerID, "", "bad payload")
		return
	}
	if err := ctl.coord.UpdatePeerID(ctx, connID, p.RoomID, p.PeerID); err != nil {
		log.Error().Err(err).Str("module", "ws").Str("conn", connID).Msg("peer update failed")
		ctl.fail(connID, eventUserPeerID, p.RoomID, "operation failed")
	}
}

func (ctl *Controller) handleSignal(connID string, data json.RawMessage) {
	var p struct {
		UserID string          `json:"userId"`
		Signal json.RawMessage `json:"signal"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.UserID == "" {
		ctl.fail(connID, eventSignal, "", "bad payload")
		return
	}
	ctl.relay.Relay(connID, p.UserID, p.Signal)
}

func (ctl *Controller) handleSpeaking(ctx context.Context, connID string, data json.RawMessage) {
	var p struct {
		RoomID     string `json:"roomId"`
		IsSpeaking bool   `json:"isSpeaking"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.fail(connID, eventUserSpeaking, "", "bad payload")
		return
	}
	if err := ctl.speaking.Set(ctx, connID, p.RoomID, p.IsSpeaking); err != nil {
		log.Error().Err(err).Str("module", "ws").Str("conn", connID).Msg("speaking update failed")
		ctl.fail(connID, eventUserSpeaking, p.RoomID, "operation failed")
	}
}

func (ctl *Controller) fail(connID, op, roomID, reason string) {
	err := ctl.hub.Send(connID, app.EventOperationFailed, app.OperationFailed{
		Op:     op,
		RoomID: roomID,
		Error:  reason,
	})
	if err != nil {
		log.Debug().Err(err).Str("module", "ws").Str("conn", connID).Msg("failure notice dropped")
	}
}
