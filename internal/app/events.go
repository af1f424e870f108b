package app

import "encoding/json"

// Outbound event names. The vocabulary matches what the web client
// subscribes to.
const (
	EventRoomUsers         = "room-users"
	EventUserJoined        = "user-joined"
	EventUserLeft          = "user-left"
	EventUserPeerUpdated   = "user-peer-updated"
	EventSignal            = "signal"
	EventUserSpeakingState = "user-speaking-state"
	EventOperationFailed   = "operation-failed"
)

// Sender is the transport collaborator: a persistent per-client channel
// the coordinator pushes events into. The websocket hub implements it.
type Sender interface {
	Send(connID, event string, data any) error
}

// UserInfo is a participant's public view. PeerID stays empty until the
// owning connection has supplied it, so it is never echoed early.
type UserInfo struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	PeerID     string `json:"peerId,omitempty"`
	IsSpeaking bool   `json:"isSpeaking"`
}

// RoomUsers is the snapshot replied to a joining connection, keyed by
// connection id.
type RoomUsers struct {
	RoomID string              `json:"roomId"`
	Users  map[string]UserInfo `json:"users"`
}

// UserJoined carries the full snapshot, not a delta: the reference
// client rebuilds its participant list from the users map.
type UserJoined struct {
	UserID   string              `json:"userId"`
	Username string              `json:"username"`
	Users    map[string]UserInfo `json:"users"`
}

type UserLeft struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type UserPeerUpdated struct {
	UserID string `json:"userId"`
	PeerID string `json:"peerId"`
}

// SignalEvent wraps an opaque negotiation payload. UserID is the source
// connection; the relay never looks inside Signal.
type SignalEvent struct {
	UserID string          `json:"userId"`
	Signal json.RawMessage `json:"signal"`
}

type UserSpeakingState struct {
	UserID     string `json:"userId"`
	IsSpeaking bool   `json:"isSpeaking"`
}

type OperationFailed struct {
	Op     string `json:"op"`
	RoomID string `json:"roomId,omitempty"`
	Error  string `json:"error"`
}

// RoomInfo is the discovery surface row for GET /api/rooms.
type RoomInfo struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ParticipantCount int    `json:"participantCount"`
}
