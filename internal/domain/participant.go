package domain

import (
	"errors"
	"time"
)

const (
	MaxUsernameLen = 36
	MaxRoomIDLen   = 64
)

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrRoomIDEmpty     = errors.New("room id empty")
	ErrRoomIDTooLong   = errors.New("room id too long")
)

// Participant is one connection's membership record within exactly one
// room. Its ID equals the connection id, so it is unique per live
// connection, not per human.
type Participant struct {
	ID       string    `json:"id" bson:"_id"`
	RoomID   string    `json:"roomId" bson:"roomId"`
	Name     string    `json:"name" bson:"name"`
	JoinedAt time.Time `json:"joinedAt" bson:"joinedAt"`
	PeerID   string    `json:"peerId,omitempty" bson:"peerId,omitempty"`
	Speaking bool      `json:"isSpeaking" bson:"isSpeaking"`
}

// ValidateUsername is for the protocol boundary; the coordinator
// assumes its inputs are already well formed.
func ValidateUsername(name string) error {
	if len(name) == 0 {
		return ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}

func ValidateRoomID(id string) error {
	if len(id) == 0 {
		return ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLen {
		return ErrRoomIDTooLong
	}
	return nil
}
