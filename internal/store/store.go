// Package store persists room and participant records. It is pure data
// access: every business rule (lazy creation, empty-room deletion,
// membership transitions) belongs to the coordinator, which composes
// these single-record operations into multi-step transitions.
package store

import (
	"context"
	"errors"

	"voicerelay/internal/domain"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrParticipantNotFound = errors.New("participant not found")
)

// ParticipantUpdate carries the mutable participant fields. Nil means
// leave the field untouched.
type ParticipantUpdate struct {
	PeerID   *string
	Speaking *bool
}

// Store is the single polymorphic Room Store contract; memory and
// mongo backends implement it behind the same result-returning shape so
// the coordinator is written once against the interface.
type Store interface {
	CreateRoom(ctx context.Context, room *domain.Room) error
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	DeleteRoom(ctx context.Context, id string) error
	ListRooms(ctx context.Context) ([]*domain.Room, error)

	AddParticipant(ctx context.Context, p *domain.Participant) error
	RemoveParticipant(ctx context.Context, connID string) error
	ListParticipants(ctx context.Context, roomID string) ([]*domain.Participant, error)
	UpdateParticipant(ctx context.Context, connID string, upd ParticipantUpdate) error
}
