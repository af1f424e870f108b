// Package domain contains the entities shared by the store and the
// coordinator. No transport or lifecycle logic here.
package domain

import "time"

const DefaultMaxParticipants = 10

// Room is a named group of connections. It is created lazily on the
// first join and deleted the moment its participant set becomes empty.
type Room struct {
	ID              string    `json:"id" bson:"_id"`
	Name            string    `json:"name" bson:"name"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	MaxParticipants int       `json:"maxParticipants" bson:"maxParticipants"`
	IsPrivate       bool      `json:"isPrivate" bson:"isPrivate"`
	Password        string    `json:"-" bson:"password,omitempty"`
	CreatorID       string    `json:"creatorId" bson:"creatorId"`
}

// NewRoom fills the defaults the original schema applies. The room id
// doubles as its display name unless a separate name is given later.
func NewRoom(id, creatorID string, now time.Time) *Room {
	return &Room{
		ID:              id,
		Name:            id,
		CreatedAt:       now,
		MaxParticipants: DefaultMaxParticipants,
		CreatorID:       creatorID,
	}
}
