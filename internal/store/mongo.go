package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"voicerelay/internal/domain"
)

// Mongo is the durable backend: two collections, rooms keyed by id and
// participants keyed by connection id with a secondary index on roomId.
type Mongo struct {
	client       *mongo.Client
	rooms        *mongo.Collection
	participants *mongo.Collection
}

func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	db := client.Database(dbName)

	s := &Mongo{
		client:       client,
		rooms:        db.Collection("rooms"),
		participants: db.Collection("participants"),
	}
	_, err = s.participants.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "roomId", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("mongo participants index: %w", err)
	}
	log.Info().Str("module", "store.mongo").Str("db", dbName).Msg("connected")
	return s, nil
}

func (s *Mongo) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Mongo) CreateRoom(ctx context.Context, room *domain.Room) error {
	_, err := s.rooms.InsertOne(ctx, room)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (s *Mongo) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	var room domain.Room
	err := s.rooms.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	return &room, nil
}

func (s *Mongo) DeleteRoom(ctx context.Context, id string) error {
	// Orphaned participants would violate the membership invariant, so
	// they go first.
	if _, err := s.participants.DeleteMany(ctx, bson.M{"roomId": id}); err != nil {
		return fmt.Errorf("delete room participants: %w", err)
	}
	res, err := s.rooms.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (s *Mongo) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	cursor, err := s.rooms.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer cursor.Close(ctx)

	var rooms []*domain.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}

func (s *Mongo) AddParticipant(ctx context.Context, p *domain.Participant) error {
	_, err := s.participants.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (s *Mongo) RemoveParticipant(ctx context.Context, connID string) error {
	res, err := s.participants.DeleteOne(ctx, bson.M{"_id": connID})
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (s *Mongo) ListParticipants(ctx context.Context, roomID string) ([]*domain.Participant, error) {
	cursor, err := s.participants.Find(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.Participant
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	return out, nil
}

func (s *Mongo) UpdateParticipant(ctx context.Context, connID string, upd ParticipantUpdate) error {
	set := bson.M{}
	if upd.PeerID != nil {
		set["peerId"] = *upd.PeerID
	}
	if upd.Speaking != nil {
		set["isSpeaking"] = *upd.Speaking
	}
	if len(set) == 0 {
		return nil
	}
	res, err := s.participants.UpdateOne(ctx, bson.M{"_id": connID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrParticipantNotFound
	}
	return nil
}
