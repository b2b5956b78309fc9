package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "roomio/internal/bookings/errors"
	"roomio/pkg/config"
	"roomio/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Room_locks"

// RoomLockRepository provides the per-room advisory lock. Acquisition relies
// on the unique _id index: a duplicate key error means another request holds
// the room's critical section right now.
type RoomLockRepository interface {
	Acquire(ctx context.Context, roomID string, ttl time.Duration) (*model.RoomLock, error)
	Release(ctx context.Context, lockID string) error
}

type mongoRoomLockRepository struct {
	collection *mongo.Collection
}

func NewRoomLockRepository(cfg *config.Config) RoomLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoRoomLockRepository) Acquire(ctx context.Context, roomID string, ttl time.Duration) (*model.RoomLock, error) {
	now := time.Now()
	lock := &model.RoomLock{
		ID:        fmt.Sprintf("room_lock_%s", roomID),
		RoomID:    roomID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, bookingserrors.ErrLockHeld
		}
		return nil, err
	}

	return lock, nil
}

func (r *mongoRoomLockRepository) Release(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
