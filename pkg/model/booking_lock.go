package model

import "time"

// RoomLock is an advisory lock document guarding the check-then-insert
// critical section of booking creation. Its _id is derived from the room id
// alone, so creates for different rooms never contend. A TTL index on
// expires_at clears locks orphaned by a crashed writer.
type RoomLock struct {
	ID        string    `bson:"_id" json:"id"`
	RoomID    string    `bson:"room_id" json:"room_id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
