package model

import "time"

type RoomType string

const (
	RoomSingle       RoomType = "single"
	RoomDouble       RoomType = "double"
	RoomSuite        RoomType = "suite"
	RoomDeluxe       RoomType = "deluxe"
	RoomPresidential RoomType = "presidential"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomMaintenance RoomStatus = "maintenance"
	RoomInactive    RoomStatus = "inactive"
)

// Room is a bookable unit. The reservation engine treats rooms as a read-only
// catalog: only the rooms service writes them.
type Room struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Number      string     `json:"number" bson:"number" validate:"required,min=1,max=10"`
	Type        RoomType   `json:"type" bson:"type" validate:"required,oneof=single double suite deluxe presidential"`
	Capacity    int        `json:"capacity" bson:"capacity" validate:"required,min=1,max=20"`
	Floor       int        `json:"floor,omitempty" bson:"floor,omitempty" validate:"omitempty,min=0,max=200"`
	Amenities   []string   `json:"amenities,omitempty" bson:"amenities,omitempty" validate:"omitempty,amenities"`
	Description string     `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=1000"`
	Status      RoomStatus `json:"status" bson:"status" validate:"required,oneof=available maintenance inactive"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   time.Time  `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

func (r *Room) IsBookable() bool {
	return r.Status == RoomAvailable
}

type RoomUpdate struct {
	Type        RoomType   `json:"type,omitempty" validate:"omitempty,oneof=single double suite deluxe presidential"`
	Capacity    *int       `json:"capacity,omitempty" validate:"omitempty,min=1,max=20"`
	Floor       *int       `json:"floor,omitempty" validate:"omitempty,min=0,max=200"`
	Amenities   *[]string  `json:"amenities,omitempty" validate:"omitempty,amenities"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	Status      RoomStatus `json:"status,omitempty" validate:"omitempty,oneof=available maintenance inactive"`
}

// RoomFilter narrows room searches. Zero values mean "no constraint".
type RoomFilter struct {
	Type        RoomType
	MinCapacity int
}
