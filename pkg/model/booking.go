package model

import "time"

type BookingType string

const (
	BookingHourly BookingType = "hourly"
	BookingDaily  BookingType = "daily"
)

// Booking binds one room, one guest and one time interval through the
// lifecycle in status.go. The bookings service is the only writer of Status
// and the lifecycle timestamps.
type Booking struct {
	ID          string      `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RoomID      string      `json:"room_id" bson:"room_id" validate:"required,mongodb"`
	GuestID     string      `json:"guest_id" bson:"guest_id" validate:"required,min=1,max=64"`
	BookingType BookingType `json:"booking_type" bson:"booking_type" validate:"required,oneof=hourly daily"`
	StartTime   time.Time   `json:"start_time" bson:"start_time" validate:"required"`
	EndTime     time.Time   `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`

	GuestName      string `json:"guest_name" bson:"guest_name" validate:"required,min=2,max=100"`
	GuestEmail     string `json:"guest_email" bson:"guest_email" validate:"required,email"`
	GuestPhone     string `json:"guest_phone" bson:"guest_phone" validate:"required,guest_phone"`
	NumberOfGuests int    `json:"number_of_guests" bson:"number_of_guests" validate:"required,min=1,max=20"`

	Status Status `json:"status" bson:"status" validate:"required,booking_status"`

	SpecialRequests    string `json:"special_requests,omitempty" bson:"special_requests,omitempty" validate:"omitempty,max=1000"`
	CancellationReason string `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty" validate:"omitempty,max=500"`

	CheckedInAt  *time.Time `json:"checked_in_at,omitempty" bson:"checked_in_at,omitempty"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty" bson:"checked_out_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt    time.Time  `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}
