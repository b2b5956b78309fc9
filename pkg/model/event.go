package model

import "time"

const (
	TopicBookingEvents    = "booking-events"
	TopicBookingEventsDLQ = "booking-events-dlq"
)

// Booking lifecycle event types published to the booking-events topic.
const (
	EventTypeBookingCreated    = "booking.created"
	EventTypeBookingCheckedIn  = "booking.checked_in"
	EventTypeBookingCheckedOut = "booking.checked_out"
	EventTypeBookingCancelled  = "booking.cancelled"
	EventTypeBookingExpired    = "booking.expired"
)

// BookingEvent is the JSON payload of a lifecycle event. Keyed by RoomID on
// the topic so events for one room stay ordered.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	RoomID     string    `json:"room_id"`
	GuestID    string    `json:"guest_id"`
	GuestEmail string    `json:"guest_email,omitempty"`
	Status     Status    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	OccurredAt time.Time `json:"occurred_at"`
}
