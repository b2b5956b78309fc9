package service

import (
	"context"
	"fmt"

	"roomio/pkg/kafka"
	"roomio/pkg/logger"
	"roomio/pkg/model"
)

// Notifier consumes booking lifecycle events and fans them out to guests.
// Delivery is log-only for now; the switch below is where real channels
// (email, SMS) plug in.
type Notifier struct {
	log *logger.Logger
}

func NewNotifier(log *logger.Logger) *Notifier {
	return &Notifier{log: log}
}

// Handle is the kafka message handler. Unknown event types are acknowledged
// and skipped so a schema addition never wedges the consumer group.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("failed to decode booking event: %w", err)
	}

	subject, body, ok := n.compose(event)
	if !ok {
		n.log.Warn("Skipping unknown booking event type",
			"event_type", event.Type,
			"booking_id", event.BookingID,
		)
		return nil
	}

	n.log.Info("Guest notification dispatched",
		"event_type", event.Type,
		"booking_id", event.BookingID,
		"room_id", event.RoomID,
		"guest_id", event.GuestID,
		"guest_email", event.GuestEmail,
		"subject", subject,
		"body", body,
	)
	return nil
}

func (n *Notifier) compose(event model.BookingEvent) (subject, body string, ok bool) {
	window := fmt.Sprintf("%s to %s",
		event.StartTime.Format("Jan 2 15:04"),
		event.EndTime.Format("Jan 2 15:04"),
	)

	switch event.Type {
	case model.EventTypeBookingCreated:
		return "Booking confirmed",
			fmt.Sprintf("Your booking is confirmed for %s.", window), true
	case model.EventTypeBookingCheckedIn:
		return "Welcome",
			"You are checked in. Enjoy your stay.", true
	case model.EventTypeBookingCheckedOut:
		return "Thank you for staying with us",
			"You are checked out. We hope to see you again.", true
	case model.EventTypeBookingCancelled:
		return "Booking cancelled",
			fmt.Sprintf("Your booking for %s has been cancelled.", window), true
	case model.EventTypeBookingExpired:
		return "Booking expired",
			fmt.Sprintf("Your booking for %s expired without check-in.", window), true
	default:
		return "", "", false
	}
}
