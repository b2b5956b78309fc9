package service

import (
	"context"
	"encoding/json"

	"roomio/pkg/kafka"
	"roomio/pkg/model"
)

// EventPublisher emits booking lifecycle events. A nil publisher disables
// eventing entirely (KAFKA_ENABLED=false).
type EventPublisher interface {
	Publish(ctx context.Context, event model.BookingEvent) error
}

type kafkaEventPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaEventPublisher(producer *kafka.Producer, source string) EventPublisher {
	return &kafkaEventPublisher{
		producer: producer,
		source:   source,
	}
}

// Publish keys the message by room id so all events for one room land on the
// same partition and stay ordered.
func (p *kafkaEventPublisher) Publish(ctx context.Context, event model.BookingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.NewMessage().
		WithKey(event.RoomID).
		WithRawValue(payload).
		WithEventType(event.Type).
		WithSource(p.source).
		Build()

	return p.producer.Publish(ctx, msg)
}
