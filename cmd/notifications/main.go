package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"roomio/internal/notifications/service"
	"roomio/pkg/config"
	"roomio/pkg/kafka"
	kafka_config "roomio/pkg/kafka/config"
	kafka_middleware "roomio/pkg/kafka/middleware"
	"roomio/pkg/model"
)

const consumerGroup = "notifications"

func main() {
	cfg := config.Load("notifications")
	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	notifier := service.NewNotifier(cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		model.TopicBookingEvents,
		consumerGroup,
		model.TopicBookingEventsDLQ,
		notifier.Handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	cfg.Log.Info("Notifications consumer starting",
		"topic", model.TopicBookingEvents,
		"group", consumerGroup,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	cfg.Log.Info("Notifications consumer stopped")
}
