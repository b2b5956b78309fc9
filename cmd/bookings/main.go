package main

import (
	"roomio/internal/bookings/handler"
	"roomio/internal/bookings/repository"
	"roomio/internal/bookings/service"
	"roomio/internal/bookings/validator"
	roomsrepo "roomio/internal/rooms/repository"
	"roomio/pkg/app"
	"roomio/pkg/config"
	"roomio/pkg/kafka"
	kafka_config "roomio/pkg/kafka/config"
	kafka_middleware "roomio/pkg/kafka/middleware"
	"roomio/pkg/model"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")
	bookingService := initServices(cfg)

	api := handler.NewAPI(
		handler.NewBookingHandler(bookingService, cfg.Log),
		handler.NewAvailabilityHandler(bookingService, cfg.Log),
	)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(api)
	serverApp.Run()
}

func initServices(cfg *config.Config) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewRoomLockRepository(cfg)
	roomRepo := roomsrepo.NewMongoRoomRepository(cfg)

	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		roomRepo,
		bookingValidator,
		initPublisher(cfg),
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

func initPublisher(cfg *config.Config) service.EventPublisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, booking events will not be published")
		return nil
	}

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, model.TopicBookingEvents, model.TopicBookingEventsDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware())

	return service.NewKafkaEventPublisher(producer, ServiceName)
}
