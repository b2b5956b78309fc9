package main

import (
	"roomio/internal/rooms/handler"
	"roomio/internal/rooms/repository"
	"roomio/internal/rooms/service"
	"roomio/internal/rooms/validator"
	"roomio/pkg/app"
	"roomio/pkg/config"
)

const ServiceName = "rooms"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Rooms service")
	roomService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewRoomHandler(roomService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.RoomService {
	roomValidator := validator.NewRoomValidator(cfg.Log)
	roomRepo := repository.NewMongoRoomRepository(cfg)
	roomService := service.NewRoomService(roomRepo, roomValidator, cfg)

	cfg.Log.Info("Room service initialized", "database", cfg.MongoDatabaseName)
	return roomService
}
