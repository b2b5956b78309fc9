package service

import (
	"context"
	"errors"
	"sync"

	roomserrors "roomio/internal/rooms/errors"
	"roomio/internal/rooms/repository"
	"roomio/internal/rooms/validator"
	"roomio/pkg/config"
	apperrors "roomio/pkg/errors"
	"roomio/pkg/model"
	"roomio/pkg/sanitizer"
)

// RoomService manages the room catalog. It never touches bookings: whether a
// room is free for an interval is the bookings service's question.
type RoomService interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	GetByNumber(ctx context.Context, number string) (*model.Room, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Room, int64, error)
	Update(ctx context.Context, id string, update *model.RoomUpdate) (*model.Room, error)
	Delete(ctx context.Context, id string) error
}

type roomService struct {
	repo      repository.RoomRepository
	validator *validator.RoomValidator
	cfg       *config.Config
}

func NewRoomService(repo repository.RoomRepository, roomValidator *validator.RoomValidator, cfg *config.Config) RoomService {
	return &roomService{
		repo:      repo,
		validator: roomValidator,
		cfg:       cfg,
	}
}

func (s *roomService) Create(ctx context.Context, room *model.Room) error {
	if room.Status == "" {
		room.Status = model.RoomAvailable
	}
	s.sanitize(room)

	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "error", err)
		return apperrors.Validation("Room validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, roomserrors.ErrDuplicateNumber) {
			return apperrors.Conflict("A room with this number already exists")
		}
		s.cfg.Log.Error("Failed to create room", "number", room.Number, "error", err)
		return apperrors.Internal("Failed to create room", err)
	}

	s.cfg.Log.Info("Room created successfully", "id", room.ID, "number", room.Number, "type", room.Type)
	return nil
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	return room, nil
}

func (s *roomService) GetByNumber(ctx context.Context, number string) (*model.Room, error) {
	if number == "" {
		return nil, apperrors.InvalidInput("Room number cannot be empty")
	}

	room, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room", number)
		}
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}

	return room, nil
}

func (s *roomService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Room, int64, error) {
	var count int64
	var rooms []*model.Room
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count rooms", "error", errCount)
			errCount = apperrors.Internal("Failed to count rooms", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		rooms, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list rooms", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve rooms", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return rooms, count, nil
}

// Update applies a partial update on top of the stored room. The room number
// is immutable; renumbering means delete and recreate.
func (s *roomService) Update(ctx context.Context, id string, update *model.RoomUpdate) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	s.applyUpdate(room, update)
	s.sanitize(room)

	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Room validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, id, room); err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room", id)
		}
		s.cfg.Log.Error("Failed to update room", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update room", err)
	}

	s.cfg.Log.Info("Room updated successfully", "id", id, "number", room.Number)
	return room, nil
}

func (s *roomService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Room ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Room", id)
		}
		if errors.Is(err, roomserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid room ID format")
		}
		s.cfg.Log.Error("Failed to delete room", "id", id, "error", err)
		return apperrors.Internal("Failed to delete room", err)
	}

	s.cfg.Log.Info("Room deleted", "id", id)
	return nil
}

func (s *roomService) sanitize(room *model.Room) {
	room.Number = sanitizer.TrimAndNormalize(room.Number)
	room.Description = sanitizer.NormalizeFreeText(room.Description)
	if room.Amenities != nil {
		room.Amenities = sanitizer.NormalizeAmenities(room.Amenities)
	}
}

func (s *roomService) applyUpdate(room *model.Room, update *model.RoomUpdate) {
	if update.Type != "" {
		room.Type = update.Type
	}
	if update.Capacity != nil {
		room.Capacity = *update.Capacity
	}
	if update.Floor != nil {
		room.Floor = *update.Floor
	}
	if update.Amenities != nil {
		room.Amenities = *update.Amenities
	}
	if update.Description != nil {
		room.Description = *update.Description
	}
	if update.Status != "" {
		room.Status = update.Status
	}
}

func (s *roomService) mapLookupError(err error, id string) error {
	if errors.Is(err, roomserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Room", id)
	}
	if errors.Is(err, roomserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid room ID format")
	}
	return apperrors.Internal("Failed to retrieve room", err)
}
