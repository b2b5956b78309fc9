package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "roomio/internal/bookings/errors"
	"roomio/internal/bookings/repository"
	"roomio/internal/bookings/validator"
	roomserrors "roomio/internal/rooms/errors"
	roomsrepo "roomio/internal/rooms/repository"
	"roomio/pkg/config"
	apperrors "roomio/pkg/errors"
	"roomio/pkg/model"
	"roomio/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// BookingService is the reservation engine. It is the only code path that
// creates bookings or moves them through the lifecycle: API handlers, batch
// jobs and tests all come through here, so the overlap rule is enforced in
// exactly one place.
type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	ListByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Booking, int64, error)
	CheckAvailability(ctx context.Context, roomID string, interval model.Interval, excludeID string) (bool, error)
	SearchAvailableRooms(ctx context.Context, interval model.Interval, filter model.RoomFilter) ([]*model.Room, error)
	CheckIn(ctx context.Context, id string) (*model.Booking, error)
	CheckOut(ctx context.Context, id string) (*model.Booking, error)
	Cancel(ctx context.Context, id string, reason string) (*model.Booking, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.RoomLockRepository
	rooms     roomsrepo.RoomRepository
	validator *validator.BookingValidator
	publisher EventPublisher
	cfg       *config.Config

	// now is swappable for tests
	now func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.RoomLockRepository,
	rooms roomsrepo.RoomRepository,
	bookingValidator *validator.BookingValidator,
	publisher EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		rooms:     rooms,
		validator: bookingValidator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create validates the request, then runs the check-then-insert critical
// section under the room's advisory lock inside a transaction. Lock
// contention is retried a bounded number of times; a genuine overlap is
// reported immediately and never retried into success.
func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	// Creation starts a booking at pending or confirmed; every later status
	// is reached only through a lifecycle transition.
	if booking.Status != "" && booking.Status != model.StatusPending && booking.Status != model.StatusConfirmed {
		return apperrors.Validation("New bookings must start as pending or confirmed", map[string]any{
			"status": booking.Status,
		})
	}

	s.applyDefaults(booking)
	s.sanitize(booking)
	if err := s.validate(booking); err != nil {
		return err
	}

	room, err := s.getRoom(ctx, booking.RoomID)
	if err != nil {
		return err
	}
	if !room.IsBookable() {
		return apperrors.Conflict(fmt.Sprintf("Room %s is currently %s", room.Number, room.Status))
	}
	if booking.NumberOfGuests > room.Capacity {
		return apperrors.Validation("Number of guests exceeds room capacity", map[string]any{
			"number_of_guests": booking.NumberOfGuests,
			"room_capacity":    room.Capacity,
		})
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.CreateMaxAttempts; attempt++ {
		err := s.tryCreate(ctx, booking)
		if err == nil {
			s.cfg.Log.Info("Booking created successfully",
				"id", booking.ID,
				"room_id", booking.RoomID,
				"guest_id", booking.GuestID,
				"start_time", booking.StartTime,
				"end_time", booking.EndTime,
			)
			s.publish(ctx, model.EventTypeBookingCreated, booking)
			return nil
		}

		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			s.cfg.Log.Error("Failed to create booking", "room_id", booking.RoomID, "error", err)
			return err
		}

		lastErr = err
		s.cfg.Log.Debug("Room lock contention, retrying create",
			"room_id", booking.RoomID,
			"attempt", attempt,
		)
		if attempt < s.cfg.CreateMaxAttempts {
			select {
			case <-time.After(s.cfg.CreateRetryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return apperrors.Timeout("Booking creation cancelled while waiting for room lock")
			}
		}
	}

	s.cfg.Log.Warn("Room lock contention exhausted retries",
		"room_id", booking.RoomID,
		"attempts", s.cfg.CreateMaxAttempts,
		"error", lastErr,
	)
	return apperrors.LockContention("Room is being booked by another request, please retry")
}

// tryCreate is one attempt at the critical section: acquire the per-room
// lock, then inside a transaction re-check availability and insert.
func (s *bookingService) tryCreate(ctx context.Context, booking *model.Booking) error {
	lock, err := s.lockRepo.Acquire(ctx, booking.RoomID, s.cfg.RoomLockTTL)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrLockHeld) {
			return err
		}
		return apperrors.Internal("Failed to acquire room lock", err)
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, lock.ID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release room lock", "lock_id", lock.ID, "error", releaseErr)
		}
	}()

	return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyAvailable(sessCtx, booking.RoomID, booking.Interval(), ""); err != nil {
			return err
		}
		if err := s.repo.Insert(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to insert booking", err)
		}
		return nil
	})
}

// verifyAvailable returns a conflict error when any active booking on the
// room overlaps the candidate interval.
func (s *bookingService) verifyAvailable(ctx context.Context, roomID string, interval model.Interval, excludeID string) error {
	existing, err := s.repo.FindActiveOverlapping(ctx, roomID, interval, excludeID, s.cfg.MaxOverlapFetch)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	for _, b := range existing {
		if b.Interval().Overlaps(interval) {
			return apperrors.Conflict(fmt.Sprintf(
				"Room is already booked for the selected time period (%s - %s)",
				b.StartTime.Format(time.RFC3339),
				b.EndTime.Format(time.RFC3339),
			))
		}
	}
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) ListByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if guestID == "" {
		return nil, 0, apperrors.InvalidInput("Guest ID cannot be empty")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByGuest(ctx, guestID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count guest bookings", "guest_id", guestID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByGuest(ctx, guestID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list guest bookings", "guest_id", guestID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// CheckAvailability is the standalone availability read. Outside the create
// transaction it is advisory: the answer can change before the caller acts on
// it, which is exactly why Create re-checks under the lock.
func (s *bookingService) CheckAvailability(ctx context.Context, roomID string, interval model.Interval, excludeID string) (bool, error) {
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return false, err
	}

	err := s.verifyAvailable(ctx, roomID, interval, excludeID)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok && appErr.Code == apperrors.CodeConflict {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *bookingService) SearchAvailableRooms(ctx context.Context, interval model.Interval, filter model.RoomFilter) ([]*model.Room, error) {
	rooms, err := s.rooms.FindBookable(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("Failed to list bookable rooms", err)
	}

	available := make([]*model.Room, 0, len(rooms))
	for _, room := range rooms {
		if err := s.verifyAvailable(ctx, room.ID, interval, ""); err != nil {
			if appErr, ok := err.(*apperrors.AppError); ok && appErr.Code == apperrors.CodeConflict {
				continue
			}
			return nil, err
		}
		available = append(available, room)
	}

	s.cfg.Log.Debug("Room availability search completed",
		"candidates", len(rooms),
		"available", len(available),
		"start_time", interval.Start,
		"end_time", interval.End,
	)
	return available, nil
}

func (s *bookingService) CheckIn(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.transition(ctx, id, model.EventCheckIn)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, model.EventTypeBookingCheckedIn, booking)
	return booking, nil
}

func (s *bookingService) CheckOut(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.transition(ctx, id, model.EventCheckOut)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, model.EventTypeBookingCheckedOut, booking)
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string, reason string) (*model.Booking, error) {
	booking, err := s.transitionWithReason(ctx, id, model.EventCancel, reason)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, model.EventTypeBookingCancelled, booking)
	return booking, nil
}

// expireBatchSize bounds how many overdue bookings one sweep pass reads.
const expireBatchSize = 100

// ExpireOverdue marks past-end pending and confirmed bookings as expired,
// one compare-and-set per booking, and publishes an expired event for each.
// Safe to run concurrently with check-ins: a booking that transitions under
// the sweep loses nothing, the CAS fails and the booking is skipped.
func (s *bookingService) ExpireOverdue(ctx context.Context) (int64, error) {
	now := s.now()
	var expired int64

	for {
		overdue, err := s.repo.FindOverdue(ctx, now, expireBatchSize)
		if err != nil {
			s.cfg.Log.Error("Failed to find overdue bookings", "error", err)
			return expired, apperrors.Internal("Failed to expire overdue bookings", err)
		}

		for _, booking := range overdue {
			next, ok := booking.Status.Next(model.EventExpire)
			if !ok {
				continue
			}

			updated, err := s.repo.UpdateStatus(ctx, booking.ID, booking.Status, next, nil)
			if err != nil {
				if errors.Is(err, bookingserrors.ErrStatusChanged) || errors.Is(err, bookingserrors.ErrNotFound) {
					s.cfg.Log.Debug("Skipping overdue booking that transitioned concurrently",
						"id", booking.ID,
					)
					continue
				}
				return expired, apperrors.Internal("Failed to expire overdue bookings", err)
			}

			expired++
			s.publish(ctx, model.EventTypeBookingExpired, updated)
		}

		if len(overdue) < expireBatchSize {
			break
		}
	}

	if expired > 0 {
		s.cfg.Log.Info("Expired overdue bookings", "count", expired)
	}
	return expired, nil
}

// transition applies a lifecycle event. The state machine decides whether the
// event is legal; the repository's compare-and-set makes the status write
// atomic against concurrent transitions on the same booking.
func (s *bookingService) transition(ctx context.Context, id string, event model.Event) (*model.Booking, error) {
	return s.transitionWithReason(ctx, id, event, "")
}

func (s *bookingService) transitionWithReason(ctx context.Context, id string, event model.Event, reason string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	next, ok := booking.Status.Next(event)
	if !ok {
		return nil, apperrors.InvalidTransition(string(booking.Status), string(event))
	}

	now := s.now()
	if event == model.EventCheckIn {
		if err := s.checkInWindow(booking, now); err != nil {
			return nil, err
		}
	}

	set := bson.M{}
	switch event {
	case model.EventCheckIn:
		set["checked_in_at"] = now
	case model.EventCheckOut:
		set["checked_out_at"] = now
	case model.EventCancel:
		set["cancelled_at"] = now
		if reason != "" {
			set["cancellation_reason"] = sanitizer.NormalizeFreeText(reason)
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, id, booking.Status, next, set)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			// A concurrent transition won the race; report against the
			// status the caller observed.
			return nil, apperrors.InvalidTransition(string(booking.Status), string(event))
		}
		return nil, s.mapLookupError(err, id)
	}

	s.cfg.Log.Info("Booking transitioned",
		"id", id,
		"event", event,
		"from", booking.Status,
		"to", updated.Status,
	)
	return updated, nil
}

// checkInWindow enforces the occupancy window: check-in opens a grace period
// before the booked start and closes at the booked end.
func (s *bookingService) checkInWindow(booking *model.Booking, now time.Time) error {
	earliest := booking.StartTime.Add(-s.cfg.CheckInGrace)
	if now.Before(earliest) {
		return apperrors.InvalidTransition(string(booking.Status), string(model.EventCheckIn)).
			WithDetails(map[string]any{
				"reason":            "check-in window not open yet",
				"check_in_opens_at": earliest,
			})
	}
	if now.After(booking.EndTime) {
		return apperrors.InvalidTransition(string(booking.Status), string(model.EventCheckIn)).
			WithDetails(map[string]any{
				"reason":   "booking interval has passed",
				"end_time": booking.EndTime,
			})
	}
	return nil
}

// --- Helpers ---

func (s *bookingService) applyDefaults(b *model.Booking) {
	// pending exists for flows with an explicit confirmation step; direct
	// API creation confirms immediately.
	if b.Status == "" {
		b.Status = model.StatusConfirmed
	}
	if b.NumberOfGuests <= 0 {
		b.NumberOfGuests = 1
	}
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.GuestName = sanitizer.NormalizeGuestName(b.GuestName)
	b.GuestEmail = sanitizer.NormalizeEmail(b.GuestEmail)
	b.GuestPhone = sanitizer.NormalizePhone(b.GuestPhone)
	b.SpecialRequests = sanitizer.NormalizeFreeText(b.SpecialRequests)
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) getRoom(ctx context.Context, roomID string) (*model.Room, error) {
	if roomID == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room", roomID)
		}
		if errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid room ID format")
		}
		return nil, apperrors.Internal("Failed to look up room", err)
	}
	return room, nil
}

func (s *bookingService) mapLookupError(err error, id string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.Internal("Failed to retrieve booking", err)
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	if s.publisher == nil {
		return
	}

	event := model.BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		RoomID:     booking.RoomID,
		GuestID:    booking.GuestID,
		GuestEmail: booking.GuestEmail,
		Status:     booking.Status,
		StartTime:  booking.StartTime,
		EndTime:    booking.EndTime,
		OccurredAt: s.now(),
	}

	// Events are best-effort: a publish failure never rolls back a booking.
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}
