package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	bookingserrors "roomio/internal/bookings/errors"
	"roomio/internal/bookings/validator"
	roomserrors "roomio/internal/rooms/errors"
	"roomio/pkg/config"
	mongotx "roomio/pkg/db/mongo"
	apperrors "roomio/pkg/errors"
	"roomio/pkg/logger"
	"roomio/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

// fakeBookingStore is an in-memory BookingRepository. The advisory lock fake
// below provides the mutual exclusion a real deployment gets from the lock
// collection plus the transaction.
type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	seq      int
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[string]*model.Booking)}
}

func (f *fakeBookingStore) Insert(ctx context.Context, booking *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	booking.ID = fmt.Sprintf("%024x", f.seq)
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	f.bookings[booking.ID] = &stored
	return nil
}

func (f *fakeBookingStore) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingStore) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Booking
	for _, b := range f.bookings {
		copied := *b
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeBookingStore) FindByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Booking
	for _, b := range f.bookings {
		if b.GuestID == guestID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) FindActiveOverlapping(ctx context.Context, roomID string, interval model.Interval, excludeID string, limit int) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Booking
	for _, b := range f.bookings {
		if b.RoomID != roomID || !b.Status.IsActive() {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if b.Interval().Overlaps(interval) {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) UpdateStatus(ctx context.Context, id string, from, to model.Status, set bson.M) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if b.Status != from {
		return nil, bookingserrors.ErrStatusChanged
	}
	b.Status = to
	for k, v := range set {
		switch k {
		case "checked_in_at":
			ts := v.(time.Time)
			b.CheckedInAt = &ts
		case "checked_out_at":
			ts := v.(time.Time)
			b.CheckedOutAt = &ts
		case "cancelled_at":
			ts := v.(time.Time)
			b.CancelledAt = &ts
		case "cancellation_reason":
			b.CancellationReason = v.(string)
		}
	}
	b.UpdatedAt = time.Now()
	copied := *b
	return &copied, nil
}

func (f *fakeBookingStore) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Booking
	for _, b := range f.bookings {
		if (b.Status == model.StatusPending || b.Status == model.StatusConfirmed) && b.EndTime.Before(now) {
			copied := *b
			out = append(out, &copied)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeBookingStore) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.bookings)), nil
}

func (f *fakeBookingStore) CountByGuest(ctx context.Context, guestID string) (int64, error) {
	out, _ := f.FindByGuest(ctx, guestID, 0, 0)
	return int64(len(out)), nil
}

func (f *fakeBookingStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

// fakeLockRepo mimics the unique-index lock collection: a held key means
// contention.
type fakeLockRepo struct {
	mu          sync.Mutex
	held        map[string]bool
	acquireFunc func(ctx context.Context, roomID string, ttl time.Duration) (*model.RoomLock, error)
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{held: make(map[string]bool)}
}

func (f *fakeLockRepo) Acquire(ctx context.Context, roomID string, ttl time.Duration) (*model.RoomLock, error) {
	if f.acquireFunc != nil {
		return f.acquireFunc(ctx, roomID, ttl)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "room_lock_" + roomID
	if f.held[id] {
		return nil, bookingserrors.ErrLockHeld
	}
	f.held[id] = true
	return &model.RoomLock{ID: id, RoomID: roomID}, nil
}

func (f *fakeLockRepo) Release(ctx context.Context, lockID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, lockID)
	return nil
}

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*model.Room
}

func newFakeRoomRepo(rooms ...*model.Room) *fakeRoomRepo {
	f := &fakeRoomRepo{rooms: make(map[string]*model.Room)}
	for _, r := range rooms {
		f.rooms[r.ID] = r
	}
	return f
}

func (f *fakeRoomRepo) Create(ctx context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.ID] = room
	return nil
}

func (f *fakeRoomRepo) FindByID(ctx context.Context, id string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, roomserrors.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRoomRepo) FindByNumber(ctx context.Context, number string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rooms {
		if r.Number == number {
			copied := *r
			return &copied, nil
		}
	}
	return nil, roomserrors.ErrNotFound
}

func (f *fakeRoomRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Room
	for _, r := range f.rooms {
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeRoomRepo) FindBookable(ctx context.Context, filter model.RoomFilter) ([]*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Room
	for _, r := range f.rooms {
		if r.Status != model.RoomAvailable {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.MinCapacity > 0 && r.Capacity < filter.MinCapacity {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeRoomRepo) Update(ctx context.Context, id string, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[id]; !ok {
		return roomserrors.ErrNotFound
	}
	f.rooms[id] = room
	return nil
}

func (f *fakeRoomRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[id]; !ok {
		return roomserrors.ErrNotFound
	}
	delete(f.rooms, id)
	return nil
}

func (f *fakeRoomRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rooms)), nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.BookingEvent
}

func (f *fakePublisher) Publish(ctx context.Context, event model.BookingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

// --- Test fixtures ---

const (
	testRoomID      = "650000000000000000000001"
	testOtherRoomID = "650000000000000000000002"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
		RoomLockTTL:        time.Second,
		CreateMaxAttempts:  3,
		CreateRetryBackoff: time.Millisecond,
		CheckInGrace:       time.Hour,
		MaxOverlapFetch:    50,
	}
}

type fixture struct {
	svc   *bookingService
	store *fakeBookingStore
	locks *fakeLockRepo
	rooms *fakeRoomRepo
	pub   *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig(t)
	store := newFakeBookingStore()
	locks := newFakeLockRepo()
	rooms := newFakeRoomRepo(
		&model.Room{ID: testRoomID, Number: "202", Type: model.RoomDouble, Capacity: 2, Status: model.RoomAvailable},
		&model.Room{ID: testOtherRoomID, Number: "303", Type: model.RoomSuite, Capacity: 4, Status: model.RoomAvailable},
	)
	pub := &fakePublisher{}

	return &fixture{
		svc: &bookingService{
			repo:      store,
			lockRepo:  locks,
			rooms:     rooms,
			validator: validator.NewBookingValidator(cfg.Log),
			publisher: pub,
			cfg:       cfg,
			now:       time.Now,
		},
		store: store,
		locks: locks,
		rooms: rooms,
		pub:   pub,
	}
}

func validBooking(roomID string, start, end time.Time) *model.Booking {
	return &model.Booking{
		RoomID:         roomID,
		GuestID:        "guest-1",
		BookingType:    model.BookingHourly,
		StartTime:      start,
		EndTime:        end,
		GuestName:      "Alice Smith",
		GuestEmail:     "alice@example.com",
		GuestPhone:     "+14155552671",
		NumberOfGuests: 1,
	}
}

func futureWindow(hours int) (time.Time, time.Time) {
	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	return start, start.Add(time.Duration(hours) * time.Hour)
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected *apperrors.AppError, got %T: %v", err, err)
	}
	return appErr.Code
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)
	booking := validBooking(testRoomID, start, end)

	if err := f.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.ID == "" {
		t.Error("booking should have an ID after creation")
	}
	if booking.Status != model.StatusConfirmed {
		t.Errorf("status = %s, want %s", booking.Status, model.StatusConfirmed)
	}

	count, _ := f.store.Count(context.Background())
	if count != 1 {
		t.Errorf("stored bookings = %d, want 1", count)
	}

	types := f.pub.types()
	if len(types) != 1 || types[0] != model.EventTypeBookingCreated {
		t.Errorf("published events = %v, want [%s]", types, model.EventTypeBookingCreated)
	}
}

func TestCreate_OverlapConflict(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(4)

	first := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), first); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// Second booking overlaps the middle of the first.
	second := validBooking(testRoomID, start.Add(time.Hour), end.Add(time.Hour))
	second.GuestID = "guest-2"
	err := f.svc.Create(context.Background(), second)

	if code := appCode(t, err); code != apperrors.CodeConflict {
		t.Errorf("error code = %s, want %s", code, apperrors.CodeConflict)
	}
	if err.(*apperrors.AppError).Retryable() {
		t.Error("a genuine overlap must not be marked retryable")
	}

	count, _ := f.store.Count(context.Background())
	if count != 1 {
		t.Errorf("stored bookings = %d, want 1", count)
	}
}

func TestCreate_AdjacentIntervalsAllowed(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(4)

	first := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), first); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// Back-to-back: starts exactly when the first ends.
	second := validBooking(testRoomID, end, end.Add(2*time.Hour))
	second.GuestID = "guest-2"
	if err := f.svc.Create(context.Background(), second); err != nil {
		t.Fatalf("adjacent booking should be allowed: %v", err)
	}

	count, _ := f.store.Count(context.Background())
	if count != 2 {
		t.Errorf("stored bookings = %d, want 2", count)
	}
}

func TestCreate_SameRoomDifferentTimesAllowed(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	first := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), first); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	second := validBooking(testRoomID, end.Add(24*time.Hour), end.Add(26*time.Hour))
	if err := f.svc.Create(context.Background(), second); err != nil {
		t.Fatalf("non-overlapping booking should be allowed: %v", err)
	}
}

func TestCreate_OverlapOnOtherRoomAllowed(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	if err := f.svc.Create(context.Background(), validBooking(testRoomID, start, end)); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if err := f.svc.Create(context.Background(), validBooking(testOtherRoomID, start, end)); err != nil {
		t.Fatalf("same interval on a different room should be allowed: %v", err)
	}
}

func TestCreate_InvalidIntervalRejectedBeforeStorage(t *testing.T) {
	f := newFixture(t)
	start, _ := futureWindow(2)

	booking := validBooking(testRoomID, start, start) // zero-length
	err := f.svc.Create(context.Background(), booking)

	if code := appCode(t, err); code != apperrors.CodeValidation {
		t.Errorf("error code = %s, want %s", code, apperrors.CodeValidation)
	}

	count, _ := f.store.Count(context.Background())
	if count != 0 {
		t.Errorf("nothing should be stored after a validation failure, got %d", count)
	}
}

func TestCreate_PastStartRejected(t *testing.T) {
	f := newFixture(t)
	start := time.Now().Add(-2 * time.Hour)

	err := f.svc.Create(context.Background(), validBooking(testRoomID, start, start.Add(2*time.Hour)))
	if code := appCode(t, err); code != apperrors.CodeValidation {
		t.Errorf("error code = %s, want %s", code, apperrors.CodeValidation)
	}
}

func TestCreate_RoomNotFound(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	err := f.svc.Create(context.Background(), validBooking("650000000000000000000099", start, end))
	if code := appCode(t, err); code != apperrors.CodeNotFound {
		t.Errorf("error code = %s, want %s", code, apperrors.CodeNotFound)
	}
}

func TestCreate_RoomUnderMaintenance(t *testing.T) {
	f := newFixture(t)
	f.rooms.rooms[testRoomID].Status = model.RoomMaintenance
	start, end := futureWindow(2)

	err := f.svc.Create(context.Background(), validBooking(testRoomID, start, end))
	if code := appCode(t, err); code != apperrors.CodeConflict {
		t.Errorf("error code = %s, want %s", code, apperrors.CodeConflict)
	}
}

func TestCreate_GuestCountExceedsCapacity(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	booking := validBooking(testRoomID, start, end)
	booking.NumberOfGuests = 5 // room 202 sleeps 2

	err := f.svc.Create(context.Background(), booking)
	if code := appCode(t, err); code != apperrors.CodeValidation {
		t.Errorf("error code = %s, want %s", code, apperrors.CodeValidation)
	}
}

func TestCreate_RejectsLifecycleStatus(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	// Status is engine-owned after creation: a request cannot mint a booking
	// that is already checked in, or dead on arrival in a terminal status.
	for _, status := range []model.Status{
		model.StatusCheckedIn,
		model.StatusCheckedOut,
		model.StatusCancelled,
		model.StatusExpired,
	} {
		booking := validBooking(testRoomID, start, end)
		booking.Status = status

		err := f.svc.Create(context.Background(), booking)
		if code := appCode(t, err); code != apperrors.CodeValidation {
			t.Errorf("status %s: error code = %s, want %s", status, code, apperrors.CodeValidation)
		}
	}

	count, _ := f.store.Count(context.Background())
	if count != 0 {
		t.Errorf("stored bookings = %d, want 0", count)
	}
	if types := f.pub.types(); len(types) != 0 {
		t.Errorf("published events = %v, want none", types)
	}
}

func TestCreate_PendingStatusAccepted(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	booking := validBooking(testRoomID, start, end)
	booking.Status = model.StatusPending

	if err := f.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.StatusPending {
		t.Errorf("status = %s, want %s", booking.Status, model.StatusPending)
	}

	// Pending blocks the room the same as confirmed.
	free, err := f.svc.CheckAvailability(context.Background(), testRoomID, booking.Interval(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if free {
		t.Error("a pending booking should block the interval")
	}
}

func TestCreate_LockContentionExhaustsRetries(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	attempts := 0
	f.locks.acquireFunc = func(ctx context.Context, roomID string, ttl time.Duration) (*model.RoomLock, error) {
		attempts++
		return nil, bookingserrors.ErrLockHeld
	}

	err := f.svc.Create(context.Background(), validBooking(testRoomID, start, end))

	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected *apperrors.AppError, got %T", err)
	}
	if appErr.Code != apperrors.CodeLockContention {
		t.Errorf("error code = %s, want %s", appErr.Code, apperrors.CodeLockContention)
	}
	if !appErr.Retryable() {
		t.Error("lock contention must be retryable")
	}
	if attempts != f.svc.cfg.CreateMaxAttempts {
		t.Errorf("acquire attempts = %d, want %d", attempts, f.svc.cfg.CreateMaxAttempts)
	}
}

func TestCreate_ConcurrentSameInterval(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			booking := validBooking(testRoomID, start, end)
			booking.GuestID = fmt.Sprintf("guest-%d", i)
			errs[i] = f.svc.Create(context.Background(), booking)
		}(i)
	}
	wg.Wait()

	successes := 0
	for i, err := range errs {
		if err == nil {
			successes++
			continue
		}
		code := appCode(t, err)
		if code != apperrors.CodeConflict && code != apperrors.CodeLockContention {
			t.Errorf("worker %d: unexpected error code %s", i, code)
		}
	}

	if successes != 1 {
		t.Fatalf("exactly one create should win, got %d", successes)
	}
	count, _ := f.store.Count(context.Background())
	if count != 1 {
		t.Errorf("stored bookings = %d, want 1", count)
	}
}

// --- Availability ---

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(4)

	booking := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	interval := model.Interval{Start: start.Add(time.Hour), End: end.Add(time.Hour)}

	free, err := f.svc.CheckAvailability(context.Background(), testRoomID, interval, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if free {
		t.Error("overlapping interval should not be available")
	}

	// Excluding the blocking booking itself frees the interval (the
	// rebooking-same-slot case).
	free, err = f.svc.CheckAvailability(context.Background(), testRoomID, interval, booking.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !free {
		t.Error("interval should be available when the only conflict is excluded")
	}

	free, err = f.svc.CheckAvailability(context.Background(), testOtherRoomID, interval, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !free {
		t.Error("other room should be available")
	}
}

func TestCheckAvailability_CancelledBookingDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	booking := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), booking.ID, "change of plans"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	free, err := f.svc.CheckAvailability(context.Background(), testRoomID, booking.Interval(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !free {
		t.Error("cancelled booking should release the interval")
	}
}

func TestSearchAvailableRooms(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	if err := f.svc.Create(context.Background(), validBooking(testRoomID, start, end)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rooms, err := f.svc.SearchAvailableRooms(context.Background(), model.Interval{Start: start, End: end}, model.RoomFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != testOtherRoomID {
		t.Fatalf("expected only the unbooked room, got %d rooms", len(rooms))
	}

	// Capacity filter excludes the remaining room too.
	rooms, err = f.svc.SearchAvailableRooms(context.Background(), model.Interval{Start: start, End: end}, model.RoomFilter{MinCapacity: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("expected no rooms with capacity >= 10, got %d", len(rooms))
	}
}

// --- Lifecycle ---

func TestLifecycle_FullStay(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(4)

	booking := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Guest arrives shortly after the booked start.
	f.svc.now = func() time.Time { return start.Add(10 * time.Minute) }
	checkedIn, err := f.svc.CheckIn(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if checkedIn.Status != model.StatusCheckedIn {
		t.Errorf("status = %s, want %s", checkedIn.Status, model.StatusCheckedIn)
	}
	if checkedIn.CheckedInAt == nil {
		t.Error("checked_in_at should be set")
	}

	f.svc.now = func() time.Time { return start.Add(3 * time.Hour) }
	checkedOut, err := f.svc.CheckOut(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("check-out failed: %v", err)
	}
	if checkedOut.Status != model.StatusCheckedOut {
		t.Errorf("status = %s, want %s", checkedOut.Status, model.StatusCheckedOut)
	}
	if checkedOut.CheckedOutAt == nil {
		t.Error("checked_out_at should be set")
	}

	// The checked-out stay no longer blocks the room.
	rebook := validBooking(testRoomID, start, end)
	rebook.GuestID = "guest-2"
	if err := f.svc.Create(context.Background(), rebook); err != nil {
		t.Fatalf("rebooking after check-out should succeed: %v", err)
	}

	types := f.pub.types()
	want := []string{
		model.EventTypeBookingCreated,
		model.EventTypeBookingCheckedIn,
		model.EventTypeBookingCheckedOut,
		model.EventTypeBookingCreated,
	}
	if len(types) != len(want) {
		t.Fatalf("published events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestCheckIn_WindowNotOpen(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(4)

	booking := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Grace is one hour; two hours early is too early.
	f.svc.now = func() time.Time { return start.Add(-2 * time.Hour) }
	_, err := f.svc.CheckIn(context.Background(), booking.ID)
	if code := appCode(t, err); code != apperrors.CodeInvalidTransition {
		t.Errorf("error code = %s, want %s", code, apperrors.CodeInvalidTransition)
	}

	// Within the grace window is fine.
	f.svc.now = func() time.Time { return start.Add(-30 * time.Minute) }
	if _, err := f.svc.CheckIn(context.Background(), booking.ID); err != nil {
		t.Fatalf("check-in within grace should succeed: %v", err)
	}
}

func TestCheckIn_AfterEndRejected(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	booking := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	f.svc.now = func() time.Time { return end.Add(time.Minute) }
	_, err := f.svc.CheckIn(context.Background(), booking.ID)
	if code := appCode(t, err); code != apperrors.CodeInvalidTransition {
		t.Errorf("error code = %s, want %s", code, apperrors.CodeInvalidTransition)
	}
}

func TestCancel_SecondCancelRejected(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	booking := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	cancelled, err := f.svc.Cancel(context.Background(), booking.ID, "plans changed")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Errorf("status = %s, want %s", cancelled.Status, model.StatusCancelled)
	}
	if cancelled.CancellationReason != "plans changed" {
		t.Errorf("cancellation_reason = %q, want %q", cancelled.CancellationReason, "plans changed")
	}
	firstCancelledAt := cancelled.CancelledAt

	_, err = f.svc.Cancel(context.Background(), booking.ID, "again")
	if code := appCode(t, err); code != apperrors.CodeInvalidTransition {
		t.Errorf("error code = %s, want %s", code, apperrors.CodeInvalidTransition)
	}

	// The stored booking is untouched by the rejected second cancel.
	stored, err := f.svc.GetByID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.Status != model.StatusCancelled {
		t.Errorf("status = %s, want %s", stored.Status, model.StatusCancelled)
	}
	if stored.CancellationReason != "plans changed" {
		t.Errorf("cancellation_reason changed to %q", stored.CancellationReason)
	}
	if firstCancelledAt != nil && stored.CancelledAt != nil && !stored.CancelledAt.Equal(*firstCancelledAt) {
		t.Error("cancelled_at should not change on a rejected cancel")
	}
}

func TestTransition_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CheckIn(context.Background(), "000000000000000000000000")
	if code := appCode(t, err); code != apperrors.CodeNotFound {
		t.Errorf("error code = %s, want %s", code, apperrors.CodeNotFound)
	}
}

// staleReadStore returns a stale status from FindByID so the subsequent CAS
// write observes a concurrent transition.
type staleReadStore struct {
	*fakeBookingStore
	staleStatus model.Status
}

func (s *staleReadStore) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.fakeBookingStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Status = s.staleStatus
	return b, nil
}

func TestTransition_LostCASRace(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	booking := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A concurrent cancel lands between this caller's read and its CAS
	// write: the read still sees confirmed, the store already moved on.
	f.store.mu.Lock()
	f.store.bookings[booking.ID].Status = model.StatusCancelled
	f.store.mu.Unlock()
	f.svc.repo = &staleReadStore{fakeBookingStore: f.store, staleStatus: model.StatusConfirmed}

	f.svc.now = func() time.Time { return start }
	_, err := f.svc.CheckIn(context.Background(), booking.ID)
	if code := appCode(t, err); code != apperrors.CodeInvalidTransition {
		t.Errorf("error code = %s, want %s", code, apperrors.CodeInvalidTransition)
	}

	// The concurrently-applied status stands.
	f.svc.repo = f.store
	stored, _ := f.svc.GetByID(context.Background(), booking.ID)
	if stored.Status != model.StatusCancelled {
		t.Errorf("status = %s, want %s", stored.Status, model.StatusCancelled)
	}
}

// --- Expiry sweep ---

func TestExpireOverdue(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	overdue := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), overdue); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	occupied := validBooking(testOtherRoomID, start, end)
	occupied.GuestID = "guest-2"
	if err := f.svc.Create(context.Background(), occupied); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	f.svc.now = func() time.Time { return start }
	if _, err := f.svc.CheckIn(context.Background(), occupied.ID); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	// Past both end times: the confirmed no-show expires, the checked-in
	// stay does not.
	f.svc.now = func() time.Time { return end.Add(time.Hour) }
	count, err := f.svc.ExpireOverdue(context.Background())
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expired count = %d, want 1", count)
	}

	expired, _ := f.svc.GetByID(context.Background(), overdue.ID)
	if expired.Status != model.StatusExpired {
		t.Errorf("no-show status = %s, want %s", expired.Status, model.StatusExpired)
	}
	stillIn, _ := f.svc.GetByID(context.Background(), occupied.ID)
	if stillIn.Status != model.StatusCheckedIn {
		t.Errorf("occupied status = %s, want %s", stillIn.Status, model.StatusCheckedIn)
	}

	// The sweep announces each expiry; the checked-in stay gets no event.
	f.pub.mu.Lock()
	var expiredEvents []model.BookingEvent
	for _, e := range f.pub.events {
		if e.Type == model.EventTypeBookingExpired {
			expiredEvents = append(expiredEvents, e)
		}
	}
	f.pub.mu.Unlock()
	if len(expiredEvents) != 1 {
		t.Fatalf("expired events = %d, want 1", len(expiredEvents))
	}
	if expiredEvents[0].BookingID != overdue.ID {
		t.Errorf("expired event booking_id = %s, want %s", expiredEvents[0].BookingID, overdue.ID)
	}
	if expiredEvents[0].Status != model.StatusExpired {
		t.Errorf("expired event status = %s, want %s", expiredEvents[0].Status, model.StatusExpired)
	}
}

// staleOverdueStore reports every booking as a confirmed no-show regardless
// of its stored status, forcing the sweep's compare-and-set to lose.
type staleOverdueStore struct {
	*fakeBookingStore
}

func (s *staleOverdueStore) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Booking
	for _, b := range s.bookings {
		copied := *b
		copied.Status = model.StatusConfirmed
		out = append(out, &copied)
	}
	return out, nil
}

func TestExpireOverdue_LostRaceSkipsBooking(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	booking := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), booking.ID, "no longer needed"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// The sweep read a snapshot from before the cancel landed.
	f.svc.repo = &staleOverdueStore{fakeBookingStore: f.store}
	f.svc.now = func() time.Time { return end.Add(time.Hour) }

	count, err := f.svc.ExpireOverdue(context.Background())
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expired count = %d, want 0", count)
	}

	f.svc.repo = f.store
	stored, _ := f.svc.GetByID(context.Background(), booking.ID)
	if stored.Status != model.StatusCancelled {
		t.Errorf("status = %s, want %s", stored.Status, model.StatusCancelled)
	}
	for _, typ := range f.pub.types() {
		if typ == model.EventTypeBookingExpired {
			t.Error("a lost expiry race must not publish an expired event")
		}
	}
}

// --- Directory reads ---

func TestGetAllAndListByGuest(t *testing.T) {
	f := newFixture(t)
	start, end := futureWindow(2)

	first := validBooking(testRoomID, start, end)
	if err := f.svc.Create(context.Background(), first); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second := validBooking(testOtherRoomID, start, end)
	second.GuestID = "guest-2"
	if err := f.svc.Create(context.Background(), second); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	all, total, err := f.svc.GetAll(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("GetAll = %d items, total %d; want 2, 2", len(all), total)
	}

	mine, total, err := f.svc.ListByGuest(context.Background(), "guest-2", 10, 0)
	if err != nil {
		t.Fatalf("ListByGuest failed: %v", err)
	}
	if total != 1 || len(mine) != 1 || mine[0].GuestID != "guest-2" {
		t.Errorf("ListByGuest returned %d items, total %d", len(mine), total)
	}
}
