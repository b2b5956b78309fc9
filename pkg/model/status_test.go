package model

import "testing"

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		event   Event
		want    Status
		allowed bool
	}{
		{"pending check-in", StatusPending, EventCheckIn, StatusCheckedIn, true},
		{"pending cancel", StatusPending, EventCancel, StatusCancelled, true},
		{"pending expire", StatusPending, EventExpire, StatusExpired, true},
		{"pending check-out", StatusPending, EventCheckOut, "", false},
		{"confirmed check-in", StatusConfirmed, EventCheckIn, StatusCheckedIn, true},
		{"confirmed direct check-out", StatusConfirmed, EventCheckOut, StatusCheckedOut, true},
		{"confirmed cancel", StatusConfirmed, EventCancel, StatusCancelled, true},
		{"confirmed expire", StatusConfirmed, EventExpire, StatusExpired, true},
		{"checked-in check-out", StatusCheckedIn, EventCheckOut, StatusCheckedOut, true},
		{"checked-in cancel", StatusCheckedIn, EventCancel, StatusCancelled, true},
		{"checked-in check-in again", StatusCheckedIn, EventCheckIn, "", false},
		{"checked-in expire", StatusCheckedIn, EventExpire, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.from.Next(tt.event)
			if ok != tt.allowed {
				t.Fatalf("Next(%s, %s): allowed = %v, want %v", tt.from, tt.event, ok, tt.allowed)
			}
			if ok && got != tt.want {
				t.Errorf("Next(%s, %s) = %s, want %s", tt.from, tt.event, got, tt.want)
			}
		})
	}
}

func TestTerminalStatusesRejectAllEvents(t *testing.T) {
	terminals := []Status{StatusCheckedOut, StatusCancelled, StatusExpired}
	events := []Event{EventCheckIn, EventCheckOut, EventCancel, EventExpire}

	for _, s := range terminals {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
		for _, e := range events {
			if _, ok := s.Next(e); ok {
				t.Errorf("terminal status %s should reject event %s", s, e)
			}
		}
	}
}

func TestActiveStatuses(t *testing.T) {
	active := map[Status]bool{
		StatusPending:   true,
		StatusConfirmed: true,
		StatusCheckedIn: true,
	}

	all := []Status{StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled, StatusExpired}
	for _, s := range all {
		if got := s.IsActive(); got != active[s] {
			t.Errorf("%s.IsActive() = %v, want %v", s, got, active[s])
		}
	}

	if len(ActiveStatuses()) != 3 {
		t.Errorf("ActiveStatuses() should have 3 entries, got %d", len(ActiveStatuses()))
	}

	// The returned slice is a copy; mutating it must not affect the package.
	list := ActiveStatuses()
	list[0] = StatusExpired
	if ActiveStatuses()[0] != StatusPending {
		t.Error("ActiveStatuses() should return a fresh copy")
	}
}

func TestIsValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled, StatusExpired} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("checked_in_twice").IsValid() {
		t.Error("unknown status should not be valid")
	}
}
