package model

// Status is the booking lifecycle state. Bookings are never deleted; terminal
// statuses preserve the booking history.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
	StatusExpired    Status = "expired"
)

// Event is a lifecycle transition request applied to a booking.
type Event string

const (
	EventCheckIn  Event = "check_in"
	EventCheckOut Event = "check_out"
	EventCancel   Event = "cancel"
	EventExpire   Event = "expire"
)

// transitions is the single source of truth for the lifecycle. Any
// (status, event) pair not listed here is rejected, including re-applying an
// event to a booking already in the target state.
var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventCheckIn: StatusCheckedIn,
		EventCancel:  StatusCancelled,
		EventExpire:  StatusExpired,
	},
	StatusConfirmed: {
		EventCheckIn:  StatusCheckedIn,
		EventCheckOut: StatusCheckedOut, // direct checkout when check-in is skipped
		EventCancel:   StatusCancelled,
		EventExpire:   StatusExpired,
	},
	StatusCheckedIn: {
		EventCheckOut: StatusCheckedOut,
		EventCancel:   StatusCancelled,
	},
}

// activeStatuses are the statuses that block a room: any booking in one of
// these still holds its interval for overlap purposes.
var activeStatuses = []Status{StatusPending, StatusConfirmed, StatusCheckedIn}

func ActiveStatuses() []Status {
	out := make([]Status, len(activeStatuses))
	copy(out, activeStatuses)
	return out
}

func (s Status) IsActive() bool {
	for _, a := range activeStatuses {
		if s == a {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCheckedOut, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Next returns the status reached by applying event to s. ok is false when the
// transition is not in the lifecycle table.
func (s Status) Next(event Event) (Status, bool) {
	allowed, ok := transitions[s]
	if !ok {
		return s, false
	}
	next, ok := allowed[event]
	return next, ok
}
