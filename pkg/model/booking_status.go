package model

import "fmt"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusPaid      BookingStatus = "paid"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCanceled  BookingStatus = "canceled"
	StatusExpired   BookingStatus = "expired"
)

// validTransitions is the whole booking state machine. Anything not listed is rejected.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusPaid, StatusCanceled, StatusExpired},
	StatusPaid:      {StatusConfirmed},
	StatusConfirmed: {},
	StatusCanceled:  {},
	StatusExpired:   {},
}

// ActiveStatuses are the statuses that hold a listing's dates.
var ActiveStatuses = []BookingStatus{StatusPending, StatusPaid, StatusConfirmed}

func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

func (s BookingStatus) IsActive() bool {
	for _, a := range ActiveStatuses {
		if a == s {
			return true
		}
	}
	return false
}

func (s BookingStatus) String() string {
	return string(s)
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

type PaymentStatus string

const (
	PaymentNotPaid    PaymentStatus = "not_paid"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
	PaymentFailed     PaymentStatus = "failed"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentNotPaid, PaymentProcessing, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

// IsLocked reports whether money may be moving, which blocks cancellation.
func (s PaymentStatus) IsLocked() bool {
	return s == PaymentProcessing || s == PaymentPaid
}

func (s PaymentStatus) String() string {
	return string(s)
}
