package repository

import (
	"fmt"
	"slices"

	bookingserrors "homigo/internal/bookings/errors"
	"homigo/pkg/model"
)

// Guard scopes a conditional update to the record's current state. Empty
// slices match any value.
type Guard struct {
	Statuses        []model.BookingStatus
	PaymentStatuses []model.PaymentStatus
	// OrderIDUnset requires that no provider order has been recorded yet.
	OrderIDUnset bool
	// OrderID, when set, requires the recorded provider order to equal it.
	OrderID string
}

// Mutation lists the fields a conditional update writes. Nil fields are left alone.
type Mutation struct {
	Status            *model.BookingStatus
	PaymentStatus     *model.PaymentStatus
	ExternalOrderID   *string
	ExternalPaymentID *string
	ExternalSignature *string
}

func (g Guard) matches(b *model.Booking) bool {
	if len(g.Statuses) > 0 && !slices.Contains(g.Statuses, b.Status) {
		return false
	}
	if len(g.PaymentStatuses) > 0 && !slices.Contains(g.PaymentStatuses, b.PaymentStatus) {
		return false
	}
	if g.OrderIDUnset && b.ExternalOrderID != "" {
		return false
	}
	if g.OrderID != "" && b.ExternalOrderID != g.OrderID {
		return false
	}
	return true
}

// checkTransition rejects a mutation whose status change is not allowed from
// every status the guard admits. A guard without statuses cannot carry a
// status change.
func checkTransition(g Guard, m Mutation) error {
	if m.Status == nil {
		return nil
	}
	if len(g.Statuses) == 0 {
		return fmt.Errorf("%w: status change to %s needs a status guard", bookingserrors.ErrInvalidTransition, *m.Status)
	}
	for _, from := range g.Statuses {
		if !from.CanTransitionTo(*m.Status) {
			return fmt.Errorf("%w: %s -> %s", bookingserrors.ErrInvalidTransition, from, *m.Status)
		}
	}
	return nil
}

func (m Mutation) apply(b *model.Booking) {
	if m.Status != nil {
		b.Status = *m.Status
	}
	if m.PaymentStatus != nil {
		b.PaymentStatus = *m.PaymentStatus
	}
	if m.ExternalOrderID != nil {
		b.ExternalOrderID = *m.ExternalOrderID
	}
	if m.ExternalPaymentID != nil {
		b.ExternalPaymentID = *m.ExternalPaymentID
	}
	if m.ExternalSignature != nil {
		b.ExternalSignature = *m.ExternalSignature
	}
}
