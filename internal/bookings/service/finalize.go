package service

import (
	"context"

	"homigo/internal/bookings/repository"
	"homigo/internal/notifications"
	apperrors "homigo/pkg/errors"
	"homigo/pkg/model"
)

// finalize records a successful payment. Both completion paths end here and
// the guarded update lets exactly one of them apply; the loser gets the
// current booking back. source names the path for logs.
func (s *bookingService) finalize(ctx context.Context, bookingID, paymentID, sig, source string) (*model.Booking, error) {
	mut := repository.Mutation{
		Status:            ptr(model.StatusPaid),
		PaymentStatus:     ptr(model.PaymentPaid),
		ExternalPaymentID: ptr(paymentID),
	}
	if sig != "" {
		mut.ExternalSignature = ptr(sig)
	}

	updated, applied, err := s.repo.ConditionalUpdate(ctx, bookingID, finalizableGuard, mut)
	if err != nil {
		s.cfg.Log.Error("Failed to finalize payment", "booking_id", bookingID, "source", source, "error", err)
		return nil, apperrors.Internal("Failed to finalize payment", err)
	}

	if applied {
		s.cfg.Log.Info("Payment finalized",
			"booking_id", bookingID,
			"payment_id", paymentID,
			"source", source,
		)
		s.notifyPaid(ctx, updated)
		return updated, nil
	}

	current, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.PaymentStatus == model.PaymentPaid {
		s.cfg.Log.Info("Payment already finalized by another path", "booking_id", bookingID, "source", source)
		return current, nil
	}

	s.cfg.Log.Warn("Payment received for a booking that can no longer be paid",
		"booking_id", bookingID,
		"status", current.Status,
		"payment_id", paymentID,
		"source", source,
	)
	return nil, invalidState("Booking can no longer be paid")
}

// notifyPaid sends confirmations in the background. Failures are logged and
// never affect the payment outcome.
func (s *bookingService) notifyPaid(ctx context.Context, b *model.Booking) {
	booking := *b
	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotificationTimeout)
		defer cancel()

		listing, err := s.listings.FindListing(ctx, booking.ListingID)
		if err != nil {
			s.cfg.Log.Warn("Listing lookup failed for notification", "booking_id", booking.ID, "error", err)
			listing = &model.Listing{ID: booking.ListingID, Title: "your stay"}
		}
		customer := s.contact(ctx, booking.ID, booking.CustomerID)
		owner := s.contact(ctx, booking.ID, booking.OwnerID)

		for _, email := range notifications.PaymentConfirmed(&booking, listing, customer, owner) {
			if err := s.dispatcher.Send(ctx, email.To, email.Subject, email.Body); err != nil {
				s.cfg.Log.Warn("Failed to send payment notification", "booking_id", booking.ID, "to", email.To, "error", err)
			}
		}
	}()
}

func (s *bookingService) contact(ctx context.Context, bookingID, userID string) *model.Contact {
	c, err := s.contacts.FindContact(ctx, userID)
	if err != nil {
		s.cfg.Log.Warn("Contact lookup failed for notification", "booking_id", bookingID, "user_id", userID, "error", err)
		return nil
	}
	return c
}

func (s *bookingService) Wait() {
	s.notifyWG.Wait()
}
