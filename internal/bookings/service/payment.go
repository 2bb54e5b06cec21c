package service

import (
	"context"
	"errors"
	"fmt"

	bookingserrors "homigo/internal/bookings/errors"
	"homigo/internal/bookings/repository"
	"homigo/internal/payments/gateway"
	apperrors "homigo/pkg/errors"
	"homigo/pkg/model"
	"homigo/pkg/signature"
)

// PaymentKey is the public key the checkout widget needs.
func (s *bookingService) PaymentKey() string {
	if key := s.gateway.KeyID(); key != "" {
		return key
	}
	return s.cfg.RazorpayKeyID
}

func (s *bookingService) InitiatePayment(ctx context.Context, requesterID string, req *model.PaymentOrderRequest) (*model.PaymentOrder, error) {
	if err := s.validator.ValidateOrderRequest(req); err != nil {
		return nil, validationError("Invalid payment order request", err)
	}

	booking, err := s.findBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(requesterID) {
		return nil, forbidden()
	}
	if booking.Status != model.StatusPending {
		return nil, invalidState("Payment can only be initiated for a pending booking")
	}
	if booking.HasOrder() {
		return nil, alreadyInitiated()
	}

	notes := map[string]string{
		"booking_id":  booking.ID,
		"customer_id": booking.CustomerID,
	}
	if listing, err := s.listings.FindListing(ctx, booking.ListingID); err == nil {
		notes["listing_title"] = listing.Title
	} else {
		s.cfg.Log.Warn("Listing lookup failed, creating order without title", "booking_id", booking.ID, "error", err)
	}

	// No record is held while the provider is called; the result is committed
	// below through a guarded update.
	gwCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	order, err := s.gateway.CreateOrder(gwCtx, gateway.OrderRequest{
		Amount:   booking.Price,
		Currency: booking.Currency,
		Receipt:  "booking_" + booking.ID,
		Notes:    notes,
	})
	cancel()
	if err != nil {
		s.cfg.Log.Error("Payment order creation failed", "booking_id", booking.ID, "error", err)
		return nil, apperrors.GatewayError("Payment provider is unavailable", fmt.Errorf("%w: %w", bookingserrors.ErrGateway, err))
	}

	_, applied, err := s.repo.ConditionalUpdate(ctx, booking.ID,
		repository.Guard{
			Statuses:        []model.BookingStatus{model.StatusPending},
			PaymentStatuses: []model.PaymentStatus{model.PaymentNotPaid, model.PaymentFailed},
			OrderIDUnset:    true,
		},
		repository.Mutation{
			ExternalOrderID: ptr(order.ID),
			PaymentStatus:   ptr(model.PaymentProcessing),
		},
	)
	if err != nil {
		s.cfg.Log.Error("Failed to record payment order", "booking_id", booking.ID, "order_id", order.ID, "error", err)
		return nil, apperrors.Internal("Failed to record payment order", err)
	}
	if !applied {
		s.cfg.Log.Warn("Booking changed during order creation, provider order left unused",
			"booking_id", booking.ID,
			"order_id", order.ID,
		)
		return nil, alreadyInitiated()
	}

	s.cfg.Log.Info("Payment initiated", "booking_id", booking.ID, "order_id", order.ID, "amount", order.Amount)

	return &model.PaymentOrder{
		OrderID:   order.ID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		BookingID: booking.ID,
		KeyID:     s.PaymentKey(),
	}, nil
}

func alreadyInitiated() error {
	return apperrors.AlreadyInitiated("Payment already initiated for this booking").WithCause(bookingserrors.ErrAlreadyInitiated)
}

// ConfirmPayment is the synchronous completion path relayed by the checkout client.
func (s *bookingService) ConfirmPayment(ctx context.Context, requesterID string, req *model.PaymentVerification) (*model.Booking, error) {
	if err := s.validator.ValidateVerification(req); err != nil {
		return nil, validationError("Invalid payment verification", err)
	}

	booking, err := s.findBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(requesterID) {
		return nil, forbidden()
	}

	if err := s.verifyCompletion(ctx, booking, req); err != nil {
		return nil, err
	}

	if booking.PaymentStatus == model.PaymentPaid {
		s.cfg.Log.Debug("Payment already confirmed", "booking_id", booking.ID)
		return booking, nil
	}
	if booking.Status != model.StatusPending {
		return nil, invalidState("Booking can no longer be paid")
	}

	return s.finalize(ctx, booking.ID, req.PaymentID, req.Signature, "client")
}

// verifyCompletion accepts the relayed payment either by asking a provider
// that can vouch for it or by checking the HMAC completion signature.
func (s *bookingService) verifyCompletion(ctx context.Context, booking *model.Booking, req *model.PaymentVerification) error {
	if booking.ExternalOrderID != req.OrderID {
		s.recordFailedAttempt(ctx, booking)
		return signatureMismatch()
	}

	if verifier, ok := s.gateway.(gateway.CompletionVerifier); ok {
		gwCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
		err := verifier.VerifyCompletion(gwCtx, req.OrderID, req.PaymentID)
		cancel()
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gateway.ErrPaymentMismatch):
			s.recordFailedAttempt(ctx, booking)
			return signatureMismatch()
		case errors.Is(err, gateway.ErrPaymentIncomplete):
			return invalidState("Payment has not completed yet")
		default:
			s.cfg.Log.Error("Payment completion lookup failed", "booking_id", booking.ID, "error", err)
			return apperrors.GatewayError("Payment provider is unavailable", fmt.Errorf("%w: %w", bookingserrors.ErrGateway, err))
		}
	}

	// Without the key secret every signature would look forged.
	if s.cfg.RazorpayKeySecret == "" {
		s.cfg.Log.Error("Payment confirmation received but no key secret is configured", "booking_id", booking.ID)
		return apperrors.Unavailable("Payment confirmation")
	}
	payload := signature.CompletionPayload(req.OrderID, req.PaymentID)
	if !signature.Verify(s.cfg.RazorpayKeySecret, payload, req.Signature) {
		s.recordFailedAttempt(ctx, booking)
		return signatureMismatch()
	}
	return nil
}

func signatureMismatch() error {
	return apperrors.SignatureMismatch("Payment signature verification failed").WithCause(bookingserrors.ErrSignatureMismatch)
}

// recordFailedAttempt marks the payment failed unless it has already been paid.
func (s *bookingService) recordFailedAttempt(ctx context.Context, booking *model.Booking) {
	s.cfg.Log.Warn("Payment signature mismatch", "booking_id", booking.ID, "order_id", booking.ExternalOrderID)

	if booking.PaymentStatus == model.PaymentPaid {
		return
	}
	_, applied, err := s.repo.ConditionalUpdate(ctx, booking.ID, finalizableGuard, repository.Mutation{
		PaymentStatus: ptr(model.PaymentFailed),
	})
	if err != nil {
		s.cfg.Log.Error("Failed to record failed payment attempt", "booking_id", booking.ID, "error", err)
		return
	}
	if applied {
		s.cfg.Log.Info("Payment marked failed", "booking_id", booking.ID)
	}
}
