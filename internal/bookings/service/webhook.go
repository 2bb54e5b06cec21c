package service

import (
	"context"
	"encoding/json"
	"errors"

	bookingserrors "homigo/internal/bookings/errors"
	"homigo/internal/bookings/repository"
	"homigo/internal/payments/gateway"
	apperrors "homigo/pkg/errors"
	"homigo/pkg/model"
	"homigo/pkg/signature"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
	EventPaymentFailed   = "payment.failed"
)

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

func (e *webhookEvent) orderID() string {
	if id := e.Payload.Payment.Entity.OrderID; id != "" {
		return id
	}
	return e.Payload.Order.Entity.ID
}

func (e *webhookEvent) paymentEvent() *gateway.PaymentEvent {
	out := &gateway.PaymentEvent{
		Kind:      gateway.EventIgnored,
		Name:      e.Event,
		OrderID:   e.orderID(),
		PaymentID: e.Payload.Payment.Entity.ID,
	}
	switch e.Event {
	case EventPaymentCaptured, EventOrderPaid:
		out.Kind = gateway.EventCaptured
	case EventPaymentFailed:
		out.Kind = gateway.EventFailed
	}
	return out
}

// HandleWebhook is the asynchronous Razorpay completion path. A nil return
// acknowledges the event; returned errors make the provider retry.
func (s *bookingService) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) error {
	if s.cfg.RazorpayWebhookSecret == "" {
		s.cfg.Log.Error("Webhook received but no webhook secret is configured")
		return apperrors.Unavailable("Payment webhook")
	}
	if !signature.Verify(s.cfg.RazorpayWebhookSecret, rawBody, signatureHeader) {
		s.cfg.Log.Warn("Rejected webhook with invalid signature")
		return invalidWebhookSignature()
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return apperrors.InvalidInput("Malformed webhook payload")
	}
	return s.reconcile(ctx, event.paymentEvent())
}

// HandleStripeWebhook is the asynchronous Stripe completion path, keyed by
// payment intent id.
func (s *bookingService) HandleStripeWebhook(ctx context.Context, rawBody []byte, signatureHeader string) error {
	if s.cfg.StripeWebhookSecret == "" {
		s.cfg.Log.Error("Stripe webhook received but no webhook secret is configured")
		return apperrors.Unavailable("Payment webhook")
	}

	event, err := gateway.ParseStripeEvent(rawBody, signatureHeader, s.cfg.StripeWebhookSecret)
	switch {
	case errors.Is(err, gateway.ErrEventSignature):
		s.cfg.Log.Warn("Rejected Stripe webhook with invalid signature", "error", err)
		return invalidWebhookSignature()
	case err != nil:
		return apperrors.InvalidInput("Malformed webhook payload")
	}
	return s.reconcile(ctx, event)
}

func invalidWebhookSignature() error {
	return apperrors.InvalidSignature("Invalid webhook signature").WithCause(bookingserrors.ErrInvalidSignature)
}

func (s *bookingService) reconcile(ctx context.Context, event *gateway.PaymentEvent) error {
	switch event.Kind {
	case gateway.EventCaptured:
		return s.reconcileCaptured(ctx, event)
	case gateway.EventFailed:
		return s.reconcileFailed(ctx, event)
	default:
		s.cfg.Log.Debug("Ignoring webhook event", "event", event.Name)
		return nil
	}
}

func (s *bookingService) bookingForOrder(ctx context.Context, event *gateway.PaymentEvent) (*model.Booking, error) {
	orderID := event.OrderID
	if orderID == "" {
		return nil, apperrors.InvalidInput("Webhook payload has no order id")
	}

	booking, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			s.cfg.Log.Warn("Webhook for unknown order acknowledged", "event", event.Name, "order_id", orderID)
			return nil, nil
		}
		s.cfg.Log.Error("Failed to look up booking for order", "order_id", orderID, "error", err)
		return nil, apperrors.Internal("Failed to look up booking", err)
	}
	return booking, nil
}

func (s *bookingService) reconcileCaptured(ctx context.Context, event *gateway.PaymentEvent) error {
	booking, err := s.bookingForOrder(ctx, event)
	if err != nil || booking == nil {
		return err
	}
	if booking.PaymentStatus == model.PaymentPaid {
		s.cfg.Log.Debug("Webhook for already paid booking", "booking_id", booking.ID, "event", event.Name)
		return nil
	}

	_, err = s.finalize(ctx, booking.ID, event.PaymentID, "", "webhook")
	if apperrors.HasCode(err, apperrors.CodeInvalidState) {
		// Retrying cannot help; the booking left pending before the money arrived.
		return nil
	}
	return err
}

// reconcileFailed only moves processing to failed, so a late failure never
// overrides a payment that already succeeded.
func (s *bookingService) reconcileFailed(ctx context.Context, event *gateway.PaymentEvent) error {
	booking, err := s.bookingForOrder(ctx, event)
	if err != nil || booking == nil {
		return err
	}

	_, applied, err := s.repo.ConditionalUpdate(ctx, booking.ID,
		repository.Guard{
			Statuses:        []model.BookingStatus{model.StatusPending},
			PaymentStatuses: []model.PaymentStatus{model.PaymentProcessing},
			OrderID:         booking.ExternalOrderID,
		},
		repository.Mutation{PaymentStatus: ptr(model.PaymentFailed)},
	)
	if err != nil {
		s.cfg.Log.Error("Failed to record failed payment", "booking_id", booking.ID, "error", err)
		return apperrors.Internal("Failed to record failed payment", err)
	}

	if applied {
		s.cfg.Log.Info("Payment failed per webhook", "booking_id", booking.ID, "order_id", booking.ExternalOrderID)
	} else {
		s.cfg.Log.Info("Ignored payment failure for booking not in processing",
			"booking_id", booking.ID,
			"payment_status", booking.PaymentStatus,
		)
	}
	return nil
}
