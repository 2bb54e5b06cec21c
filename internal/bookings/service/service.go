package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "homigo/internal/bookings/errors"
	"homigo/internal/bookings/repository"
	"homigo/internal/bookings/validator"
	"homigo/internal/directory"
	"homigo/internal/notifications"
	"homigo/internal/payments/gateway"
	"homigo/pkg/config"
	apperrors "homigo/pkg/errors"
	"homigo/pkg/model"
)

type BookingService interface {
	CheckAvailability(ctx context.Context, listingID string, start, end time.Time) (*model.Availability, error)
	Create(ctx context.Context, customerID string, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string, requesterID string) (*model.Booking, error)
	ListMine(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, int64, error)
	Cancel(ctx context.Context, id string, requesterID string) (*model.Booking, error)
	Expire(ctx context.Context, id string) (*model.Booking, error)
	ConfirmStay(ctx context.Context, id string, requesterID string) (*model.Booking, error)

	PaymentKey() string
	InitiatePayment(ctx context.Context, requesterID string, req *model.PaymentOrderRequest) (*model.PaymentOrder, error)
	ConfirmPayment(ctx context.Context, requesterID string, req *model.PaymentVerification) (*model.Booking, error)
	HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) error
	HandleStripeWebhook(ctx context.Context, rawBody []byte, signatureHeader string) error

	// Wait blocks until in-flight notifications have been handed off.
	Wait()
}

type bookingService struct {
	repo       repository.BookingRepository
	listings   directory.ListingReader
	contacts   directory.ContactReader
	gateway    gateway.Gateway
	dispatcher notifications.Dispatcher
	validator  *validator.BookingValidator
	cfg        *config.Config

	notifyWG sync.WaitGroup
}

func NewBookingService(
	repo repository.BookingRepository,
	listings directory.ListingReader,
	contacts directory.ContactReader,
	gw gateway.Gateway,
	dispatcher notifications.Dispatcher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		listings:   listings,
		contacts:   contacts,
		gateway:    gw,
		dispatcher: dispatcher,
		validator:  validator,
		cfg:        cfg,
	}
}

var (
	// cancelableGuard admits bookings whose money is not moving. Cancellation
	// and expiry share it.
	cancelableGuard = repository.Guard{
		Statuses:        []model.BookingStatus{model.StatusPending},
		PaymentStatuses: []model.PaymentStatus{model.PaymentNotPaid, model.PaymentFailed},
	}

	// finalizableGuard admits every booking that may still become paid.
	finalizableGuard = repository.Guard{
		Statuses:        []model.BookingStatus{model.StatusPending},
		PaymentStatuses: []model.PaymentStatus{model.PaymentNotPaid, model.PaymentProcessing, model.PaymentFailed},
	}
)

func (s *bookingService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapFindError(err, id)
	}
	return booking, nil
}

func (s *bookingService) mapFindError(err error, id string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id).WithCause(bookingserrors.ErrNotFound)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format").WithCause(bookingserrors.ErrInvalidID)
	default:
		s.cfg.Log.Error("Failed to retrieve booking", "id", id, "error", err)
		return apperrors.Internal("Failed to retrieve booking", err)
	}
}

func (s *bookingService) mapUpdateError(err error, b *model.Booking, target model.BookingStatus) error {
	if errors.Is(err, bookingserrors.ErrInvalidTransition) {
		return apperrors.InvalidTransition(b.Status.String(), target.String()).WithCause(bookingserrors.ErrInvalidTransition)
	}
	s.cfg.Log.Error("Failed to update booking", "id", b.ID, "error", err)
	return apperrors.Internal("Failed to update booking", err)
}

func validationError(message string, err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return apperrors.Validation(message, ve.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func forbidden() error {
	return apperrors.Forbidden("You do not have access to this booking").WithCause(bookingserrors.ErrForbidden)
}

func invalidState(message string) error {
	return apperrors.InvalidState(message).WithCause(bookingserrors.ErrInvalidState)
}

func ptr[T any](v T) *T {
	return &v
}
