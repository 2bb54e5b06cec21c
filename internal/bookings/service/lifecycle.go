package service

import (
	"context"
	"errors"
	"sync"

	bookingserrors "homigo/internal/bookings/errors"
	"homigo/internal/bookings/repository"
	apperrors "homigo/pkg/errors"
	httputil "homigo/pkg/http"
	"homigo/pkg/model"
	"homigo/pkg/sanitizer"
)

const defaultGuests = 1

func (s *bookingService) Create(ctx context.Context, customerID string, req *model.BookingRequest) (*model.Booking, error) {
	if err := s.validator.ValidateRequest(req); err != nil {
		return nil, validationError("Invalid booking request", err)
	}

	checkIn, err := httputil.ParseDate("check_in", req.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := httputil.ParseDate("check_out", req.CheckOut)
	if err != nil {
		return nil, err
	}
	start, end, err := stayRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	listing, err := s.findListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	guests := req.Guests
	if guests == 0 {
		guests = defaultGuests
	}

	n := nights(start, end)
	booking := &model.Booking{
		ListingID:     req.ListingID,
		CustomerID:    customerID,
		OwnerID:       listing.OwnerID,
		CheckIn:       start,
		CheckOut:      end,
		Guests:        guests,
		Nights:        n,
		Price:         listing.NightlyRate * int64(n),
		Currency:      s.currency(listing),
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentNotPaid,
	}

	if err := s.validator.Validate(booking); err != nil {
		return nil, validationError("Booking validation failed", err)
	}

	if err := s.repo.CreateIfAvailable(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrDateConflict) {
			s.cfg.Log.Info("Booking rejected, dates not available",
				"listing_id", booking.ListingID,
				"check_in", booking.CheckIn,
				"check_out", booking.CheckOut,
			)
			return nil, apperrors.DateConflict("The selected dates are not available").WithCause(bookingserrors.ErrDateConflict)
		}
		s.cfg.Log.Error("Failed to create booking", "listing_id", booking.ListingID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"listing_id", booking.ListingID,
		"customer_id", booking.CustomerID,
		"check_in", booking.CheckIn,
		"nights", booking.Nights,
		"price", booking.Price,
	)
	return booking, nil
}

func (s *bookingService) currency(listing *model.Listing) string {
	if listing.Currency != "" {
		return sanitizer.NormalizeCurrency(listing.Currency)
	}
	return sanitizer.NormalizeCurrency(s.cfg.PaymentCurrency)
}

func (s *bookingService) GetByID(ctx context.Context, id string, requesterID string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsVisibleTo(requesterID) {
		return nil, forbidden()
	}
	return booking, nil
}

func (s *bookingService) ListMine(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByCustomer(ctx, customerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "customer_id", customerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByCustomer(ctx, customerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "customer_id", customerID, "error", errFind)
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

func (s *bookingService) Cancel(ctx context.Context, id string, requesterID string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(requesterID) {
		return nil, forbidden()
	}
	if booking.Status != model.StatusPending || booking.PaymentStatus.IsLocked() {
		return nil, invalidState("Only pending bookings without a payment in progress can be canceled")
	}

	updated, applied, err := s.repo.ConditionalUpdate(ctx, id, cancelableGuard, repository.Mutation{
		Status: ptr(model.StatusCanceled),
	})
	if err != nil {
		return nil, s.mapUpdateError(err, booking, model.StatusCanceled)
	}
	if !applied {
		s.cfg.Log.Warn("Booking changed while canceling", "id", id)
		return nil, invalidState("Booking changed while canceling; it can no longer be canceled")
	}

	s.cfg.Log.Info("Booking canceled", "id", id, "customer_id", requesterID)
	return updated, nil
}

// Expire is the primitive an external sweep calls for stale pending bookings.
func (s *bookingService) Expire(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, applied, err := s.repo.ConditionalUpdate(ctx, id, cancelableGuard, repository.Mutation{
		Status: ptr(model.StatusExpired),
	})
	if err != nil {
		return nil, s.mapUpdateError(err, booking, model.StatusExpired)
	}
	if !applied {
		return nil, invalidState("Only pending bookings without a payment in progress can expire")
	}

	s.cfg.Log.Info("Booking expired", "id", id)
	return updated, nil
}

// ConfirmStay lets the listing owner move a paid booking to confirmed.
func (s *bookingService) ConfirmStay(ctx context.Context, id string, requesterID string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID != requesterID {
		return nil, forbidden()
	}
	if !booking.Status.CanTransitionTo(model.StatusConfirmed) {
		return nil, apperrors.InvalidTransition(booking.Status.String(), model.StatusConfirmed.String()).
			WithCause(bookingserrors.ErrInvalidTransition)
	}

	updated, applied, err := s.repo.ConditionalUpdate(ctx, id,
		repository.Guard{Statuses: []model.BookingStatus{model.StatusPaid}},
		repository.Mutation{Status: ptr(model.StatusConfirmed)},
	)
	if err != nil {
		return nil, s.mapUpdateError(err, booking, model.StatusConfirmed)
	}
	if !applied {
		return nil, apperrors.InvalidTransition(booking.Status.String(), model.StatusConfirmed.String()).
			WithCause(bookingserrors.ErrInvalidTransition)
	}

	s.cfg.Log.Info("Booking confirmed by owner", "id", id, "owner_id", requesterID)
	return updated, nil
}
