package service

import (
	"context"
	"errors"
	"math"
	"time"

	bookingserrors "homigo/internal/bookings/errors"
	"homigo/internal/directory"
	apperrors "homigo/pkg/errors"
	"homigo/pkg/model"
)

const day = 24 * time.Hour

// stayRange normalizes both ends to UTC midnight and rejects empty or
// inverted ranges. Stays are half-open: [checkIn, checkOut).
func stayRange(checkIn, checkOut time.Time) (time.Time, time.Time, error) {
	start := checkIn.UTC().Truncate(day)
	end := checkOut.UTC().Truncate(day)
	if !start.Before(end) {
		return time.Time{}, time.Time{}, apperrors.InvalidRange("check_in must be before check_out").WithCause(bookingserrors.ErrInvalidRange)
	}
	return start, end, nil
}

// nights counts billable nights, rounding a partial day up.
func nights(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

func (s *bookingService) findListing(ctx context.Context, listingID string) (*model.Listing, error) {
	listing, err := s.listings.FindListing(ctx, listingID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Listing", listingID).WithCause(bookingserrors.ErrListingNotFound)
		}
		s.cfg.Log.Error("Failed to retrieve listing", "listing_id", listingID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve listing", err)
	}
	return listing, nil
}

func (s *bookingService) CheckAvailability(ctx context.Context, listingID string, checkIn, checkOut time.Time) (*model.Availability, error) {
	start, end, err := stayRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	if _, err := s.findListing(ctx, listingID); err != nil {
		return nil, err
	}

	overlap, err := s.repo.HasActiveOverlap(ctx, listingID, start, end)
	if err != nil {
		s.cfg.Log.Error("Failed to check availability", "listing_id", listingID, "error", err)
		return nil, apperrors.Internal("Failed to check availability", err)
	}

	return &model.Availability{
		ListingID: listingID,
		CheckIn:   start.Format(time.DateOnly),
		CheckOut:  end.Format(time.DateOnly),
		Available: !overlap,
	}, nil
}
