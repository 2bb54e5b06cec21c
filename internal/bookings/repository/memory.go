package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingserrors "homigo/internal/bookings/errors"
	"homigo/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryBookingRepository keeps bookings in process. A single mutex makes
// CreateIfAvailable and ConditionalUpdate atomic, matching the Mongo contract.
type memoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*model.Booking
}

func NewMemoryBookingRepository() BookingRepository {
	return &memoryBookingRepository{
		bookings: make(map[string]*model.Booking),
	}
}

func (r *memoryBookingRepository) CreateIfAvailable(ctx context.Context, booking *model.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.overlapLocked(booking.ListingID, booking.CheckIn, booking.CheckOut) {
		return bookingserrors.ErrDateConflict
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.ID = primitive.NewObjectID().Hex()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	stored := *booking
	r.bookings[booking.ID] = &stored
	return nil
}

func (r *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (r *memoryBookingRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.bookings {
		if orderID != "" && b.ExternalOrderID == orderID {
			out := *b
			return &out, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (r *memoryBookingRepository) HasActiveOverlap(ctx context.Context, listingID string, start, end time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.overlapLocked(listingID, start, end), nil
}

func (r *memoryBookingRepository) overlapLocked(listingID string, start, end time.Time) bool {
	for _, b := range r.bookings {
		if b.ListingID == listingID && b.Status.IsActive() && b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (r *memoryBookingRepository) FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, error) {
	r.mu.RLock()
	matched := make([]*model.Booking, 0)
	for _, b := range r.bookings {
		if b.CustomerID == customerID {
			out := *b
			matched = append(matched, &out)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CheckIn.Equal(matched[j].CheckIn) {
			return matched[i].CheckIn.After(matched[j].CheckIn)
		}
		return matched[i].ID > matched[j].ID
	})

	if offset >= int64(len(matched)) {
		return []*model.Booking{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *memoryBookingRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, b := range r.bookings {
		if b.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

func (r *memoryBookingRepository) ConditionalUpdate(ctx context.Context, id string, guard Guard, mut Mutation) (*model.Booking, bool, error) {
	if err := checkTransition(guard, mut); err != nil {
		return nil, false, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok || !guard.matches(b) {
		return nil, false, nil
	}

	mut.apply(b)
	b.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	out := *b
	return &out, true, nil
}
