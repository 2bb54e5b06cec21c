package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "homigo/internal/bookings/errors"
	"homigo/pkg/config"
	mongotx "homigo/pkg/db/mongo"
	"homigo/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	// CreateIfAvailable inserts booking unless an active booking on the same
	// listing overlaps it, in which case it returns ErrDateConflict.
	CreateIfAvailable(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByOrderID(ctx context.Context, orderID string) (*model.Booking, error)
	HasActiveOverlap(ctx context.Context, listingID string, start, end time.Time) (bool, error)
	FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, error)
	CountByCustomer(ctx context.Context, customerID string) (int64, error)
	// ConditionalUpdate applies mut only if the stored booking satisfies guard.
	// The returned bool reports whether it was applied; when it was, the
	// updated booking is returned.
	ConditionalUpdate(ctx context.Context, id string, guard Guard, mut Mutation) (*model.Booking, bool, error)
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	locks      ListingLockRepository
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config, locks ListingLockRepository) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		locks:      locks,
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext is returned unchanged because wrapping it would detach the
// operation from its session.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) CreateIfAvailable(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := r.locks.Ensure(ctx, booking.ListingID); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	return r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// The callback is retried on write conflicts; start each attempt clean.
		booking.ID = ""

		if err := r.locks.Bump(sessCtx, booking.ListingID); err != nil {
			return err
		}

		overlap, err := r.HasActiveOverlap(sessCtx, booking.ListingID, booking.CheckIn, booking.CheckOut)
		if err != nil {
			return err
		}
		if overlap {
			return bookingserrors.ErrDateConflict
		}

		result, err := r.collection.InsertOne(sessCtx, booking)
		if err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
			booking.ID = oid.Hex()
		}
		return nil
	})
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoBookingRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"external_order_id": orderID})
}

func (r *mongoBookingRepository) findOne(ctx context.Context, filter bson.M) (*model.Booking, error) {
	var booking model.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) HasActiveOverlap(ctx context.Context, listingID string, start, end time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"listing_id": listingID,
		"status":     bson.M{"$in": model.ActiveStatuses},
		"check_in":   bson.M{"$lt": end},
		"check_out":  bson.M{"$gt": start},
	}

	err := r.collection.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return true, nil
}

func (r *mongoBookingRepository) FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "check_in", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"customer_id": customerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"customer_id": customerID})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) ConditionalUpdate(ctx context.Context, id string, guard Guard, mut Mutation) (*model.Booking, bool, error) {
	if err := checkTransition(guard, mut); err != nil {
		return nil, false, err
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Booking
	err = r.collection.FindOneAndUpdate(ctx, guardFilter(objectID, guard), mutationUpdate(mut), opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to update booking: %w", err)
	}

	return &updated, true, nil
}

func guardFilter(id primitive.ObjectID, guard Guard) bson.M {
	filter := bson.M{"_id": id}
	if len(guard.Statuses) > 0 {
		filter["status"] = bson.M{"$in": guard.Statuses}
	}
	if len(guard.PaymentStatuses) > 0 {
		filter["payment_status"] = bson.M{"$in": guard.PaymentStatuses}
	}
	switch {
	case guard.OrderIDUnset:
		filter["external_order_id"] = bson.M{"$exists": false}
	case guard.OrderID != "":
		filter["external_order_id"] = guard.OrderID
	}
	return filter
}

func mutationUpdate(mut Mutation) bson.M {
	set := bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)}
	if mut.Status != nil {
		set["status"] = *mut.Status
	}
	if mut.PaymentStatus != nil {
		set["payment_status"] = *mut.PaymentStatus
	}
	if mut.ExternalOrderID != nil {
		set["external_order_id"] = *mut.ExternalOrderID
	}
	if mut.ExternalPaymentID != nil {
		set["external_payment_id"] = *mut.ExternalPaymentID
	}
	if mut.ExternalSignature != nil {
		set["external_signature"] = *mut.ExternalSignature
	}
	return bson.M{"$set": set}
}
