package repository

import (
	"context"
	"fmt"
	"time"

	"homigo/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const LockCollectionName = "Booking_locks"

// ListingLockRepository serializes booking creation per listing. Ensure runs
// outside the transaction; Bump runs inside it, so concurrent creators on the
// same listing write-conflict and the driver retries the loser.
type ListingLockRepository interface {
	Ensure(ctx context.Context, listingID string) error
	Bump(ctx context.Context, listingID string) error
}

type mongoListingLockRepository struct {
	collection *mongo.Collection
}

func NewListingLockRepository(cfg *config.Config) ListingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoListingLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoListingLockRepository) Ensure(ctx context.Context, listingID string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": listingID},
		bson.M{"$setOnInsert": bson.M{"version": int64(0), "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	// Two first-time creators may race the upsert; either way the document exists.
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to ensure listing lock: %w", err)
	}
	return nil
}

func (r *mongoListingLockRepository) Bump(ctx context.Context, listingID string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": listingID},
		bson.M{
			"$inc": bson.M{"version": int64(1)},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to bump listing lock: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("listing lock %s missing", listingID)
	}
	return nil
}
