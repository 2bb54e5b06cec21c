package model

import "time"

// ListingLock is a per-listing guard document. Every booking creation for a
// listing bumps its Version inside the creating transaction, so two concurrent
// creations on the same listing always write-conflict and one of them retries
// against the other's committed insert.
type ListingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Version   int64     `bson:"version" json:"version"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
