package directory

import (
	"context"
	"errors"

	"homigo/pkg/model"
)

var ErrNotFound = errors.New("directory record not found")

// ListingReader is the narrow view of the listings owned by the catalog service.
type ListingReader interface {
	FindListing(ctx context.Context, id string) (*model.Listing, error)
}

// ContactReader resolves a user id to where notifications should be sent.
type ContactReader interface {
	FindContact(ctx context.Context, id string) (*model.Contact, error)
}
