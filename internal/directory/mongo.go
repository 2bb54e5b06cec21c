package directory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"homigo/pkg/config"
	"homigo/pkg/model"
	"homigo/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ListingsCollectionName = "listings"
	UsersCollectionName    = "users"
)

// listingDocument is the listing shape written by the listings service. Price
// is in major currency units.
type listingDocument struct {
	ID       bson.RawValue `bson:"_id"`
	Owner    bson.RawValue `bson:"owner"`
	Title    string        `bson:"title"`
	Location string        `bson:"location"`
	Country  string        `bson:"country"`
	Price    bson.RawValue `bson:"price"`
	Currency string        `bson:"currency"`
}

type contactDocument struct {
	ID       bson.RawValue `bson:"_id"`
	Username string        `bson:"username"`
	Email    string        `bson:"email"`
}

var listingProjection = bson.M{"owner": 1, "title": 1, "location": 1, "country": 1, "price": 1, "currency": 1}

// MongoDirectory reads listings and users from collections written by other services.
type MongoDirectory struct {
	cfg      *config.Config
	listings *mongo.Collection
	users    *mongo.Collection
}

func NewMongoDirectory(cfg *config.Config) *MongoDirectory {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &MongoDirectory{
		cfg:      cfg,
		listings: db.Collection(ListingsCollectionName),
		users:    db.Collection(UsersCollectionName),
	}
}

func (d *MongoDirectory) FindListing(ctx context.Context, id string) (*model.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ReadTimeout)
	defer cancel()

	raw, err := d.listings.FindOne(ctx, idFilter(id), options.FindOne().SetProjection(listingProjection)).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return decodeListing(raw)
}

func (d *MongoDirectory) FindContact(ctx context.Context, id string) (*model.Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ReadTimeout)
	defer cancel()

	raw, err := d.users.FindOne(ctx, idFilter(id), options.FindOne().SetProjection(bson.M{"username": 1, "email": 1})).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	return decodeContact(raw)
}

func decodeListing(raw bson.Raw) (*model.Listing, error) {
	var doc listingDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	rate, err := minorUnits(doc.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to decode listing price: %w", err)
	}
	return &model.Listing{
		ID:          idString(doc.ID),
		OwnerID:     idString(doc.Owner),
		Title:       sanitizer.NormalizeName(doc.Title),
		Location:    doc.Location,
		Country:     doc.Country,
		NightlyRate: rate,
		Currency:    sanitizer.NormalizeCurrency(doc.Currency),
	}, nil
}

func decodeContact(raw bson.Raw) (*model.Contact, error) {
	var doc contactDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode contact: %w", err)
	}
	return &model.Contact{
		ID:    idString(doc.ID),
		Name:  sanitizer.NormalizeName(doc.Username),
		Email: sanitizer.NormalizeEmail(doc.Email),
	}, nil
}

// minorUnits converts a major-unit price to the integer minor units bookings
// are priced in. A missing price reads as zero.
func minorUnits(v bson.RawValue) (int64, error) {
	var major float64
	switch v.Type {
	case 0, bsontype.Null, bsontype.Undefined:
		return 0, nil
	case bsontype.Double:
		major = v.Double()
	case bsontype.Int32:
		major = float64(v.Int32())
	case bsontype.Int64:
		major = float64(v.Int64())
	case bsontype.Decimal128:
		f, err := strconv.ParseFloat(v.Decimal128().String(), 64)
		if err != nil {
			return 0, err
		}
		major = f
	default:
		return 0, fmt.Errorf("unsupported price type %s", v.Type)
	}
	if major < 0 || math.IsNaN(major) || math.IsInf(major, 0) {
		return 0, fmt.Errorf("invalid price %v", major)
	}
	return int64(math.Round(major * 100)), nil
}

// idString renders ObjectID and string keys alike.
func idString(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return ""
}

// idFilter matches ObjectID keys written by the owning services and falls back
// to plain string keys for records imported from elsewhere.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}
