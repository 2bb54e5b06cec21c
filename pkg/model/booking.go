package model

import (
	"time"
)

type Booking struct {
	ID                string        `json:"id,omitempty" bson:"_id,omitempty"`
	ListingID         string        `json:"listing_id" bson:"listing_id" validate:"required,mongodb"`
	CustomerID        string        `json:"customer_id" bson:"customer_id" validate:"required"`
	OwnerID           string        `json:"owner_id" bson:"owner_id" validate:"required"`
	CheckIn           time.Time     `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut          time.Time     `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	Guests            int           `json:"guests" bson:"guests" validate:"required,min=1,max=50"`
	Nights            int           `json:"nights" bson:"nights" validate:"required,min=1"`
	Price             int64         `json:"price" bson:"price" validate:"min=0"`
	Currency          string        `json:"currency" bson:"currency" validate:"required,len=3"`
	Status            BookingStatus `json:"status" bson:"status" validate:"required,booking_status"`
	PaymentStatus     PaymentStatus `json:"payment_status" bson:"payment_status" validate:"required,payment_status"`
	ExternalOrderID   string        `json:"external_order_id,omitempty" bson:"external_order_id,omitempty"`
	ExternalPaymentID string        `json:"external_payment_id,omitempty" bson:"external_payment_id,omitempty"`
	ExternalSignature string        `json:"-" bson:"external_signature,omitempty"`
	CreatedAt         time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" bson:"updated_at"`
}

// BookingRequest is the body accepted when a customer reserves a listing.
// Dates are calendar days (YYYY-MM-DD) or RFC3339 timestamps.
type BookingRequest struct {
	ListingID string `json:"listing_id" validate:"required,mongodb"`
	CheckIn   string `json:"check_in" validate:"required"`
	CheckOut  string `json:"check_out" validate:"required"`
	Guests    int    `json:"guests" validate:"omitempty,min=1,max=50"`
}

// IsOwnedBy reports whether userID is the customer who made the booking.
func (b *Booking) IsOwnedBy(userID string) bool {
	return b.CustomerID == userID
}

// IsVisibleTo reports whether userID may read the booking.
func (b *Booking) IsVisibleTo(userID string) bool {
	return b.CustomerID == userID || b.OwnerID == userID
}

// Overlaps reports whether the booking's half-open stay intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.CheckIn.Before(end) && b.CheckOut.After(start)
}

// HasOrder reports whether a provider order was already recorded.
func (b *Booking) HasOrder() bool {
	return b.ExternalOrderID != ""
}
