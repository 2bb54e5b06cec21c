package model

// PaymentOrderRequest asks for a provider order for a pending booking.
type PaymentOrderRequest struct {
	BookingID string `json:"booking_id" validate:"required,mongodb"`
}

// PaymentOrder is what the checkout client needs to open the provider widget.
type PaymentOrder struct {
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	BookingID string `json:"booking_id"`
	KeyID     string `json:"key_id,omitempty"`
}

// PaymentVerification is the completion signal the checkout client relays
// after the customer pays.
type PaymentVerification struct {
	BookingID string `json:"booking_id" validate:"required,mongodb"`
	OrderID   string `json:"order_id" validate:"required,max=128"`
	PaymentID string `json:"payment_id" validate:"required,max=128"`
	Signature string `json:"signature" validate:"omitempty,hexadecimal,max=128"`
}

// Availability answers whether [CheckIn, CheckOut) is free on a listing.
type Availability struct {
	ListingID string `json:"listing_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Available bool   `json:"available"`
}
