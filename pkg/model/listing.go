package model

// Listing is the read-only view of a property needed to price and attribute a booking.
type Listing struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	Country     string `json:"country,omitempty"`
	NightlyRate int64  `json:"nightly_rate"`
	Currency    string `json:"currency,omitempty"`
}

// Contact is the minimal user record needed to address a notification.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
