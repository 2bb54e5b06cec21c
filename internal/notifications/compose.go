package notifications

import (
	"fmt"
	"strings"

	"homigo/pkg/model"
	"homigo/pkg/sanitizer"
)

const dateLayout = "Jan 2, 2006"

// Email is one composed message ready for a Dispatcher.
type Email struct {
	To      string
	Subject string
	Body    string
}

// PaymentConfirmed composes the messages sent once a booking is paid: one to
// the customer and one to the listing owner. Recipients without an address
// are skipped.
func PaymentConfirmed(b *model.Booking, listing *model.Listing, customer, owner *model.Contact) []Email {
	details := bookingDetails(b, listing)
	emails := make([]Email, 0, 2)

	if customer != nil && customer.Email != "" {
		emails = append(emails, Email{
			To:      customer.Email,
			Subject: fmt.Sprintf("Booking confirmed: %s", listing.Title),
			Body: fmt.Sprintf("Hi %s,\n\nYour payment was received and your stay is booked.\n\n%s",
				displayName(customer), details),
		})
	}

	if owner != nil && owner.Email != "" {
		guest := "A guest"
		if customer != nil {
			guest = displayName(customer)
		}
		emails = append(emails, Email{
			To:      owner.Email,
			Subject: fmt.Sprintf("New booking for %s", listing.Title),
			Body: fmt.Sprintf("Hi %s,\n\n%s has booked and paid for your listing.\n\n%s",
				displayName(owner), guest, details),
		})
	}

	return emails
}

func bookingDetails(b *model.Booking, listing *model.Listing) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Listing: %s\n", listing.Title)
	if listing.Location != "" {
		fmt.Fprintf(&sb, "Location: %s\n", listing.Location)
	}
	fmt.Fprintf(&sb, "Check-in: %s\n", b.CheckIn.Format(dateLayout))
	fmt.Fprintf(&sb, "Check-out: %s\n", b.CheckOut.Format(dateLayout))
	fmt.Fprintf(&sb, "Guests: %d\n", b.Guests)
	fmt.Fprintf(&sb, "Amount: %s %s\n", formatMinor(b.Price), b.Currency)
	fmt.Fprintf(&sb, "Booking ID: %s\n", b.ID)
	if b.ExternalPaymentID != "" {
		fmt.Fprintf(&sb, "Payment ID: %s\n", b.ExternalPaymentID)
	}
	return sb.String()
}

// formatMinor renders an amount in minor units with two decimals.
func formatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

func displayName(c *model.Contact) string {
	if name := sanitizer.NormalizeName(c.Name); name != "" {
		return name
	}
	return c.Email
}
