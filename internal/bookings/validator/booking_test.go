package validator

import (
	"errors"
	"testing"
	"time"

	"homigo/pkg/logger"
	"homigo/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingID = "65a1b2c3d4e5f6a7b8c9d0e1"

func newValidator() *BookingValidator {
	return NewBookingValidator(logger.Discard())
}

func validBooking() *model.Booking {
	return &model.Booking{
		ListingID:     listingID,
		CustomerID:    "cust-1",
		OwnerID:       "owner-1",
		CheckIn:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
		Guests:        2,
		Nights:        3,
		Price:         3000,
		Currency:      "INR",
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentNotPaid,
	}
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
	var fields []string
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestValidate_Booking(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name    string
		mutate  func(b *model.Booking)
		wantErr string
	}{
		{"valid", func(b *model.Booking) {}, ""},
		{"bad listing id", func(b *model.Booking) { b.ListingID = "not-an-id" }, "ListingID"},
		{"zero guests", func(b *model.Booking) { b.Guests = 0 }, "Guests"},
		{"checkout before checkin", func(b *model.Booking) { b.CheckOut = b.CheckIn.Add(-time.Hour) }, "CheckOut"},
		{"unknown status", func(b *model.Booking) { b.Status = "archived" }, "Status"},
		{"unknown payment status", func(b *model.Booking) { b.PaymentStatus = "refunded" }, "PaymentStatus"},
		{"paid but pending", func(b *model.Booking) { b.PaymentStatus = model.PaymentPaid }, "PaymentStatus"},
		{"bad currency", func(b *model.Booking) { b.Currency = "RUPEE" }, "Currency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking()
			tt.mutate(b)
			err := v.Validate(b)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, fieldsOf(t, err), tt.wantErr)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	v := newValidator()

	assert.NoError(t, v.ValidateRequest(&model.BookingRequest{
		ListingID: listingID, CheckIn: "2024-05-01", CheckOut: "2024-05-04",
	}))

	err := v.ValidateRequest(&model.BookingRequest{ListingID: listingID, Guests: -1})
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "CheckIn")
	assert.Contains(t, fields, "CheckOut")
	assert.Contains(t, fields, "Guests")
}

func TestValidateVerification(t *testing.T) {
	v := newValidator()

	assert.NoError(t, v.ValidateVerification(&model.PaymentVerification{
		BookingID: listingID, OrderID: "order_1", PaymentID: "pay_1", Signature: "abcdef0123",
	}))

	err := v.ValidateVerification(&model.PaymentVerification{
		BookingID: listingID, OrderID: "order_1", PaymentID: "pay_1", Signature: "not hex!",
	})
	assert.Equal(t, []string{"Signature"}, fieldsOf(t, err))

	// Stripe confirmations carry no signature.
	assert.NoError(t, v.ValidateVerification(&model.PaymentVerification{
		BookingID: listingID, OrderID: "pi_1", PaymentID: "ch_1",
	}))
}

func TestValidationErrors_Details(t *testing.T) {
	errs := ValidationErrors{{Field: "Guests", Message: "Guests must be at least 1"}}

	assert.Equal(t, map[string]any{"Guests": "Guests must be at least 1"}, errs.Details())
	assert.Contains(t, errs.Error(), "1 error(s)")
}
