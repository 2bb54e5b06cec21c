package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusExpired, true},
		{StatusPending, StatusConfirmed, false},
		{StatusPaid, StatusConfirmed, true},
		{StatusPaid, StatusCanceled, false},
		{StatusPaid, StatusPending, false},
		{StatusConfirmed, StatusPaid, false},
		{StatusCanceled, StatusPaid, false},
		{StatusCanceled, StatusPending, false},
		{StatusExpired, StatusPaid, false},
		{BookingStatus("unknown"), StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBookingStatus_TerminalAndActive(t *testing.T) {
	assert.True(t, StatusCanceled.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.True(t, StatusConfirmed.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusPaid.IsTerminal())

	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusPaid.IsActive())
	assert.True(t, StatusConfirmed.IsActive())
	assert.False(t, StatusCanceled.IsActive())
	assert.False(t, StatusExpired.IsActive())
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus("paid")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, s)

	_, err = ParseBookingStatus("refunded")
	assert.Error(t, err)
}

func TestPaymentStatus_IsLocked(t *testing.T) {
	assert.False(t, PaymentNotPaid.IsLocked())
	assert.False(t, PaymentFailed.IsLocked())
	assert.True(t, PaymentProcessing.IsLocked())
	assert.True(t, PaymentPaid.IsLocked())
	assert.False(t, PaymentStatus("bogus").IsValid())
}

func TestBooking_Overlaps(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC) }
	b := &Booking{CheckIn: day(10), CheckOut: day(15)}

	assert.False(t, b.Overlaps(day(15), day(18)), "check-in on existing checkout is free")
	assert.False(t, b.Overlaps(day(5), day(10)), "checkout on existing check-in is free")
	assert.True(t, b.Overlaps(day(14), day(20)))
	assert.True(t, b.Overlaps(day(11), day(12)))
	assert.True(t, b.Overlaps(day(1), day(30)))
}

func TestBooking_Visibility(t *testing.T) {
	b := &Booking{CustomerID: "cust", OwnerID: "owner"}

	assert.True(t, b.IsOwnedBy("cust"))
	assert.False(t, b.IsOwnedBy("owner"))
	assert.True(t, b.IsVisibleTo("owner"))
	assert.False(t, b.IsVisibleTo("stranger"))
}
