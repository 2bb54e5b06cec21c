package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homigo/pkg/auth"
	"homigo/pkg/client"
	"homigo/pkg/model"
	"homigo/pkg/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingClient_CheckoutOverHTTP(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	customer := client.NewBookingClient(srv.URL, s.token(t, "customer-1", auth.RoleCustomer), 5*time.Second)
	anonymous := client.NewBookingClient(srv.URL, "", 5*time.Second)

	resp, err := anonymous.Availability(ctx, s.listingID, "2024-06-01", "2024-06-03")
	require.NoError(t, err)
	require.True(t, resp.IsSuccess(), resp.ToString())
	availability, err := client.DecodeData[model.Availability](resp)
	require.NoError(t, err)
	assert.True(t, availability.Available)

	resp, err = customer.Create(ctx, &model.BookingRequest{ListingID: s.listingID, CheckIn: "2024-06-01", CheckOut: "2024-06-03"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.ToString())
	booking, err := customer.DecodeBooking(resp)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), booking.Price)

	resp, err = anonymous.Availability(ctx, s.listingID, "2024-06-02", "2024-06-04")
	require.NoError(t, err)
	availability, err = client.DecodeData[model.Availability](resp)
	require.NoError(t, err)
	assert.False(t, availability.Available)

	resp, err = customer.CreateOrder(ctx, booking.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.ToString())
	order, err := client.DecodeData[model.PaymentOrder](resp)
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(`{"event":"order.paid","payload":{"payment":{"entity":{"id":"pay_9","order_id":%q}}}}`, order.OrderID))
	resp, err = anonymous.Webhook(ctx, body, signature.Sign(webhookSecret, body))
	require.NoError(t, err)
	require.True(t, resp.IsSuccess(), resp.ToString())

	resp, err = customer.Verify(ctx, &model.PaymentVerification{
		BookingID: booking.ID,
		OrderID:   order.OrderID,
		PaymentID: "pay_9",
		Signature: signature.Sign(keySecret, signature.CompletionPayload(order.OrderID, "pay_9")),
	})
	require.NoError(t, err)
	require.True(t, resp.IsSuccess(), resp.ToString())

	resp, err = customer.ListMine(ctx, 10, 0)
	require.NoError(t, err)
	bookings, meta, err := customer.DecodeBookings(resp)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, model.StatusPaid, bookings[0].Status)
	assert.Equal(t, int64(1), meta.TotalCount)

	resp, err = customer.Cancel(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.NotEmpty(t, client.GetErrorMessage(resp))
}
