package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"homigo/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func TestRazorpay_CreateOrder(t *testing.T) {
	var got razorpayOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "rzp_secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_123","amount":3000,"currency":"INR","status":"created"}`))
	}))
	defer srv.Close()

	g := NewRazorpayGateway(srv.URL+"/", "rzp_key", "rzp_secret", time.Second)
	order, err := g.CreateOrder(context.Background(), OrderRequest{
		Amount:   3000,
		Currency: "inr",
		Receipt:  "booking_abc",
		Notes:    map[string]string{"booking_id": "abc"},
	})
	require.NoError(t, err)

	assert.Equal(t, &Order{ID: "order_123", Amount: 3000, Currency: "INR"}, order)
	assert.Equal(t, int64(3000), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "booking_abc", got.Receipt)
	assert.Equal(t, "abc", got.Notes["booking_id"])
	assert.Equal(t, "rzp_key", g.KeyID())
}

func TestRazorpay_CreateOrder_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	g := NewRazorpayGateway(srv.URL, "k", "s", time.Second)
	_, err := g.CreateOrder(context.Background(), OrderRequest{Amount: 1, Currency: "INR"})

	require.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestRazorpay_CreateOrder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	g := NewRazorpayGateway(srv.URL, "k", "s", time.Second)
	_, err := g.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR"})
	assert.ErrorIs(t, err, ErrProvider)
}

func TestStripe_CreateOrder(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","amount":3000,"currency":"inr"}`))
	}))
	defer srv.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	g := NewStripeGateway("sk_test_123", backend)

	order, err := g.CreateOrder(context.Background(), OrderRequest{
		Amount:   3000,
		Currency: "INR",
		Receipt:  "booking_abc",
		Notes:    map[string]string{"booking_id": "abc"},
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_123", order.ID)
	assert.Equal(t, int64(3000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "3000", form.Get("amount"))
	assert.Equal(t, "inr", form.Get("currency"))
	assert.Equal(t, "abc", form.Get("metadata[booking_id]"))
	assert.Empty(t, g.KeyID())
}

func TestNew_SelectsProvider(t *testing.T) {
	g, err := New(&config.Config{PaymentProvider: config.ProviderRazorpay, RazorpayKeyID: "k", GatewayTimeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &RazorpayGateway{}, g)

	_, err = New(&config.Config{PaymentProvider: "paypal"})
	assert.Error(t, err)
}
