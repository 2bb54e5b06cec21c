package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"homigo/internal/bookings/repository"
	"homigo/internal/bookings/service"
	"homigo/internal/bookings/validator"
	"homigo/internal/directory"
	"homigo/internal/notifications"
	"homigo/internal/payments/gateway"
	"homigo/pkg/auth"
	"homigo/pkg/config"
	apperrors "homigo/pkg/errors"
	"homigo/pkg/logger"
	"homigo/pkg/model"
	"homigo/pkg/signature"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	jwtSecret     = "test-jwt-secret"
	keySecret     = "rzp_secret"
	webhookSecret = "whsec"
	stripeSecret  = "whsec_stripe"
)

type stubGateway struct{ n int }

func (g *stubGateway) CreateOrder(_ context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	g.n++
	return &gateway.Order{ID: fmt.Sprintf("order_%d", g.n), Amount: req.Amount, Currency: req.Currency}, nil
}

func (g *stubGateway) KeyID() string { return "rzp_key" }

type testServer struct {
	router    *httprouter.Router
	auth      *auth.Authenticator
	listingID string
	svc       service.BookingService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Discard()
	cfg := &config.Config{
		Log:                   log,
		PaymentCurrency:       "INR",
		RazorpayKeySecret:     keySecret,
		RazorpayWebhookSecret: webhookSecret,
		StripeWebhookSecret:   stripeSecret,
		GatewayTimeout:        time.Second,
		NotificationTimeout:   time.Second,
	}

	listingID := primitive.NewObjectID().Hex()
	dir := directory.NewMemory()
	dir.AddListing(model.Listing{ID: listingID, OwnerID: "owner-1", Title: "Cabin", NightlyRate: 1000})

	svc := service.NewBookingService(
		repository.NewMemoryBookingRepository(),
		dir, dir,
		&stubGateway{},
		notifications.NewLogDispatcher(log),
		validator.NewBookingValidator(log),
		cfg,
	)
	t.Cleanup(svc.Wait)

	authenticator := auth.NewAuthenticator(jwtSecret)
	router := httprouter.New()
	NewBookingHandler(svc, authenticator, log).RegisterRoutes(router)
	NewPaymentHandler(svc, authenticator, log).RegisterRoutes(router)

	return &testServer{router: router, auth: authenticator, listingID: listingID, svc: svc}
}

func (s *testServer) token(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := s.auth.Issue(userID, role, userID+"@example.com", time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Code
}

func TestCreateBooking(t *testing.T) {
	s := newTestServer(t)
	customer := s.token(t, "customer-1", auth.RoleCustomer)

	rec := s.do(t, http.MethodPost, "/api/v1/bookings", customer, model.BookingRequest{
		ListingID: s.listingID, CheckIn: "2024-05-01", CheckOut: "2024-05-04", Guests: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	booking := decodeData[model.Booking](t, rec)
	assert.Equal(t, int64(3000), booking.Price)
	assert.Equal(t, "customer-1", booking.CustomerID)
	assert.Equal(t, model.StatusPending, booking.Status)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings", customer, model.BookingRequest{
		ListingID: s.listingID, CheckIn: "2024-05-03", CheckOut: "2024-05-06",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeDateConflict, errorCode(t, rec))
}

func TestCreateBooking_AuthAndBody(t *testing.T) {
	s := newTestServer(t)
	req := model.BookingRequest{ListingID: s.listingID, CheckIn: "2024-05-01", CheckOut: "2024-05-04"}

	rec := s.do(t, http.MethodPost, "/api/v1/bookings", "", req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings", s.token(t, "owner-1", auth.RoleOwner), req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings", s.token(t, "customer-1", auth.RoleCustomer), []byte(`{bad`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings", s.token(t, "customer-1", auth.RoleCustomer), model.BookingRequest{
		ListingID: s.listingID, CheckIn: "2024-05-04", CheckOut: "2024-05-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidRange, errorCode(t, rec))
}

func TestAvailability_IsPublic(t *testing.T) {
	s := newTestServer(t)
	customer := s.token(t, "customer-1", auth.RoleCustomer)
	s.do(t, http.MethodPost, "/api/v1/bookings", customer, model.BookingRequest{
		ListingID: s.listingID, CheckIn: "2024-06-10", CheckOut: "2024-06-15",
	})

	rec := s.do(t, http.MethodGet, "/api/v1/listings/id/"+s.listingID+"/availability?check_in=2024-06-15&check_out=2024-06-18", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeData[model.Availability](t, rec).Available)

	rec = s.do(t, http.MethodGet, "/api/v1/listings/id/"+s.listingID+"/availability?check_in=2024-06-14&check_out=2024-06-20", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeData[model.Availability](t, rec).Available)

	rec = s.do(t, http.MethodGet, "/api/v1/listings/id/"+s.listingID+"/availability?check_in=2024-06-14", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentFlow(t *testing.T) {
	s := newTestServer(t)
	customer := s.token(t, "customer-1", auth.RoleCustomer)
	owner := s.token(t, "owner-1", auth.RoleOwner)

	rec := s.do(t, http.MethodPost, "/api/v1/bookings", customer, model.BookingRequest{
		ListingID: s.listingID, CheckIn: "2024-05-01", CheckOut: "2024-05-04",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	bookingID := decodeData[model.Booking](t, rec).ID

	rec = s.do(t, http.MethodGet, "/api/v1/payments/key", customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rzp_key", decodeData[map[string]string](t, rec)["key_id"])

	rec = s.do(t, http.MethodPost, "/api/v1/payments/orders", customer, model.PaymentOrderRequest{BookingID: bookingID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decodeData[model.PaymentOrder](t, rec)
	assert.Equal(t, int64(3000), order.Amount)

	rec = s.do(t, http.MethodPost, "/api/v1/payments/orders", customer, model.PaymentOrderRequest{BookingID: bookingID})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeAlreadyInitiated, errorCode(t, rec))

	rec = s.do(t, http.MethodDelete, "/api/v1/bookings/id/"+bookingID, customer, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidState, errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/api/v1/payments/verify", customer, model.PaymentVerification{
		BookingID: bookingID,
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: signature.Sign(keySecret, signature.CompletionPayload(order.OrderID, "pay_1")),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decodeData[model.Booking](t, rec)
	assert.Equal(t, model.StatusPaid, paid.Status)
	assert.NotContains(t, rec.Body.String(), "external_signature")

	rec = s.do(t, http.MethodPost, "/api/v1/bookings/id/"+bookingID+"/confirm", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.StatusConfirmed, decodeData[model.Booking](t, rec).Status)

	rec = s.do(t, http.MethodGet, "/api/v1/bookings/id/"+bookingID, owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/bookings/id/"+bookingID, s.token(t, "customer-2", auth.RoleCustomer), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVerify_SignatureMismatch(t *testing.T) {
	s := newTestServer(t)
	customer := s.token(t, "customer-1", auth.RoleCustomer)

	rec := s.do(t, http.MethodPost, "/api/v1/bookings", customer, model.BookingRequest{
		ListingID: s.listingID, CheckIn: "2024-05-01", CheckOut: "2024-05-04",
	})
	bookingID := decodeData[model.Booking](t, rec).ID
	rec = s.do(t, http.MethodPost, "/api/v1/payments/orders", customer, model.PaymentOrderRequest{BookingID: bookingID})
	order := decodeData[model.PaymentOrder](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/payments/verify", customer, model.PaymentVerification{
		BookingID: bookingID,
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: signature.Sign("wrong", []byte("x")),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeSignatureMismatch, errorCode(t, rec))
}

func TestWebhook(t *testing.T) {
	s := newTestServer(t)
	customer := s.token(t, "customer-1", auth.RoleCustomer)

	rec := s.do(t, http.MethodPost, "/api/v1/bookings", customer, model.BookingRequest{
		ListingID: s.listingID, CheckIn: "2024-05-01", CheckOut: "2024-05-04",
	})
	bookingID := decodeData[model.Booking](t, rec).ID
	rec = s.do(t, http.MethodPost, "/api/v1/payments/orders", customer, model.PaymentOrderRequest{BookingID: bookingID})
	order := decodeData[model.PaymentOrder](t, rec)

	body := []byte(fmt.Sprintf(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_wh","order_id":%q}}}}`, order.OrderID))

	rec = s.do(t, http.MethodPost, "/api/v1/payments/webhook", "", body, WebhookSignatureHeader, signature.Sign("bad", body))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidSignature, errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/api/v1/payments/webhook", "", body, WebhookSignatureHeader, signature.Sign(webhookSecret, body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/bookings/id/"+bookingID, customer, nil)
	booking := decodeData[model.Booking](t, rec)
	assert.Equal(t, model.StatusPaid, booking.Status)
	assert.Equal(t, "pay_wh", booking.ExternalPaymentID)
}

func TestStripeWebhook(t *testing.T) {
	s := newTestServer(t)
	customer := s.token(t, "customer-1", auth.RoleCustomer)

	rec := s.do(t, http.MethodPost, "/api/v1/bookings", customer, model.BookingRequest{
		ListingID: s.listingID, CheckIn: "2024-05-01", CheckOut: "2024-05-04",
	})
	bookingID := decodeData[model.Booking](t, rec).ID
	rec = s.do(t, http.MethodPost, "/api/v1/payments/orders", customer, model.PaymentOrderRequest{BookingID: bookingID})
	order := decodeData[model.PaymentOrder](t, rec)

	body := []byte(fmt.Sprintf(
		`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":%q,"object":"payment_intent","latest_charge":"ch_wh"}}}`,
		order.OrderID,
	))
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sign := func(secret string) string {
		return fmt.Sprintf("t=%s,v1=%s", ts, signature.Sign(secret, []byte(ts+"."+string(body))))
	}

	rec = s.do(t, http.MethodPost, "/api/v1/payments/webhook/stripe", "", body, gateway.StripeSignatureHeader, sign("bad"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidSignature, errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/api/v1/payments/webhook/stripe", "", body, gateway.StripeSignatureHeader, sign(stripeSecret))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/bookings/id/"+bookingID, customer, nil)
	booking := decodeData[model.Booking](t, rec)
	assert.Equal(t, model.StatusPaid, booking.Status)
	assert.Equal(t, "ch_wh", booking.ExternalPaymentID)
}

func TestListMine(t *testing.T) {
	s := newTestServer(t)
	customer := s.token(t, "customer-1", auth.RoleCustomer)
	for _, in := range []string{"2024-05-01", "2024-05-10", "2024-05-20"} {
		checkIn, _ := time.Parse(time.DateOnly, in)
		rec := s.do(t, http.MethodPost, "/api/v1/bookings", customer, model.BookingRequest{
			ListingID: s.listingID, CheckIn: in, CheckOut: checkIn.AddDate(0, 0, 2).Format(time.DateOnly),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/v1/bookings?limit=2", customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Data       []model.Booking `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, 2, page.Limit)
	assert.Len(t, page.Data, 2)

	rec = s.do(t, http.MethodGet, "/api/v1/bookings?limit=abc", customer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
