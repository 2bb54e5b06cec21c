package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"homigo/pkg/model"
)

// BookingClient calls the bookings API on behalf of one authenticated user.
type BookingClient struct {
	httpClient *HttpClient
}

type Metadata struct {
	TotalCount int64
	Limit      int
	Offset     int64
}

func NewBookingClient(baseURL, token string, timeout time.Duration) *BookingClient {
	httpClient := NewHttpClient(baseURL, timeout)
	if token != "" {
		httpClient.Headers["Authorization"] = "Bearer " + token
	}
	return &BookingClient{httpClient: httpClient}
}

func (c *BookingClient) Create(ctx context.Context, req *model.BookingRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings", req)
}

func (c *BookingClient) ListMine(ctx context.Context, limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/bookings?limit=%d&offset=%d", limit, offset)
	return c.httpClient.GET(ctx, path)
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *BookingClient) Cancel(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.DELETE(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *BookingClient) ConfirmStay(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/confirm", nil)
}

func (c *BookingClient) Availability(ctx context.Context, listingID, checkIn, checkOut string) (*Response, error) {
	q := url.Values{}
	q.Set("check_in", checkIn)
	q.Set("check_out", checkOut)
	path := "/api/v1/listings/id/" + url.PathEscape(listingID) + "/availability?" + q.Encode()
	return c.httpClient.GET(ctx, path)
}

func (c *BookingClient) PaymentKey(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/payments/key")
}

func (c *BookingClient) CreateOrder(ctx context.Context, bookingID string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/payments/orders", &model.PaymentOrderRequest{BookingID: bookingID})
}

func (c *BookingClient) Verify(ctx context.Context, req *model.PaymentVerification) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/payments/verify", req)
}

func (c *BookingClient) Webhook(ctx context.Context, rawBody []byte, signature string) (*Response, error) {
	return c.httpClient.POSTRaw(ctx, "/api/v1/payments/webhook", rawBody, map[string]string{
		"X-Razorpay-Signature": signature,
	})
}

func DecodeData[T any](resp *Response) (*T, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode response wrapper: %s: %w", resp.ToString(), err)
	}

	var out T
	if err := json.Unmarshal(wrapper.Data, &out); err != nil {
		return nil, fmt.Errorf("could not decode response data: %s: %w", resp.ToString(), err)
	}
	return &out, nil
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	return DecodeData[model.Booking](resp)
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]*model.Booking, *Metadata, error) {
	var wrapper struct {
		Data       []*model.Booking `json:"data"`
		TotalCount int64            `json:"total_count"`
		Limit      int              `json:"limit"`
		Offset     int64            `json:"offset"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated response: %s: %w", resp.ToString(), err)
	}

	return wrapper.Data, &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}, nil
}
