package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"homigo/pkg/client"
)

type RazorpayGateway struct {
	http  *client.HttpClient
	keyID string
}

func NewRazorpayGateway(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayGateway {
	return &RazorpayGateway{
		http:  client.NewHttpClient(strings.TrimRight(baseURL, "/"), timeout).WithBasicAuth(keyID, keySecret),
		keyID: keyID,
	}
}

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	resp, err := g.http.POST(ctx, "/orders", razorpayOrderRequest{
		Amount:   req.Amount,
		Currency: strings.ToUpper(req.Currency),
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, client.GetErrorMessage(resp))
	}

	var order razorpayOrder
	if err := resp.DecodeJSON(&order); err != nil {
		return nil, fmt.Errorf("%w: failed to decode order: %w", ErrProvider, err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: order response has no id", ErrProvider)
	}

	return &Order{ID: order.ID, Amount: order.Amount, Currency: order.Currency}, nil
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}
