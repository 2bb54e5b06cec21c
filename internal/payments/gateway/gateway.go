package gateway

import (
	"context"
	"errors"
	"fmt"

	"homigo/pkg/config"
)

var (
	ErrProvider       = errors.New("payment provider request failed")
	ErrEventSignature = errors.New("invalid event signature")
	ErrMalformedEvent = errors.New("malformed event payload")

	// ErrPaymentMismatch means the provider does not vouch for the reported payment.
	ErrPaymentMismatch   = errors.New("payment does not match the order")
	// ErrPaymentIncomplete means the payment exists but has not settled yet.
	ErrPaymentIncomplete = errors.New("payment has not completed")
)

// OrderRequest describes the charge a provider order is created for.
// Amount is in minor units.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is the provider-side record returned to the checkout client.
type Order struct {
	ID       string
	Amount   int64
	Currency string
}

type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	// KeyID is the public key the checkout widget is opened with.
	KeyID() string
}

// CompletionVerifier is implemented by providers whose checkout client has no
// signed completion token. The payment is confirmed by asking the provider.
type CompletionVerifier interface {
	VerifyCompletion(ctx context.Context, orderID, paymentID string) error
}

type EventKind int

const (
	EventIgnored EventKind = iota
	EventCaptured
	EventFailed
)

// PaymentEvent is a verified provider notification reduced to what the
// reconciler acts on.
type PaymentEvent struct {
	Kind      EventKind
	Name      string
	OrderID   string
	PaymentID string
}

func New(cfg *config.Config) (Gateway, error) {
	switch cfg.PaymentProvider {
	case config.ProviderRazorpay:
		return NewRazorpayGateway(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.GatewayTimeout), nil
	case config.ProviderStripe:
		return NewStripeGateway(cfg.StripeSecretKey, nil), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", cfg.PaymentProvider)
	}
}
