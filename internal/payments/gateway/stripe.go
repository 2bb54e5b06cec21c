package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	StripeSignatureHeader = "Stripe-Signature"

	StripeEventIntentSucceeded = "payment_intent.succeeded"
	StripeEventIntentFailed    = "payment_intent.payment_failed"
)

// StripeGateway uses a PaymentIntent as the provider order. The intent id
// plays the role of the order id in the completion and webhook flows.
type StripeGateway struct {
	intents paymentintent.Client
}

// NewStripeGateway builds a gateway on backend, or on the default API backend when nil.
func NewStripeGateway(secretKey string, backend stripe.Backend) *StripeGateway {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeGateway{
		intents: paymentintent.Client{B: backend, Key: secretKey},
	}
}

func (g *StripeGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Receipt),
	}
	params.Context = ctx
	for k, v := range req.Notes {
		params.AddMetadata(k, v)
	}

	intent, err := g.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	return &Order{
		ID:       intent.ID,
		Amount:   intent.Amount,
		Currency: strings.ToUpper(string(intent.Currency)),
	}, nil
}

// KeyID is empty: Stripe's publishable key is configured on the client.
func (g *StripeGateway) KeyID() string {
	return ""
}

// VerifyCompletion fetches the intent and accepts paymentID when it names the
// intent or its latest charge and the intent has succeeded.
func (g *StripeGateway) VerifyCompletion(ctx context.Context, orderID, paymentID string) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := g.intents.Get(orderID, params)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}
	if paymentID != intent.ID && paymentID != latestChargeID(intent) {
		return ErrPaymentMismatch
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return nil
	case stripe.PaymentIntentStatusCanceled, stripe.PaymentIntentStatusRequiresPaymentMethod:
		return fmt.Errorf("%w: intent status %s", ErrPaymentMismatch, intent.Status)
	default:
		return fmt.Errorf("%w: intent status %s", ErrPaymentIncomplete, intent.Status)
	}
}

func latestChargeID(intent *stripe.PaymentIntent) string {
	if intent.LatestCharge != nil {
		return intent.LatestCharge.ID
	}
	return ""
}

// ParseStripeEvent checks the Stripe-Signature header against secret and
// reduces payment intent events to a PaymentEvent.
func ParseStripeEvent(payload []byte, header, secret string) (*PaymentEvent, error) {
	if err := webhook.ValidatePayload(payload, header, secret); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEventSignature, err)
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil || event.Data == nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	name := string(event.Type)
	out := &PaymentEvent{Kind: EventIgnored, Name: name}
	switch name {
	case StripeEventIntentSucceeded:
		out.Kind = EventCaptured
	case StripeEventIntentFailed:
		out.Kind = EventFailed
	default:
		return out, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	out.OrderID = intent.ID
	out.PaymentID = latestChargeID(&intent)
	if out.PaymentID == "" {
		out.PaymentID = intent.ID
	}
	return out, nil
}
