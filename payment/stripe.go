// Package payment wraps the Stripe payment processor. All outbound calls
// carry a request timeout and bounded network retries; card declines are
// surfaced as ErrCardDeclined so handlers can answer with a client error
// instead of a generic failure.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

var ErrCardDeclined = errors.New("card declined")

// Intent is the slice of the processor's payment-intent object the rest of
// the service cares about.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type Processor interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error)
	ConfirmPayment(ctx context.Context, amount int64, currency, paymentMethodID string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

type StripeProcessor struct {
	api *client.API
}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 15 * time.Second},
		MaxNetworkRetries: stripe.Int64(3),
	})
	api := client.New(secretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
	return &StripeProcessor{api: api}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, wrapStripeErr(err)
	}
	return fromStripeIntent(intent), nil
}

func (p *StripeProcessor) ConfirmPayment(ctx context.Context, amount int64, currency, paymentMethodID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(paymentMethodID),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, wrapStripeErr(err)
	}
	return fromStripeIntent(intent), nil
}

func (p *StripeProcessor) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, wrapStripeErr(err)
	}
	return fromStripeIntent(intent), nil
}

func fromStripeIntent(intent *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}
}

func wrapStripeErr(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
		return fmt.Errorf("%w: %s", ErrCardDeclined, stripeErr.Msg)
	}
	return err
}

// Webhook event types the service reacts to.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// WebhookEvent is a verified, decoded processor callback.
type WebhookEvent struct {
	ID       string
	Type     string
	IntentID string
}

// ParseWebhook verifies the payload signature against the shared webhook
// secret and extracts the payment-intent id. A bad signature fails here and
// nothing downstream runs.
func ParseWebhook(payload []byte, signatureHeader, secret string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, secret)
	if err != nil {
		return nil, fmt.Errorf("webhook verification failed: %w", err)
	}

	var intent struct {
		ID string `json:"id"`
	}
	if len(event.Data.Raw) > 0 {
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("cannot decode webhook object: %w", err)
		}
	}

	return &WebhookEvent{
		ID:       event.ID,
		Type:     string(event.Type),
		IntentID: intent.ID,
	}, nil
}
