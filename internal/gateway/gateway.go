// Package gateway adapts the card payment provider used for rent charges.
package gateway

import (
	"context" // Request deadlines
	"errors"  // Sentinel errors

	"github.com/stripe/stripe-go/v76"        // Stripe types
	"github.com/stripe/stripe-go/v76/client" // Stripe API client
)

// StatusSucceeded is the provider status of a settled charge
const StatusSucceeded = "succeeded"

// ErrNotConfigured is returned when no provider key was supplied
var ErrNotConfigured = errors.New("payment gateway not configured")

// ChargeIntent is the handle returned when a charge is started
type ChargeIntent struct {
	Reference    string `json:"reference"`     // Provider side id
	ClientHandle string `json:"client_secret"` // Secret the client confirms with
}

// Charge is the provider's view of a charge
type Charge struct {
	Reference   string            // Provider side id
	Status      string            // Provider status string
	AmountMinor int64             // Amount in minor units
	Metadata    map[string]string // Metadata attached at creation
}

// Gateway creates and inspects charges
type Gateway interface {
	CreateChargeIntent(ctx context.Context, amountMinor int64, metadata map[string]string) (ChargeIntent, error)
	RetrieveCharge(ctx context.Context, reference string) (Charge, error)
}

// Stripe talks to the Stripe PaymentIntents API
type Stripe struct {
	api      *client.API // Stripe API client
	currency string      // ISO currency code
}

// NewStripe builds a Stripe gateway
func NewStripe(secretKey, currency string) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, nil) // Default backends
	return &Stripe{api: sc, currency: currency}
}

// CreateChargeIntent opens a card PaymentIntent tagged with metadata
func (s *Stripe) CreateChargeIntent(ctx context.Context, amountMinor int64, metadata map[string]string) (ChargeIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinor),
		Currency:           stripe.String(s.currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return ChargeIntent{}, err
	}
	return ChargeIntent{Reference: pi.ID, ClientHandle: pi.ClientSecret}, nil
}

// RetrieveCharge fetches the PaymentIntent behind reference
func (s *Stripe) RetrieveCharge(ctx context.Context, reference string) (Charge, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(reference, params)
	if err != nil {
		return Charge{}, err
	}
	return Charge{
		Reference:   pi.ID,
		Status:      string(pi.Status),
		AmountMinor: pi.Amount,
		Metadata:    pi.Metadata,
	}, nil
}

// Disabled rejects every call; wired when STRIPE_SECRET_KEY is empty
type Disabled struct{}

// CreateChargeIntent always fails
func (Disabled) CreateChargeIntent(context.Context, int64, map[string]string) (ChargeIntent, error) {
	return ChargeIntent{}, ErrNotConfigured
}

// RetrieveCharge always fails
func (Disabled) RetrieveCharge(context.Context, string) (Charge, error) {
	return Charge{}, ErrNotConfigured
}
