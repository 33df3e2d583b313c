// Package payment creates payment intents with Stripe.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safar/go-storefront/internal/config"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type Intent struct {
	ID           string
	ClientSecret string
}

type IntentRequest struct {
	AmountMinor  int64
	Currency     string
	ReceiptEmail string
	Description  string
}

type StripeGateway struct {
	api     *client.API
	timeout time.Duration
}

// NewStripeGateway builds a gateway for cfg. backends may be nil; tests pass
// backends pointed at a local server.
func NewStripeGateway(cfg config.PaymentConfig, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.StripeKey, backends)
	return &StripeGateway{api: api, timeout: cfg.Timeout}
}

// CreatePaymentIntent asks Stripe for a payment intent with automatic
// payment methods. Stripe's own error message is returned as the error
// text so it can be shown to the customer.
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		ReceiptEmail: stripe.String(req.ReceiptEmail),
		Description:  stripe.String(req.Description),
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
			return nil, errors.New(stripeErr.Msg)
		}
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
