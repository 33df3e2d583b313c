package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/safar/go-storefront/internal/config"
	"github.com/stripe/stripe-go/v76"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	return NewStripeGateway(config.PaymentConfig{
		StripeKey: "sk_test_123",
		Currency:  "usd",
		Timeout:   2 * time.Second,
	}, &stripe.Backends{API: backend})
}

func TestCreatePaymentIntent(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("amount"); got != "2160" {
			t.Errorf("Expected amount 2160, got %s", got)
		}
		if got := r.PostForm.Get("currency"); got != "usd" {
			t.Errorf("Expected currency usd, got %s", got)
		}
		if got := r.PostForm.Get("receipt_email"); got != "jane@example.com" {
			t.Errorf("Expected receipt email, got %s", got)
		}
		if got := r.PostForm.Get("automatic_payment_methods[enabled]"); got != "true" {
			t.Errorf("Expected automatic payment methods, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "pi_123", "object": "payment_intent", "client_secret": "pi_123_secret_abc"}`)
	})

	intent, err := gateway.CreatePaymentIntent(context.Background(), IntentRequest{
		AmountMinor:  2160,
		Currency:     "usd",
		ReceiptEmail: "jane@example.com",
		Description:  "Your order reference is #10152026 1",
	})
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if intent.ID != "pi_123" || intent.ClientSecret != "pi_123_secret_abc" {
		t.Errorf("unexpected intent %+v", intent)
	}
}

func TestCreatePaymentIntentSurfacesStripeMessage(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"type": "invalid_request_error", "message": "Amount must be at least $0.50 usd"}}`)
	})

	_, err := gateway.CreatePaymentIntent(context.Background(), IntentRequest{
		AmountMinor: 10,
		Currency:    "usd",
	})
	if err == nil {
		t.Fatal("expected error from gateway")
	}
	if err.Error() != "Amount must be at least $0.50 usd" {
		t.Errorf("Expected stripe message, got %q", err.Error())
	}
}
