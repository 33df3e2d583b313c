package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/safar/go-storefront/internal/config"
	"googlemaps.github.io/maps"
)

func TestMetersToMiles(t *testing.T) {
	if got := MetersToMiles(1609); got < 0.99 || got > 1.0 {
		t.Fatalf("MetersToMiles(1609) = %v, want ~1", got)
	}
}

func newTestChecker(t *testing.T, body string) *RangeChecker {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/api/distancematrix/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	checker, err := NewRangeChecker(config.DeliveryConfig{
		MapsAPIKey:   "AIza-test",
		StoreAddress: "100 Store St, Springfield, IL 62701",
		RangeMiles:   5,
		Timeout:      2 * time.Second,
	}, maps.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewRangeChecker: %v", err)
	}
	return checker
}

func matrixResponse(elementStatus string, meters int) string {
	return fmt.Sprintf(`{
		"status": "OK",
		"origin_addresses": ["100 Store St"],
		"destination_addresses": ["1 Main St"],
		"rows": [{"elements": [{"status": %q, "distance": {"text": "x mi", "value": %d}, "duration": {"text": "x", "value": 60}}]}]
	}`, elementStatus, meters)
}

func TestWithinRange(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		inRange bool
		message string
	}{
		{"inside radius", matrixResponse("OK", 3000), true, ""},
		{"outside radius", matrixResponse("OK", 20000), false, msgOutOfRange},
		{"address not found", matrixResponse("NOT_FOUND", 0), false, msgAddressNotFound},
		{"zero results", matrixResponse("ZERO_RESULTS", 0), false, msgAddressNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := newTestChecker(t, tt.body)

			inRange, message, err := checker.WithinRange(context.Background(), "1 Main St, Springfield, IL 62701")
			if err != nil {
				t.Fatalf("WithinRange: %v", err)
			}
			if inRange != tt.inRange {
				t.Errorf("Expected inRange %v, got %v", tt.inRange, inRange)
			}
			if message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, message)
			}
		})
	}
}

func TestWithinRangeLookupFailure(t *testing.T) {
	checker := newTestChecker(t, `{"status": "REQUEST_DENIED", "error_message": "bad key", "rows": []}`)

	inRange, _, err := checker.WithinRange(context.Background(), "1 Main St")
	if err == nil {
		t.Fatal("expected error for denied request")
	}
	if inRange {
		t.Error("failed lookup must not be in range")
	}
}
