package geo

import (
	"context"
	"fmt"
	"time"

	"github.com/safar/go-storefront/internal/config"
	"googlemaps.github.io/maps"
)

// MetersPerMile converts Distance Matrix meters to miles.
const MetersPerMile = 1609.344

const (
	msgAddressNotFound = "We could not find the delivery address. Please check it and try again."
	msgOutOfRange      = "Sorry, the delivery address is outside of our delivery range."
)

// RangeChecker decides whether an address is within delivery range of the
// store using the Google Maps Distance Matrix API.
type RangeChecker struct {
	client       *maps.Client
	storeAddress string
	rangeMiles   float64
	timeout      time.Duration
}

func NewRangeChecker(cfg config.DeliveryConfig, opts ...maps.ClientOption) (*RangeChecker, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(cfg.MapsAPIKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}

	return &RangeChecker{
		client:       client,
		storeAddress: cfg.StoreAddress,
		rangeMiles:   cfg.RangeMiles,
		timeout:      cfg.Timeout,
	}, nil
}

// WithinRange looks up the distance from the store to address. Any lookup
// status other than "OK" and any distance beyond the configured radius are
// reported as out of range with a message fit for the customer. A non-nil
// error means the lookup itself failed.
func (c *RangeChecker) WithinRange(ctx context.Context, address string) (bool, string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{c.storeAddress},
		Destinations: []string{address},
		Units:        maps.UnitsImperial,
	})
	if err != nil {
		return false, "", fmt.Errorf("distance matrix: %w", err)
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return false, msgAddressNotFound, nil
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return false, msgAddressNotFound, nil
	}

	if MetersToMiles(element.Distance.Meters) > c.rangeMiles {
		return false, msgOutOfRange, nil
	}

	return true, "", nil
}

func MetersToMiles(meters int) float64 {
	return float64(meters) / MetersPerMile
}
