// Package pricing computes cart subtotals and order totals from
// authoritative product prices.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
)

// ErrUnknownProduct is returned when a cart line references a product id
// that has no price.
var ErrUnknownProduct = errors.New("unknown product")

// PriceSource looks up current unit prices by product id. Missing ids are
// simply absent from the result.
type PriceSource interface {
	ProductPrices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error)
}

type Line struct {
	ProductID int64
	Quantity  int
}

type Quote struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

type Calculator struct {
	prices      PriceSource
	taxRate     decimal.Decimal
	deliveryFee decimal.Decimal
}

func NewCalculator(prices PriceSource, cfg config.PricingConfig) *Calculator {
	return &Calculator{
		prices:      prices,
		taxRate:     cfg.TaxRate,
		deliveryFee: cfg.DeliveryFee,
	}
}

// Quote prices lines with the stored unit prices, never with anything the
// client sent. Pick-up orders pay subtotal plus tax. Delivery orders pay
// the delivery fee before tax and the tip after it. Both amounts are
// rounded to cents.
func (c *Calculator) Quote(ctx context.Context, lines []Line, orderType models.OrderType, tip decimal.Decimal) (Quote, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	prices, err := c.prices.ProductPrices(ctx, ids)
	if err != nil {
		return Quote{}, fmt.Errorf("load prices: %w", err)
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		price, ok := prices[line.ProductID]
		if !ok {
			return Quote{}, fmt.Errorf("%w: %d", ErrUnknownProduct, line.ProductID)
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return Quote{
		Subtotal: subtotal.Round(2),
		Total:    c.total(subtotal, orderType, tip).Round(2),
	}, nil
}

func (c *Calculator) total(subtotal decimal.Decimal, orderType models.OrderType, tip decimal.Decimal) decimal.Decimal {
	taxMultiplier := decimal.NewFromInt(1).Add(c.taxRate)
	if orderType == models.OrderTypePickUp {
		return subtotal.Mul(taxMultiplier)
	}
	return subtotal.Add(c.deliveryFee).Mul(taxMultiplier).Add(tip)
}

// MinorUnits converts an amount to the currency's minor unit (cents),
// truncating anything below one cent.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).IntPart()
}
