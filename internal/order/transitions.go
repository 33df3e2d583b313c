package order

import (
	"fmt"

	"github.com/safar/go-storefront/internal/models"
)

// allowed lists the statuses each status may move to. Moving an order to the
// status it already has is handled separately by the callers.
var allowed = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusCreated:   {models.OrderStatusPlaced, models.OrderStatusError, models.OrderStatusCanceled},
	models.OrderStatusPlaced:    {models.OrderStatusConfirmed, models.OrderStatusError, models.OrderStatusCanceled},
	models.OrderStatusConfirmed: {models.OrderStatusAccepted, models.OrderStatusCanceled},
	models.OrderStatusAccepted:  {models.OrderStatusCompleted, models.OrderStatusCanceled},
	models.OrderStatusError:     {models.OrderStatusCanceled},
	models.OrderStatusCanceled:  {models.OrderStatusCanceled},
}

// CanTransition reports whether an order in status from may be moved to to.
func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

func invalidTransition(from, to models.OrderStatus) *Error {
	return newError(KindInvalidTransition, fmt.Sprintf("order cannot move from %s to %s", from, to))
}
