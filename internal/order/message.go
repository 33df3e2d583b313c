package order

import (
	"fmt"
	"strings"

	"github.com/safar/go-storefront/internal/models"
)

// ConfirmationMessage is the text sent to the store operator when an order
// is confirmed. It links to the order page under clientHostname.
func ConfirmationMessage(o *models.Order, clientHostname string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "An order (#%s) has been placed on online store. Customer Name - %s %s. Order Type - %s.",
		o.ReferenceID, o.FirstName, o.LastName, o.OrderType)
	if o.OrderType == models.OrderTypeDelivery {
		b.WriteString(" Address - ")
		b.WriteString(o.Address())
	}
	fmt.Fprintf(&b, "\nLink - %s/order/%d", clientHostname, o.ID)
	return b.String()
}
