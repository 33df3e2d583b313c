package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Inventory int             `json:"inventory"`
	Size      string          `json:"size"`
	Category  string          `json:"category"`
	Image     string          `json:"image,omitempty"`
	Cost      decimal.Decimal `json:"cost"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CartItem is one line of a signed-in user's saved cart. Synced is false
// for lines the client changed since it last saved the cart.
type CartItem struct {
	UserID    int64    `json:"-"`
	ProductID int64    `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Synced    bool     `json:"synced"`
	Product   *Product `json:"product,omitempty"`
}

type OrderType string

const (
	OrderTypePickUp   OrderType = "pick up"
	OrderTypeDelivery OrderType = "delivery"
)

func (t OrderType) Valid() bool {
	return t == OrderTypePickUp || t == OrderTypeDelivery
}

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusError     OrderStatus = "error"
)

// Terminal reports whether no further transitions are defined for s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled
}

type Order struct {
	ID           int64           `json:"id"`
	UserID       *int64          `json:"user_id"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tip          decimal.Decimal `json:"tip"`
	Total        decimal.Decimal `json:"total"`
	OrderType    OrderType       `json:"order_type"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	AddressLine1 string          `json:"address_line_1,omitempty"`
	AddressLine2 string          `json:"address_line_2,omitempty"`
	City         string          `json:"city,omitempty"`
	State        string          `json:"state,omitempty"`
	ZipCode      string          `json:"zip_code,omitempty"`
	Schedule     string          `json:"schedule,omitempty"`
	Status       OrderStatus     `json:"status"`
	ReferenceID  string          `json:"reference_id"`
	CancelReason string          `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int             `json:"version"`
	Items        []OrderItem     `json:"items,omitempty"`
}

// Address joins the delivery address fields into a single line, e.g.
// "1 Main St Apt 2, Springfield, IL 62701".
func (o *Order) Address() string {
	var b strings.Builder
	b.WriteString(o.AddressLine1)
	if o.AddressLine2 != "" {
		b.WriteString(" ")
		b.WriteString(o.AddressLine2)
	}
	b.WriteString(", ")
	b.WriteString(o.City)
	b.WriteString(", ")
	b.WriteString(o.State)
	b.WriteString(" ")
	b.WriteString(o.ZipCode)
	return b.String()
}

type OrderItem struct {
	ID        int64    `json:"id"`
	OrderID   int64    `json:"order_id"`
	ProductID int64    `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product,omitempty"`
}

// ReferenceID builds the customer-facing order code: the creation date as
// MMDDYYYY followed by the order id.
func ReferenceID(createdAt time.Time, orderID int64) string {
	return createdAt.Format("01022006") + strconv.FormatInt(orderID, 10)
}
