package httpapi

import (
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/order"
	"github.com/safar/go-storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

type cartItemDTO struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// createOrderRequest is the checkout body. Cart items carry no prices.
type createOrderRequest struct {
	Items        []cartItemDTO    `json:"items"`
	OrderType    models.OrderType `json:"order_type"`
	Tip          *decimal.Decimal `json:"tip"`
	FirstName    string           `json:"first_name"`
	LastName     string           `json:"last_name"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone"`
	AddressLine1 string           `json:"address_line_1"`
	AddressLine2 string           `json:"address_line_2"`
	City         string           `json:"city"`
	State        string           `json:"state"`
	ZipCode      string           `json:"zip_code"`
	Schedule     string           `json:"schedule"`
}

func (req createOrderRequest) toCreateRequest(userID *int64) order.CreateRequest {
	lines := make([]pricing.Line, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, pricing.Line{ProductID: item.ID, Quantity: item.Quantity})
	}

	tip := decimal.Zero
	if req.Tip != nil {
		tip = *req.Tip
	}

	return order.CreateRequest{
		Items:     lines,
		OrderType: req.OrderType,
		Tip:       tip,
		Customer: order.Customer{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
		},
		Address: order.Address{
			Line1:   req.AddressLine1,
			Line2:   req.AddressLine2,
			City:    req.City,
			State:   req.State,
			ZipCode: req.ZipCode,
		},
		Schedule: req.Schedule,
		UserID:   userID,
	}
}

type cartLineDTO struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
	Synced   bool  `json:"synced"`
}

type syncCartRequest struct {
	Items []cartLineDTO `json:"items"`
}

// cartItemResponse is a cart line flattened with its product.
type cartItemResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Inventory int             `json:"inventory"`
	Size      string          `json:"size"`
	Category  string          `json:"category"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Synced    bool            `json:"synced"`
}

func newCartResponse(items []models.CartItem) []cartItemResponse {
	resp := make([]cartItemResponse, 0, len(items))
	for _, item := range items {
		line := cartItemResponse{ID: item.ProductID, Quantity: item.Quantity, Synced: item.Synced}
		if p := item.Product; p != nil {
			line.Name = p.Name
			line.Price = p.Price
			line.Inventory = p.Inventory
			line.Size = p.Size
			line.Category = p.Category
			line.Image = p.Image
		}
		resp = append(resp, line)
	}
	return resp
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type createProductRequest struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Inventory int             `json:"inventory"`
	Size      string          `json:"size"`
	Category  string          `json:"category"`
	Image     string          `json:"image"`
	Cost      decimal.Decimal `json:"cost"`
}

type messageResponse struct {
	Msg string `json:"msg"`
}
