package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/payment"
	"github.com/safar/go-storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

const maxTransitionAttempts = 3

const (
	msgOrderNotFound     = "order does not exist"
	msgSessionExpired    = "session expired or order does not exist"
	msgOrderInError      = "An unexpected error occurred."
	msgPermissionDenied  = "Permission denied."
	msgConcurrentChange  = "order was modified concurrently, please retry"
	msgAddressUnverified = "We could not verify the delivery address."
)

// Store persists orders. Status updates are conditional on the version the
// caller read and fail with database.ErrOptimisticLockFailed otherwise.
type Store interface {
	CreateOrder(ctx context.Context, o *models.Order, items []models.OrderItem) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id int64, version int, status models.OrderStatus, cancelReason string) error
	CompleteOrder(ctx context.Context, id int64, version int) error
	DeleteExpired(ctx context.Context, unpaidBefore, placedBefore time.Time) (int64, error)
}

type Pricer interface {
	Quote(ctx context.Context, lines []pricing.Line, orderType models.OrderType, tip decimal.Decimal) (pricing.Quote, error)
}

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error)
}

// RangeValidator reports whether a single-line address can be delivered to.
// A false result carries a message for the customer. An error means the
// lookup itself failed.
type RangeValidator interface {
	WithinRange(ctx context.Context, address string) (bool, string, error)
}

type Notifier interface {
	Notify(ctx context.Context, destination, message string) error
}

// Deps are the collaborators of a Manager. Now defaults to time.Now and
// Logger to slog.Default.
type Deps struct {
	Store    Store
	Pricer   Pricer
	Payments PaymentGateway
	Delivery RangeValidator
	Notifier Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Manager runs the order lifecycle: checkout, placement, confirmation,
// the admin transitions and reclamation of abandoned checkouts.
type Manager struct {
	store    Store
	pricer   Pricer
	payments PaymentGateway
	delivery RangeValidator
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	currency       string
	storeName      string
	clientHostname string
	confirmContact string
	unpaidTTL      time.Duration
	placedTTL      time.Duration
}

func NewManager(cfg *config.Config, deps Deps) *Manager {
	m := &Manager{
		store:          deps.Store,
		pricer:         deps.Pricer,
		payments:       deps.Payments,
		delivery:       deps.Delivery,
		notifier:       deps.Notifier,
		logger:         deps.Logger,
		now:            deps.Now,
		currency:       cfg.Payment.Currency,
		storeName:      cfg.Storefront.Name,
		clientHostname: cfg.Storefront.ClientHostname,
		confirmContact: cfg.Notify.OrderConfirmContact,
		unpaidTTL:      cfg.Expiry.UnpaidTTL,
		placedTTL:      cfg.Expiry.PlacedTTL,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type Address struct {
	Line1   string
	Line2   string
	City    string
	State   string
	ZipCode string
}

// CreateRequest is a checkout. Items carry product ids and quantities only;
// prices always come from the store.
type CreateRequest struct {
	Items     []pricing.Line
	OrderType models.OrderType
	Tip       decimal.Decimal
	Customer  Customer
	Address   Address
	Schedule  string
	UserID    *int64
}

func (r *CreateRequest) validate() error {
	if len(r.Items) == 0 {
		return newError(KindInvalid, "cart is empty")
	}
	for _, item := range r.Items {
		if item.Quantity <= 0 {
			return newError(KindInvalid, fmt.Sprintf("quantity for product %d must be positive", item.ProductID))
		}
	}
	if !r.OrderType.Valid() {
		return newError(KindInvalid, fmt.Sprintf("unknown order type %q", r.OrderType))
	}
	if r.Tip.IsNegative() {
		return newError(KindInvalid, "tip cannot be negative")
	}

	c := r.Customer
	if c.FirstName == "" || c.LastName == "" || c.Email == "" || c.Phone == "" {
		return newError(KindInvalid, "first name, last name, email and phone are required")
	}

	if r.OrderType == models.OrderTypeDelivery {
		a := r.Address
		if a.Line1 == "" || a.City == "" || a.State == "" || a.ZipCode == "" {
			return newError(KindInvalid, "delivery orders require address line 1, city, state and zip code")
		}
	}
	return nil
}

// Checkout is what the client needs to collect payment for a new order.
type Checkout struct {
	ClientSecret string          `json:"clientSecret"`
	OrderID      int64           `json:"orderId"`
	Total        decimal.Decimal `json:"total"`
}

// CreateOrder reclaims expired checkouts, prices the cart, stores a new order
// in status created and requests a payment intent for its total. When the
// gateway fails the order is left in created for the sweep to reclaim.
func (m *Manager) CreateOrder(ctx context.Context, req CreateRequest) (*Checkout, error) {
	if _, err := m.SweepExpired(ctx); err != nil {
		m.logger.WarnContext(ctx, "expiry sweep failed", "error", err)
	}

	if err := req.validate(); err != nil {
		return nil, err
	}

	tip := req.Tip.Round(2)
	quote, err := m.pricer.Quote(ctx, req.Items, req.OrderType, tip)
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownProduct) {
			return nil, &Error{Kind: KindInvalid, Detail: "cart contains an unknown product", Err: err}
		}
		return nil, internalError("price cart", err)
	}

	o := &models.Order{
		UserID:       req.UserID,
		Subtotal:     quote.Subtotal,
		Tip:          tip,
		Total:        quote.Total,
		OrderType:    req.OrderType,
		FirstName:    req.Customer.FirstName,
		LastName:     req.Customer.LastName,
		Email:        req.Customer.Email,
		Phone:        req.Customer.Phone,
		AddressLine1: req.Address.Line1,
		AddressLine2: req.Address.Line2,
		City:         req.Address.City,
		State:        req.Address.State,
		ZipCode:      req.Address.ZipCode,
		Schedule:     req.Schedule,
		Status:       models.OrderStatusCreated,
		CreatedAt:    m.now(),
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, models.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	if err := m.store.CreateOrder(ctx, o, items); err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			return nil, &Error{Kind: KindInvalid, Detail: "cart contains an unknown product", Err: err}
		}
		return nil, internalError("create order", err)
	}

	intent, err := m.payments.CreatePaymentIntent(ctx, payment.IntentRequest{
		AmountMinor:  pricing.MinorUnits(o.Total),
		Currency:     m.currency,
		ReceiptEmail: o.Email,
		Description:  fmt.Sprintf("Thank you for your order at %s. Your order reference is #%s", m.storeName, o.ReferenceID),
	})
	if err != nil {
		m.logger.WarnContext(ctx, "payment intent failed", "order_id", o.ID, "error", err)
		return nil, &Error{Kind: KindGateway, Detail: err.Error(), Err: err}
	}

	m.logger.InfoContext(ctx, "order created",
		"order_id", o.ID,
		"reference_id", o.ReferenceID,
		"order_type", o.OrderType,
		"total", o.Total.StringFixed(2),
	)

	return &Checkout{
		ClientSecret: intent.ClientSecret,
		OrderID:      o.ID,
		Total:        o.Total,
	}, nil
}

// PlaceOrder validates a paid-for checkout and moves it to placed. Calling it
// again on a placed order succeeds without doing anything. Delivery orders
// outside the delivery range are moved to error before the failure is
// returned, so a retry is rejected with KindOrderInError.
func (m *Manager) PlaceOrder(ctx context.Context, id int64) error {
	for attempt := 1; ; attempt++ {
		o, err := m.load(ctx, id, msgSessionExpired)
		if err != nil {
			return err
		}

		switch o.Status {
		case models.OrderStatusPlaced:
			return nil
		case models.OrderStatusError:
			return newError(KindOrderInError, msgOrderInError)
		case models.OrderStatusCreated:
		default:
			return invalidTransition(o.Status, models.OrderStatusPlaced)
		}

		to := models.OrderStatusPlaced
		var rejection string
		if o.OrderType == models.OrderTypeDelivery {
			if ok, msg := m.checkRange(ctx, o); !ok {
				to = models.OrderStatusError
				rejection = msg
			}
		}

		err = m.store.UpdateStatus(ctx, o.ID, o.Version, to, "")
		if errors.Is(err, database.ErrOptimisticLockFailed) && attempt < maxTransitionAttempts {
			continue
		}
		if err != nil {
			return m.storeError(err, msgSessionExpired)
		}

		if rejection != "" {
			m.logger.InfoContext(ctx, "delivery address rejected", "order_id", o.ID, "reason", rejection)
			return newError(KindOutOfRange, rejection)
		}

		m.logger.InfoContext(ctx, "order placed", "order_id", o.ID)
		return nil
	}
}

// checkRange treats a failed lookup like an undeliverable address.
func (m *Manager) checkRange(ctx context.Context, o *models.Order) (bool, string) {
	ok, msg, err := m.delivery.WithinRange(ctx, o.Address())
	if err != nil {
		m.logger.WarnContext(ctx, "delivery range lookup failed", "order_id", o.ID, "error", err)
		return false, msgAddressUnverified
	}
	if !ok && msg == "" {
		msg = "The delivery address is out of range."
	}
	return ok, msg
}

// ConfirmOrder records that payment went through and notifies the store
// operator. A failed notification is logged and does not undo the
// confirmation. Confirming an already confirmed order does nothing.
func (m *Manager) ConfirmOrder(ctx context.Context, id int64) error {
	o, changed, err := m.transition(ctx, id, models.OrderStatusConfirmed, "")
	if err != nil || !changed {
		return err
	}

	m.logger.InfoContext(ctx, "order confirmed", "order_id", o.ID)

	if err := m.notifier.Notify(ctx, m.confirmContact, ConfirmationMessage(o, m.clientHostname)); err != nil {
		m.logger.WarnContext(ctx, "order confirmation notification failed", "order_id", o.ID, "error", err)
	}
	return nil
}

// MarkError moves a created or placed order to error, for example after the
// client saw the payment fail.
func (m *Manager) MarkError(ctx context.Context, id int64) error {
	o, changed, err := m.transition(ctx, id, models.OrderStatusError, "")
	if err != nil {
		return err
	}
	if changed {
		m.logger.InfoContext(ctx, "order marked as error", "order_id", o.ID)
	}
	return nil
}

// AcceptOrder is the operator taking a confirmed order.
func (m *Manager) AcceptOrder(ctx context.Context, id int64, actor *models.User) (*models.Order, error) {
	return m.adminTransition(ctx, id, actor, models.OrderStatusAccepted, "")
}

// CompleteOrder finishes an accepted order and takes its items out of
// inventory. The decrement happens once, together with the status change.
func (m *Manager) CompleteOrder(ctx context.Context, id int64, actor *models.User) (*models.Order, error) {
	return m.adminTransition(ctx, id, actor, models.OrderStatusCompleted, "")
}

// CancelOrder cancels any order that is not completed. Canceling a canceled
// order replaces its reason.
func (m *Manager) CancelOrder(ctx context.Context, id int64, actor *models.User, reason string) (*models.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newError(KindInvalid, "a cancel reason is required")
	}
	return m.adminTransition(ctx, id, actor, models.OrderStatusCanceled, reason)
}

func (m *Manager) adminTransition(ctx context.Context, id int64, actor *models.User, to models.OrderStatus, reason string) (*models.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	o, changed, err := m.transition(ctx, id, to, reason)
	if err != nil {
		return nil, err
	}
	if changed {
		m.logger.InfoContext(ctx, "order status changed",
			"order_id", o.ID,
			"status", to,
			"actor_id", actor.ID,
		)
	}

	return m.GetOrderDetail(ctx, id)
}

// GetOrderDetail returns the order with its items and their products. It is
// not restricted to admins.
func (m *Manager) GetOrderDetail(ctx context.Context, id int64) (*models.Order, error) {
	return m.load(ctx, id, msgOrderNotFound)
}

// ListAllOrders returns every order, newest first.
func (m *Manager) ListAllOrders(ctx context.Context, actor *models.User) ([]models.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	orders, err := m.store.ListOrders(ctx)
	if err != nil {
		return nil, internalError("list orders", err)
	}
	return orders, nil
}

// transition moves order id to status to, re-reading the order when another
// writer got there first. Moving an order to the status it already has is a
// no-op, except for cancel which rewrites the reason. The returned bool
// reports whether the stored status changed.
func (m *Manager) transition(ctx context.Context, id int64, to models.OrderStatus, reason string) (*models.Order, bool, error) {
	for attempt := 1; ; attempt++ {
		o, err := m.load(ctx, id, msgOrderNotFound)
		if err != nil {
			return nil, false, err
		}

		if o.Status == to && to != models.OrderStatusCanceled {
			return o, false, nil
		}
		if !CanTransition(o.Status, to) {
			return nil, false, invalidTransition(o.Status, to)
		}

		if to == models.OrderStatusCompleted {
			err = m.store.CompleteOrder(ctx, o.ID, o.Version)
		} else {
			err = m.store.UpdateStatus(ctx, o.ID, o.Version, to, reason)
		}

		if errors.Is(err, database.ErrOptimisticLockFailed) && attempt < maxTransitionAttempts {
			m.logger.DebugContext(ctx, "order changed during transition, retrying",
				"order_id", o.ID,
				"status", to,
				"attempt", attempt,
			)
			continue
		}
		if err != nil {
			return nil, false, m.storeError(err, msgOrderNotFound)
		}

		o.Status = to
		o.Version++
		if to == models.OrderStatusCanceled {
			o.CancelReason = reason
		}
		return o, true, nil
	}
}

func (m *Manager) load(ctx context.Context, id int64, notFound string) (*models.Order, error) {
	o, err := m.store.GetOrder(ctx, id)
	if err != nil {
		return nil, m.storeError(err, notFound)
	}
	return o, nil
}

func (m *Manager) storeError(err error, notFound string) error {
	switch {
	case errors.Is(err, database.ErrOrderNotFound):
		return &Error{Kind: KindNotFound, Detail: notFound, Err: err}
	case errors.Is(err, database.ErrOptimisticLockFailed):
		return &Error{Kind: KindConflict, Detail: msgConcurrentChange, Err: err}
	default:
		return internalError("order store", err)
	}
}

func requireAdmin(actor *models.User) error {
	if actor == nil || !actor.IsAdmin {
		return newError(KindPermissionDenied, msgPermissionDenied)
	}
	return nil
}
