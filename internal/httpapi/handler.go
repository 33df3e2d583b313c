package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safar/go-storefront/internal/auth"
	"github.com/safar/go-storefront/internal/cache"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/order"
	"github.com/safar/go-storefront/internal/store"
)

// Orders is the order lifecycle as seen by the HTTP layer.
type Orders interface {
	CreateOrder(ctx context.Context, req order.CreateRequest) (*order.Checkout, error)
	PlaceOrder(ctx context.Context, id int64) error
	ConfirmOrder(ctx context.Context, id int64) error
	MarkError(ctx context.Context, id int64) error
	AcceptOrder(ctx context.Context, id int64, actor *models.User) (*models.Order, error)
	CompleteOrder(ctx context.Context, id int64, actor *models.User) (*models.Order, error)
	CancelOrder(ctx context.Context, id int64, actor *models.User, reason string) (*models.Order, error)
	GetOrderDetail(ctx context.Context, id int64) (*models.Order, error)
	ListAllOrders(ctx context.Context, actor *models.User) ([]models.Order, error)
}

type Catalog interface {
	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, page, pageSize int) (*store.OffsetPage, error)
}

// Carts keeps the saved carts of signed-in users.
type Carts interface {
	GetCart(ctx context.Context, userID int64) ([]models.CartItem, error)
	SyncCart(ctx context.Context, userID int64, items []models.CartItem) error
}

type Users interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Handler serves the storefront API.
type Handler struct {
	orders         Orders
	catalog        Catalog
	carts          Carts
	users          Users
	idempotency    cache.Cache // nil disables Idempotency-Key handling
	idempotencyTTL time.Duration
	logger         *slog.Logger
}

// NewHandler wires the handler to its services. idem may be nil.
func NewHandler(orders Orders, catalog Catalog, carts Carts, users Users, idem cache.Cache, idemTTL time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		orders:         orders,
		catalog:        catalog,
		carts:          carts,
		users:          users,
		idempotency:    idem,
		idempotencyTTL: idemTTL,
		logger:         logger,
	}
}

// actor loads the user behind the request's token. Guests and tokens for
// users that no longer exist get a nil user.
func (h *Handler) actor(r *http.Request) (*models.User, error) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return nil, nil
	}

	user, err := h.users.GetUser(r.Context(), p.UserID)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
