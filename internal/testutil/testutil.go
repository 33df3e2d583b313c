// Package testutil holds in-memory stand-ins for the order service's
// collaborators and helpers for minting test tokens.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/payment"
	"github.com/safar/go-storefront/internal/store"
	"github.com/shopspring/decimal"
)

// GenerateJWTHS256 returns a signed token whose subject is userID.
func GenerateJWTHS256(t *testing.T, secret string, userID int64) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// FakeStore is an in-memory order, product and user store with the same
// version semantics as the Postgres store.
type FakeStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*models.User
	products map[int64]*models.Product
	orders   map[int64]*models.Order
	carts    map[int64][]models.CartItem

	// Conflicts makes the next n versioned updates fail with
	// ErrOptimisticLockFailed, as if another writer got there first.
	Conflicts int
	// Err, when set, is returned by every call.
	Err error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		users:    make(map[int64]*models.User),
		products: make(map[int64]*models.Product),
		orders:   make(map[int64]*models.Order),
		carts:    make(map[int64][]models.CartItem),
	}
}

func (s *FakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *FakeStore) AddUser(name string, isAdmin bool) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: s.id(), Name: name, Email: name + "@example.com", IsAdmin: isAdmin}
	s.users[u.ID] = u
	cp := *u
	return &cp
}

func (s *FakeStore) AddProduct(name string, price string, inventory int) *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.Product{
		ID:        s.id(),
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Inventory: inventory,
		Category:  "other",
	}
	s.products[p.ID] = p
	cp := *p
	return &cp
}

// AddOrder stores o as is, assigning an id when it has none.
func (s *FakeStore) AddOrder(o models.Order) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		o.ID = s.id()
	}
	if o.Version == 0 {
		o.Version = 1
	}
	if o.ReferenceID == "" {
		o.ReferenceID = models.ReferenceID(o.CreatedAt, o.ID)
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		if o.Items[i].ID == 0 {
			o.Items[i].ID = s.id()
		}
	}
	s.orders[o.ID] = &o
	cp := o
	return &cp
}

func (s *FakeStore) Product(id int64) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.products[id]
}

// Order returns the stored order, or nil if there is none.
func (s *FakeStore) Order(id int64) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil
	}
	cp := *o
	return &cp
}

func (s *FakeStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *FakeStore) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, existing := range s.products {
		if existing.Name == p.Name {
			return nil, database.ErrProductExists
		}
	}
	p.ID = s.id()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = &p
	cp := p
	return &cp, nil
}

func (s *FakeStore) GetCart(ctx context.Context, userID int64) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	items := []models.CartItem{}
	for _, item := range s.carts[userID] {
		product := *s.products[item.ProductID]
		item.Synced = true
		item.Product = &product
		items = append(items, item)
	}
	return items, nil
}

func (s *FakeStore) SyncCart(ctx context.Context, userID int64, items []models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if len(items) == 0 {
		delete(s.carts, userID)
		return nil
	}

	for _, item := range items {
		if _, ok := s.products[item.ProductID]; !ok && !item.Synced && item.Quantity > 0 {
			return database.ErrProductNotFound
		}
	}

	cart := append([]models.CartItem(nil), s.carts[userID]...)
	for _, item := range items {
		if item.Synced {
			continue
		}
		idx := -1
		for i := range cart {
			if cart[i].ProductID == item.ProductID {
				idx = i
				break
			}
		}
		switch {
		case item.Quantity == 0 && idx >= 0:
			cart = append(cart[:idx], cart[idx+1:]...)
		case item.Quantity == 0:
		case idx >= 0:
			cart[idx].Quantity = item.Quantity
		default:
			cart = append(cart, models.CartItem{UserID: userID, ProductID: item.ProductID, Quantity: item.Quantity})
		}
	}
	s.carts[userID] = cart
	return nil
}

func (s *FakeStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, database.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *FakeStore) ListProducts(ctx context.Context, page, pageSize int) (*store.OffsetPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	all := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return &store.OffsetPage{
		Items:      all[start:end],
		Page:       page,
		PageSize:   pageSize,
		Total:      int64(len(all)),
		TotalPages: (len(all) + pageSize - 1) / pageSize,
	}, nil
}

func (s *FakeStore) ProductPrices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	prices := make(map[int64]decimal.Decimal, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			prices[id] = p.Price
		}
	}
	return prices, nil
}

func (s *FakeStore) CreateOrder(ctx context.Context, o *models.Order, items []models.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, item := range items {
		if _, ok := s.products[item.ProductID]; !ok {
			return database.ErrProductNotFound
		}
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	o.ID = s.id()
	o.Version = 1
	o.ReferenceID = models.ReferenceID(o.CreatedAt, o.ID)
	o.UpdatedAt = o.CreatedAt
	o.Items = make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		item.ID = s.id()
		item.OrderID = o.ID
		o.Items = append(o.Items, item)
	}

	stored := *o
	stored.Items = append([]models.OrderItem(nil), o.Items...)
	s.orders[o.ID] = &stored
	return nil
}

func (s *FakeStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, database.ErrOrderNotFound
	}
	cp := *o
	cp.Items = make([]models.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if p, ok := s.products[item.ProductID]; ok {
			snapshot := *p
			item.Product = &snapshot
		}
		cp.Items = append(cp.Items, item)
	}
	return &cp, nil
}

func (s *FakeStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	orders := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		cp := *o
		cp.Items = nil
		orders = append(orders, cp)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *FakeStore) UpdateStatus(ctx context.Context, id int64, version int, status models.OrderStatus, cancelReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.versioned(id, version)
	if err != nil {
		return err
	}
	o.Status = status
	if status == models.OrderStatusCanceled {
		o.CancelReason = cancelReason
	}
	o.Version++
	o.UpdatedAt = time.Now()
	return nil
}

func (s *FakeStore) CompleteOrder(ctx context.Context, id int64, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.versioned(id, version)
	if err != nil {
		return err
	}
	if o.Status == models.OrderStatusCompleted {
		return database.ErrOptimisticLockFailed
	}
	o.Status = models.OrderStatusCompleted
	o.Version++
	o.UpdatedAt = time.Now()
	for _, item := range o.Items {
		if p, ok := s.products[item.ProductID]; ok {
			p.Inventory -= item.Quantity
		}
	}
	return nil
}

func (s *FakeStore) versioned(id int64, version int) (*models.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, database.ErrOrderNotFound
	}
	if s.Conflicts > 0 {
		s.Conflicts--
		return nil, database.ErrOptimisticLockFailed
	}
	if o.Version != version {
		return nil, database.ErrOptimisticLockFailed
	}
	return o, nil
}

func (s *FakeStore) DeleteExpired(ctx context.Context, unpaidBefore, placedBefore time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var deleted int64
	for id, o := range s.orders {
		unpaid := o.Status == models.OrderStatusCreated || o.Status == models.OrderStatusError
		if (unpaid && o.CreatedAt.Before(unpaidBefore)) ||
			(o.Status == models.OrderStatusPlaced && o.CreatedAt.Before(placedBefore)) {
			delete(s.orders, id)
			deleted++
		}
	}
	return deleted, nil
}

// FakeGateway records payment intent requests.
type FakeGateway struct {
	mu       sync.Mutex
	Requests []payment.IntentRequest
	Err      error
}

func (g *FakeGateway) CreatePaymentIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Requests = append(g.Requests, req)
	if g.Err != nil {
		return nil, g.Err
	}
	n := len(g.Requests)
	return &payment.Intent{
		ID:           "pi_" + strconv.Itoa(n),
		ClientSecret: "pi_" + strconv.Itoa(n) + "_secret",
	}, nil
}

// FakeRangeValidator answers every lookup with InRange, Message and Err.
type FakeRangeValidator struct {
	mu        sync.Mutex
	InRange   bool
	Message   string
	Err       error
	Addresses []string
}

func (v *FakeRangeValidator) WithinRange(ctx context.Context, address string) (bool, string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Addresses = append(v.Addresses, address)
	if v.Err != nil {
		return false, "", v.Err
	}
	return v.InRange, v.Message, nil
}

func (v *FakeRangeValidator) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.Addresses)
}

type Notification struct {
	Destination string
	Message     string
}

// FakeNotifier records notifications. It records them even when Err is set.
type FakeNotifier struct {
	mu   sync.Mutex
	Sent []Notification
	Err  error
}

func (n *FakeNotifier) Notify(ctx context.Context, destination, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{Destination: destination, Message: message})
	return n.Err
}

func (n *FakeNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Sent)
}

// MemoryCache is an in-process cache.Cache without expiry.
type MemoryCache struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string]string)}
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case string:
		c.values[key] = v
	case []byte:
		c.values[key] = string(v)
	default:
		return fmt.Errorf("unsupported cache value %T", value)
	}
	return nil
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key], nil
}

func (c *MemoryCache) GenerateKey(operation, key string) string {
	return "test:" + operation + ":" + key
}

func (c *MemoryCache) Close() error {
	return nil
}
