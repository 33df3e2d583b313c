//go:build integration

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
)

func TestProductPrices(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	s := New(db)

	lager := createProduct(t, s, "Lager", 10, 50)
	stout, err := s.CreateProduct(ctx, models.Product{Name: "Stout", Price: decimal.RequireFromString("12.99"), Inventory: 5})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	prices, err := s.ProductPrices(ctx, []int64{lager.ID, stout.ID, 999})
	if err != nil {
		t.Fatalf("Product prices: %v", err)
	}
	if len(prices) != 2 {
		t.Errorf("Expected 2 prices, got %d", len(prices))
	}
	if !prices[stout.ID].Equal(decimal.RequireFromString("12.99")) {
		t.Errorf("Expected 12.99, got %s", prices[stout.ID])
	}
	if _, ok := prices[999]; ok {
		t.Error("unknown product must be absent")
	}
	if stout.Category != "other" {
		t.Errorf("Expected default category, got %q", stout.Category)
	}
}

func TestCreateProductDuplicateName(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := New(db)
	createProduct(t, s, "Lager", 10, 5)

	_, err := s.CreateProduct(context.Background(), models.Product{Name: "Lager", Price: decimal.NewFromInt(11)})
	if !errors.Is(err, database.ErrProductExists) {
		t.Errorf("Expected ErrProductExists, got %v", err)
	}
}

func TestGetProductNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := New(db).GetProduct(context.Background(), 999)
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestListProducts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	s := New(db)
	for _, name := range []string{"Ale", "Bock", "Cider"} {
		createProduct(t, s, name, 10, 5)
	}

	page, err := s.ListProducts(ctx, 1, 2)
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 {
		t.Errorf("Expected 3 products over 2 pages, got %d over %d", page.Total, page.TotalPages)
	}
	if items := page.Items.([]models.Product); len(items) != 2 || items[0].Name != "Ale" {
		t.Errorf("Unexpected first page %+v", items)
	}
}

func TestUsers(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	s := New(db)

	admin, err := s.CreateUser(ctx, "admin@example.com", "Admin", "555-0199", true)
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}

	got, err := s.GetUser(ctx, admin.ID)
	if err != nil {
		t.Fatalf("Get user: %v", err)
	}
	if !got.IsAdmin || got.Email != "admin@example.com" {
		t.Errorf("Unexpected user %+v", got)
	}

	if _, err := s.GetUser(ctx, 999); !errors.Is(err, database.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}
