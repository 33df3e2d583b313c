//go:build integration

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
)

func TestSyncCart(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	s := New(db)

	user, err := s.CreateUser(ctx, "cart@example.com", "Cart User", "", false)
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	lager := createProduct(t, s, "Lager", 10, 50)
	stout := createProduct(t, s, "Stout", 12, 30)

	err = s.SyncCart(ctx, user.ID, []models.CartItem{
		{ProductID: lager.ID, Quantity: 2},
		{ProductID: stout.ID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("Sync cart: %v", err)
	}

	err = s.SyncCart(ctx, user.ID, []models.CartItem{
		{ProductID: lager.ID, Quantity: 9, Synced: true},
		{ProductID: stout.ID, Quantity: 0},
	})
	if err != nil {
		t.Fatalf("Sync cart: %v", err)
	}

	cart, err := s.GetCart(ctx, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if len(cart) != 1 {
		t.Fatalf("Expected 1 cart line, got %d", len(cart))
	}
	if cart[0].ProductID != lager.ID || cart[0].Quantity != 2 || !cart[0].Synced {
		t.Errorf("Synced line must be left as stored, got %+v", cart[0])
	}
	if cart[0].Product == nil || cart[0].Product.Name != "Lager" {
		t.Errorf("Expected product snapshot, got %+v", cart[0].Product)
	}

	err = s.SyncCart(ctx, user.ID, []models.CartItem{{ProductID: 999, Quantity: 1}})
	if !errors.Is(err, database.ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}

	if err := s.SyncCart(ctx, user.ID, nil); err != nil {
		t.Fatalf("Clear cart: %v", err)
	}
	cart, err = s.GetCart(ctx, user.ID)
	if err != nil {
		t.Fatalf("Get cart: %v", err)
	}
	if len(cart) != 0 {
		t.Errorf("Expected empty cart, got %+v", cart)
	}
}
