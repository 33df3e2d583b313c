package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
)

// GetCart returns the user's saved cart in the order lines were first added,
// each line carrying a snapshot of its product.
func (s *Store) GetCart(ctx context.Context, userID int64) ([]models.CartItem, error) {
	query := `
		SELECT ci.user_id, ci.product_id, ci.quantity,
		       p.id, p.name, p.price, p.inventory, p.size, p.category, p.image, p.cost, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		item := models.CartItem{Synced: true}
		product := &models.Product{}
		err := rows.Scan(
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&product.ID,
			&product.Name,
			&product.Price,
			&product.Inventory,
			&product.Size,
			&product.Category,
			&product.Image,
			&product.Cost,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		item.Product = product
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// SyncCart applies the client's view of the cart in one transaction. An
// empty items clears the cart. Synced lines are left as stored; changed
// lines with quantity 0 are removed and the others are written as given.
// A line for a missing product fails the whole sync with
// database.ErrProductNotFound.
func (s *Store) SyncCart(ctx context.Context, userID int64, items []models.CartItem) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if len(items) == 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
				return fmt.Errorf("clear cart: %w", err)
			}
			return nil
		}

		for _, item := range items {
			if item.Synced {
				continue
			}

			if item.Quantity == 0 {
				_, err := tx.ExecContext(ctx,
					`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
					userID, item.ProductID)
				if err != nil {
					return fmt.Errorf("remove cart item: %w", err)
				}
				continue
			}

			_, err := tx.ExecContext(ctx,
				`INSERT INTO cart_items (user_id, product_id, quantity)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (user_id, product_id)
				 DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()`,
				userID, item.ProductID, item.Quantity)
			if err != nil {
				if database.IsForeignKeyViolation(err) {
					return database.ErrProductNotFound
				}
				return fmt.Errorf("save cart item: %w", err)
			}
		}

		return nil
	})
}
