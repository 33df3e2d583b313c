package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
)

const orderColumns = `id, user_id, subtotal, tip, total, order_type, first_name, last_name, email, phone,
	address_line_1, address_line_2, city, state, zip_code, schedule, status, reference_id,
	cancel_reason, created_at, updated_at, version`

func scanOrder(row scanner, o *models.Order) error {
	var userID sql.NullInt64
	err := row.Scan(
		&o.ID,
		&userID,
		&o.Subtotal,
		&o.Tip,
		&o.Total,
		&o.OrderType,
		&o.FirstName,
		&o.LastName,
		&o.Email,
		&o.Phone,
		&o.AddressLine1,
		&o.AddressLine2,
		&o.City,
		&o.State,
		&o.ZipCode,
		&o.Schedule,
		&o.Status,
		&o.ReferenceID,
		&o.CancelReason,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.Version,
	)
	if err != nil {
		return err
	}
	if userID.Valid {
		id := userID.Int64
		o.UserID = &id
	}
	return nil
}

// CreateOrder inserts o and its items in one transaction. The reference id
// is derived from the generated id and written by a second update. On
// success o carries its id, reference id and version.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order, items []models.OrderItem) error {
	var userID sql.NullInt64
	if o.UserID != nil {
		userID = sql.NullInt64{Int64: *o.UserID, Valid: true}
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	return database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var orderID int64
		var version int
		err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, subtotal, tip, total, order_type, first_name, last_name, email, phone,
			                     address_line_1, address_line_2, city, state, zip_code, schedule, status,
			                     created_at, updated_at, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17, 1)
			 RETURNING id, version`,
			userID, o.Subtotal, o.Tip, o.Total, o.OrderType, o.FirstName, o.LastName, o.Email, o.Phone,
			o.AddressLine1, o.AddressLine2, o.City, o.State, o.ZipCode, o.Schedule, o.Status,
			o.CreatedAt).Scan(&orderID, &version)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		reference := models.ReferenceID(o.CreatedAt, orderID)
		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET reference_id = $1 WHERE id = $2`,
			reference, orderID)
		if err != nil {
			return fmt.Errorf("set reference id: %w", err)
		}

		created := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			item.OrderID = orderID
			err := tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity)
				 VALUES ($1, $2, $3)
				 RETURNING id`,
				orderID, item.ProductID, item.Quantity).Scan(&item.ID)
			if err != nil {
				if database.IsForeignKeyViolation(err) {
					return database.ErrProductNotFound
				}
				return fmt.Errorf("create order item: %w", err)
			}
			created = append(created, item)
		}

		o.ID = orderID
		o.Version = version
		o.ReferenceID = reference
		o.UpdatedAt = o.CreatedAt
		o.Items = created
		return nil
	})
}

// GetOrder returns the order with its items, each carrying a snapshot of
// the referenced product.
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}

	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err := scanOrder(row, order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	itemsQuery := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity,
		       p.id, p.name, p.price, p.inventory, p.size, p.category, p.image, p.cost, p.created_at, p.updated_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	rows, err := s.db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		product := &models.Product{}
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
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
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.Product = product
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	order.Items = items

	return order, nil
}

// ListOrders returns every order, newest first, without items.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// UpdateStatus moves the order to status if it is still at version. The
// cancel reason is only written when status is canceled.
func (s *Store) UpdateStatus(ctx context.Context, id int64, version int, status models.OrderStatus, cancelReason string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1,
		     cancel_reason = CASE WHEN $1 = 'canceled' THEN $2 ELSE cancel_reason END,
		     version = version + 1,
		     updated_at = NOW()
		 WHERE id = $3 AND version = $4`,
		string(status), cancelReason, id, version)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	return s.checkVersionedUpdate(ctx, s.db, result, id)
}

// CompleteOrder marks the order completed and decrements the inventory of
// every product it references by the ordered quantity. Both happen in one
// transaction guarded by the version check, so the decrement runs exactly
// once per order. Inventory has no floor and may go negative.
func (s *Store) CompleteOrder(ctx context.Context, id int64, version int) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE orders
			 SET status = $1, version = version + 1, updated_at = NOW()
			 WHERE id = $2 AND version = $3 AND status <> $1`,
			string(models.OrderStatusCompleted), id, version)
		if err != nil {
			return fmt.Errorf("complete order: %w", err)
		}
		if err := s.checkVersionedUpdate(ctx, tx, result, id); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE products p
			 SET inventory = p.inventory - oi.quantity,
			     updated_at = NOW()
			 FROM (
			     SELECT product_id, SUM(quantity) AS quantity
			     FROM order_items
			     WHERE order_id = $1
			     GROUP BY product_id
			 ) oi
			 WHERE p.id = oi.product_id`,
			id)
		if err != nil {
			return fmt.Errorf("decrement inventory: %w", err)
		}

		return nil
	})
}

// DeleteExpired hard-deletes abandoned checkouts: created or error orders
// created before unpaidBefore, and placed orders created before
// placedBefore. Items are removed by the cascading foreign key.
func (s *Store) DeleteExpired(ctx context.Context, unpaidBefore, placedBefore time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM orders
		 WHERE (status IN ('created', 'error') AND created_at < $1)
		    OR (status = 'placed' AND created_at < $2)`,
		unpaidBefore, placedBefore)
	if err != nil {
		return 0, fmt.Errorf("delete expired orders: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return deleted, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// checkVersionedUpdate turns a zero-row versioned update into either
// ErrOrderNotFound or ErrOptimisticLockFailed.
func (s *Store) checkVersionedUpdate(ctx context.Context, q queryer, result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	err = q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return database.ErrOrderNotFound
	}

	return database.ErrOptimisticLockFailed
}
