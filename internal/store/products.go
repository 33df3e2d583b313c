package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
)

const productColumns = `id, name, price, inventory, size, category, image, cost, created_at, updated_at`

func scanProduct(row scanner, p *models.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Inventory,
		&p.Size,
		&p.Category,
		&p.Image,
		&p.Cost,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (s *Store) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	if p.Category == "" {
		p.Category = "other"
	}

	product := &models.Product{}
	query := `
		INSERT INTO products (name, price, inventory, size, category, image, cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + productColumns

	row := s.db.QueryRowContext(ctx, query, p.Name, p.Price, p.Inventory, p.Size, p.Category, p.Image, p.Cost)
	if err := scanProduct(row, product); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrProductExists
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{}

	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err := scanProduct(row, product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// ProductPrices returns the current price of every product in ids. Ids that
// do not exist are absent from the map.
func (s *Store) ProductPrices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, price FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get product prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[int64]decimal.Decimal, len(ids))
	for rows.Next() {
		var id int64
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("scan product price: %w", err)
		}
		prices[id] = price
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return prices, nil
}

func (s *Store) ListProducts(ctx context.Context, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY category, name
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(products, total, page, pageSize), nil
}
