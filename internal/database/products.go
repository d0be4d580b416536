package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"terroir/internal/models"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	ProducerID int64
	CategoryID int64
	// Month, when 1-12, keeps only products available that month.
	Month int
}

// CreateProduct inserts a product.
func (db *DB) CreateProduct(ctx context.Context, p *models.Product) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO products (producer_id, category_id, name, description,
			availability_type, availability_start_month, availability_end_month, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProducerID, p.CategoryID, p.Name, p.Description,
		p.AvailabilityType, p.StartMonth, p.EndMonth, now, now,
	)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	p.ID, _ = res.LastInsertId()
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// UpdateProduct rewrites a product's mutable fields.
func (db *DB) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := db.ExecContext(ctx, `
		UPDATE products SET category_id = ?, name = ?, description = ?,
			availability_type = ?, availability_start_month = ?, availability_end_month = ?, updated_at = ?
		WHERE id = ?`,
		p.CategoryID, p.Name, p.Description,
		p.AvailabilityType, p.StartMonth, p.EndMonth, time.Now(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProduct returns one product with its photos.
func (db *DB) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	row := db.QueryRowContext(ctx, productSelect+` WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	photos, err := db.ListProductPhotos(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Photos = photos
	return p, nil
}

const productSelect = `
	SELECT id, producer_id, category_id, name, description,
	       availability_type, availability_start_month, availability_end_month,
	       created_at, updated_at
	FROM products`

// ListProducts returns products matching the filter, newest first, with
// photos attached. Month filtering runs in Go since wrap-around ranges do
// not map to a simple SQL predicate.
func (db *DB) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := productSelect + ` WHERE 1=1`
	var args []any
	if filter.ProducerID > 0 {
		query += ` AND producer_id = ?`
		args = append(args, filter.ProducerID)
	}
	if filter.CategoryID > 0 {
		query += ` AND category_id = ?`
		args = append(args, filter.CategoryID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		if filter.Month >= 1 && filter.Month <= 12 && !p.AvailableIn(filter.Month) {
			continue
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range products {
		photos, err := db.ListProductPhotos(ctx, products[i].ID)
		if err != nil {
			return nil, err
		}
		products[i].Photos = photos
	}
	return products, nil
}

// DeleteProduct removes a product; photos cascade.
func (db *DB) DeleteProduct(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(s saleModeScanner) (*models.Product, error) {
	var p models.Product
	var categoryID sql.NullInt64
	var startMonth, endMonth sql.NullInt64
	err := s.Scan(
		&p.ID, &p.ProducerID, &categoryID, &p.Name, &p.Description,
		&p.AvailabilityType, &startMonth, &endMonth, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}
	if startMonth.Valid {
		v := int(startMonth.Int64)
		p.StartMonth = &v
	}
	if endMonth.Valid {
		v := int(endMonth.Int64)
		p.EndMonth = &v
	}
	return &p, nil
}

// ListProductCategories returns the configured product groupings in
// display order.
func (db *DB) ListProductCategories(ctx context.Context) ([]models.ProductCategory, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, icon, display_name, sort_order
		FROM product_categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list product categories: %w", err)
	}
	defer rows.Close()

	var categories []models.ProductCategory
	for rows.Next() {
		var c models.ProductCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.DisplayName, &c.Order); err != nil {
			return nil, fmt.Errorf("scan product category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
