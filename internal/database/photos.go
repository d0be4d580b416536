package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"terroir/internal/models"
)

// CreateProducerPhoto records an uploaded producer photo.
func (db *DB) CreateProducerPhoto(ctx context.Context, producerID int64, fileName string) (*models.Photo, error) {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO producer_photos (producer_id, file_name, created_at)
		VALUES (?, ?, ?)`, producerID, fileName, now)
	if err != nil {
		return nil, fmt.Errorf("create producer photo: %w", err)
	}
	id, _ := res.LastInsertId()
	return &models.Photo{ID: id, OwnerID: producerID, FileName: fileName, CreatedAt: now}, nil
}

// ListProducerPhotos returns a producer's photos, oldest first.
func (db *DB) ListProducerPhotos(ctx context.Context, producerID int64) ([]models.Photo, error) {
	return db.listPhotos(ctx, `
		SELECT id, producer_id, file_name, created_at
		FROM producer_photos WHERE producer_id = ? ORDER BY created_at, id`, producerID)
}

// GetProducerPhoto returns a single producer photo.
func (db *DB) GetProducerPhoto(ctx context.Context, id int64) (*models.Photo, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, producer_id, file_name, created_at
		FROM producer_photos WHERE id = ?`, id)
	return scanPhoto(row)
}

// DeleteProducerPhoto removes a producer photo record.
func (db *DB) DeleteProducerPhoto(ctx context.Context, id int64) error {
	return db.deletePhoto(ctx, `DELETE FROM producer_photos WHERE id = ?`, id)
}

// CreateProductPhoto records an uploaded product photo.
func (db *DB) CreateProductPhoto(ctx context.Context, productID int64, fileName string) (*models.Photo, error) {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO product_photos (product_id, file_name, created_at)
		VALUES (?, ?, ?)`, productID, fileName, now)
	if err != nil {
		return nil, fmt.Errorf("create product photo: %w", err)
	}
	id, _ := res.LastInsertId()
	return &models.Photo{ID: id, OwnerID: productID, FileName: fileName, CreatedAt: now}, nil
}

// ListProductPhotos returns a product's photos, oldest first.
func (db *DB) ListProductPhotos(ctx context.Context, productID int64) ([]models.Photo, error) {
	return db.listPhotos(ctx, `
		SELECT id, product_id, file_name, created_at
		FROM product_photos WHERE product_id = ? ORDER BY created_at, id`, productID)
}

// GetProductPhoto returns a single product photo.
func (db *DB) GetProductPhoto(ctx context.Context, id int64) (*models.Photo, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, product_id, file_name, created_at
		FROM product_photos WHERE id = ?`, id)
	return scanPhoto(row)
}

// DeleteProductPhoto removes a product photo record.
func (db *DB) DeleteProductPhoto(ctx context.Context, id int64) error {
	return db.deletePhoto(ctx, `DELETE FROM product_photos WHERE id = ?`, id)
}

func (db *DB) listPhotos(ctx context.Context, query string, ownerID int64) ([]models.Photo, error) {
	rows, err := db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.FileName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (db *DB) deletePhoto(ctx context.Context, query string, id int64) error {
	res, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPhoto(row *sql.Row) (*models.Photo, error) {
	var p models.Photo
	err := row.Scan(&p.ID, &p.OwnerID, &p.FileName, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
