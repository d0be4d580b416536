package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"terroir/internal/geo"
	"terroir/internal/models"
)

// ProducerFilter narrows producer listings.
type ProducerFilter struct {
	Search     string
	Categories []string
	// Box restricts candidates to a coordinate rectangle; used by the
	// nearby search as a prefilter before the exact distance pass.
	Box *geo.BoundingBox
}

// CreateProducer inserts a profile for a user. One profile per user;
// ErrProfileExists on a second attempt.
func (db *DB) CreateProducer(ctx context.Context, p *models.Producer) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO producers (user_id, name, description, category, address, latitude, longitude,
			phone, email_contact, website, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Description, p.Category, p.Address, p.Latitude, p.Longitude,
		p.Phone, p.EmailContact, p.Website, now, now,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return ErrProfileExists
		}
		return fmt.Errorf("create producer: %w", err)
	}
	p.ID, _ = res.LastInsertId()
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetProducer returns one profile with its photos and sale modes.
func (db *DB) GetProducer(ctx context.Context, id int64) (*models.Producer, error) {
	p, err := db.scanProducer(db.QueryRowContext(ctx, producerSelect+` WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := db.attachProducerRelations(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProducerByUser returns the profile owned by a user.
func (db *DB) GetProducerByUser(ctx context.Context, userID int64) (*models.Producer, error) {
	p, err := db.scanProducer(db.QueryRowContext(ctx, producerSelect+` WHERE user_id = ?`, userID))
	if err != nil {
		return nil, err
	}
	if err := db.attachProducerRelations(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

const producerSelect = `
	SELECT id, user_id, name, description, category, address, latitude, longitude,
	       phone, email_contact, website, created_at, updated_at
	FROM producers`

// ListProducers returns profiles matching the filter, newest first, with
// photos attached. Sale modes are not loaded for listings.
func (db *DB) ListProducers(ctx context.Context, filter ProducerFilter) ([]models.Producer, error) {
	query := producerSelect
	var clauses []string
	var args []any

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		clauses = append(clauses, `(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(address) LIKE ?)`)
		args = append(args, pattern, pattern, pattern)
	}
	if len(filter.Categories) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Categories))
		clauses = append(clauses, fmt.Sprintf(`category IN (%s)`, placeholders[:len(placeholders)-1]))
		for _, c := range filter.Categories {
			args = append(args, c)
		}
	}
	if filter.Box != nil {
		clauses = append(clauses, `latitude >= ? AND latitude <= ? AND longitude >= ? AND longitude <= ?`)
		args = append(args, filter.Box.MinLat, filter.Box.MaxLat, filter.Box.MinLon, filter.Box.MaxLon)
	}

	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list producers: %w", err)
	}
	defer rows.Close()

	var producers []models.Producer
	for rows.Next() {
		var p models.Producer
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.Description, &p.Category, &p.Address,
			&p.Latitude, &p.Longitude, &p.Phone, &p.EmailContact, &p.Website,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan producer: %w", err)
		}
		producers = append(producers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range producers {
		photos, err := db.ListProducerPhotos(ctx, producers[i].ID)
		if err != nil {
			return nil, err
		}
		producers[i].Photos = photos
	}
	return producers, nil
}

// UpdateProducer rewrites the mutable profile fields.
func (db *DB) UpdateProducer(ctx context.Context, p *models.Producer) error {
	res, err := db.ExecContext(ctx, `
		UPDATE producers SET name = ?, description = ?, category = ?, address = ?,
			latitude = ?, longitude = ?, phone = ?, email_contact = ?, website = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Category, p.Address, p.Latitude, p.Longitude,
		p.Phone, p.EmailContact, p.Website, time.Now(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update producer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProducer removes a profile and everything below it.
func (db *DB) DeleteProducer(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM producers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete producer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) scanProducer(row *sql.Row) (*models.Producer, error) {
	var p models.Producer
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.Category, &p.Address,
		&p.Latitude, &p.Longitude, &p.Phone, &p.EmailContact, &p.Website,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan producer: %w", err)
	}
	return &p, nil
}

func (db *DB) attachProducerRelations(ctx context.Context, p *models.Producer) error {
	photos, err := db.ListProducerPhotos(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Photos = photos

	modes, err := db.ListSaleModes(ctx, p.ID)
	if err != nil {
		return err
	}
	p.SaleModes = modes
	return nil
}
