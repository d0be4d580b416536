package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"terroir/internal/models"
	"terroir/internal/schedule"
)

// CreateSaleMode inserts a sale mode and its opening-hours rows in one
// transaction. Opening hours are assumed pre-validated via the schedule
// normalizer.
func (db *DB) CreateSaleMode(ctx context.Context, m *models.SaleMode) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO sale_modes (producer_id, mode_type, title, instructions, phone_number,
			website_url, is_24_7, location_address, location_latitude, location_longitude,
			market_info, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ProducerID, m.ModeType, m.Title, m.Instructions, m.PhoneNumber,
		m.WebsiteURL, m.Is24x7, m.Address, m.Latitude, m.Longitude,
		m.MarketInfo, m.Order, now, now,
	)
	if err != nil {
		return fmt.Errorf("create sale mode: %w", err)
	}
	m.ID, _ = res.LastInsertId()
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := replaceOpeningHours(ctx, tx, m.ID, m.OpeningHours); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateSaleMode rewrites a sale mode and replaces its opening hours.
func (db *DB) UpdateSaleMode(ctx context.Context, m *models.SaleMode) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE sale_modes SET mode_type = ?, title = ?, instructions = ?, phone_number = ?,
			website_url = ?, is_24_7 = ?, location_address = ?, location_latitude = ?,
			location_longitude = ?, market_info = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		m.ModeType, m.Title, m.Instructions, m.PhoneNumber,
		m.WebsiteURL, m.Is24x7, m.Address, m.Latitude, m.Longitude,
		m.MarketInfo, m.Order, time.Now(), m.ID,
	)
	if err != nil {
		return fmt.Errorf("update sale mode: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := replaceOpeningHours(ctx, tx, m.ID, m.OpeningHours); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceOpeningHours(ctx context.Context, tx *sql.Tx, saleModeID int64, hours []schedule.RawDay) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM opening_hours WHERE sale_mode_id = ?`, saleModeID); err != nil {
		return fmt.Errorf("clear opening hours: %w", err)
	}
	for _, h := range hours {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO opening_hours (sale_mode_id, day_of_week, is_closed, opening_time, closing_time)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(sale_mode_id, day_of_week) DO NOTHING`,
			saleModeID, h.DayOfWeek, h.IsClosed, h.OpeningTime, h.ClosingTime,
		)
		if err != nil {
			return fmt.Errorf("insert opening hours day %d: %w", h.DayOfWeek, err)
		}
	}
	return nil
}

// GetSaleMode returns one sale mode with its opening hours.
func (db *DB) GetSaleMode(ctx context.Context, id int64) (*models.SaleMode, error) {
	row := db.QueryRowContext(ctx, saleModeSelect+` WHERE id = ?`, id)
	m, err := scanSaleMode(row)
	if err != nil {
		return nil, err
	}
	hours, err := db.listOpeningHours(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	m.OpeningHours = hours
	return m, nil
}

const saleModeSelect = `
	SELECT id, producer_id, mode_type, title, instructions, phone_number, website_url,
	       is_24_7, location_address, location_latitude, location_longitude, market_info,
	       sort_order, created_at, updated_at
	FROM sale_modes`

// ListSaleModes returns a producer's sale modes in display order, each
// with its opening hours.
func (db *DB) ListSaleModes(ctx context.Context, producerID int64) ([]models.SaleMode, error) {
	rows, err := db.QueryContext(ctx, saleModeSelect+` WHERE producer_id = ? ORDER BY sort_order, created_at`, producerID)
	if err != nil {
		return nil, fmt.Errorf("list sale modes: %w", err)
	}
	defer rows.Close()

	var modes []models.SaleMode
	for rows.Next() {
		m, err := scanSaleModeRows(rows)
		if err != nil {
			return nil, err
		}
		modes = append(modes, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range modes {
		hours, err := db.listOpeningHours(ctx, modes[i].ID)
		if err != nil {
			return nil, err
		}
		modes[i].OpeningHours = hours
	}
	return modes, nil
}

// DeleteSaleMode removes a sale mode; opening hours cascade.
func (db *DB) DeleteSaleMode(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM sale_modes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete sale mode: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) listOpeningHours(ctx context.Context, saleModeID int64) ([]schedule.RawDay, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT day_of_week, is_closed, opening_time, closing_time
		FROM opening_hours WHERE sale_mode_id = ? ORDER BY day_of_week`,
		saleModeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list opening hours: %w", err)
	}
	defer rows.Close()

	var hours []schedule.RawDay
	for rows.Next() {
		var h schedule.RawDay
		var opening, closing sql.NullString
		if err := rows.Scan(&h.DayOfWeek, &h.IsClosed, &opening, &closing); err != nil {
			return nil, fmt.Errorf("scan opening hours: %w", err)
		}
		if opening.Valid {
			h.OpeningTime = &opening.String
		}
		if closing.Valid {
			h.ClosingTime = &closing.String
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

type saleModeScanner interface {
	Scan(dest ...any) error
}

func scanSaleMode(row *sql.Row) (*models.SaleMode, error) {
	m, err := scanSaleModeFrom(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

func scanSaleModeRows(rows *sql.Rows) (*models.SaleMode, error) {
	return scanSaleModeFrom(rows)
}

func scanSaleModeFrom(s saleModeScanner) (*models.SaleMode, error) {
	var m models.SaleMode
	var lat, lon sql.NullFloat64
	err := s.Scan(
		&m.ID, &m.ProducerID, &m.ModeType, &m.Title, &m.Instructions, &m.PhoneNumber,
		&m.WebsiteURL, &m.Is24x7, &m.Address, &lat, &lon, &m.MarketInfo,
		&m.Order, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		m.Latitude = &lat.Float64
	}
	if lon.Valid {
		m.Longitude = &lon.Float64
	}
	return &m, nil
}
