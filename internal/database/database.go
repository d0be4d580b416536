// Package database is the SQLite persistence layer.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the SQL connection pool.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

var (
	ErrNotFound      = errors.New("not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrProfileExists = errors.New("producer profile already exists")
)

// NewDB opens the database, tunes the pool and creates tables.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode and a busy timeout keep concurrent API reads cheap.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{DB: db, logger: logger}

	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			is_producer BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS producers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER UNIQUE NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'autre',
			address TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email_contact TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS producer_photos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			producer_id INTEGER NOT NULL,
			file_name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (producer_id) REFERENCES producers(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS sale_modes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			producer_id INTEGER NOT NULL,
			mode_type TEXT NOT NULL,
			title TEXT NOT NULL,
			instructions TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL DEFAULT '',
			website_url TEXT NOT NULL DEFAULT '',
			is_24_7 BOOLEAN NOT NULL DEFAULT 0,
			location_address TEXT NOT NULL DEFAULT '',
			location_latitude REAL,
			location_longitude REAL,
			market_info TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (producer_id) REFERENCES producers(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS opening_hours (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sale_mode_id INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			is_closed BOOLEAN NOT NULL DEFAULT 0,
			opening_time TEXT,
			closing_time TEXT,
			UNIQUE (sale_mode_id, day_of_week),
			FOREIGN KEY (sale_mode_id) REFERENCES sale_modes(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS product_categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			icon TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			producer_id INTEGER NOT NULL,
			category_id INTEGER,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			availability_type TEXT NOT NULL DEFAULT 'all_year',
			availability_start_month INTEGER,
			availability_end_month INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (producer_id) REFERENCES producers(id) ON DELETE CASCADE,
			FOREIGN KEY (category_id) REFERENCES product_categories(id)
		)`,
		`CREATE TABLE IF NOT EXISTS product_photos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id INTEGER NOT NULL,
			file_name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_producers_category ON producers(category)`,
		`CREATE INDEX IF NOT EXISTS idx_producers_coords ON producers(latitude, longitude)`,
		`CREATE INDEX IF NOT EXISTS idx_producer_photos_producer ON producer_photos(producer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sale_modes_producer ON sale_modes(producer_id, sort_order)`,
		`CREATE INDEX IF NOT EXISTS idx_opening_hours_mode ON opening_hours(sale_mode_id, day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_products_producer ON products(producer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_product_photos_product ON product_photos(product_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return db.ensureNewColumns()
}

// ensureNewColumns adds columns introduced after the first release.
func (db *DB) ensureNewColumns() error {
	migrations := []string{
		`ALTER TABLE sale_modes ADD COLUMN market_info TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE products ADD COLUMN availability_start_month INTEGER`,
		`ALTER TABLE products ADD COLUMN availability_end_month INTEGER`,
	}

	for _, m := range migrations {
		_, err := db.Exec(m)
		if err != nil && !strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
			if db.logger != nil {
				db.logger.Debug().Err(err).Str("migration", m).Msg("migration skipped")
			}
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
