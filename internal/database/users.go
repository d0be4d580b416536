package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"terroir/internal/models"
)

// CreateUser inserts a new account. Returns ErrEmailTaken when the email
// is already registered.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, is_producer, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		strings.ToLower(u.Email), u.PasswordHash, u.FirstName, u.LastName, u.IsProducer, now, now,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID, _ = res.LastInsertId()
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// GetUserByEmail looks an account up by email, case-insensitive.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.scanUser(db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, is_producer, created_at, updated_at
		FROM users WHERE email = ?`,
		strings.ToLower(email),
	))
}

// GetUserByID looks an account up by id.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.scanUser(db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, is_producer, created_at, updated_at
		FROM users WHERE id = ?`,
		id,
	))
}

func (db *DB) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.IsProducer, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// UpdateUser updates mutable profile fields.
func (db *DB) UpdateUser(ctx context.Context, u *models.User) error {
	_, err := db.ExecContext(ctx, `
		UPDATE users SET email = ?, first_name = ?, last_name = ?, is_producer = ?, updated_at = ?
		WHERE id = ?`,
		strings.ToLower(u.Email), u.FirstName, u.LastName, u.IsProducer, time.Now(), u.ID,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// UpdateUserPassword replaces the stored password hash.
func (db *DB) UpdateUserPassword(ctx context.Context, userID int64, hash string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now(), userID,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the account; the producer profile and everything
// below it goes with it via cascading deletes.
func (db *DB) DeleteUser(ctx context.Context, userID int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
