package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotelbook/internal/models"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateOrUpdateUser inserts the user or refreshes name and password of an
// existing account with the same email. user.ID is set on return.
func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (email, full_name, password_hash, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)
              ON CONFLICT(email) DO UPDATE SET
                full_name = excluded.full_name,
                password_hash = excluded.password_hash,
                updated_at = excluded.updated_at`
	now := time.Now()
	user.Email = normalizeEmail(user.Email)
	_, err := db.ExecContext(ctx, query,
		user.Email,
		user.FullName,
		user.PasswordHash,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}

	stored, err := db.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	user.ID = stored.ID
	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, full_name, password_hash, created_at, updated_at
              FROM users WHERE email = ?`
	var user models.User
	err := db.QueryRowContext(ctx, query, normalizeEmail(email)).Scan(
		&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
