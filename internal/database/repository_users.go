package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// Users

// CreateUser inserts a user. ErrDuplicate if the username is taken.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	query := `
		INSERT INTO users (id, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, user.ID, user.Username, user.PasswordHash).Scan(&user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByUsername retrieves a user for credential checks
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User

	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", notFoundOr(err))
	}

	return &user, nil
}

// UpdateUserPassword rotates a user's credential and drops their sessions
func (r *Repository) UpdateUserPassword(ctx context.Context, username, passwordHash string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID string
	err = tx.QueryRow(ctx,
		`UPDATE users SET password_hash = $2 WHERE username = $1 RETURNING id`,
		username, passwordHash,
	).Scan(&userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", notFoundOr(err))
	}

	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	return tx.Commit(ctx)
}
