package database

import (
	"context"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// Sessions

// CreateSession stores a new session row
func (r *Repository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, session.ID, session.UserID, session.ExpiresAt).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSessionUser returns the session and its user. Expired rows are returned
// too; the caller decides validity.
func (r *Repository) GetSessionUser(ctx context.Context, sessionID string) (_ *models.Session, _ *models.User, err error) {
	defer observe("get_session_user", time.Now(), &err)
	var (
		session models.Session
		user    models.User
	)

	query := `
		SELECT s.id, s.user_id, s.expires_at, s.created_at, u.id, u.username
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1
	`

	err = r.db.Pool.QueryRow(ctx, query, sessionID).Scan(
		&session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt,
		&user.ID, &user.Username,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", notFoundOr(err))
	}

	return &session, &user, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (r *Repository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions purges sessions past their expiry and returns how many
// were removed
func (r *Repository) DeleteExpiredSessions(ctx context.Context) (_ int64, err error) {
	defer observe("delete_expired_sessions", time.Now(), &err)
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, r.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected(), nil
}
