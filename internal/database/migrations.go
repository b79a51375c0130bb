package database

import (
	"context"
	"fmt"
)

// migrations are applied in order and recorded in schema_migrations.
var migrations = []struct {
	Version string
	SQL     string
}{
	{
		Version: "000001_create_users_sessions",
		SQL: `
			CREATE TABLE IF NOT EXISTS users (
				id            UUID        PRIMARY KEY,
				username      TEXT        NOT NULL UNIQUE,
				password_hash TEXT        NOT NULL,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE TABLE IF NOT EXISTS sessions (
				id         CHAR(64)    PRIMARY KEY,
				user_id    UUID        NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				expires_at TIMESTAMPTZ NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
		`,
	},
	{
		Version: "000002_create_downloads",
		SQL: `
			CREATE TABLE IF NOT EXISTS downloads (
				id              UUID        PRIMARY KEY,
				url             TEXT        NOT NULL,
				filename        TEXT,
				custom_filename TEXT,
				status          TEXT        NOT NULL DEFAULT 'pending'
				                CHECK (status IN ('pending','downloading','paused','completed','error','cancelled')),
				progress        INTEGER     NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
				size            BIGINT,
				speed           BIGINT,
				eta             BIGINT,
				added_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				started_at      TIMESTAMPTZ,
				completed_at    TIMESTAMPTZ,
				error_message   TEXT,
				target_path     TEXT
			);
			CREATE INDEX IF NOT EXISTS idx_downloads_added_at ON downloads(added_at DESC);
			CREATE INDEX IF NOT EXISTS idx_downloads_status ON downloads(status);
		`,
	},
	{
		Version: "000003_create_paths_settings",
		SQL: `
			CREATE TABLE IF NOT EXISTS paths (
				id         UUID        PRIMARY KEY,
				name       TEXT        NOT NULL,
				path       TEXT        NOT NULL,
				is_default BOOLEAN     NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_paths_single_default ON paths(is_default) WHERE is_default;
			CREATE TABLE IF NOT EXISTS settings (
				key        TEXT        PRIMARY KEY,
				value      TEXT        NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
}

// RunMigrations applies all pending database migrations in order
func (db *DB) RunMigrations(ctx context.Context) ([]string, error) {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []string
	for _, m := range migrations {
		var exists bool
		err := db.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			m.Version,
		).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration status for %s: %w", m.Version, err)
		}
		if exists {
			continue
		}

		tx, err := db.Pool.Begin(ctx)
		if err != nil {
			return applied, fmt.Errorf("failed to begin transaction for migration %s: %w", m.Version, err)
		}

		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			tx.Rollback(ctx)
			return applied, fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}

		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.Version); err != nil {
			tx.Rollback(ctx)
			return applied, fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return applied, fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
		}

		applied = append(applied, m.Version)
	}

	return applied, nil
}
