package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// Settings

// GetSettings returns every known key; unset keys are nil
func (r *Repository) GetSettings(ctx context.Context) (models.Settings, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	defer rows.Close()

	settings := models.NewSettings()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		if _, known := settings[key]; known {
			v := value
			settings[key] = &v
		}
	}

	return settings, rows.Err()
}

// UpsertSettings writes the given keys in one transaction, leaving the rest
// untouched
func (r *Repository) UpsertSettings(ctx context.Context, values map[string]string) (err error) {
	defer observe("upsert_settings", time.Now(), &err)
	if len(values) == 0 {
		return nil
	}

	err = r.db.InTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for key, value := range values {
			batch.Queue(`
				INSERT INTO settings (key, value, updated_at)
				VALUES ($1, $2, NOW())
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
			`, key, value)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}
