package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// Paths

// ListPaths returns all saved paths, default first then by name
func (r *Repository) ListPaths(ctx context.Context) ([]*models.DownloadPath, error) {
	query := `SELECT ` + pathColumns + ` FROM paths ORDER BY is_default DESC, name, id`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	defer rows.Close()

	paths := make([]*models.DownloadPath, 0)
	for rows.Next() {
		p, err := scanPath(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		paths = append(paths, p)
	}

	return paths, rows.Err()
}

// GetPath retrieves a path by ID
func (r *Repository) GetPath(ctx context.Context, id string) (*models.DownloadPath, error) {
	query := `SELECT ` + pathColumns + ` FROM paths WHERE id = $1`

	p, err := scanPath(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get path: %w", notFoundOr(err))
	}
	return p, nil
}

// GetDefaultPath returns the current default, or ErrNotFound when none is set
func (r *Repository) GetDefaultPath(ctx context.Context) (*models.DownloadPath, error) {
	query := `SELECT ` + pathColumns + ` FROM paths WHERE is_default`

	p, err := scanPath(r.db.Pool.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("failed to get default path: %w", notFoundOr(err))
	}
	return p, nil
}

// FindPathIDByName resolves the legacy name key to an id
func (r *Repository) FindPathIDByName(ctx context.Context, name string) (string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id FROM paths WHERE name = $1 LIMIT 2`, name)
	if err != nil {
		return "", fmt.Errorf("failed to find path: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return "", fmt.Errorf("failed to find path: %w", err)
	}

	switch len(ids) {
	case 0:
		return "", ErrNotFound
	case 1:
		return ids[0], nil
	default:
		return "", ErrAmbiguous
	}
}

// CreatePath inserts a new, never-default path
func (r *Repository) CreatePath(ctx context.Context, p *models.DownloadPath) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.IsDefault = false

	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO paths (id, name, path, is_default) VALUES ($1, $2, $3, FALSE)`,
		p.ID, p.Name, p.Path,
	)
	if err != nil {
		return fmt.Errorf("failed to create path: %w", err)
	}
	return nil
}

// SetDefaultPath makes id the only default inside one transaction
func (r *Repository) SetDefaultPath(ctx context.Context, id string) (err error) {
	defer observe("set_default_path", time.Now(), &err)
	err = r.db.InTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx, `SELECT TRUE FROM paths WHERE id = $1 FOR UPDATE`, id).Scan(&exists)
		if err != nil {
			return notFoundOr(err)
		}

		if _, err := tx.Exec(ctx, `UPDATE paths SET is_default = FALSE WHERE is_default AND id <> $1`, id); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE paths SET is_default = TRUE WHERE id = $1`, id)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to set default path: concurrent update: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to set default path: %w", err)
	}
	return nil
}

// DeletePath removes a path. Deleting the default is refused while other paths
// remain.
func (r *Repository) DeletePath(ctx context.Context, id string) (err error) {
	defer observe("delete_path", time.Now(), &err)
	err = r.db.InTx(ctx, func(tx pgx.Tx) error {
		var isDefault bool
		err := tx.QueryRow(ctx, `SELECT is_default FROM paths WHERE id = $1 FOR UPDATE`, id).Scan(&isDefault)
		if err != nil {
			return notFoundOr(err)
		}

		if isDefault {
			var others int
			if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM paths WHERE id <> $1`, id).Scan(&others); err != nil {
				return err
			}
			if others > 0 {
				return ErrDefaultPath
			}
		}

		_, err = tx.Exec(ctx, `DELETE FROM paths WHERE id = $1`, id)
		return err
	})
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDefaultPath) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to delete path: %w", err)
	}
	return nil
}
