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

// Downloads

// CreateDownload inserts a pending download and fills in the generated fields
func (r *Repository) CreateDownload(ctx context.Context, d *models.Download) (err error) {
	defer observe("create_download", time.Now(), &err)
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = models.DownloadStatusPending
	}
	if d.AddedAt.IsZero() {
		d.AddedAt = r.now().UTC()
	}

	query := `
		INSERT INTO downloads (id, url, custom_filename, status, progress, added_at, target_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + downloadColumns

	created, err := scanDownload(r.db.Pool.QueryRow(ctx, query,
		d.ID, d.URL, d.CustomFilename, d.Status, d.Progress, d.AddedAt, d.TargetPath,
	))
	if err != nil {
		return fmt.Errorf("failed to create download: %w", err)
	}

	*d = *created
	return nil
}

// GetDownload retrieves a download by ID
func (r *Repository) GetDownload(ctx context.Context, id string) (*models.Download, error) {
	query := `SELECT ` + downloadColumns + ` FROM downloads WHERE id = $1`

	d, err := scanDownload(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get download: %w", notFoundOr(err))
	}

	return d, nil
}

// ListDownloads returns every download, newest first
func (r *Repository) ListDownloads(ctx context.Context) (_ []*models.Download, err error) {
	defer observe("list_downloads", time.Now(), &err)
	query := `SELECT ` + downloadColumns + ` FROM downloads ORDER BY added_at DESC, id`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	defer rows.Close()

	downloads := make([]*models.Download, 0)
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		downloads = append(downloads, d)
	}

	return downloads, rows.Err()
}

// CancelDownload moves a non-terminal download to cancelled in a single
// conditional statement, so a concurrent worker progress write is never lost.
// On ErrInvalidTransition the current row is returned alongside the error.
func (r *Repository) CancelDownload(ctx context.Context, id string) (_ *models.Download, err error) {
	defer observe("cancel_download", time.Now(), &err)
	cancellable := models.CancellableStatuses()
	statuses := make([]string, len(cancellable))
	for i, s := range cancellable {
		statuses[i] = string(s)
	}

	query := `
		UPDATE downloads
		SET status = $2, completed_at = $3, speed = NULL, eta = NULL
		WHERE id = $1 AND status = ANY($4)
		RETURNING ` + downloadColumns

	d, err := scanDownload(r.db.Pool.QueryRow(ctx, query,
		id, models.DownloadStatusCancelled, r.now().UTC(), statuses,
	))
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to cancel download: %w", err)
	}

	current, err := r.GetDownload(ctx, id)
	if err != nil {
		return nil, err
	}
	return current, ErrInvalidTransition
}
