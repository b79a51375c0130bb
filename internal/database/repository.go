package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/therealutkarshpriyadarshi/downloader/internal/metrics"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// Sentinel errors returned by the repository
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrInvalidTransition = errors.New("status does not allow this transition")
	ErrDefaultPath       = errors.New("path is the current default")
	ErrAmbiguous         = errors.New("more than one record matches")
)

const pgUniqueViolation = "23505"

// Repository provides database operations
type Repository struct {
	db  *DB
	now func() time.Time
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Health checks the underlying pool
func (r *Repository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

// observe records the outcome and latency of one repository call. Sentinel
// errors are expected outcomes, not failures.
func observe(operation string, start time.Time, errp *error) {
	status := "success"
	if err := *errp; err != nil {
		status = "error"
		for _, sentinel := range []error{ErrNotFound, ErrDuplicate, ErrInvalidTransition, ErrDefaultPath, ErrAmbiguous} {
			if errors.Is(err, sentinel) {
				status = "rejected"
				break
			}
		}
	}
	metrics.RecordDatabaseOperation(operation, status, time.Since(start).Seconds())
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// rowScanner is satisfied by pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

const downloadColumns = `
	id, url, filename, custom_filename, status, progress, size, speed, eta,
	added_at, started_at, completed_at, error_message, target_path`

func scanDownload(row rowScanner) (*models.Download, error) {
	var d models.Download
	err := row.Scan(
		&d.ID, &d.URL, &d.Filename, &d.CustomFilename, &d.Status, &d.Progress,
		&d.Size, &d.Speed, &d.ETA, &d.AddedAt, &d.StartedAt, &d.CompletedAt,
		&d.ErrorMessage, &d.TargetPath,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

const pathColumns = `id, name, path, is_default`

func scanPath(row rowScanner) (*models.DownloadPath, error) {
	var p models.DownloadPath
	if err := row.Scan(&p.ID, &p.Name, &p.Path, &p.IsDefault); err != nil {
		return nil, err
	}
	return &p, nil
}
