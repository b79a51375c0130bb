package paths

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/downloader/internal/apperror"
	"github.com/therealutkarshpriyadarshi/downloader/internal/browser"
	"github.com/therealutkarshpriyadarshi/downloader/internal/database"
	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
	"github.com/therealutkarshpriyadarshi/downloader/internal/tracing"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// Repository is the persistence the path registry needs
type Repository interface {
	ListPaths(ctx context.Context) ([]*models.DownloadPath, error)
	CreatePath(ctx context.Context, p *models.DownloadPath) error
	SetDefaultPath(ctx context.Context, id string) error
	DeletePath(ctx context.Context, id string) error
	FindPathIDByName(ctx context.Context, name string) (string, error)
}

// Service manages named download destinations. At most one is the default
// and every one lies under root.
type Service struct {
	repo   Repository
	root   string
	logger *logging.Logger
}

// NewService creates a path registry confined to root
func NewService(repo Repository, root string, logger *logging.Logger) *Service {
	return &Service{repo: repo, root: root, logger: logger}
}

// List returns every path, default first
func (s *Service) List(ctx context.Context) ([]*models.DownloadPath, error) {
	paths, err := s.repo.ListPaths(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return paths, nil
}

// Add creates a path. Relative paths are taken from the browse root and new
// paths never become the default on their own.
func (s *Service) Add(ctx context.Context, name, path string) (*models.DownloadPath, error) {
	name = strings.TrimSpace(name)
	path = strings.TrimSpace(path)
	if name == "" || path == "" {
		return nil, apperror.Validation("Name and path are required")
	}

	dir, err := browser.Confine(s.root, path)
	if err != nil {
		return nil, err
	}

	p := &models.DownloadPath{Name: name, Path: dir}
	if err := s.repo.CreatePath(ctx, p); err != nil {
		return nil, apperror.Internal(err)
	}

	s.logger.WithFields(map[string]interface{}{"path_id": p.ID, "path": p.Path}).Info("Download path added")
	return p, nil
}

// SetDefault makes id the only default path
func (s *Service) SetDefault(ctx context.Context, id string) error {
	span, ctx := tracing.StartSpan(ctx, "paths.set_default")
	defer tracing.FinishSpan(span)

	if _, err := uuid.Parse(id); err != nil {
		return apperror.NotFound("Path not found")
	}

	err := s.repo.SetDefaultPath(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return apperror.NotFound("Path not found")
	case errors.Is(err, database.ErrDuplicate):
		return apperror.Conflict("Default path changed concurrently, please retry")
	default:
		tracing.LogError(span, err)
		return apperror.Internal(err)
	}
}

// Delete removes a path. The default cannot be removed while other paths
// exist.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NotFound("Path not found")
	}

	err := s.repo.DeletePath(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return apperror.NotFound("Path not found")
	case errors.Is(err, database.ErrDefaultPath):
		return apperror.Conflict("Cannot delete the default path")
	default:
		return apperror.Internal(err)
	}
}

// DeleteByName resolves a path name to its id and deletes it with the same
// rules as Delete. Names are not unique, so more than one match is a conflict.
func (s *Service) DeleteByName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperror.Validation("Path name is required")
	}

	id, err := s.repo.FindPathIDByName(ctx, name)
	switch {
	case err == nil:
	case errors.Is(err, database.ErrNotFound):
		return apperror.NotFound("Path not found")
	case errors.Is(err, database.ErrAmbiguous):
		return apperror.Conflict("More than one path is named %q, delete by id", name)
	default:
		return apperror.Internal(err)
	}

	return s.Delete(ctx, id)
}
