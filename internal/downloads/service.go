package downloads

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/downloader/internal/apperror"
	"github.com/therealutkarshpriyadarshi/downloader/internal/browser"
	"github.com/therealutkarshpriyadarshi/downloader/internal/database"
	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
	"github.com/therealutkarshpriyadarshi/downloader/internal/metrics"
	"github.com/therealutkarshpriyadarshi/downloader/internal/queue"
	"github.com/therealutkarshpriyadarshi/downloader/internal/tracing"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// Repository is the persistence the download registry needs
type Repository interface {
	CreateDownload(ctx context.Context, d *models.Download) error
	GetDownload(ctx context.Context, id string) (*models.Download, error)
	ListDownloads(ctx context.Context) ([]*models.Download, error)
	CancelDownload(ctx context.Context, id string) (*models.Download, error)
	GetPath(ctx context.Context, id string) (*models.DownloadPath, error)
	GetDefaultPath(ctx context.Context) (*models.DownloadPath, error)
	GetSettings(ctx context.Context) (models.Settings, error)
}

// Publisher hands download events to the external worker
type Publisher interface {
	PublishDownloadEvent(ctx context.Context, event queue.DownloadEvent) error
}

// AddRequest is the input of Add. TargetPath wins over PathID.
type AddRequest struct {
	URL            string  `json:"url"`
	TargetPath     *string `json:"target_path,omitempty"`
	PathID         *string `json:"path_id,omitempty"`
	CustomFilename *string `json:"custom_filename,omitempty"`
}

// Service is the download registry. It only records and enqueues downloads;
// the transfer itself belongs to the worker.
type Service struct {
	repo         Repository
	publisher    Publisher
	allowedHosts []string
	root         string
	logger       *logging.Logger
}

// NewService creates a download registry whose targets stay under root.
// publisher may be nil.
func NewService(repo Repository, publisher Publisher, allowedHosts []string, root string, logger *logging.Logger) *Service {
	hosts := make([]string, 0, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	return &Service{
		repo:         repo,
		publisher:    publisher,
		allowedHosts: hosts,
		root:         root,
		logger:       logger,
	}
}

// List returns every download, newest first
func (s *Service) List(ctx context.Context) ([]*models.Download, error) {
	downloads, err := s.repo.ListDownloads(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return downloads, nil
}

// Get returns a single download
func (s *Service) Get(ctx context.Context, id string) (*models.Download, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound("Download not found")
	}

	d, err := s.repo.GetDownload(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.NotFound("Download not found")
		}
		return nil, apperror.Internal(err)
	}
	return d, nil
}

// Add validates and records a new pending download, then notifies the worker
func (s *Service) Add(ctx context.Context, req AddRequest) (*models.Download, error) {
	span, ctx := tracing.StartSpan(ctx, "downloads.add")
	defer tracing.FinishSpan(span)

	rawURL, err := s.validateURL(req.URL)
	if err != nil {
		return nil, err
	}

	customFilename, err := normalizeFilename(req.CustomFilename)
	if err != nil {
		return nil, err
	}

	targetPath, err := s.resolveTargetPath(ctx, req)
	if err != nil {
		tracing.LogError(span, err)
		return nil, err
	}

	d := &models.Download{
		URL:            rawURL,
		CustomFilename: customFilename,
		Status:         models.DownloadStatusPending,
		TargetPath:     targetPath,
	}
	if err := s.repo.CreateDownload(ctx, d); err != nil {
		tracing.LogError(span, err)
		return nil, apperror.Internal(err)
	}

	tracing.SetTag(span, "download.id", d.ID)
	metrics.RecordDownloadAdded()
	s.logger.LogDownloadEvent(d.ID, queue.EventDownloadAdded, string(d.Status), map[string]interface{}{
		"url": d.URL,
	})
	s.publish(ctx, queue.EventDownloadAdded, d)

	return d, nil
}

// Cancel moves a non-terminal download to cancelled. Cancelling a finished
// download is a conflict and leaves it untouched.
func (s *Service) Cancel(ctx context.Context, id string) (*models.Download, error) {
	span, ctx := tracing.StartSpan(ctx, "downloads.cancel")
	defer tracing.FinishSpan(span)

	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound("Download not found")
	}

	d, err := s.repo.CancelDownload(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, database.ErrNotFound):
		return nil, apperror.NotFound("Download not found")
	case errors.Is(err, database.ErrInvalidTransition):
		return nil, apperror.Conflict("Download already %s", d.Status)
	default:
		tracing.LogError(span, err)
		return nil, apperror.Internal(err)
	}

	metrics.RecordDownloadCancelled()
	s.logger.LogDownloadEvent(d.ID, queue.EventDownloadCancelled, string(d.Status), nil)
	s.publish(ctx, queue.EventDownloadCancelled, d)

	return d, nil
}

// publish is best effort: the row is already committed and the worker can
// still discover it by polling.
func (s *Service) publish(ctx context.Context, event string, d *models.Download) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishDownloadEvent(ctx, queue.NewDownloadEvent(event, d))
	metrics.RecordEventPublished(event, err)
	if err != nil {
		s.logger.WithDownloadID(d.ID).WithError(err).Warn("Failed to publish download event")
	}
}

func (s *Service) validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperror.Validation("URL is required")
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", apperror.Validation("Invalid URL")
	}

	if !s.hostAllowed(u.Hostname()) {
		return "", apperror.Validation("URL must point to %s", strings.Join(s.allowedHosts, " or "))
	}

	return raw, nil
}

func (s *Service) hostAllowed(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, allowed := range s.allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func normalizeFilename(name *string) (*string, error) {
	if name == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil, nil
	}
	if strings.ContainsAny(trimmed, `/\`) || trimmed == "." || trimmed == ".." {
		return nil, apperror.Validation("Custom filename must not contain path separators")
	}
	return &trimmed, nil
}

// resolveTargetPath picks the destination directory: explicit path, then the
// chosen shortcut, then the default shortcut, then the default_path setting.
func (s *Service) resolveTargetPath(ctx context.Context, req AddRequest) (*string, error) {
	if req.TargetPath != nil {
		if p := strings.TrimSpace(*req.TargetPath); p != "" {
			return s.confine(p)
		}
	}

	if req.PathID != nil && strings.TrimSpace(*req.PathID) != "" {
		id := strings.TrimSpace(*req.PathID)
		if _, err := uuid.Parse(id); err != nil {
			return nil, apperror.Validation("Download path not found")
		}
		p, err := s.repo.GetPath(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, apperror.Validation("Download path not found")
			}
			return nil, apperror.Internal(err)
		}
		return &p.Path, nil
	}

	def, err := s.repo.GetDefaultPath(ctx)
	if err == nil {
		return &def.Path, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, apperror.Internal(err)
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if p := strings.TrimSpace(settings.Get(models.SettingDefaultPath)); p != "" {
		return s.confine(p)
	}

	return nil, nil
}

func (s *Service) confine(path string) (*string, error) {
	dir, err := browser.Confine(s.root, path)
	if err != nil {
		return nil, err
	}
	return &dir, nil
}
