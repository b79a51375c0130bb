package settings

import (
	"context"
	"strings"

	"github.com/therealutkarshpriyadarshi/downloader/internal/apperror"
	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// Repository is the persistence the settings store needs
type Repository interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	UpsertSettings(ctx context.Context, values map[string]string) error
}

// Service is the integration settings bag
type Service struct {
	repo   Repository
	logger *logging.Logger
}

// NewService creates a settings store
func NewService(repo Repository, logger *logging.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get returns every known key, nil when unset. Legacy aliases are echoed
// alongside their canonical keys.
func (s *Service) Get(ctx context.Context) (models.Settings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return settings.WithLegacyAliases(), nil
}

// Put writes the provided keys and leaves the others untouched. Null values
// and unknown keys are skipped; empty strings are rejected.
func (s *Service) Put(ctx context.Context, partial map[string]*string) error {
	values := make(map[string]string, len(partial))

	for key, value := range partial {
		canonical, ok := models.CanonicalSettingKey(key)
		if !ok || value == nil {
			continue
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" {
			return apperror.Validation("%s must not be empty", key)
		}
		// The canonical key wins over its legacy alias
		if _, set := values[canonical]; set && key != canonical {
			continue
		}
		values[canonical] = trimmed
	}

	if len(values) == 0 {
		return nil
	}

	if err := s.repo.UpsertSettings(ctx, values); err != nil {
		return apperror.Internal(err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	s.logger.WithField("keys", keys).Info("Settings updated")
	return nil
}
