package main

import (
	"context"

	"github.com/therealutkarshpriyadarshi/downloader/internal/auth"
	"github.com/therealutkarshpriyadarshi/downloader/internal/downloads"
	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
	"github.com/therealutkarshpriyadarshi/downloader/internal/middleware"
	"github.com/therealutkarshpriyadarshi/downloader/internal/plex"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// AuthService handles credentials and sessions
type AuthService interface {
	middleware.Authenticator
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// DownloadService is the download registry
type DownloadService interface {
	List(ctx context.Context) ([]*models.Download, error)
	Get(ctx context.Context, id string) (*models.Download, error)
	Add(ctx context.Context, req downloads.AddRequest) (*models.Download, error)
	Cancel(ctx context.Context, id string) (*models.Download, error)
}

// PathService is the path registry
type PathService interface {
	List(ctx context.Context) ([]*models.DownloadPath, error)
	Add(ctx context.Context, name, path string) (*models.DownloadPath, error)
	SetDefault(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteByName(ctx context.Context, name string) error
}

// FileBrowser lists and creates directories on the host
type FileBrowser interface {
	Browse(ctx context.Context, path string) (*models.BrowseResult, error)
	CreateFolder(ctx context.Context, parent, name string) (string, error)
}

// SettingsService is the integration settings bag
type SettingsService interface {
	Get(ctx context.Context) (models.Settings, error)
	Put(ctx context.Context, partial map[string]*string) error
}

// PlexService checks and refreshes the configured Plex server
type PlexService interface {
	Check(ctx context.Context) ([]plex.Library, error)
	Refresh(ctx context.Context) error
}

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

type API struct {
	auth         AuthService
	downloads    DownloadService
	paths        PathService
	browser      FileBrowser
	settings     SettingsService
	plex         PlexService
	health       HealthChecker
	logger       *logging.Logger
	loginLimiter *middleware.RateLimiter
	secureCookie bool
}
