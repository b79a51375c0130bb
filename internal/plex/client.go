package plex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/downloader/internal/apperror"
	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

const userAgent = "downloader-api"

// ErrUnauthorized is returned when Plex rejects the configured token
var ErrUnauthorized = errors.New("plex rejected the token")

// HTTPDoer is satisfied by *http.Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SettingsReader supplies the stored Plex credentials
type SettingsReader interface {
	GetSettings(ctx context.Context) (models.Settings, error)
}

// Library is one Plex library section
type Library struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type sectionsResponse struct {
	MediaContainer struct {
		Directory []Library `json:"Directory"`
	} `json:"MediaContainer"`
}

// Client talks to the Plex server configured in the settings store
type Client struct {
	settings SettingsReader
	http     HTTPDoer
	logger   *logging.Logger
}

// NewClient creates a Plex client. A nil doer uses a 10s-timeout http.Client.
func NewClient(settings SettingsReader, doer HTTPDoer, logger *logging.Logger) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{settings: settings, http: doer, logger: logger}
}

// Check verifies the stored URL and token by listing the library sections
func (c *Client) Check(ctx context.Context) ([]Library, error) {
	var body sectionsResponse
	if err := c.get(ctx, "/library/sections", &body); err != nil {
		return nil, c.classify(err)
	}

	libraries := body.MediaContainer.Directory
	if libraries == nil {
		libraries = []Library{}
	}
	return libraries, nil
}

// Refresh asks Plex to scan every library section for new files
func (c *Client) Refresh(ctx context.Context) error {
	if err := c.get(ctx, "/library/sections/all/refresh", nil); err != nil {
		return c.classify(err)
	}
	c.logger.Info("Plex library refresh requested")
	return nil
}

func (c *Client) classify(err error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, ErrUnauthorized):
		return apperror.Validation("Plex rejected the token")
	default:
		c.logger.WithError(err).Warn("Plex request failed")
		return apperror.Internal(err)
	}
}

func (c *Client) credentials(ctx context.Context) (string, string, error) {
	settings, err := c.settings.GetSettings(ctx)
	if err != nil {
		return "", "", apperror.Internal(err)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(settings.Get(models.SettingPlexURL)), "/")
	token := strings.TrimSpace(settings.Get(models.SettingPlexToken))
	if baseURL == "" || token == "" {
		return "", "", apperror.Validation("Plex is not configured")
	}
	if u, err := url.Parse(baseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", apperror.Validation("Plex URL is invalid")
	}
	return baseURL, token, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	baseURL, token, err := c.credentials(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build plex request: %w", err)
	}
	req.Header.Set("X-Plex-Token", token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("plex request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrUnauthorized
	}
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("plex request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode plex response: %w", err)
	}
	return nil
}
