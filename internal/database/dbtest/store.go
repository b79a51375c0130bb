// Package dbtest provides an in-memory stand-in for database.Repository with
// the same error contract, for handler and command tests that need no
// Postgres.
package dbtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/downloader/internal/database"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// Store is a goroutine-safe in-memory repository
type Store struct {
	mu        sync.Mutex
	users     map[string]*models.User
	sessions  map[string]*models.Session
	downloads map[string]*models.Download
	paths     map[string]*models.DownloadPath
	settings  map[string]string

	// Now is the store's clock. Tests may replace it.
	Now func() time.Time
	// HealthErr is returned by Health when set.
	HealthErr error
}

// New returns an empty store
func New() *Store {
	return &Store{
		users:     make(map[string]*models.User),
		sessions:  make(map[string]*models.Session),
		downloads: make(map[string]*models.Download),
		paths:     make(map[string]*models.DownloadPath),
		settings:  make(map[string]string),
		Now:       time.Now,
	}
}

// Health reports HealthErr
func (s *Store) Health(ctx context.Context) error {
	return s.HealthErr
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return database.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = s.Now()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *Store) UpdateUserPassword(ctx context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username != username {
			continue
		}
		u.PasswordHash = passwordHash
		for id, session := range s.sessions {
			if session.UserID == u.ID {
				delete(s.sessions, id)
			}
		}
		return nil
	}
	return database.ErrNotFound
}

// Sessions

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.CreatedAt = s.Now()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *Store) GetSessionUser(ctx context.Context, sessionID string) (*models.Session, *models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil, database.ErrNotFound
	}
	user, ok := s.users[session.UserID]
	if !ok {
		return nil, nil, database.ErrNotFound
	}
	sc, uc := *session, *user
	uc.PasswordHash = ""
	return &sc, &uc, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	var n int64
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// SessionCount returns the number of stored sessions, expired ones included
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ExpireSessions moves every session's expiry to at
func (s *Store) ExpireSessions(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		session.ExpiresAt = at
	}
}

// Downloads

func (s *Store) CreateDownload(ctx context.Context, d *models.Download) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = models.DownloadStatusPending
	}
	if d.AddedAt.IsZero() {
		d.AddedAt = s.Now().UTC()
	}
	cp := *d
	s.downloads[d.ID] = &cp
	return nil
}

func (s *Store) GetDownload(ctx context.Context, id string) (*models.Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.downloads[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *Store) ListDownloads(ctx context.Context) ([]*models.Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Download, 0, len(s.downloads))
	for _, d := range s.downloads {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.After(out[j].AddedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CancelDownload(ctx context.Context, id string) (*models.Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.downloads[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if !d.Status.CanTransitionTo(models.DownloadStatusCancelled) {
		cp := *d
		return &cp, database.ErrInvalidTransition
	}
	now := s.Now().UTC()
	d.Status = models.DownloadStatusCancelled
	d.CompletedAt = &now
	d.Speed = nil
	d.ETA = nil
	cp := *d
	return &cp, nil
}

// SetDownloadStatus plays the external worker's part
func (s *Store) SetDownloadStatus(id string, status models.DownloadStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.downloads[id]; ok {
		d.Status = status
	}
}

// Paths

func (s *Store) ListPaths(ctx context.Context) ([]*models.DownloadPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.DownloadPath, 0, len(s.paths))
	for _, p := range s.paths {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetPath(ctx context.Context, id string) (*models.DownloadPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.paths[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetDefaultPath(ctx context.Context) (*models.DownloadPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.paths {
		if p.IsDefault {
			cp := *p
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *Store) FindPathIDByName(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, p := range s.paths {
		if p.Name == name {
			ids = append(ids, p.ID)
		}
	}
	switch len(ids) {
	case 0:
		return "", database.ErrNotFound
	case 1:
		return ids[0], nil
	default:
		return "", database.ErrAmbiguous
	}
}

func (s *Store) CreatePath(ctx context.Context, p *models.DownloadPath) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.IsDefault = false
	cp := *p
	s.paths[p.ID] = &cp
	return nil
}

func (s *Store) SetDefaultPath(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.paths[id]
	if !ok {
		return database.ErrNotFound
	}
	for _, p := range s.paths {
		p.IsDefault = false
	}
	target.IsDefault = true
	return nil
}

func (s *Store) DeletePath(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.paths[id]
	if !ok {
		return database.ErrNotFound
	}
	if p.IsDefault && len(s.paths) > 1 {
		return database.ErrDefaultPath
	}
	delete(s.paths, id)
	return nil
}

// Settings

func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := models.NewSettings()
	for key, value := range s.settings {
		if _, known := settings[key]; known {
			v := value
			settings[key] = &v
		}
	}
	return settings, nil
}

func (s *Store) UpsertSettings(ctx context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range values {
		s.settings[key] = value
	}
	return nil
}
