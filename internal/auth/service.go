package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/downloader/internal/apperror"
	"github.com/therealutkarshpriyadarshi/downloader/internal/database"
	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
	"github.com/therealutkarshpriyadarshi/downloader/internal/metrics"
	"github.com/therealutkarshpriyadarshi/downloader/internal/tracing"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

const tokenBytes = 32

// Repository is the persistence the auth service needs
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, username, passwordHash string) error
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionUser(ctx context.Context, sessionID string) (*models.Session, *models.User, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// SessionCache is an optional read-through cache in front of the session table
type SessionCache interface {
	SetSession(ctx context.Context, session *models.Session, user *models.User) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, *models.User, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// LoginResult carries the raw token for the cookie and the stored session
type LoginResult struct {
	Token   string
	Session *models.Session
	User    *models.User
}

// Service handles credentials and sessions
type Service struct {
	repo   Repository
	cache  SessionCache
	ttl    time.Duration
	cost   int
	logger *logging.Logger
	now    func() time.Time
}

// NewService creates an auth service. cache may be nil.
func NewService(repo Repository, cache SessionCache, sessionTTL time.Duration, logger *logging.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		ttl:    sessionTTL,
		cost:   bcrypt.DefaultCost,
		logger: logger,
		now:    time.Now,
	}
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// equalizeTiming burns one bcrypt comparison so unknown usernames cost the
// same as wrong passwords
func equalizeTiming(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// HashToken derives the session row key from the cookie token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Login checks credentials and opens a new session
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	span, ctx := tracing.StartSpan(ctx, "auth.login")
	defer tracing.FinishSpan(span)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.Validation("Username and password are required")
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			tracing.LogError(span, err)
			return nil, apperror.Internal(err)
		}
		equalizeTiming(password)
		metrics.RecordLogin("failure")
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.RecordLogin("failure")
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	token, err := newToken()
	if err != nil {
		return nil, apperror.Internal(err)
	}

	session := &models.Session{
		ID:        HashToken(token),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		tracing.LogError(span, err)
		return nil, apperror.Internal(err)
	}

	metrics.RecordLogin("success")
	tracing.SetTag(span, "user.id", user.ID)

	return &LoginResult{Token: token, Session: session, User: user}, nil
}

// Authenticate resolves a cookie token to its user. Only a session that
// exists and has not expired is accepted.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	sessionID := HashToken(token)
	now := s.now()

	if s.cache != nil {
		session, user, err := s.cache.GetSession(ctx, sessionID)
		if err != nil {
			s.logger.WithError(err).Warn("Session cache read failed")
		}
		metrics.RecordCacheAccess("session", session != nil)
		if session != nil && !session.Expired(now) {
			return user, nil
		}
	}

	session, user, err := s.repo.GetSessionUser(ctx, sessionID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.Unauthorized("Unauthorized")
		}
		return nil, apperror.Internal(err)
	}

	if session.Expired(now) {
		s.forget(ctx, sessionID)
		return nil, apperror.Unauthorized("Session expired")
	}

	if s.cache != nil {
		if err := s.cache.SetSession(ctx, session, user); err != nil {
			s.logger.WithError(err).Warn("Session cache write failed")
		}
	}

	return user, nil
}

// Logout ends the session behind token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	sessionID := HashToken(token)

	if s.cache != nil {
		if err := s.cache.DeleteSession(ctx, sessionID); err != nil {
			s.logger.WithError(err).Warn("Session cache delete failed")
		}
	}
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *Service) forget(ctx context.Context, sessionID string) {
	if s.cache != nil {
		if err := s.cache.DeleteSession(ctx, sessionID); err != nil {
			s.logger.WithError(err).Warn("Session cache delete failed")
		}
	}
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		s.logger.WithError(err).Warn("Failed to delete expired session")
	}
}

// PurgeExpired deletes every expired session row
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, apperror.Internal(err)
	}
	return n, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	if password == "" {
		return "", apperror.Validation("Password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperror.Validation("Password must be at most 72 bytes")
		}
		return "", apperror.Internal(err)
	}
	return string(hash), nil
}

// CreateUser provisions an account
func (s *Service) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.Validation("Username is required")
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperror.Conflict("User %q already exists", username)
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}

// SetPassword rotates a user's password. Existing sessions are revoked.
func (s *Service) SetPassword(ctx context.Context, username, password string) error {
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateUserPassword(ctx, strings.TrimSpace(username), hash); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.NotFound("User %q not found", username)
		}
		return apperror.Internal(err)
	}
	return nil
}
