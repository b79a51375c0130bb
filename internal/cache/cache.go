package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// Cache keeps authenticated sessions in Redis so that most requests skip
// the session table. Postgres stays the source of truth.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// CachedSession is the value stored for a session id
type CachedSession struct {
	Session models.Session `json:"session"`
	User    models.User    `json:"user"`
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl, now: time.Now}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// SetSession caches a session and its user. The entry never outlives the
// session itself.
func (c *Cache) SetSession(ctx context.Context, session *models.Session, user *models.User) error {
	ttl := c.ttl
	if remaining := session.ExpiresAt.Sub(c.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(CachedSession{Session: *session, User: *user})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return c.client.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

// GetSession returns the cached session, or nil on a miss
func (c *Cache) GetSession(ctx context.Context, sessionID string) (*models.Session, *models.User, error) {
	data, err := c.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil, nil // Cache miss
		}
		return nil, nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	var cached CachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	// Session.ID and User.PasswordHash are not serialized
	cached.Session.ID = sessionID
	return &cached.Session, &cached.User, nil
}

// DeleteSession removes a session from the cache
func (c *Cache) DeleteSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, sessionKey(sessionID)).Err()
}
