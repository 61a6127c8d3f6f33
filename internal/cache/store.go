package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Store is a JSON cache over an optional Redis client. A nil Store or a
// Store without a client is valid and caches nothing.
type Store struct {
	rdb *redis.Client
}

// NewStore wraps rdb, which may be nil.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Client returns the underlying Redis client, or nil.
func (s *Store) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.rdb
}

// Enabled reports whether a Redis client is attached.
func (s *Store) Enabled() bool {
	return s.Client() != nil
}

// GetJSON loads key into dest. It reports false on a miss.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key for ttl.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, ttl).Err()
}

// Aside serves key from Redis when present. On a miss it calls fetch, which
// must populate dest, and stores dest for ttl. Redis failures fall through to
// fetch and are only logged.
func (s *Store) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := s.GetJSON(ctx, key, dest)
	switch {
	case err != nil:
		observability.CacheLookups.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	case found:
		observability.CacheLookups.WithLabelValues("hit").Inc()
		return nil
	default:
		observability.CacheLookups.WithLabelValues("miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := s.SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate deletes keys. Failures are logged, not returned.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() || len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// Version returns the current generation number of a key namespace.
func (s *Store) Version(ctx context.Context, namespace string) int64 {
	if !s.Enabled() {
		return 0
	}
	v, err := s.rdb.Get(ctx, versionKey(namespace)).Int64()
	if err != nil {
		return 0
	}
	return v
}

// BumpVersion moves a namespace to a new generation so every key built from
// the previous one is never read again. Old keys expire through their TTL.
func (s *Store) BumpVersion(ctx context.Context, namespace string) {
	if !s.Enabled() {
		return
	}
	if err := s.rdb.Incr(ctx, versionKey(namespace)).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache version bump failed", slog.String("namespace", namespace), slog.String("error", err.Error()))
	}
}
