package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pocket2drive/internal/kv"
)

// Store implements kv.Store on top of a Redis client. Expiry is delegated to
// Redis key TTLs.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore wraps an already connected client.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
	}
}

// Get returns the value stored under key, ok=false on a miss.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, kv.Namespace(s.prefix, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key. ttl <= 0 stores without expiry (and drops any
// previous expiry on that key).
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, kv.Namespace(s.prefix, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Clear deletes key.
func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, kv.Namespace(s.prefix, key)).Err(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
