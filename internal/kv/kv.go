// Package kv defines the small key-value contract the token managers and the
// dedup ledger persist their state through.
package kv

import (
	"context"
	"strings"
	"time"
)

// NoTTL stores a value until it is explicitly cleared.
const NoTTL time.Duration = 0

// Store is a string key-value store with optional expiry. Writes to a key are
// last-write-wins.
type Store interface {
	// Get returns the value under key. ok is false when the key is absent or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key. A ttl of NoTTL keeps it forever.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Clear removes key. Clearing an absent key is not an error.
	Clear(ctx context.Context, key string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// GetOrDefault returns the stored value, or def when the key is absent.
func GetOrDefault(ctx context.Context, s Store, key, def string) (string, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Namespace prefixes key for backends shared with other applications. An
// empty prefix leaves the key untouched so existing deployments keep their
// layout.
func Namespace(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if strings.HasSuffix(prefix, ":") {
		return prefix + key
	}
	return prefix + ":" + key
}
