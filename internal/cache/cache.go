// Package cache defines the shared key-value cache contract used by the
// feature resolver, the LLM response cache, and the image ticket mailbox.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a minimal TTL'd key-value surface. Implementations must be safe
// for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// GetDel atomically reads and deletes the key. Exactly one concurrent
	// caller observes a stored value; everyone else gets ErrMiss.
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}
