// Package memcache is an in-process cache.Cache used by unit tests and by
// deployments that run without Redis.
package memcache

import (
	"context"
	"sync"
	"time"

	"github.com/vitte-ai/vitte-chat/internal/cache"
)

type entry struct {
	value    string
	expireAt time.Time // zero means no expiry
}

// Cache is a mutex-guarded map with lazy expiry.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

var _ cache.Cache = (*Cache)(nil)

func New() *Cache {
	return &Cache{entries: make(map[string]entry), now: time.Now}
}

// NewWithClock allows tests to control expiry.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{entries: make(map[string]entry), now: now}
}

func (c *Cache) get(key string) (string, bool) {
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if !e.expireAt.IsZero() && c.now().After(e.expireAt) {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.get(key)
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry{value: value}
	if ttl > 0 {
		e.expireAt = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *Cache) GetDel(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.get(key)
	if !ok {
		return "", cache.ErrMiss
	}
	delete(c.entries, key)
	return v, nil
}

func (c *Cache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// HealthPing implements health.HealthPinger.
func (c *Cache) HealthPing(context.Context) error { return nil }
