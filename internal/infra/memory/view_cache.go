package memory

import (
	"context"
	"sync"
	"time"

	"quizhub-service/internal/domain"
)

// ViewCache is an in-process implementation of app.ViewCache with lazy
// expiry, for running without Redis.
type ViewCache struct {
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewViewCache() *ViewCache {
	return &ViewCache{
		clock:   time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *ViewCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(c.clock()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, domain.ErrCacheMiss
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

func (c *ViewCache) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = c.clock().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *ViewCache) Forget(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return nil
}
