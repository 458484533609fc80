package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache keeps entries in process memory. Expired entries are dropped
// when read and by Set once the cache holds more than its limit.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	limit   int
	now     func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// DefaultMemoryLimit bounds a MemoryCache created with limit 0.
const DefaultMemoryLimit = 1024

// NewMemoryCache creates a cache holding at most limit entries.
func NewMemoryCache(limit int) *MemoryCache {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &MemoryCache{entries: make(map[string]memoryEntry), limit: limit, now: time.Now}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.expired(e) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.data...), true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
	if len(c.entries) > c.limit {
		c.evict()
	}
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) Close() error { return nil }

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

// evict drops expired entries, then the entries closest to expiry until the
// cache is within its limit. c.mu must be held.
func (c *MemoryCache) evict() {
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
		}
	}
	for len(c.entries) > c.limit {
		var (
			victim string
			soonest time.Time
		)
		for k, e := range c.entries {
			if victim == "" || (!e.expiresAt.IsZero() && (soonest.IsZero() || e.expiresAt.Before(soonest))) {
				victim, soonest = k, e.expiresAt
			}
		}
		delete(c.entries, victim)
	}
}

var _ Cache = (*MemoryCache)(nil)
