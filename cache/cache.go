package cache

import (
	"log"
	"sync"
	"time"
)

// entry is a stored value with its absolute expiry instant.
type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is an in-memory TTL store scoped to the process lifetime. Expired
// entries are dropped lazily on read and reclaimed in bulk by the janitor.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	onHit  func()
	onMiss func()
}

// Option configures a Cache.
type Option func(*Cache)

// WithHitMiss installs counters invoked on every lookup outcome.
func WithHitMiss(onHit, onMiss func()) Option {
	return func(c *Cache) {
		c.onHit = onHit
		c.onMiss = onMiss
	}
}

// New creates an empty cache. Call StartJanitor to enable background sweeps.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		onHit:   func() {},
		onMiss:  func() {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the stored value for key, or (nil, false) when absent or
// expired. An expired entry is removed on the spot.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.onMiss()
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry.
		if cur, ok := c.entries[key]; ok && time.Now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.onMiss()
		return nil, false
	}

	c.onHit()
	return e.value, true
}

// Set stores value under key for ttl. A zero or negative ttl is ignored.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// ExpiresAt reports the expiry instant of the live entry under key.
func (c *Cache) ExpiresAt(key string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return time.Time{}, false
	}
	return e.expiresAt, true
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// StartJanitor sweeps expired entries every interval until stop is closed.
func (c *Cache) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := c.sweep(); removed > 0 {
					log.Printf("[cache] janitor removed %d expired entries", removed)
				}
			case <-stop:
				return
			}
		}
	}()
}

func (c *Cache) sweep() int {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
