package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// entry is a memoized value together with the time it was stored.
type entry struct {
	value    any
	storedAt time.Time
}

// Cache is a thread-safe in-memory TTL cache. A background goroutine (Run)
// periodically evicts entries older than the TTL; Get treats expired
// entries as misses even before eviction.
type Cache struct {
	mu   sync.RWMutex
	data map[string]*entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		data: make(map[string]*entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores or replaces the value under key.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = &entry{value: value, storedAt: c.now()}
}

// Get returns the fresh value for key. Expired entries are misses.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.data[key]
	if !ok || !e.storedAt.After(c.now().Add(-c.ttl)) {
		return nil, false
	}
	return e.value, true
}

// Len returns the number of entries currently held, including expired ones
// the sweep has not reached yet.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Invalidate drops every entry. Called whenever the underlying snapshot
// changes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*entry)
}

// Evict removes entries stored before now minus TTL and returns the number
// removed.
func (c *Cache) Evict(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := now.Add(-c.ttl)
	removed := 0
	for key, e := range c.data {
		if !e.storedAt.After(cutoff) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

// Run blocks until ctx is cancelled, evicting expired entries every sweep
// interval.
func (c *Cache) Run(ctx context.Context, sweep time.Duration) {
	if sweep <= 0 {
		sweep = time.Minute
	}
	t := time.NewTicker(sweep)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := c.Evict(now); n > 0 {
				slog.Debug("cache: evicted expired entries", "count", n)
			}
		}
	}
}
