package geoip

import (
	"context"
	"sync"
)

// LocationCache stores resolved locations keyed by IP. Staleness is
// acceptable; the cache is a best-effort shortcut in front of a network-bound
// resolver, not a source of truth.
type LocationCache interface {
	Get(ctx context.Context, ip string) (Location, bool)
	Set(ctx context.Context, ip string, loc Location)
}

// MemoryCache is a concurrent-safe bounded map. When the capacity is reached
// the whole map is cleared rather than evicting per entry; precision is not
// worth the bookkeeping for a heuristic input.
type MemoryCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]Location
}

// NewMemoryCache creates a cache holding at most capacity entries.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[string]Location, capacity),
	}
}

func (c *MemoryCache) Get(_ context.Context, ip string) (Location, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loc, ok := c.entries[ip]
	return loc, ok
}

func (c *MemoryCache) Set(_ context.Context, ip string, loc Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.capacity {
		c.entries = make(map[string]Location, c.capacity)
	}
	c.entries[ip] = loc
}

// Len reports the current number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ LocationCache = (*MemoryCache)(nil)
