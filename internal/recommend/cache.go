package recommend

import (
	"slices"
	"sync"
	"time"
)

type cacheKey struct {
	UserID   uint
	Category string
	Limit    int
	UseML    bool
}

type cacheEntry struct {
	value     []Recommendation
	expiresAt time.Time
}

// CacheStats counts cache activity since creation.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// Cache holds recommendation lists for a fixed TTL. Expired entries are
// removed when they are next looked up.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	stats   CacheStats
}

// NewCache returns an empty cache. A non-positive ttl disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

func (c *Cache) get(key cacheKey) ([]Recommendation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		c.stats.Misses++
		c.stats.Evictions++
		return nil, false
	}
	c.stats.Hits++
	return slices.Clone(entry.value), true
}

func (c *Cache) set(key cacheKey, value []Recommendation) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: slices.Clone(value), expiresAt: c.now().Add(c.ttl)}
}

// Invalidate drops every entry cached for userID.
func (c *Cache) Invalidate(userID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.UserID == userID {
			delete(c.entries, key)
			c.stats.Evictions++
		}
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Evictions += int64(len(c.entries))
	clear(c.entries)
}

// Stats returns a copy of the counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.entries)
	return s
}
