package notes

import (
	"sync"
	"time"
)

// Cache is a short-TTL, size-bounded map shared by all requests. One coarse
// lock guards every operation; critical sections are sub-millisecond, so
// contention is not worth finer locking. Mutations invalidate the whole
// cache, which bounds staleness by the TTL regardless of hit rate.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

func NewCache(ttl time.Duration, max int) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if max <= 0 {
		max = 100
	}
	return &Cache{
		ttl:     ttl,
		max:     max,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return entry.value, true
}

// Set stores the value and, when the entry count exceeds the bound, evicts
// the single oldest entry. Not LRU: insertion time decides, which is cheap
// and good enough for a 5-second window.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, storedAt: c.now()}
	if len(c.entries) <= c.max {
		return
	}
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
			first = false
		}
	}
	delete(c.entries, oldestKey)
}

// Invalidate drops the named keys, or everything when called with none.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(keys) == 0 {
		c.entries = make(map[string]cacheEntry)
		return
	}
	for _, key := range keys {
		delete(c.entries, key)
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
