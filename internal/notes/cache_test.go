package notes

import (
	"fmt"
	"testing"
	"time"
)

func TestCacheExpiresAfterTTL(t *testing.T) {
	c := NewCache(5*time.Second, 100)
	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }

	c.Set("tree", "v1")
	if v, ok := c.Get("tree"); !ok || v != "v1" {
		t.Fatalf("expected fresh hit, got %v %v", v, ok)
	}

	clock = clock.Add(4 * time.Second)
	if _, ok := c.Get("tree"); !ok {
		t.Fatalf("entry expired before TTL")
	}

	clock = clock.Add(time.Second)
	if _, ok := c.Get("tree"); ok {
		t.Fatalf("entry survived past TTL")
	}
}

func TestCacheEvictsSingleOldest(t *testing.T) {
	c := NewCache(time.Minute, 3)
	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
		clock = clock.Add(time.Second)
	}
	c.Set("k3", 3)

	if c.Len() != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", c.Len())
	}
	if _, ok := c.Get("k0"); ok {
		t.Fatalf("oldest entry k0 should have been evicted")
	}
	for _, key := range []string{"k1", "k2", "k3"} {
		if _, ok := c.Get(key); !ok {
			t.Fatalf("entry %s missing after eviction", key)
		}
	}
}

func TestCacheInvalidateKeys(t *testing.T) {
	c := NewCache(time.Minute, 100)
	c.Set("tree", 1)
	c.Set("folder_3", 2)
	c.Set("favorites", 3)

	c.Invalidate("tree", "folder_3")
	if _, ok := c.Get("tree"); ok {
		t.Fatalf("tree not invalidated")
	}
	if _, ok := c.Get("favorites"); !ok {
		t.Fatalf("favorites invalidated unexpectedly")
	}

	c.Invalidate()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after full invalidation, got %d", c.Len())
	}
}

func TestCacheDefaults(t *testing.T) {
	c := NewCache(0, 0)
	if c.ttl != 5*time.Second || c.max != 100 {
		t.Fatalf("unexpected defaults: ttl=%v max=%d", c.ttl, c.max)
	}
}
