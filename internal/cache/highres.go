package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/metrics"
)

// DefaultHighResCapacity is the number of full-resolution assets kept when
// no capacity is configured.
const DefaultHighResCapacity = 6

// ReleaseFunc reclaims the resources held by an evicted item. It runs while
// the entry is still present in the cache.
type ReleaseFunc func(item *asset.Item)

// HighRes is an LRU over full-resolution resources, bounded by entry count.
// It is not safe for concurrent use; the frame driver owns it.
type HighRes struct {
	entries  *lru.Cache[string, *asset.Item]
	capacity int
	release  ReleaseFunc
}

// NewHighRes creates a cache holding at most capacity entries.
func NewHighRes(capacity int, release ReleaseFunc) (*HighRes, error) {
	if capacity <= 0 {
		capacity = DefaultHighResCapacity
	}
	// Eviction is done by hand in Insert so the release runs before the
	// entry is removed; the underlying cache never evicts on its own.
	entries, err := lru.New[string, *asset.Item](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create high-res cache: %w", err)
	}
	return &HighRes{entries: entries, capacity: capacity, release: release}, nil
}

// Touch marks id as most recently used. It reports whether id is cached.
func (c *HighRes) Touch(id string) bool {
	_, ok := c.entries.Get(id)
	return ok
}

// Insert adds item as most recently used, evicting the least recently used
// entries while the cache is full. It returns the evicted items.
func (c *HighRes) Insert(item *asset.Item) []*asset.Item {
	if c.entries.Contains(item.ID) {
		c.entries.Add(item.ID, item)
		return nil
	}

	var evicted []*asset.Item
	for c.entries.Len() >= c.capacity {
		victim, ok := c.evictOldest()
		if !ok {
			break
		}
		evicted = append(evicted, victim)
	}
	c.entries.Add(item.ID, item)
	metrics.HighResCacheEntries.Set(float64(c.entries.Len()))
	return evicted
}

func (c *HighRes) evictOldest() (*asset.Item, bool) {
	_, victim, ok := c.entries.GetOldest()
	if !ok {
		return nil, false
	}
	if c.release != nil {
		c.release(victim)
	}
	c.entries.RemoveOldest()
	metrics.HighResEvictionsTotal.Inc()
	return victim, true
}

// Remove releases and drops id. It reports whether id was cached.
func (c *HighRes) Remove(id string) bool {
	item, ok := c.entries.Peek(id)
	if !ok {
		return false
	}
	if c.release != nil {
		c.release(item)
	}
	c.entries.Remove(id)
	metrics.HighResCacheEntries.Set(float64(c.entries.Len()))
	return true
}

// Purge releases every entry, oldest first.
func (c *HighRes) Purge() {
	for c.entries.Len() > 0 {
		if _, ok := c.evictOldest(); !ok {
			break
		}
	}
	metrics.HighResCacheEntries.Set(0)
}

// Contains reports whether id is cached without touching it.
func (c *HighRes) Contains(id string) bool {
	return c.entries.Contains(id)
}

// Len returns the number of cached entries.
func (c *HighRes) Len() int {
	return c.entries.Len()
}

// Capacity returns the entry bound.
func (c *HighRes) Capacity() int {
	return c.capacity
}

// Keys returns the cached ids from least to most recently used.
func (c *HighRes) Keys() []string {
	return c.entries.Keys()
}
