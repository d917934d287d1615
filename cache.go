package fetch

import "sync"

// Cache is the two-level (source name -> identity -> value) mapping that
// backs dedup and batching decisions across a run. Keys are never removed
// during a run; it grows monotonically and is returned to the caller
// alongside the run's result.
//
// Cache is safe for concurrent Lookup/Insert, matching the runner's use of
// it between concurrent dispatch phases (mutation only ever happens on the
// runner's own goroutine, between iterations, but Lookup may be called
// from user code building a seed cache concurrently with other work).
type Cache struct {
	mu   sync.RWMutex
	data map[string]map[any]any
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{data: make(map[string]map[any]any)}
}

// Seed constructs a Cache pre-populated from entries, typically built with
// ResourceName/CacheID: Seed(map[string]map[any]any{"Simple": {1: 42}}).
func Seed(entries map[string]map[any]any) *Cache {
	c := NewCache()
	for sourceName, byID := range entries {
		inner := make(map[any]any, len(byID))
		for id, v := range byID {
			inner[id] = v
		}
		c.data[sourceName] = inner
	}
	return c
}

// Lookup reports whether a value is cached for (sourceName, identity), and
// returns it if so.
func (c *Cache) Lookup(sourceName string, identity any) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	byID, ok := c.data[sourceName]
	if !ok {
		return nil, false
	}
	v, ok := byID[identity]
	return v, ok
}

// Insert records value as the resolved result for (sourceName, identity).
// A cache entry, once inserted, is never overwritten by a later Insert of
// the same key within the same run — the first writer wins, matching the
// spec's "keys are never removed" monotonicity guarantee extended to
// writes (a DataSource is expected to be referentially transparent, so a
// second write would by construction carry an identical value).
func (c *Cache) Insert(sourceName string, identity any, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	byID, ok := c.data[sourceName]
	if !ok {
		byID = make(map[any]any)
		c.data[sourceName] = byID
	}
	if _, exists := byID[identity]; !exists {
		byID[identity] = value
	}
}

// Snapshot returns a deep-enough copy of the cache's contents suitable for
// returning to a caller without exposing the live, mutable map.
func (c *Cache) Snapshot() map[string]map[any]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]map[any]any, len(c.data))
	for sourceName, byID := range c.data {
		inner := make(map[any]any, len(byID))
		for id, v := range byID {
			inner[id] = v
		}
		out[sourceName] = inner
	}
	return out
}

// Len returns the total number of cached (sourceName, identity) entries,
// across all source names.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, byID := range c.data {
		n += len(byID)
	}
	return n
}
