package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ComputeFunc produces a cache entry on miss. It wraps the full
// backend-invoke / extract / validate chain.
type ComputeFunc func(ctx context.Context) (*Entry, error)

// ResponseCache is the content-addressed result cache. It guarantees
// at most one concurrent computation per fingerprint: concurrent
// callers for the same key block on the in-flight computation and
// share its result or error. Errors are never cached; the next caller
// recomputes from scratch.
//
// Eviction is TTL-based combined with a bounded-capacity LRU —
// whichever triggers first. Both are invisible to correctness: a
// lookup after eviction behaves exactly like a cold cache.
type ResponseCache struct {
	store      Store
	ttl        time.Duration
	maxEntries int
	group      singleflight.Group

	mu    sync.Mutex
	order []string // access order, least recently used first
}

// NewResponseCache creates a cache over the given store. Non-positive
// arguments fall back to the defaults (15 minutes, 100 entries).
func NewResponseCache(store Store, ttl time.Duration, maxEntries int) *ResponseCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &ResponseCache{
		store:      store,
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

type flightResult struct {
	entry *Entry
	hit   bool
}

// GetOrCompute returns the cached entry for the fingerprint, or runs
// compute exactly once across all concurrent callers and caches the
// successful result. The bool reports whether the entry came from
// cache.
func (c *ResponseCache) GetOrCompute(ctx context.Context, fingerprint string, compute ComputeFunc) (*Entry, bool, error) {
	if entry, ok := c.lookup(fingerprint); ok {
		return entry, true, nil
	}

	v, err, _ := c.group.Do(fingerprint, func() (interface{}, error) {
		// Re-check: a previous flight may have populated the store
		// between our miss and joining the group.
		if entry, ok := c.lookup(fingerprint); ok {
			return flightResult{entry: entry, hit: true}, nil
		}

		entry, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		entry.Fingerprint = fingerprint
		entry.CreatedAt = time.Now().UTC()
		entry.ExpiresAt = entry.CreatedAt.Add(c.ttl)
		c.put(fingerprint, entry)
		return flightResult{entry: entry, hit: false}, nil
	})
	// No Forget here: Do removes a completed key itself, and a late
	// Forget could detach a newer in-flight call, letting a second
	// compute start for the same fingerprint. Errors are not stored, so
	// a failed flight never poisons later attempts.
	if err != nil {
		return nil, false, err
	}
	res := v.(flightResult)
	return res.entry, res.hit, nil
}

// Invalidate removes an entry, forcing re-extraction on the next
// request with this fingerprint.
func (c *ResponseCache) Invalidate(fingerprint string) {
	c.mu.Lock()
	c.remove(fingerprint)
	c.mu.Unlock()

	if err := c.store.Delete(fingerprint); err != nil {
		log.Printf("cache.ResponseCache: delete %s: %v", fingerprint, err)
	}
}

// Clear drops every entry.
func (c *ResponseCache) Clear() error {
	c.mu.Lock()
	c.order = nil
	c.mu.Unlock()
	return c.store.Clear()
}

// Stats describes the cache configuration and current LRU occupancy.
func (c *ResponseCache) Stats() (size, maxEntries int, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order), c.maxEntries, c.ttl
}

func (c *ResponseCache) lookup(fingerprint string) (*Entry, bool) {
	entry, found := c.store.Get(fingerprint)
	if !found {
		c.mu.Lock()
		c.remove(fingerprint)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.touch(fingerprint)
	c.mu.Unlock()
	return entry, true
}

func (c *ResponseCache) put(fingerprint string, entry *Entry) {
	if err := c.store.Set(fingerprint, entry, c.ttl); err != nil {
		// A store write failure degrades to a cache miss for later
		// callers; the current caller still gets the result.
		log.Printf("cache.ResponseCache: store %s: %v", fingerprint, err)
		return
	}

	c.mu.Lock()
	c.touch(fingerprint)
	var evict []string
	for len(c.order) > c.maxEntries {
		evict = append(evict, c.order[0])
		c.order = c.order[1:]
	}
	c.mu.Unlock()

	for _, key := range evict {
		if err := c.store.Delete(key); err != nil {
			log.Printf("cache.ResponseCache: evict %s: %v", key, err)
		}
	}
}

// touch moves the key to the most-recently-used position. Caller
// holds mu.
func (c *ResponseCache) touch(fingerprint string) {
	c.remove(fingerprint)
	c.order = append(c.order, fingerprint)
}

// remove deletes the key from the access order. Caller holds mu.
func (c *ResponseCache) remove(fingerprint string) {
	for i, k := range c.order {
		if k == fingerprint {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
