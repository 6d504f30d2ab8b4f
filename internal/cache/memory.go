package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore implements in-memory entry storage with TTL expiry and
// a background janitor.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a new memory store.
func NewMemoryStore(defaultTTL, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves an entry if present and not expired.
func (s *MemoryStore) Get(key string) (*Entry, bool) {
	val, found := s.cache.Get(key)
	if !found {
		return nil, false
	}
	entry := val.(*Entry)
	// go-cache already honors its own TTL; the entry carries its own
	// ExpiresAt too (the disk layer relies on it), so re-check.
	if entry.Expired(time.Now()) {
		s.cache.Delete(key)
		return nil, false
	}
	return entry, true
}

// Set stores an entry with the given TTL.
func (s *MemoryStore) Set(key string, entry *Entry, ttl time.Duration) error {
	s.cache.Set(key, entry, ttl)
	return nil
}

// Delete removes an entry.
func (s *MemoryStore) Delete(key string) error {
	s.cache.Delete(key)
	return nil
}

// Clear removes all entries.
func (s *MemoryStore) Clear() error {
	s.cache.Flush()
	return nil
}

// Len returns the number of stored entries, expired items included
// until the janitor runs.
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
