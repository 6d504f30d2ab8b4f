package cache

import "time"

// LayeredStore composes a memory layer over a disk layer. Reads check
// memory first and promote disk hits; writes go to both.
type LayeredStore struct {
	memory Store
	disk   Store
	ttl    time.Duration
}

// NewLayeredStore creates a layered store.
func NewLayeredStore(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredStore {
	return &LayeredStore{
		memory: NewMemoryStore(memoryTTL, 10*time.Minute),
		disk:   NewDiskStore(diskDir, diskTTL),
		ttl:    memoryTTL,
	}
}

// Get retrieves an entry, checking memory first, then disk.
func (s *LayeredStore) Get(key string) (*Entry, bool) {
	if entry, found := s.memory.Get(key); found {
		return entry, true
	}

	if entry, found := s.disk.Get(key); found {
		// Promote to memory for the remaining lifetime.
		remaining := time.Until(entry.ExpiresAt)
		if remaining > 0 {
			_ = s.memory.Set(key, entry, remaining)
		}
		return entry, true
	}

	return nil, false
}

// Set stores an entry in both layers.
func (s *LayeredStore) Set(key string, entry *Entry, ttl time.Duration) error {
	if err := s.memory.Set(key, entry, ttl); err != nil {
		return err
	}
	return s.disk.Set(key, entry, ttl)
}

// Delete removes an entry from both layers.
func (s *LayeredStore) Delete(key string) error {
	_ = s.memory.Delete(key)
	return s.disk.Delete(key)
}

// Clear removes all entries from both layers.
func (s *LayeredStore) Clear() error {
	_ = s.memory.Clear()
	return s.disk.Clear()
}
