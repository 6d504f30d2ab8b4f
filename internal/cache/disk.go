package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DiskStore implements persistent entry storage so validated results
// survive process restarts. Expiry is checked on read; expired files
// are removed lazily.
type DiskStore struct {
	dir string
	ttl time.Duration
}

// NewDiskStore creates a new disk store rooted at dir.
func NewDiskStore(dir string, ttl time.Duration) *DiskStore {
	return &DiskStore{dir: dir, ttl: ttl}
}

// Get retrieves an entry from disk if present and not expired.
func (s *DiskStore) Get(key string) (*Entry, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt file; treat as a miss and clean up.
		_ = os.Remove(s.path(key))
		return nil, false
	}

	if entry.Expired(time.Now()) {
		_ = os.Remove(s.path(key))
		return nil, false
	}
	return &entry, true
}

// Set writes an entry to disk.
func (s *DiskStore) Set(key string, entry *Entry, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.ttl
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// Delete removes an entry from disk.
func (s *DiskStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes all cached files.
func (s *DiskStore) Clear() error {
	return os.RemoveAll(s.dir)
}

// path generates the file path for a cache key. Keys carry a version
// prefix with characters unsafe for filenames, so hash them again.
func (s *DiskStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".cache")
}
