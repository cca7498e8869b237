package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileCache keeps conversion artifacts (serialized trees, rendered
// drawings) on the local filesystem, one file per entry, sharded by key
// hash. Each file carries its own expiry, so there is no index to
// maintain; stale or unreadable entries are dropped the next time they
// are read.
type FileCache struct {
	dir string
}

// NewFileCache creates a file cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// envelope is the on-disk form of one entry. A zero Expires means the
// entry never expires.
type envelope struct {
	Payload []byte    `json:"data"`
	Expires time.Time `json:"expires_at"`
}

func (e envelope) stale(now time.Time) bool {
	return !e.Expires.IsZero() && now.After(e.Expires)
}

// Get returns the artifact stored under key, if present and fresh.
func (fc *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := fc.path(key)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil || e.stale(time.Now()) {
		// Corrupt or expired entries count as misses and are reclaimed
		// here rather than by a background sweep.
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Payload, true, nil
}

// Set stores an artifact under key. A positive ttl bounds its lifetime;
// zero keeps it until overwritten or deleted.
func (fc *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := envelope{Payload: data}
	if ttl > 0 {
		e.Expires = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := fc.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

// Delete removes the entry under key. Deleting an absent key is not an
// error.
func (fc *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(fc.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Close is a no-op; the cache holds no open handles between calls.
func (fc *FileCache) Close() error { return nil }

// path maps a key to its file. The first two digest characters shard
// entries across subdirectories so a large corpus does not pile every
// artifact into one directory.
func (fc *FileCache) path(key string) string {
	digest := Hash([]byte(key))
	return filepath.Join(fc.dir, digest[:2], digest[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
