// Package cache provides byte-level caching for converted trees, rendered
// artifacts and statistics tables.
//
// The Cache interface abstracts over backends: FileCache for CLI usage,
// RedisCache for server deployments, NullCache to disable caching. Keys
// are produced by a Keyer so that every consumer derives them the same
// way and scoped keyers can add namespace prefixes.
package cache

import (
	"context"
	"time"
)

// Default TTLs per artifact kind. Converted trees and rendered artifacts
// are pure functions of their keys, so the TTLs only bound disk usage.
const (
	TTLStats   = 7 * 24 * time.Hour
	TTLConvert = 24 * time.Hour
	TTLRender  = 24 * time.Hour
)

// Cache is a byte-level cache with per-entry TTLs.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss;
// errors are reserved for backend failures. A ttl of zero means the entry
// never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
