package cache

import (
	"context"
	"errors"
	"time"
)

// KeyPrefix namespaces verdict entries in a shared store.
const KeyPrefix = "sfs_cache_"

var ErrInvalidKey = errors.New("cache: invalid key")

// Stats describes what a store currently holds.
type Stats struct {
	Entries   int   `json:"entries"`
	SizeBytes int64 `json:"size_bytes"`
}

// Store is an expiring key-value backend. Get reports a miss, not an error,
// for absent or expired keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)

	// Cleanup removes expired entries and returns how many were dropped.
	Cleanup(ctx context.Context) (int, error)
}
