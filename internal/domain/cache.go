package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by CacheStore.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("key not found in cache")

// CacheStore is the narrow key-value-with-TTL interface backing identity and
// category caching. Implementations must provide atomic Get/Set/Ping; entries
// expire passively via TTL, there is no explicit invalidation path.
type CacheStore interface {
	// Get retrieves the value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}
