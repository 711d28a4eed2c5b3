package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key does not exist or has expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a minimal expiring key-value store. It backs two concerns:
// single-use OAuth state tracking and short-lived repository-listing reuse
// during activity fan-out. T is the stored value type.
type Cache[T any] interface {
	// Get retrieves a value. Returns ErrCacheMiss if the key does not
	// exist or has expired.
	Get(ctx context.Context, key string) (T, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key string, value T, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any backing resources.
	Close() error
}
