// Package cache is the read-result cache behind the discovery layer.
// It is a strict performance optimization: every operation may fail or
// the whole store may vanish and the system stays correct, just slower.
package cache

import (
	"context"
	"time"
)

// Store is the cache contract. Keys are namespaced strings
// ("search:...", "featured:..."); values are serialized result lists
// owned by the caller.
type Store interface {
	// Get returns the value for key if present and unexpired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeleteByPrefix removes every key in a namespace.
	DeleteByPrefix(ctx context.Context, prefix string) error
}
