// Package cache provides the persistent cache used to remember import
// classification results across bundling runs.
//
// Classification itself is a pure function of module name, registry version
// and project namespace, so cached entries never go stale within one
// registry version; the registry version is part of every key. The cache is
// strictly an optimization: every consumer must behave identically on a
// miss, and NullCache exists to disable caching entirely (--no-cache).
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface for cached entries.
// Implementations must treat a missing entry as (nil, false, nil), never as
// an error.
type Cache interface {
	// Get retrieves the value for key. The second return value reports
	// whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key if present. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// ClassificationKey builds the cache key for a module classification result.
// The registry version and namespace are part of the key so that upgrading
// the stdlib registry or renaming the project invalidates old entries.
func ClassificationKey(registryVersion, namespace, module string) string {
	return hashKey("classify", registryVersion, namespace, module)
}
