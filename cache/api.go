package cache

import (
	"context"
	"time"
)

// Cache is a sharded, in-memory key/value cache.
// All methods are safe for concurrent use by multiple goroutines.
//
// Every operation is O(1) expected: a map lookup under the shard lock plus a
// constant number of link rewrites in the shard's recency list.
type Cache[K comparable, V any] interface {
	// Add inserts k→v only if k is absent, using DefaultTTL.
	// Returns false if the key already exists (nothing is updated).
	Add(k K, v V) bool

	// Set inserts or updates k→v using DefaultTTL and promotes the entry.
	Set(k K, v V)

	// SetWithTTL is Set with a per-key TTL; ttl <= 0 means no expiration.
	SetWithTTL(k K, v V, ttl time.Duration)

	// Get returns the value for k and promotes the entry on hit.
	Get(k K) (V, bool)

	// Peek returns the value for k without promoting it or counting a hit.
	Peek(k K) (V, bool)

	// Remove deletes k and reports whether it was present.
	Remove(k K) bool

	// Len returns the number of resident entries across all shards.
	Len() int

	// Stats returns hit/miss/eviction counters.
	Stats() Stats

	// Purge drops every entry. OnEvict is not called.
	Purge()

	// GetOrLoad returns the value for k, loading it via Options.Loader on miss.
	// Concurrent loads of one key are coalesced. Returns ErrNoLoader without a
	// Loader and ErrClosed after Close.
	GetOrLoad(ctx context.Context, k K) (V, error)

	// Close purges the cache; later calls are no-ops (reads miss).
	Close() error
}
