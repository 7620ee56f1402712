package cache

import (
	"context"
	"time"

	"github.com/IvanBrykalov/fraclist/policy"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictPolicy is chosen by the eviction policy, or the LRU tail when the
	// entry count exceeds Capacity.
	EvictPolicy EvictReason = iota
	// EvictTTL: expired, found on access.
	EvictTTL
	// EvictCapacity: removed to bring total cost under MaxCost.
	EvictCapacity
)

// String returns a stable lowercase name, usable as a metric label.
func (r EvictReason) String() string {
	switch r {
	case EvictTTL:
		return "ttl"
	case EvictCapacity:
		return "capacity"
	default:
		return "policy"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int, cost int64)
	// Load reports one Loader call made by GetOrLoad.
	Load(d time.Duration, err error)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the cache. Zero values are safe; New applies:
//   - nil Policy   => LRU
//   - Shards <= 0  => auto (rounded up to power of two)
//   - nil Metrics  => NoopMetrics
type Options[K comparable, V any] struct {
	// Capacity is the entry count limit (used together with MaxCost if set).
	Capacity int

	// Shards is the number of shards, rounded up to a power of two.
	// 0 picks 2*GOMAXPROCS (at most 256).
	Shards int

	// Policy is the eviction policy factory; nil => LRU.
	Policy policy.Policy[K, V]

	// DefaultTTL applies to Add/Set (0 = entries never expire).
	DefaultTTL time.Duration

	// Cost-based limiting (e.g., bytes). If Cost is non-nil and MaxCost > 0,
	// the cache evicts until both entry count and total cost limits are satisfied.
	Cost    func(v V) int // nil = all entries cost 0
	MaxCost int64         // total cost limit; 0 disables cost limiting

	// Loader fetches a value on miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)

	// OnEvict is called under the shard lock for every eviction (not for
	// Remove or Purge); keep it lightweight.
	OnEvict func(k K, v V, reason EvictReason)
	Metrics Metrics

	// Clock overrides the time source (tests). Nil => time.Now().
	Clock Clock
}
