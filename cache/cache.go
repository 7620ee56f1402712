package cache

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/fraclist/internal/singleflight"
	"github.com/IvanBrykalov/fraclist/internal/util"
	"github.com/IvanBrykalov/fraclist/policy/lru"
)

var (
	// ErrNoLoader is returned by GetOrLoad when Options.Loader is nil.
	ErrNoLoader = errorsNew("cache: no Loader provided")
	// ErrClosed is returned by GetOrLoad after Close.
	ErrClosed = errorsNew("cache: closed")
)

// errorsNew is a tiny local errors.New.
func errorsNew(s string) error { return &strErr{s} }

type strErr struct{ s string }

func (e *strErr) Error() string { return e.s }

// cache is a sharded in-memory KV store with a pluggable eviction policy.
type cache[K comparable, V any] struct {
	shards []*shard[K, V]
	hash   func(K) uint64
	closed atomic.Bool

	opt Options[K, V]

	// coalesces concurrent loads in GetOrLoad
	sf singleflight.Group[K, V]
}

// New constructs a cache. Capacity must be > 0. Defaults:
//   - nil Metrics  -> NoopMetrics
//   - nil Policy   -> LRU
//   - Shards <= 0  -> 2*GOMAXPROCS, rounded up to a power of two
//
// Capacity and MaxCost are split evenly across shards (rounding up).
func New[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	if opt.Capacity <= 0 {
		panic("cache: Capacity must be > 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.New[K, V]()
	}

	n := util.ShardCount(opt.Shards)
	perShardCap := (opt.Capacity + n - 1) / n
	var perShardCost int64
	if opt.Cost != nil && opt.MaxCost > 0 {
		perShardCost = (opt.MaxCost + int64(n) - 1) / int64(n)
	}

	shards := make([]*shard[K, V], n)
	for i := range shards {
		shards[i] = newShard(perShardCap, perShardCost, opt.Policy, opt)
	}
	return &cache[K, V]{
		shards: shards,
		hash:   util.Hash64[K],
		opt:    opt,
	}
}

// ---- Cache[K,V] implementation ----

func (c *cache[K, V]) Add(k K, v V) bool {
	if c.closed.Load() {
		return false
	}
	return c.getShard(k).Add(k, v, c.defaultDeadline(), c.costOf(v))
}

func (c *cache[K, V]) Set(k K, v V) {
	if c.closed.Load() {
		return
	}
	c.getShard(k).Set(k, v, c.defaultDeadline(), c.costOf(v))
}

func (c *cache[K, V]) SetWithTTL(k K, v V, ttl time.Duration) {
	if c.closed.Load() {
		return
	}
	c.getShard(k).Set(k, v, c.deadline(ttl), c.costOf(v))
}

func (c *cache[K, V]) Get(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.getShard(k).Get(k)
}

func (c *cache[K, V]) Peek(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.getShard(k).Peek(k)
}

func (c *cache[K, V]) Remove(k K) bool {
	if c.closed.Load() {
		return false
	}
	return c.getShard(k).Remove(k)
}

func (c *cache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.Len()
	}
	return total
}

func (c *cache[K, V]) Stats() Stats {
	var st Stats
	for _, s := range c.shards {
		st.Hits += s.hits.Load()
		st.Misses += s.misses.Load()
		st.Evictions += s.evicts.Load()
	}
	return st
}

func (c *cache[K, V]) Purge() {
	for _, s := range c.shards {
		s.Purge()
	}
}

// Close marks the cache closed and frees every entry together with the
// policies' own nodes. Safe to call twice. The fast-path flag only spares
// callers the shard lock; each shard rechecks its own flag under the lock,
// so a write racing with Close never survives it.
func (c *cache[K, V]) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	for _, s := range c.shards {
		s.Close()
	}
	return nil
}

func (c *cache[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	if c.closed.Load() {
		var zero V
		return zero, ErrClosed
	}
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	if c.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	return c.sf.Do(ctx, k, func() (V, error) {
		// Another flight may have filled k between our miss and now.
		if v, ok := c.Peek(k); ok {
			return v, nil
		}
		start := time.Now()
		v, err := c.opt.Loader(ctx, k)
		c.opt.Metrics.Load(time.Since(start), err)
		if err == nil {
			c.Set(k, v)
		}
		return v, err
	})
}

// ---- helpers ----

// getShard masks the key hash; len(c.shards) is a power of two.
func (c *cache[K, V]) getShard(k K) *shard[K, V] {
	return c.shards[util.ShardIndex(c.hash(k), len(c.shards))]
}

func (c *cache[K, V]) defaultDeadline() int64 {
	return c.deadline(c.opt.DefaultTTL)
}

// deadline converts a relative TTL into an absolute UnixNano deadline;
// ttl <= 0 yields 0 (no expiration).
func (c *cache[K, V]) deadline(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	now := time.Now().UnixNano()
	if c.opt.Clock != nil {
		now = c.opt.Clock.NowUnixNano()
	}
	return now + int64(ttl)
}

// costOf computes the per-entry cost, clamped to [0, MaxInt32].
func (c *cache[K, V]) costOf(v V) int32 {
	if c.opt.Cost == nil {
		return 0
	}
	iv := c.opt.Cost(v)
	if iv < 0 {
		iv = 0
	}
	if iv > math.MaxInt32 {
		iv = math.MaxInt32
	}
	return int32(iv)
}
