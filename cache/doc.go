// Package cache provides a generic, sharded in-memory cache with pluggable
// eviction policies (LRU by default), per-entry TTL, singleflight loading,
// lightweight metrics hooks and cost-based capacity.
//
// Design
//
//   - Concurrency: the cache is split into shards, each protected by an
//     RWMutex. The default shard count is 2*GOMAXPROCS rounded up to a power
//     of two, so a key's shard is picked by masking its xxhash.
//
//   - Storage: each shard keeps a tripod list (see package list/tripod) in
//     MRU to LRU order and a map from key to the node's spare Ref. The list
//     owns two thirds of every node; the map owns the third. Removing any
//     entry is a map lookup plus an O(1) unlink through that Ref, with no
//     list walk. Each shard mints its own ghost token and guards it with the
//     shard lock, so node cells are only touched while the lock is held.
//
//   - Policies: eviction policy is pluggable via the policy package.
//     LRU is the default. A 2Q policy is provided (resists scan pollution);
//     its queues are tripod lists as well.
//
//   - TTL: entries can have per-item deadlines (UnixNano). Expiration is lazy
//     on Get; Peek reports expired entries as absent without evicting them.
//
//   - Cost/MaxCost: besides entry count (Capacity), you may account a
//     user-defined "cost" per value (Options.Cost) and enforce a global
//     MaxCost. Shards split the MaxCost budget evenly.
//
//   - GetOrLoad: coalesces concurrent loads for the same key using
//     singleflight. If Loader is nil, GetOrLoad returns ErrNoLoader.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size/Load signals.
//     By default NoopMetrics is used; metrics/prom exports them to Prometheus.
//
//   - Callbacks: Options.OnEvict(k, v, reason) is called for every eviction
//     (reason is one of EvictPolicy, EvictTTL, EvictCapacity).
//
// Basic usage
//
//	c := cache.New[string, []byte](cache.Options[string, []byte]{Capacity: 10_000})
//	defer c.Close()
//	c.Set("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Remove("a")
//
// With GetOrLoad
//
//	c := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 1024,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        return "v:" + k, nil
//	    },
//	})
//	v, err := c.GetOrLoad(context.Background(), "key")
//
// Using 2Q
//
//	c := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 50_000,
//	    Shards:   16,
//	    Policy:   twoq.New[string, string](800, 1600), // per-shard sizes
//	})
//
// All methods on Cache are safe for concurrent use.
package cache
