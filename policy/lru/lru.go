// Package lru implements the LRU eviction policy.
package lru

import "github.com/IvanBrykalov/fraclist/policy"

// lru is a classic "move-to-front" Least-Recently-Used policy.
// The shard already keeps its list in recency order, so LRU only promotes.
type lru[K comparable, V any] struct {
	h policy.Hooks[K, V]
}

type lruPolicy[K comparable, V any] struct{}

// New returns a Policy factory that constructs per-shard LRU instances.
func New[K comparable, V any]() policy.Policy[K, V] { return lruPolicy[K, V]{} }

// New implements policy.Policy by binding shard hooks and returning
// a shard-local policy instance.
func (lruPolicy[K, V]) New(h policy.Hooks[K, V]) policy.ShardPolicy[K, V] {
	return &lru[K, V]{h: h}
}

// OnAdd never proposes an eviction; the shard trims the LRU end itself
// when capacity or cost limits are exceeded.
func (p *lru[K, V]) OnAdd(policy.Node[K, V]) (evict K, ok bool) {
	return evict, false
}

// OnGet promotes the entry to MRU.
func (p *lru[K, V]) OnGet(n policy.Node[K, V]) { p.h.MoveToFront(n) }

// OnUpdate promotes the entry to MRU (updates are treated as recent use).
func (p *lru[K, V]) OnUpdate(n policy.Node[K, V]) { p.h.MoveToFront(n) }

// OnRemove is a no-op for pure LRU.
func (p *lru[K, V]) OnRemove(policy.Node[K, V]) {}

// Close is a no-op: LRU keeps no state of its own.
func (p *lru[K, V]) Close() {}
