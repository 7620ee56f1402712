package cache

import (
	"sync"
	"time"

	"github.com/IvanBrykalov/fraclist/ghost"
	"github.com/IvanBrykalov/fraclist/internal/util"
	"github.com/IvanBrykalov/fraclist/list/tripod"
	"github.com/IvanBrykalov/fraclist/policy"
)

// shard is an independent partition of the cache: a lock, the ghost token it
// guards, a recency list (head=MRU, tail=LRU) and an index from key to the
// spare Ref of the entry's list node.
type shard[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu      sync.RWMutex
	tok     *ghost.Token[shardBrand]
	lst     tripod.List[shardBrand, entry[K, V]]
	idx     map[K]tripod.Ref[shardBrand, entry[K, V]]
	cost    int64 // total cost (if MaxCost is enabled)
	cap     int   // per-shard entry capacity
	maxCost int64 // per-shard cost limit (0 = disabled)
	closed  bool  // set by Close; writes are dropped afterwards

	pol policy.ShardPolicy[K, V]
	opt Options[K, V]

	// ---- hot counters, one cache line each ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicUint64
	misses util.PaddedAtomicUint64
	evicts util.PaddedAtomicUint64
}

// newShard builds a shard with its own token. maxCost is the shard's part of
// Options.MaxCost.
func newShard[K comparable, V any](capacity int, maxCost int64, pol policy.Policy[K, V], opt Options[K, V]) *shard[K, V] {
	s := &shard[K, V]{
		tok:     ghost.NewToken[shardBrand](),
		idx:     make(map[K]tripod.Ref[shardBrand, entry[K, V]], capacity),
		cap:     capacity,
		maxCost: maxCost,
		opt:     opt,
	}
	s.pol = pol.New(shardHooks[K, V]{s: s})
	return s
}

// Add inserts a new entry at MRU. ttl is an absolute UnixNano deadline
// (0 = none). Returns false if the key already exists or the shard is closed.
func (s *shard[K, V]) Add(k K, v V, ttl int64, cost int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, exists := s.idx[k]; exists {
		return false
	}
	s.insertLocked(entry[K, V]{key: k, val: v, exp: ttl, cost: cost})
	return true
}

// Set inserts or updates an entry and promotes it. No-op once closed.
func (s *shard[K, V]) Set(k K, v V, ttl int64, cost int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if r, ok := s.idx[k]; ok {
		// Update in place through the token; the node is not relinked here.
		e := r.Get(s.tok)
		s.cost += int64(cost) - int64(e.cost)
		e.val, e.exp, e.cost = v, ttl, cost

		s.pol.OnUpdate(s.ref(k))
		s.enforceLimitsLocked()
		return
	}
	s.insertLocked(entry[K, V]{key: k, val: v, exp: ttl, cost: cost})
}

// Get returns the value and promotes the entry. An expired entry is evicted
// and reported as a miss.
func (s *shard[K, V]) Get(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.idx[k]
	if !ok {
		return s.missLocked()
	}
	e := r.Get(s.tok)
	if s.expiredLocked(e) {
		s.evictLocked(k, EvictTTL)
		return s.missLocked()
	}
	v := e.val

	s.pol.OnGet(s.ref(k))
	s.hits.Add(1)
	s.opt.Metrics.Hit()
	return v, true
}

// Peek returns the value without promotion. Expired entries read as absent
// but are left for the next Get or trim to evict.
func (s *shard[K, V]) Peek(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.idx[k]
	if !ok {
		var zero V
		return zero, false
	}
	e := r.Get(s.tok)
	if s.expiredLocked(e) {
		var zero V
		return zero, false
	}
	return e.val, true
}

// Remove deletes an entry by key. Returns true if the entry existed.
// Explicit removals are not evictions: no OnEvict, no eviction metric.
func (s *shard[K, V]) Remove(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.idx[k]
	if !ok {
		return false
	}
	s.pol.OnRemove(s.ref(k))
	s.unlinkLocked(k, r)
	s.opt.Metrics.Size(s.lst.Len(), s.cost)
	return true
}

// Len returns the number of resident entries.
func (s *shard[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lst.Len()
}

// Purge frees every node. The policy sees an OnRemove for each key first.
func (s *shard[K, V]) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
}

// Close purges the shard, frees the policy's own nodes and rejects later
// writes. Entries cannot reappear: the flag is checked under the same lock.
func (s *shard[K, V]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.purgeLocked()
	s.pol.Close()
}

// -------------------- internals (mu held) --------------------

func (s *shard[K, V]) purgeLocked() {
	for k := range s.idx {
		s.pol.OnRemove(s.ref(k))
	}
	s.lst.Clear()
	clear(s.idx)
	s.cost = 0
	s.opt.Metrics.Size(0, 0)
}

func (s *shard[K, V]) ref(k K) policy.Node[K, V] { return nodeRef[K]{key: k} }

func (s *shard[K, V]) missLocked() (V, bool) {
	s.misses.Add(1)
	s.opt.Metrics.Miss()
	var zero V
	return zero, false
}

func (s *shard[K, V]) expiredLocked(e *entry[K, V]) bool {
	if e.exp == 0 {
		return false
	}
	return s.now() > e.exp
}

func (s *shard[K, V]) now() int64 {
	if s.opt.Clock != nil {
		return s.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

// insertLocked links e at MRU, indexes its spare Ref and lets the policy react.
func (s *shard[K, V]) insertLocked(e entry[K, V]) {
	k, cost := e.key, e.cost
	s.idx[k] = s.lst.PushFront(e, s.tok)
	s.cost += int64(cost)

	if victim, ok := s.pol.OnAdd(s.ref(k)); ok {
		if _, resident := s.idx[victim]; resident {
			s.evictLocked(victim, EvictPolicy)
		}
	}
	s.enforceLimitsLocked()
}

// unlinkLocked removes k's node from the list and the index and returns the
// entry it held.
func (s *shard[K, V]) unlinkLocked(k K, r tripod.Ref[shardBrand, entry[K, V]]) entry[K, V] {
	e := s.lst.Remove(r, s.tok).Into()
	delete(s.idx, k)
	s.subCost(e.cost)
	return e
}

func (s *shard[K, V]) subCost(c int32) {
	s.cost -= int64(c)
	if s.cost < 0 {
		s.cost = 0
	}
}

// evictLocked removes a resident key and reports the eviction.
func (s *shard[K, V]) evictLocked(k K, reason EvictReason) {
	s.pol.OnRemove(s.ref(k))
	e := s.unlinkLocked(k, s.idx[k])
	s.evicted(e, reason)
}

// evictBackLocked pops the LRU node: the popped two thirds are joined with the
// spare third from the index to free the node. Reports false on an empty list.
func (s *shard[K, V]) evictBackLocked(reason EvictReason) bool {
	c, ok := s.lst.PopBack(s.tok)
	if !ok {
		return false
	}
	k := c.Get(s.tok).key
	s.pol.OnRemove(s.ref(k))
	e := tripod.Reclaim(c, s.idx[k]).Into()
	delete(s.idx, k)
	s.subCost(e.cost)
	s.evicted(e, reason)
	return true
}

func (s *shard[K, V]) evicted(e entry[K, V], reason EvictReason) {
	s.evicts.Add(1)
	s.opt.Metrics.Evict(reason)
	if cb := s.opt.OnEvict; cb != nil {
		cb(e.key, e.val, reason)
	}
}

// enforceLimitsLocked evicts from the LRU end until both the count and the
// cost limits hold.
func (s *shard[K, V]) enforceLimitsLocked() {
	for s.lst.Len() > s.cap && s.evictBackLocked(EvictPolicy) {
	}
	if s.maxCost > 0 {
		for s.cost > s.maxCost && s.evictBackLocked(EvictCapacity) {
		}
	}
	s.opt.Metrics.Size(s.lst.Len(), s.cost)
}

// -------------------- policy hooks --------------------

// shardHooks adapts the shard's list operations to policy.Hooks.
type shardHooks[K comparable, V any] struct{ s *shard[K, V] }

func (h shardHooks[K, V]) MoveToFront(n policy.Node[K, V]) {
	s := h.s
	k := n.Key()
	if r, ok := s.idx[k]; ok {
		s.idx[k] = s.lst.MoveToFront(r, s.tok)
	}
}
