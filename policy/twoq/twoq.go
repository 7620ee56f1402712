// Package twoq implements the 2Q eviction policy.
package twoq

import (
	"github.com/IvanBrykalov/fraclist/ghost"
	"github.com/IvanBrykalov/fraclist/list/tripod"
	"github.com/IvanBrykalov/fraclist/policy"
)

// twoqBrand brands the queues of every 2Q instance. Each instance mints its
// own token and is only called under its shard's lock.
type twoqBrand struct{}

// twoQ implements the 2Q eviction policy.
//
// Resident queues:
//   - A1in (younger queue): its own key list + index; admits first-time entries
//   - Am   (mature queue): resident keys not in inIdx; ordering is driven by shard hooks
//
// Ghost A1out: keys only (no values), tracks recently evicted A1in keys to give them
// a second chance (bypass A1in on re-admission).
//
// Both queues are tripod lists of keys, so removing a key from the middle of
// A1in (promotion on Get, explicit Remove) is O(1) via its indexed Ref.
//
// Concurrency: all methods are called under the shard lock.
type twoQ[K comparable, V any] struct {
	h   policy.Hooks[K, V]
	tok *ghost.Token[twoqBrand]

	capIn    int // A1in capacity (per-shard)
	capGhost int // A1out (ghost) capacity (per-shard)

	// A1in: MRU at front, LRU at back
	in    tripod.List[twoqBrand, K]
	inIdx map[K]tripod.Ref[twoqBrand, K]

	// A1out (ghosts): MRU at front, LRU at back
	ghosts   tripod.List[twoqBrand, K]
	ghostIdx map[K]tripod.Ref[twoqBrand, K]
}

// New constructs a 2Q policy factory.
// Common choices: capIn ≈ 25% of shard capacity; capGhost ≈ 50–100% of shard capacity.
// NOTE: When used with a sharded cache, pass *per-shard* sizes here.
func New[K comparable, V any](capIn, capGhost int) policy.Policy[K, V] {
	if capIn < 1 {
		capIn = 1
	}
	if capGhost < 1 {
		capGhost = 1
	}
	return twoQPolicy[K, V]{capIn: capIn, capGhost: capGhost}
}

type twoQPolicy[K comparable, V any] struct {
	capIn    int
	capGhost int
}

func (p twoQPolicy[K, V]) New(h policy.Hooks[K, V]) policy.ShardPolicy[K, V] {
	return &twoQ[K, V]{
		h:        h,
		tok:      ghost.NewToken[twoqBrand](),
		capIn:    p.capIn,
		capGhost: p.capGhost,
		inIdx:    make(map[K]tripod.Ref[twoqBrand, K]),
		ghostIdx: make(map[K]tripod.Ref[twoqBrand, K]),
	}
}

// OnAdd admission rules:
//   - If key is present in ghosts (A1out), it goes straight to Am and the
//     ghost entry is dropped.
//   - Otherwise admit into A1in.
//   - If A1in overflows, return its LRU key to the shard for eviction.
func (q *twoQ[K, V]) OnAdd(n policy.Node[K, V]) (evict K, ok bool) {
	k := n.Key()
	if r, hit := q.ghostIdx[k]; hit {
		q.ghosts.Remove(r, q.tok).Release()
		delete(q.ghostIdx, k)
		return evict, false
	}

	if r, dup := q.inIdx[k]; dup {
		q.inIdx[k] = q.in.MoveToFront(r, q.tok)
	} else {
		q.inIdx[k] = q.in.PushFront(k, q.tok)
	}

	if q.in.Len() > q.capIn {
		if lru, has := q.in.Back(q.tok); has {
			return lru, true
		}
	}
	return evict, false
}

// OnGet: if the key was in A1in, drop it from A1in (promotion to Am),
// then move it to MRU in the shard list.
func (q *twoQ[K, V]) OnGet(n policy.Node[K, V]) {
	k := n.Key()
	if r, ok := q.inIdx[k]; ok {
		q.in.Remove(r, q.tok).Release()
		delete(q.inIdx, k)
	}
	q.h.MoveToFront(n)
}

// OnUpdate follows OnGet semantics (updates count as recent use).
func (q *twoQ[K, V]) OnUpdate(n policy.Node[K, V]) { q.OnGet(n) }

// OnRemove:
//   - If the key was in A1in, remember it in ghosts (A1out), respecting capGhost.
//   - Removals from Am do NOT populate ghosts.
func (q *twoQ[K, V]) OnRemove(n policy.Node[K, V]) {
	k := n.Key()
	r, ok := q.inIdx[k]
	if !ok {
		return
	}
	// The A1in node is relinked into the ghost queue as is.
	delete(q.inIdx, k)
	node := q.in.Remove(r, q.tok)

	if old, dup := q.ghostIdx[k]; dup {
		q.ghosts.Remove(old, q.tok).Release()
	}
	q.ghostIdx[k] = q.ghosts.LinkFront(node, q.tok)

	for q.ghosts.Len() > q.capGhost {
		c, ok := q.ghosts.PopBack(q.tok)
		if !ok {
			break
		}
		gk := *c.Get(q.tok)
		tripod.Reclaim(c, q.ghostIdx[gk]).Release()
		delete(q.ghostIdx, gk)
	}
}

// Close frees both queues. Keys still in A1in or A1out are forgotten.
func (q *twoQ[K, V]) Close() {
	clear(q.inIdx)
	clear(q.ghostIdx)
	q.in.Clear()
	q.ghosts.Clear()
}
