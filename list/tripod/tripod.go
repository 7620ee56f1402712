// Package tripod implements a doubly linked list whose nodes are owned in
// thirds, so that one share of every node can live outside the list.
//
// A linked node's three 1/3 shares are held by:
//   - the predecessor's next link, or the list head;
//   - the successor's prev link, or the list tail;
//   - the caller, as the Ref returned by PushFront/PushBack/LinkFront/LinkBack.
//
// The caller keeps that Ref in an index (typically map[K]Ref) and later hands
// it to Remove, which unlinks the node in O(1) and returns the full share as an
// Owned node. This is the recency list of an LRU cache: lookups go through the
// map, promotions are Remove+LinkFront, and evictions pop the tail.
//
// Links and values live in ghost cells and are only touched through the
// caller's token. The list is not safe for concurrent use.
package tripod

import (
	"github.com/IvanBrykalov/fraclist/ghost"
	"github.com/IvanBrykalov/fraclist/internal/frac"
)

type node[B, T any] struct {
	prev Ref[B, T]
	next Ref[B, T]
	val  T
}

// Ref is a one-third share of a node. The zero Ref refers to nothing.
// Refs of the same node compare equal.
type Ref[B, T any] struct {
	h frac.Handle[ghost.Cell[B, node[B, T]], frac.One, frac.Three]
}

// Valid reports whether r refers to a node.
func (r Ref[B, T]) Valid() bool { return r.h.Valid() }

// Get returns a pointer to the node's value.
func (r Ref[B, T]) Get(tok *ghost.Token[B]) *T { return &r.node(tok).val }

func (r Ref[B, T]) node(tok *ghost.Token[B]) *node[B, T] { return r.h.Get().Mut(tok) }

func (r Ref[B, T]) same(o Ref[B, T]) bool { return frac.Same(r.h, o.h) }

// Claim is the two-thirds share of a node popped from either end. Joined with
// the node's outstanding Ref (see Reclaim) it becomes the full Owned node.
type Claim[B, T any] struct {
	h frac.Handle[ghost.Cell[B, node[B, T]], frac.Two, frac.Three]
}

// Get returns a pointer to the popped node's value.
func (c Claim[B, T]) Get(tok *ghost.Token[B]) *T { return &c.h.Get().Mut(tok).val }

// Owned is full ownership of a node that is not linked in any list.
type Owned[B, T any] struct {
	h frac.Handle[ghost.Cell[B, node[B, T]], frac.Three, frac.Three]
}

// NewNode allocates a detached node holding v.
func NewNode[B, T any](v T) Owned[B, T] {
	return Owned[B, T]{h: frac.New[ghost.Cell[B, node[B, T]], frac.Three](ghost.NewCell[B](node[B, T]{val: v}))}
}

// Valid reports whether o holds a node.
func (o Owned[B, T]) Valid() bool { return o.h.Valid() }

// Value returns a pointer to the value. Full ownership needs no token.
func (o Owned[B, T]) Value() *T { return &o.h.Get().UnsafeMut().val }

// Into frees the node and returns its value.
func (o Owned[B, T]) Into() T {
	cell := frac.IntoValue(o.h)
	return cell.Into().val
}

// Release frees the node and drops its value (see frac.Dropper).
func (o Owned[B, T]) Release() { frac.Drop(o.Into()) }

// Reclaim joins a popped node's Claim with its outstanding Ref.
// Panics if they belong to different nodes.
func Reclaim[B, T any](c Claim[B, T], r Ref[B, T]) Owned[B, T] {
	return Owned[B, T]{h: frac.JoinOne(r.h, c.h)}
}

// List is a doubly linked list of T values branded with B. The zero List is
// empty and ready to use.
type List[B, T any] struct {
	head Ref[B, T]
	tail Ref[B, T]
	len  int
}

// New returns an empty list.
func New[B, T any]() *List[B, T] { return &List[B, T]{} }

// Len returns the number of linked nodes.
func (l *List[B, T]) Len() int { return l.len }

func thirds[B, T any](o Owned[B, T]) (Ref[B, T], Ref[B, T], Ref[B, T]) {
	x, rest := frac.SplitOne(o.h)
	y, z := frac.SplitOne(rest)
	return Ref[B, T]{x}, Ref[B, T]{y}, Ref[B, T]{z}
}

// LinkFront links a detached node at the head and returns its spare Ref.
func (l *List[B, T]) LinkFront(o Owned[B, T], tok *ghost.Token[B]) Ref[B, T] {
	a, b, spare := thirds(o)
	l.len++
	if !l.head.Valid() {
		l.head, l.tail = a, b
		return spare
	}
	l.head.node(tok).prev = b
	a.node(tok).next = l.head
	l.head = a
	return spare
}

// LinkBack links a detached node at the tail and returns its spare Ref.
func (l *List[B, T]) LinkBack(o Owned[B, T], tok *ghost.Token[B]) Ref[B, T] {
	a, b, spare := thirds(o)
	l.len++
	if !l.tail.Valid() {
		l.head, l.tail = a, b
		return spare
	}
	l.tail.node(tok).next = b
	a.node(tok).prev = l.tail
	l.tail = a
	return spare
}

// PushFront allocates v at the head and returns its spare Ref.
func (l *List[B, T]) PushFront(v T, tok *ghost.Token[B]) Ref[B, T] {
	return l.LinkFront(NewNode[B](v), tok)
}

// PushBack allocates v at the tail and returns its spare Ref.
func (l *List[B, T]) PushBack(v T, tok *ghost.Token[B]) Ref[B, T] {
	return l.LinkBack(NewNode[B](v), tok)
}

// PopFront unlinks the head. The node's spare Ref is still outstanding, so
// the result is a Claim to be joined with it via Reclaim.
func (l *List[B, T]) PopFront(tok *ghost.Token[B]) (Claim[B, T], bool) {
	if !l.head.Valid() {
		return Claim[B, T]{}, false
	}
	head, tail := l.head, l.tail
	l.head, l.tail = Ref[B, T]{}, Ref[B, T]{}
	l.len--

	if head.same(tail) {
		return Claim[B, T]{frac.JoinOne(head.h, tail.h)}, true
	}

	hn := head.node(tok)
	next := hn.next
	hn.next = Ref[B, T]{}
	if !next.Valid() {
		panic("tripod: head of a multi-node list has no next")
	}
	nn := next.node(tok)
	other := nn.prev
	nn.prev = Ref[B, T]{}

	l.head, l.tail = next, tail
	return Claim[B, T]{frac.JoinOne(head.h, other.h)}, true
}

// PopBack unlinks the tail; see PopFront.
func (l *List[B, T]) PopBack(tok *ghost.Token[B]) (Claim[B, T], bool) {
	if !l.tail.Valid() {
		return Claim[B, T]{}, false
	}
	head, tail := l.head, l.tail
	l.head, l.tail = Ref[B, T]{}, Ref[B, T]{}
	l.len--

	if head.same(tail) {
		return Claim[B, T]{frac.JoinOne(tail.h, head.h)}, true
	}

	tn := tail.node(tok)
	prev := tn.prev
	tn.prev = Ref[B, T]{}
	if !prev.Valid() {
		panic("tripod: tail of a multi-node list has no prev")
	}
	pn := prev.node(tok)
	other := pn.next
	pn.next = Ref[B, T]{}

	l.head, l.tail = head, prev
	return Claim[B, T]{frac.JoinOne(tail.h, other.h)}, true
}

// Remove unlinks the node r refers to and returns it fully owned.
//
// r must be the spare Ref of a node linked in l. Passing a Ref of another list
// or of a node already removed is a caller bug; it panics when detected and
// otherwise corrupts both lists.
func (l *List[B, T]) Remove(r Ref[B, T], tok *ghost.Token[B]) Owned[B, T] {
	if !l.head.Valid() {
		panic("tripod: remove from an empty list")
	}
	if !r.Valid() {
		panic("tripod: remove of a zero Ref")
	}

	switch atHead, atTail := r.same(l.head), r.same(l.tail); {
	case atHead && atTail:
		two := frac.JoinOne(l.head.h, l.tail.h)
		l.head, l.tail = Ref[B, T]{}, Ref[B, T]{}
		l.len--
		return Owned[B, T]{frac.JoinOne(r.h, two)}
	case atHead:
		c, _ := l.PopFront(tok)
		return Reclaim(c, r)
	case atTail:
		c, _ := l.PopBack(tok)
		return Reclaim(c, r)
	}

	n := r.node(tok)
	prev, next := n.prev, n.next
	n.prev, n.next = Ref[B, T]{}, Ref[B, T]{}
	if !prev.Valid() || !next.Valid() {
		panic("tripod: remove of a node not linked in this list")
	}
	pn, nn := prev.node(tok), next.node(tok)
	a, b := pn.next, nn.prev
	if !a.same(r) || !b.same(r) {
		panic("tripod: neighbours do not link back to the removed node")
	}
	pn.next, nn.prev = Ref[B, T]{}, Ref[B, T]{}

	l.splice(prev, next, tok)
	l.len--
	return Owned[B, T]{frac.JoinOne(r.h, frac.JoinOne(a.h, b.h))}
}

// splice links prev -> next across a removed node. prev is the predecessor's
// share the removed node held; it moves into next's prev link. To still write
// the predecessor's next link, prev is lifted to two thirds and split: one
// third is installed, the other is used for the write and then abandoned,
// which cancels the lift.
func (l *List[B, T]) splice(prev, next Ref[B, T], tok *ghost.Token[B]) {
	bridge, moved := frac.SplitOne(frac.LiftUnchecked(prev.h))
	next.node(tok).prev = Ref[B, T]{moved}
	br := Ref[B, T]{bridge}
	br.node(tok).next = next
}

// MoveToFront relinks the node r refers to at the head and returns its new
// spare Ref. It never reallocates.
func (l *List[B, T]) MoveToFront(r Ref[B, T], tok *ghost.Token[B]) Ref[B, T] {
	if r.same(l.head) {
		return r
	}
	return l.LinkFront(l.Remove(r, tok), tok)
}

// Front returns the head value.
func (l *List[B, T]) Front(tok *ghost.Token[B]) (T, bool) {
	if !l.head.Valid() {
		var zero T
		return zero, false
	}
	return *l.head.Get(tok), true
}

// Back returns the tail value.
func (l *List[B, T]) Back(tok *ghost.Token[B]) (T, bool) {
	if !l.tail.Valid() {
		var zero T
		return zero, false
	}
	return *l.tail.Get(tok), true
}

// FrontMut returns a pointer to the head value, or nil if the list is empty.
func (l *List[B, T]) FrontMut(tok *ghost.Token[B]) *T {
	if !l.head.Valid() {
		return nil
	}
	return l.head.Get(tok)
}

// BackMut returns a pointer to the tail value, or nil if the list is empty.
func (l *List[B, T]) BackMut(tok *ghost.Token[B]) *T {
	if !l.tail.Valid() {
		return nil
	}
	return l.tail.Get(tok)
}

// Each calls fn for every value from head to tail until fn returns false.
func (l *List[B, T]) Each(tok *ghost.Token[B], fn func(v *T) bool) {
	for cur := l.head; cur.Valid(); {
		n := cur.node(tok)
		if !fn(&n.val) {
			return
		}
		cur = n.next
	}
}

// Clear frees every node and drops the values. Spare Refs held by callers
// become dangling: using one afterwards panics.
func (l *List[B, T]) Clear() {
	cur := l.head
	l.head, l.tail = Ref[B, T]{}, Ref[B, T]{}
	l.len = 0
	for cur.Valid() {
		n := cur.h.Get().UnsafeMut()
		next := n.next
		n.prev, n.next = Ref[B, T]{}, Ref[B, T]{}
		// The neighbour's share and the caller's spare are abandoned.
		full := Owned[B, T]{frac.LiftUnchecked(frac.LiftUnchecked(cur.h))}
		full.Release()
		cur = next
	}
}
