// Package duo implements a doubly linked list whose nodes are owned in halves.
//
// Every node is one allocation split into two 1/2 shares. A share is held by
// each side that points at the node: the predecessor's next link (or the
// list's head) and the successor's prev link (or the list's tail). A
// single-node list holds both halves as head and tail. Popping a node joins
// its two halves back into the full handle and frees it, so nodes are
// reclaimed deterministically instead of waiting for the collector.
//
// Links live in ghost cells: the list reads and rewrites them through the
// caller's token. The list is not safe for concurrent use.
package duo

import (
	"github.com/IvanBrykalov/fraclist/ghost"
	"github.com/IvanBrykalov/fraclist/internal/frac"
)

type node[B, T any] struct {
	prev half[B, T]
	next half[B, T]
	val  T
}

// half is one of the two shares of a node.
type half[B, T any] struct {
	h frac.Handle[ghost.Cell[B, node[B, T]], frac.One, frac.Two]
}

func (x half[B, T]) valid() bool { return x.h.Valid() }

func (x half[B, T]) node(tok *ghost.Token[B]) *node[B, T] { return x.h.Get().Mut(tok) }

func (x half[B, T]) same(y half[B, T]) bool { return frac.Same(x.h, y.h) }

// List is a deque of T values branded with B. The zero List is empty and
// ready to use.
type List[B, T any] struct {
	head half[B, T]
	tail half[B, T]
	len  int
}

// New returns an empty list.
func New[B, T any]() *List[B, T] { return &List[B, T]{} }

// Len returns the number of values in the list.
func (l *List[B, T]) Len() int { return l.len }

func newHalves[B, T any](v T) (half[B, T], half[B, T]) {
	full := frac.New[ghost.Cell[B, node[B, T]], frac.Two](ghost.NewCell[B](node[B, T]{val: v}))
	a, b := frac.SplitOne(full)
	return half[B, T]{a}, half[B, T]{b}
}

// PushFront inserts v before the current head.
func (l *List[B, T]) PushFront(v T, tok *ghost.Token[B]) {
	a, b := newHalves[B](v)
	l.len++
	if !l.head.valid() {
		l.head, l.tail = a, b
		return
	}
	l.head.node(tok).prev = b
	a.node(tok).next = l.head
	l.head = a
}

// PushBack inserts v after the current tail.
func (l *List[B, T]) PushBack(v T, tok *ghost.Token[B]) {
	a, b := newHalves[B](v)
	l.len++
	if !l.tail.valid() {
		l.head, l.tail = a, b
		return
	}
	l.tail.node(tok).next = b
	a.node(tok).prev = l.tail
	l.tail = a
}

// PopFront removes and returns the head value.
func (l *List[B, T]) PopFront(tok *ghost.Token[B]) (T, bool) {
	if !l.head.valid() {
		var zero T
		return zero, false
	}
	head, tail := l.head, l.tail
	l.head, l.tail = half[B, T]{}, half[B, T]{}
	l.len--

	if head.same(tail) {
		return release(head, tail), true
	}

	hn := head.node(tok)
	next := hn.next
	hn.next = half[B, T]{}
	if !next.valid() {
		panic("duo: head of a multi-node list has no next")
	}
	nn := next.node(tok)
	other := nn.prev
	nn.prev = half[B, T]{}

	l.head, l.tail = next, tail
	return release(head, other), true
}

// PopBack removes and returns the tail value.
func (l *List[B, T]) PopBack(tok *ghost.Token[B]) (T, bool) {
	if !l.tail.valid() {
		var zero T
		return zero, false
	}
	head, tail := l.head, l.tail
	l.head, l.tail = half[B, T]{}, half[B, T]{}
	l.len--

	if head.same(tail) {
		return release(head, tail), true
	}

	tn := tail.node(tok)
	prev := tn.prev
	tn.prev = half[B, T]{}
	if !prev.valid() {
		panic("duo: tail of a multi-node list has no prev")
	}
	pn := prev.node(tok)
	other := pn.next
	pn.next = half[B, T]{}

	l.head, l.tail = head, prev
	return release(tail, other), true
}

// release joins both halves of a detached node, frees it and returns its value.
func release[B, T any](a, b half[B, T]) T {
	cell := frac.IntoValue(frac.JoinOne(a.h, b.h))
	return cell.Into().val
}

// Front returns the head value.
func (l *List[B, T]) Front(tok *ghost.Token[B]) (T, bool) {
	if !l.head.valid() {
		var zero T
		return zero, false
	}
	return l.head.node(tok).val, true
}

// Back returns the tail value.
func (l *List[B, T]) Back(tok *ghost.Token[B]) (T, bool) {
	if !l.tail.valid() {
		var zero T
		return zero, false
	}
	return l.tail.node(tok).val, true
}

// FrontMut returns a pointer to the head value, or nil if the list is empty.
func (l *List[B, T]) FrontMut(tok *ghost.Token[B]) *T {
	if !l.head.valid() {
		return nil
	}
	return &l.head.node(tok).val
}

// BackMut returns a pointer to the tail value, or nil if the list is empty.
func (l *List[B, T]) BackMut(tok *ghost.Token[B]) *T {
	if !l.tail.valid() {
		return nil
	}
	return &l.tail.node(tok).val
}

// Each calls fn for every value from head to tail until fn returns false.
func (l *List[B, T]) Each(tok *ghost.Token[B], fn func(v *T) bool) {
	for cur := l.head; cur.valid(); {
		n := cur.node(tok)
		if !fn(&n.val) {
			return
		}
		cur = n.next
	}
}

// Clear frees every node and drops the values (see frac.Dropper).
// It needs no token: tearing down touches only links no one else can reach.
func (l *List[B, T]) Clear() {
	cur := l.head
	l.head, l.tail = half[B, T]{}, half[B, T]{}
	l.len = 0
	for cur.valid() {
		n := cur.h.Get().UnsafeMut()
		next := n.next
		n.prev, n.next = half[B, T]{}, half[B, T]{}
		// The other half sits in next.prev (or was the tail); it is
		// abandoned here, so lifting cur to the full share is balanced.
		cell := frac.IntoValue(frac.LiftUnchecked(cur.h))
		frac.Drop(cell.Into().val)
		cur = next
	}
}
