// Package frac implements fractional ownership handles: several handles share
// one heap allocation, each carrying a share N/D of its ownership, and only a
// handle holding D/D may free it.
//
// Fractions live in the type. N and D are type-level naturals built from Zero
// and Succ, so SplitOne and JoinOne are balanced by construction:
//
//	full := frac.New[node, frac.Three](n)   // Handle[node, Three, Three]
//	a, rest := frac.SplitOne(full)          // One + Two
//	b, c := frac.SplitOne(rest)             // One + One
//	two := frac.JoinOne(b, c)               // Two (asserts same allocation)
//	full = frac.JoinOne(a, two)             // Three
//	v := frac.IntoValue(full)               // only Handle[T, D, D] compiles
//
// Go cannot consume a value on use, so a handle copied after being split or
// joined is not rejected; the type only proves what each operation's
// arithmetic is. Freed allocations are poisoned: touching one through any
// stale handle panics, and so does freeing it twice.
//
// Split and Join are the run-time checked fallback for shares that are not
// known statically (an arbitrary k of N). They report mismatches as errors
// instead of failing to compile. The lists in this module only ever move one
// share at a time and use SplitOne and JoinOne exclusively.
package frac

import (
	"fmt"
	"reflect"
)

// Nat is a natural number encoded as a type.
type Nat interface{ N() int }

// Zero is the type-level 0.
type Zero struct{}

// N implements Nat.
func (Zero) N() int { return 0 }

// Succ is the type-level P+1.
type Succ[P Nat] struct{}

// N implements Nat.
func (Succ[P]) N() int {
	var p P
	return p.N() + 1
}

// Small naturals used by the lists.
type (
	One   = Succ[Zero]
	Two   = Succ[One]
	Three = Succ[Two]
)

func natOf[N Nat]() int {
	var n N
	return n.N()
}

// alloc is the shared allocation.
type alloc[T any] struct {
	val   T
	state *allocState
}

// Handle is an N/D share of one allocation holding a T.
// The zero Handle refers to nothing.
type Handle[T any, N, D Nat] struct {
	p *alloc[T]
}

// New allocates v and returns the full-fraction handle.
func New[T any, D Nat](v T) Handle[T, D, D] {
	if natOf[D]() < 1 {
		panic("frac: denominator must be >= 1")
	}
	a := &alloc[T]{val: v, state: &allocState{}}
	track(a, a.state)
	return Handle[T, D, D]{p: a}
}

// Valid reports whether h refers to an allocation.
func (h Handle[T, N, D]) Valid() bool { return h.p != nil }

// Fraction returns the share h carries.
func (h Handle[T, N, D]) Fraction() (num, den int) {
	return natOf[N](), natOf[D]()
}

// Get returns a pointer to the shared value. Any share may read; writes must be
// coordinated by whatever the value itself provides (the lists store branded
// cells here). Panics on a zero or freed handle.
func (h Handle[T, N, D]) Get() *T {
	return &h.live("get").val
}

func (h Handle[T, N, D]) live(op string) *alloc[T] {
	if h.p == nil {
		panic("frac: " + op + " on zero handle")
	}
	if h.p.state.freed.Load() {
		panic(fmt.Sprintf("frac: %s on freed %s", op, typeName[T]()))
	}
	return h.p
}

// Same reports whether a and b share one allocation.
func Same[T any, A, B, D Nat](a Handle[T, A, D], b Handle[T, B, D]) bool {
	return a.p != nil && a.p == b.p
}

// SplitOne peels a 1/D share off h. Splitting a 1/D handle is rejected
// at run time because it would mint a zero share.
func SplitOne[T any, P, D Nat](h Handle[T, Succ[P], D]) (Handle[T, One, D], Handle[T, P, D]) {
	h.live("split")
	if natOf[P]() == 0 {
		panic("frac: split of a 1/D handle")
	}
	return Handle[T, One, D]{p: h.p}, Handle[T, P, D]{p: h.p}
}

// JoinOne merges a 1/D share into b. The two handles must alias the same
// allocation; joining unrelated handles is a caller bug and panics.
func JoinOne[T any, P, D Nat](a Handle[T, One, D], b Handle[T, P, D]) Handle[T, Succ[P], D] {
	mustSame(a.p, b.p, "join")
	if natOf[P]()+1 > natOf[D]() {
		panic("frac: join exceeds the full fraction")
	}
	return Handle[T, Succ[P], D]{p: a.p}
}

// Split divides h into A/D and B/D. The arithmetic is checked at run time;
// prefer SplitOne where the shares are known statically.
func Split[A, B Nat, T any, N, D Nat](h Handle[T, N, D]) (Handle[T, A, D], Handle[T, B, D]) {
	h.live("split")
	a, b, n := natOf[A](), natOf[B](), natOf[N]()
	if a < 1 || b < 1 || a+b != n {
		panic(fmt.Sprintf("frac: split %d/D into %d+%d", n, a, b))
	}
	return Handle[T, A, D]{p: h.p}, Handle[T, B, D]{p: h.p}
}

// Join merges a and b into an N/D handle, checking both aliasing and
// arithmetic at run time.
func Join[N Nat, T any, A, B, D Nat](a Handle[T, A, D], b Handle[T, B, D]) Handle[T, N, D] {
	mustSame(a.p, b.p, "join")
	if natOf[A]()+natOf[B]() != natOf[N]() || natOf[N]() > natOf[D]() {
		panic(fmt.Sprintf("frac: join %d/D + %d/D into %d/D", natOf[A](), natOf[B](), natOf[N]()))
	}
	return Handle[T, N, D]{p: a.p}
}

// LiftUnchecked raises h by 1/D without a matching join.
//
// Correct only if, within the same operation, the caller discards another 1/D
// share of the same allocation without ever using it again. Otherwise the sum of
// live shares exceeds D/D and the allocation may be freed while still linked.
func LiftUnchecked[T any, P, D Nat](h Handle[T, P, D]) Handle[T, Succ[P], D] {
	h.live("lift")
	return Handle[T, Succ[P], D]{p: h.p}
}

// IntoValue frees the allocation and returns the value it held.
func IntoValue[T any, D Nat](h Handle[T, D, D]) T {
	a := h.live("free")
	v := a.val
	free(a)
	return v
}

// Release frees the allocation and drops its value (see Dropper).
func Release[T any, D Nat](h Handle[T, D, D]) {
	Drop(IntoValue(h))
}

func free[T any](a *alloc[T]) {
	if !a.state.freed.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("frac: double free of %s", typeName[T]()))
	}
	var zero T
	a.val = zero
	stats.frees.Add(1)
}

func mustSame[T any](a, b *alloc[T], op string) {
	if a == nil || b == nil {
		panic("frac: " + op + " on zero handle")
	}
	if a != b {
		panic(fmt.Sprintf("frac: %s of handles to different %s allocations", op, typeName[T]()))
	}
	if a.state.freed.Load() {
		panic(fmt.Sprintf("frac: %s on freed %s", op, typeName[T]()))
	}
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// Dropper is implemented by values that need cleanup when their allocation is
// released, mirroring a destructor.
type Dropper interface{ Drop() }

// Drop calls v.Drop if v (or &v) implements Dropper.
func Drop[T any](v T) {
	switch d := any(v).(type) {
	case Dropper:
		d.Drop()
	default:
		if d, ok := any(&v).(Dropper); ok {
			d.Drop()
		}
	}
}
