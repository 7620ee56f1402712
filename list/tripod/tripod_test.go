package tripod

import (
	"strings"
	"testing"

	"github.com/IvanBrykalov/fraclist/ghost"
	"github.com/IvanBrykalov/fraclist/internal/frac"
)

type brand struct{}

func collect[T any](l *List[brand, T], tok *ghost.Token[brand]) []T {
	var out []T
	l.Each(tok, func(v *T) bool {
		out = append(out, *v)
		return true
	})
	return out
}

func equal[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// pushAll appends vs at the back and returns their spare refs.
func pushAll[T any](l *List[brand, T], tok *ghost.Token[brand], vs ...T) []Ref[brand, T] {
	refs := make([]Ref[brand, T], len(vs))
	for i, v := range vs {
		refs[i] = l.PushBack(v, tok)
	}
	return refs
}

func mustPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", want)
		}
		if msg, _ := r.(string); !strings.Contains(msg, want) {
			t.Fatalf("panic %v does not mention %q", r, want)
		}
	}()
	fn()
}

// Removing c from [a b c d] leaves a b d.
func TestList_RemoveInteriorKeepsOrder(t *testing.T) {
	t.Parallel()

	tok := ghost.NewToken[brand]()
	l := New[brand, string]()
	refs := pushAll(l, tok, "a", "b", "c", "d")

	if got := l.Remove(refs[2], tok).Into(); got != "c" {
		t.Fatalf("Remove must return c, got %q", got)
	}
	if got := collect(l, tok); !equal(got, []string{"a", "b", "d"}) {
		t.Fatalf("want [a b d], got %v", got)
	}
	if l.Len() != 3 {
		t.Fatalf("Len want 3, got %d", l.Len())
	}

	// Links were rewired both ways: popping from the back walks prev links.
	var back []string
	for {
		c, ok := l.PopBack(tok)
		if !ok {
			break
		}
		v := *c.Get(tok)
		back = append(back, v)
		idx := map[string]int{"a": 0, "b": 1, "d": 3}[v]
		_ = Reclaim(c, refs[idx]).Into()
	}
	if !equal(back, []string{"d", "b", "a"}) {
		t.Fatalf("want [d b a] from the back, got %v", back)
	}
}

func TestList_RemoveSoleElementEmptiesList(t *testing.T) {
	t.Parallel()

	tok := ghost.NewToken[brand]()
	l := New[brand, int]()
	r := l.PushFront(1, tok)

	if got := l.Remove(r, tok).Into(); got != 1 {
		t.Fatalf("want 1, got %d", got)
	}
	if _, ok := l.PopFront(tok); ok {
		t.Fatal("PopFront must report empty")
	}
	if _, ok := l.PopBack(tok); ok {
		t.Fatal("PopBack must report empty")
	}
	if l.Len() != 0 {
		t.Fatal("Len must be 0")
	}
}

// Removing the head (tail) leaves the same state as PopFront (PopBack).
func TestList_RemoveEndsMatchesPop(t *testing.T) {
	t.Parallel()

	tok := ghost.NewToken[brand]()
	for _, end := range []string{"head", "tail"} {
		viaRemove := New[brand, int]()
		viaPop := New[brand, int]()
		rr := pushAll(viaRemove, tok, 1, 2, 3)
		pr := pushAll(viaPop, tok, 1, 2, 3)

		if end == "head" {
			_ = viaRemove.Remove(rr[0], tok).Into()
			c, _ := viaPop.PopFront(tok)
			_ = Reclaim(c, pr[0]).Into()
		} else {
			_ = viaRemove.Remove(rr[2], tok).Into()
			c, _ := viaPop.PopBack(tok)
			_ = Reclaim(c, pr[2]).Into()
		}

		a, b := collect(viaRemove, tok), collect(viaPop, tok)
		if !equal(a, b) || viaRemove.Len() != viaPop.Len() {
			t.Fatalf("%s: remove gave %v, pop gave %v", end, a, b)
		}
		fa, _ := viaRemove.Front(tok)
		fb, _ := viaPop.Front(tok)
		ba, _ := viaRemove.Back(tok)
		bb, _ := viaPop.Back(tok)
		if fa != fb || ba != bb {
			t.Fatalf("%s: ends differ: %d/%d vs %d/%d", end, fa, ba, fb, bb)
		}
		viaRemove.Clear()
		viaPop.Clear()
	}
}

// MoveToFront relinks without allocating and keeps ref identity.
// Not parallel: it reads process-wide allocation counters.
func TestList_MoveToFront(t *testing.T) {
	tok := ghost.NewToken[brand]()
	l := New[brand, int]()
	refs := pushAll(l, tok, 1, 2, 3)

	before := frac.ReadStats().Allocs
	moved := l.MoveToFront(refs[1], tok)
	if moved != refs[1] {
		t.Fatal("MoveToFront must keep ref identity")
	}
	if frac.ReadStats().Allocs != before {
		t.Fatal("MoveToFront must not allocate a node")
	}
	if got := collect(l, tok); !equal(got, []int{2, 1, 3}) {
		t.Fatalf("want [2 1 3], got %v", got)
	}
	if l.MoveToFront(moved, tok) != moved {
		t.Fatal("moving the head is a no-op")
	}
	l.Clear()
}

func TestList_LinkDetachedNode(t *testing.T) {
	t.Parallel()

	tok := ghost.NewToken[brand]()
	l := New[brand, string]()
	n := NewNode[brand]("x")
	*n.Value() += "y"

	r := l.LinkBack(n, tok)
	l.PushFront("a", tok)
	if got := *r.Get(tok); got != "xy" {
		t.Fatalf("want xy, got %q", got)
	}
	if v, ok := l.Back(tok); !ok || v != "xy" {
		t.Fatalf("Back want xy, got %q", v)
	}
	*l.FrontMut(tok) = "A"
	*l.BackMut(tok) = "XY"
	if got := collect(l, tok); !equal(got, []string{"A", "XY"}) {
		t.Fatalf("unexpected contents %v", got)
	}
	l.Clear()
}

func TestList_Misuse(t *testing.T) {
	t.Parallel()

	tok := ghost.NewToken[brand]()
	l := New[brand, int]()
	mustPanic(t, "empty list", func() { l.Remove(Ref[brand, int]{}, tok) })

	r1 := l.PushBack(1, tok)
	l.PushBack(2, tok)
	mustPanic(t, "zero Ref", func() { l.Remove(Ref[brand, int]{}, tok) })

	c, _ := l.PopBack(tok)
	mustPanic(t, "different", func() { Reclaim(c, r1) })
	l.Clear()
}

type tracked struct{ live *int }

func (x tracked) Drop() { *x.live-- }

// Removing and re-inserting leaves every allocation reconciled.
func TestList_RemoveReinsertReconciles(t *testing.T) {
	before := frac.ReadStats()

	tok := ghost.NewToken[brand]()
	live := 0
	l := New[brand, tracked]()
	refs := make([]Ref[brand, tracked], 0, 10)
	for i := 0; i < 10; i++ {
		live++
		refs = append(refs, l.PushBack(tracked{live: &live}, tok))
	}
	// Detach every other node and relink it at the front.
	for i := 0; i < len(refs); i += 2 {
		refs[i] = l.LinkFront(l.Remove(refs[i], tok), tok)
	}
	// Remove interior and end nodes outright.
	for _, i := range []int{3, 0, 9} {
		l.Remove(refs[i], tok).Release()
	}
	if live != 7 || l.Len() != 7 {
		t.Fatalf("want 7 live values, got live=%d len=%d", live, l.Len())
	}
	l.Clear()

	after := frac.ReadStats()
	if live != 0 {
		t.Fatalf("every value must be dropped, live=%d", live)
	}
	if after.Allocs-before.Allocs != after.Frees-before.Frees {
		t.Fatalf("allocations not reconciled: %d allocs, %d frees",
			after.Allocs-before.Allocs, after.Frees-before.Frees)
	}
}

// Refs of freed nodes are poisoned.
func TestList_StaleRefPanics(t *testing.T) {
	t.Parallel()

	tok := ghost.NewToken[brand]()
	l := New[brand, int]()
	r := l.PushBack(1, tok)
	_ = l.Remove(r, tok).Into()

	mustPanic(t, "freed", func() { _ = r.Get(tok) })
}

func TestList_EachStopsEarly(t *testing.T) {
	t.Parallel()

	tok := ghost.NewToken[brand]()
	l := New[brand, int]()
	pushAll(l, tok, 1, 2, 3, 4)

	seen := 0
	l.Each(tok, func(v *int) bool {
		seen++
		return *v < 2
	})
	if seen != 2 {
		t.Fatalf("Each must stop after the callback returns false, saw %d", seen)
	}
	l.Clear()
}
