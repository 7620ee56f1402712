package frac

import (
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// mustPanic runs fn and fails unless it panics with a message containing want.
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

type dropCounter struct{ n *int }

func (d dropCounter) Drop() { *d.n++ }

func TestNat_Values(t *testing.T) {
	t.Parallel()

	if natOf[Zero]() != 0 || natOf[One]() != 1 || natOf[Two]() != 2 || natOf[Three]() != 3 {
		t.Fatal("type-level naturals have wrong values")
	}
	if natOf[Succ[Three]]() != 4 {
		t.Fatal("Succ must add one")
	}
}

// Thirds: split 3 -> 1+2 -> 1+1+1, join back and free.
func TestSplitJoin_Thirds(t *testing.T) {
	t.Parallel()

	full := New[int, Three](7)
	if n, d := full.Fraction(); n != 3 || d != 3 {
		t.Fatalf("New must return 3/3, got %d/%d", n, d)
	}

	a, rest := SplitOne(full)
	b, c := SplitOne(rest)
	if n, _ := a.Fraction(); n != 1 {
		t.Fatalf("a must be 1/3, got %d", n)
	}
	if !Same(a, b) || !Same(b, c) {
		t.Fatal("split handles must alias the allocation")
	}

	*b.Get() = 9
	if *c.Get() != 9 {
		t.Fatal("writes through one share must be visible through the others")
	}

	two := JoinOne(a, b)
	back := JoinOne(c, two)
	if got := IntoValue(back); got != 9 {
		t.Fatalf("IntoValue want 9, got %d", got)
	}
}

// Halves use the same primitives with D = Two.
func TestSplitJoin_Halves(t *testing.T) {
	t.Parallel()

	full := New[string, Two]("x")
	a, b := SplitOne(full)
	if got := IntoValue(JoinOne(b, a)); got != "x" {
		t.Fatalf("want x, got %q", got)
	}
}

func TestJoin_DifferentAllocationsPanics(t *testing.T) {
	t.Parallel()

	a, _ := SplitOne(New[int, Two](1))
	b, _ := SplitOne(New[int, Two](2))
	mustPanic(t, "different", func() { _ = JoinOne(a, b) })
}

func TestSplitOne_OfSingleSharePanics(t *testing.T) {
	t.Parallel()

	a, _ := SplitOne(New[int, Two](1))
	mustPanic(t, "split of a 1/D", func() { _, _ = SplitOne(a) })
}

// Runtime-checked fallback accepts balanced arithmetic and rejects the rest.
func TestSplitJoin_RuntimeChecked(t *testing.T) {
	t.Parallel()

	full := New[int, Three](5)
	one, two := Split[One, Two](full)
	back := Join[Three](two, one)
	if got := IntoValue(back); got != 5 {
		t.Fatalf("want 5, got %d", got)
	}

	mustPanic(t, "split 3/D into 1+1", func() {
		_, _ = Split[One, One](New[int, Three](1))
	})
	x, y := Split[One, Two](New[int, Three](1))
	mustPanic(t, "join", func() { _ = Join[Two](x, y) })
}

// Lift restores a full handle when the caller discards the matching shares.
func TestLiftUnchecked_ReconstructsFull(t *testing.T) {
	t.Parallel()

	dropped := 0
	full := New[dropCounter, Three](dropCounter{n: &dropped})
	keep, rest := SplitOne(full)
	_ = rest // the two other thirds are discarded, never used again

	Release(LiftUnchecked(LiftUnchecked(keep)))
	if dropped != 1 {
		t.Fatalf("Release must run Drop once, ran %d", dropped)
	}
}

func TestFreed_UseAfterFreeAndDoubleFreePanic(t *testing.T) {
	t.Parallel()

	full := New[int, Two](1)
	a, b := SplitOne(full)
	whole := JoinOne(a, b)
	stale := whole
	_ = IntoValue(whole)

	mustPanic(t, "freed", func() { _ = a.Get() })
	mustPanic(t, "freed", func() { _ = IntoValue(stale) })
	mustPanic(t, "zero handle", func() { _ = Handle[int, One, Two]{}.Get() })
}

// Drop reaches both value and pointer receivers.
type ptrDropper struct{ n *int }

func (p *ptrDropper) Drop() { *p.n++ }

func TestDrop_ValueAndPointerReceivers(t *testing.T) {
	t.Parallel()

	n := 0
	Drop(dropCounter{n: &n})
	Drop(ptrDropper{n: &n})
	Drop(42) // no Dropper: no-op
	if n != 2 {
		t.Fatalf("want 2 drops, got %d", n)
	}
}

func TestStats_CountAllocsAndFrees(t *testing.T) {
	before := ReadStats()
	h := New[int, One](1)
	mid := ReadStats()
	if mid.Allocs-before.Allocs < 1 {
		t.Fatal("New must count an allocation")
	}
	_ = IntoValue(h)
	after := ReadStats()
	if after.Frees-before.Frees < 1 {
		t.Fatal("IntoValue must count a free")
	}
	if after.Live() != after.Allocs-after.Frees {
		t.Fatal("Live must be Allocs-Frees")
	}
}

type leaky struct{ buf [64]byte }

// An allocation dropped without being freed is reported once collected.
func TestDetectLeaks_ReportsCollectedAllocation(t *testing.T) {
	var reported atomic.Int64
	DetectLeaks(true, func(kind string) {
		if strings.Contains(kind, "leaky") {
			reported.Add(1)
		}
	})
	t.Cleanup(func() { DetectLeaks(false, nil) })

	func() {
		a, _ := SplitOne(New[leaky, Two](leaky{}))
		_ = a
	}()
	freed := New[leaky, One](leaky{})
	_ = IntoValue(freed)

	deadline := time.Now().Add(5 * time.Second)
	for reported.Load() == 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	if reported.Load() != 1 {
		t.Fatalf("expected exactly one leak report, got %d", reported.Load())
	}
	if ReadStats().Leaks < 1 {
		t.Fatal("leak counter must advance")
	}
}
