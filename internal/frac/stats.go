package frac

import (
	"runtime"
	"sync/atomic"

	"github.com/IvanBrykalov/fraclist/internal/util"
)

// allocState is kept outside the allocation so that a GC cleanup can inspect
// it after the allocation itself became unreachable.
type allocState struct {
	freed atomic.Bool
	kind  string // set only when leak detection was on at allocation time
}

// Stats is a snapshot of process-wide allocation counters.
type Stats struct {
	Allocs uint64 // allocations made by New
	Frees  uint64 // allocations released through IntoValue/Release
	Leaks  uint64 // allocations collected without being freed (detector on)
}

// Live is the number of allocations not yet freed.
func (s Stats) Live() uint64 { return s.Allocs - s.Frees }

var stats struct {
	_      util.CacheLinePad
	allocs util.PaddedAtomicUint64
	frees  util.PaddedAtomicUint64
	leaks  util.PaddedAtomicUint64
}

// ReadStats returns the current counters. Frees is loaded before Allocs so
// that Live never underflows under concurrent use.
func ReadStats() Stats {
	frees := stats.frees.Load()
	return Stats{
		Allocs: stats.allocs.Load(),
		Frees:  frees,
		Leaks:  stats.leaks.Load(),
	}
}

// LeakHandler receives the value type of each leaked allocation.
// It runs on the runtime's cleanup goroutine and must not block.
type LeakHandler func(kind string)

var leakHandler atomic.Pointer[LeakHandler]

// DetectLeaks turns the leak detector on for allocations made from now on
// (fn may be nil to only count). Passing enabled=false stops tracking new
// allocations; already tracked ones still report.
//
// An allocation leaks when every handle to it is dropped without the shares
// being joined back and freed. Without the detector such a leak is silent:
// the collector reclaims the memory and the value's Drop never runs.
func DetectLeaks(enabled bool, fn LeakHandler) {
	if !enabled {
		leakHandler.Store(nil)
		return
	}
	if fn == nil {
		fn = func(string) {}
	}
	leakHandler.Store(&fn)
}

func track[T any](a *alloc[T], st *allocState) {
	stats.allocs.Add(1)
	if leakHandler.Load() == nil {
		return
	}
	st.kind = typeName[T]()
	runtime.AddCleanup(a, reportLeak, st)
}

func reportLeak(st *allocState) {
	if st.freed.Load() {
		return
	}
	stats.leaks.Add(1)
	if h := leakHandler.Load(); h != nil {
		(*h)(st.kind)
	}
}
