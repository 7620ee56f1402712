package main

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/IvanBrykalov/fraclist/cache"
	"github.com/IvanBrykalov/fraclist/internal/util"
)

// op is one kind of cache call issued by a worker.
type op int

const (
	opGet op = iota
	opSet
	opRemove
	opPeek
	opLoad
	numOps
)

var opNames = [numOps]string{"get", "set", "remove", "peek", "load"}

func (o op) String() string { return opNames[o] }

// mix holds cumulative percentage thresholds, one per op, ending at 100.
type mix [numOps]int

// parseMix reads "get=70,set=20,remove=10". Omitted ops get 0; weights must
// sum to 100.
func parseMix(s string) (mix, error) {
	var w [numOps]int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, ok := strings.Cut(part, "=")
		if !ok {
			return mix{}, fmt.Errorf("mix: %q is not name=percent", part)
		}
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return mix{}, fmt.Errorf("mix: bad percent in %q", part)
		}
		i := indexOfOp(name)
		if i < 0 {
			return mix{}, fmt.Errorf("mix: unknown op %q", name)
		}
		w[i] += n
	}

	var m mix
	sum := 0
	for i, n := range w {
		sum += n
		m[i] = sum
	}
	if sum != 100 {
		return mix{}, fmt.Errorf("mix: weights sum to %d, want 100", sum)
	}
	return m, nil
}

func indexOfOp(name string) int {
	for i, n := range opNames {
		if n == name {
			return i
		}
	}
	return -1
}

// pick maps a roll in [0,100) to an op.
func (m mix) pick(roll int) op {
	for i, limit := range m {
		if roll < limit {
			return op(i)
		}
	}
	return opGet
}

// keySource yields keys in [0, n).
type keySource interface{ next() uint64 }

type uniformKeys struct {
	r *rand.Rand
	n int64
}

func (u uniformKeys) next() uint64 { return uint64(u.r.Int63n(u.n)) }

type zipfKeys struct{ z *rand.Zipf }

func (z zipfKeys) next() uint64 { return z.z.Uint64() }

func newKeySource(dist string, r *rand.Rand, n int, s, v float64) (keySource, error) {
	switch dist {
	case "uniform":
		return uniformKeys{r: r, n: int64(n)}, nil
	case "zipf":
		z := rand.NewZipf(r, s, v, uint64(n-1))
		if z == nil {
			return nil, fmt.Errorf("zipf: need s > 1 and v >= 1 (s=%g v=%g)", s, v)
		}
		return zipfKeys{z}, nil
	default:
		return nil, fmt.Errorf("unknown key distribution %q (use zipf or uniform)", dist)
	}
}

// tally is one worker's counters. Workers only write their own tally; the
// reporter reads them concurrently, hence the atomics and padding.
type tally struct {
	calls  [numOps]util.PaddedAtomicUint64
	hits   util.PaddedAtomicUint64
	failed util.PaddedAtomicUint64
}

type workload struct {
	c      cache.Cache[string, string]
	mix    mix
	keys   func(*rand.Rand) (keySource, error)
	ttl    time.Duration
	prefix string
}

func (w *workload) key(src keySource) string {
	return w.prefix + strconv.FormatUint(src.next(), 10)
}

// run issues ops until ctx is done.
func (w *workload) run(ctx context.Context, seed int64, t *tally) error {
	r := rand.New(rand.NewSource(seed))
	src, err := w.keys(r)
	if err != nil {
		return err
	}

	for ctx.Err() == nil {
		o := w.mix.pick(r.Intn(100))
		t.calls[o].Add(1)
		k := w.key(src)

		switch o {
		case opGet:
			if _, ok := w.c.Get(k); ok {
				t.hits.Add(1)
			}
		case opPeek:
			if _, ok := w.c.Peek(k); ok {
				t.hits.Add(1)
			}
		case opSet:
			if w.ttl > 0 {
				w.c.SetWithTTL(k, k, w.ttl)
			} else {
				w.c.Set(k, k)
			}
		case opRemove:
			w.c.Remove(k)
		case opLoad:
			if _, err := w.c.GetOrLoad(ctx, k); err != nil && ctx.Err() == nil {
				t.failed.Add(1)
			}
		}
	}
	return nil
}

// sum folds the per-worker tallies into one snapshot.
func sum(ts []tally) (calls [numOps]uint64, hits, failed uint64) {
	for i := range ts {
		for o := range calls {
			calls[o] += ts[i].calls[o].Load()
		}
		hits += ts[i].hits.Load()
		failed += ts[i].failed.Load()
	}
	return calls, hits, failed
}
