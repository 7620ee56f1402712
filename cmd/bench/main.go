// Command bench drives a configurable get/set/remove/peek/load mix against a
// cache, prints progress while it runs and a per-op table at the end,
// including how many list nodes are still live after Close.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"os/signal"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/fraclist/cache"
	"github.com/IvanBrykalov/fraclist/internal/frac"
	"github.com/IvanBrykalov/fraclist/internal/util"
	pmet "github.com/IvanBrykalov/fraclist/metrics/prom"
	"github.com/IvanBrykalov/fraclist/policy/twoq"
)

var errLoad = errors.New("bench: simulated loader failure")

func main() {
	var (
		capacity = flag.Int("cap", 100_000, "cache capacity (entries)")
		shards   = flag.Int("shards", 0, "number of shards (0=auto)")
		policy   = flag.String("policy", "lru", "eviction policy: lru | 2q")
		ttl      = flag.Duration("ttl", 0, "TTL for set ops (0 = none)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "run time")
		every    = flag.Duration("progress", 2*time.Second, "progress line interval (0 = off)")
		mixSpec  = flag.String("mix", "get=75,set=15,remove=5,peek=5", "op percentages: get,set,remove,peek,load")

		keys  = flag.Int("keys", 1_000_000, "keyspace size")
		dist  = flag.String("dist", "zipf", "key distribution: zipf | uniform")
		zipfS = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV = flag.Float64("zipf_v", 1.0, "Zipf v >= 1")
		seed  = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		warm  = flag.Int("preload", -1, "entries to preload (-1 = cap/2)")

		loadDelay = flag.Duration("load_delay", time.Millisecond, "simulated loader latency")
		loadFail  = flag.Float64("load_fail", 0, "fraction of loads that fail [0..1]")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", "", "serve Prometheus metrics at addr; empty = disabled")
		leaks       = flag.Bool("leaks", false, "log list nodes collected without being freed")
	)
	flag.Parse()

	m, err := parseMix(*mixSpec)
	if err != nil {
		log.Fatal(err)
	}
	if *keys < 1 {
		log.Fatal("keys must be >= 1")
	}
	if *workers < 1 {
		*workers = 1
	}
	if *leaks {
		frac.DetectLeaks(true, func(kind string) { log.Printf("leak: unreleased node of %s", kind) })
	}
	if *pprofAddr != "" {
		go func() { log.Println(http.ListenAndServe(*pprofAddr, nil)) }()
	}

	opt := cache.Options[string, string]{Capacity: *capacity, Shards: *shards}
	if *metricsAddr != "" {
		opt.Metrics = pmet.New(nil, "fraclist", "bench", nil)
		pmet.RegisterAllocStats(nil, "fraclist", "nodes")
		http.Handle("/metrics", promhttp.Handler())
		go func() { log.Println(http.ListenAndServe(*metricsAddr, nil)) }()
	}
	switch *policy {
	case "lru":
	case "2q":
		per := *capacity / util.ShardCount(*shards)
		opt.Policy = twoq.New[string, string](per/4, per/2)
	default:
		log.Fatalf("unknown policy %q (use lru or 2q)", *policy)
	}

	// The loader answers with the key itself after a delay; a seeded share
	// of calls fails so the error path of GetOrLoad shows up in metrics.
	failR := rand.New(rand.NewSource(*seed))
	failCh := make(chan bool, 1)
	go func() {
		for {
			failCh <- failR.Float64() < *loadFail
		}
	}()
	opt.Loader = func(ctx context.Context, k string) (string, error) {
		select {
		case <-time.After(*loadDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		if <-failCh {
			return "", errLoad
		}
		return k, nil
	}

	c := cache.New[string, string](opt)

	const prefix = "k:"
	n := *warm
	if n < 0 {
		n = *capacity / 2
	}
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("%s%d", prefix, i%*keys)
		c.Set(k, k)
	}

	w := &workload{
		c:      c,
		mix:    m,
		ttl:    *ttl,
		prefix: prefix,
		keys: func(r *rand.Rand) (keySource, error) {
			return newKeySource(*dist, r, *keys, *zipfS, *zipfV)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	tallies := make([]tally, *workers)
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := range tallies {
		t := &tallies[i]
		s := *seed + int64(i)*9973
		g.Go(func() error { return w.run(gctx, s, t) })
	}
	if *every > 0 {
		go progress(gctx, *every, start, tallies)
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	elapsed := time.Since(start)

	st := c.Stats()
	size := c.Len()
	_ = c.Close()

	fmt.Printf("policy=%s cap=%d shards=%d workers=%d keys=%d dist=%s seed=%d elapsed=%v\n",
		*policy, *capacity, util.ShardCount(*shards), *workers, *keys, *dist, *seed, elapsed.Round(time.Millisecond))
	report(os.Stdout, tallies, elapsed)
	fmt.Printf("cache: len=%d hits=%d misses=%d evictions=%d hit-ratio=%.3f\n",
		size, st.Hits, st.Misses, st.Evictions, ratio(st.Hits, st.Hits+st.Misses))
	ns := frac.ReadStats()
	fmt.Printf("nodes after close: allocs=%d frees=%d live=%d leaks=%d\n", ns.Allocs, ns.Frees, ns.Live(), ns.Leaks)
}

func progress(ctx context.Context, every time.Duration, start time.Time, ts []tally) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			calls, _, _ := sum(ts)
			var total uint64
			for _, n := range calls {
				total += n
			}
			log.Printf("t=%v ops=%d (%.0f ops/s)",
				now.Sub(start).Round(time.Second), total, float64(total-last)/every.Seconds())
			last = total
		}
	}
}

func report(out io.Writer, ts []tally, elapsed time.Duration) {
	calls, hits, failed := sum(ts)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "op\tcalls\tops/s\t")
	var total uint64
	for o, n := range calls {
		if n == 0 {
			continue
		}
		total += n
		fmt.Fprintf(tw, "%s\t%d\t%.0f\t\n", op(o), n, float64(n)/elapsed.Seconds())
	}
	fmt.Fprintf(tw, "total\t%d\t%.0f\t\n", total, float64(total)/elapsed.Seconds())
	_ = tw.Flush()

	reads := calls[opGet] + calls[opPeek]
	fmt.Fprintf(out, "read hits=%d (%.3f)", hits, ratio(hits, reads))
	if calls[opLoad] > 0 {
		fmt.Fprintf(out, "  load failures=%d", failed)
	}
	fmt.Fprintln(out)
}

func ratio(a, b uint64) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
