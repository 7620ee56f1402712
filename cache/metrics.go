package cache

import "time"

// NoopMetrics discards every signal. It is the default when Options.Metrics
// is nil.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                         {}
func (NoopMetrics) Miss()                        {}
func (NoopMetrics) Evict(EvictReason)            {}
func (NoopMetrics) Size(entries int, cost int64) {}
func (NoopMetrics) Load(time.Duration, error)    {}

var _ Metrics = NoopMetrics{}

// Stats are the cache's own counters, summed over shards.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}
