package util

import "runtime"

// MaxShards bounds the automatic shard count.
const MaxShards = 256

// NextPow2 returns the smallest power of two >= x (1 for x <= 1).
// Values above 1<<63 clamp to 1<<63.
func NextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	if x > 1<<63 {
		return 1 << 63
	}
	x--
	for s := uint(1); s < 64; s <<= 1 {
		x |= x >> s
	}
	return x + 1
}

// ShardCount normalizes a requested shard count: n <= 0 picks
// 2*GOMAXPROCS clamped to MaxShards, anything else is rounded up to a power
// of two so that shard selection can mask instead of divide.
func ShardCount(n int) int {
	if n <= 0 {
		n = 2 * runtime.GOMAXPROCS(0)
		if n > MaxShards {
			n = MaxShards
		}
	}
	return int(NextPow2(uint64(n)))
}

// ShardIndex maps a hash to one of shards buckets; shards must be a power of two.
func ShardIndex(hash uint64, shards int) int {
	return int(hash & uint64(shards-1))
}
