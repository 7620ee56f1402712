package cache

// shardBrand brands every shard's cells. Each shard mints its own token and
// guards it with the shard lock, so cells of different shards are never
// reached through a foreign token even though they share the brand type.
type shardBrand struct{}

// entry is the value stored in a shard's recency list.
type entry[K comparable, V any] struct {
	key K
	val V

	// Absolute expiration deadline in UnixNano. Zero means no TTL.
	exp int64

	// Logical cost used when MaxCost is enabled.
	cost int32
}

// nodeRef is the policy.Node view of a resident entry. It names the entry by
// key, so it stays valid across promotions.
type nodeRef[K comparable] struct{ key K }

// Key returns the entry key (part of policy.Node).
func (n nodeRef[K]) Key() K { return n.key }
