package policy

// Node is the minimal contract a cache entry must satisfy for a policy.
// Nodes are views named by key: two Nodes with the same key refer to the
// same resident entry, so a Node stays valid across promotions.
type Node[K comparable, V any] interface {
	Key() K
}

// Hooks expose O(1) operations on the shard's MRU/LRU list.
// Implementations are provided by the shard.
//
// Concurrency: all hook calls happen under the shard lock.
// The shard links, unlinks and trims entries itself; hooks only reorder.
type Hooks[K comparable, V any] interface {
	// MoveToFront promotes the node to MRU.
	MoveToFront(Node[K, V])
}

// ShardPolicy is a per-shard eviction policy instance bound to shard hooks.
// All methods are invoked under the shard lock.
//
// Semantics:
//   - OnAdd is called after the shard linked the new entry at MRU. It may
//     name a resident key to evict (e.g., LRU of a probation queue); the
//     shard evicts it and calls OnRemove for it.
//   - OnGet/OnUpdate typically promote the node (e.g., move to MRU).
//   - OnRemove is a notification to update policy-internal state
//     (e.g., maintain ghost queues). The shard performs actual deletion.
//   - Close releases everything the policy allocated. It is called once,
//     when the cache closes; no other method is called afterwards.
type ShardPolicy[K comparable, V any] interface {
	OnAdd(Node[K, V]) (evict K, ok bool)
	OnGet(Node[K, V])
	OnUpdate(Node[K, V])
	OnRemove(Node[K, V])
	Close()
}

// Policy is a factory that creates shard-local policy instances
// bound to a particular shard's hooks.
type Policy[K comparable, V any] interface {
	New(Hooks[K, V]) ShardPolicy[K, V]
}
