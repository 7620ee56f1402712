// Package singleflight coalesces concurrent loads of the same key.
package singleflight

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrGoexit is returned to followers whose leader called runtime.Goexit.
var ErrGoexit = errors.New("singleflight: loader called runtime.Goexit")

// Group coalesces concurrent function calls for the same key K so that
// the supplied fn is executed at most once per flight. Other concurrent
// callers wait for the shared result.
//
// Concurrency notes:
//   - The first caller for a given key becomes the leader and runs fn.
//   - Followers wait on c.done. Publishing the result happens-before
//     close(c.done), so reads after <-done observe the final values.
//   - Cancelling ctx in a follower unblocks only that follower; it does
//     NOT cancel the leader's fn. Thread ctx into fn to stop the work.
//   - If fn panics, the leader re-panics and every follower gets a
//     *PanicError instead of hanging. If fn calls runtime.Goexit, the
//     leader's goroutine exits and followers get ErrGoexit.
//
// The zero Group is ready to use.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when the result is published
	val  V
	err  error
	dups int
}

// PanicError is returned to followers whose leader panicked.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string { return fmt.Sprintf("singleflight: loader panicked: %v", p.Value) }

// Do runs fn once for the given key. Concurrent calls with the same key
// wait for the shared result. If ctx is cancelled in a follower, that
// follower returns ctx.Err() while the leader continues to run fn.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		c.dups++
		g.mu.Unlock()
		return c.wait(ctx)
	}

	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	g.run(key, c, fn)
	return c.val, c.err
}

// Inflight reports the number of keys with a running leader.
func (g *Group[K, V]) Inflight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}

func (c *call[V]) wait(ctx context.Context) (V, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// run executes fn and publishes its result, also when fn panics or calls
// runtime.Goexit. The two are told apart by recovering inside a nested
// frame: a panic is recovered there, Goexit is not.
func (g *Group[K, V]) run(key K, c *call[V], fn func() (V, error)) {
	normal, recovered := false, false
	var rec any
	defer func() {
		switch {
		case !normal && !recovered:
			c.err = ErrGoexit
		case recovered:
			c.err = &PanicError{Value: rec}
		}
		close(c.done)

		g.mu.Lock()
		delete(g.m, key)
		g.mu.Unlock()

		if recovered {
			panic(rec)
		}
	}()

	func() {
		defer func() {
			if !normal {
				rec = recover()
			}
		}()
		c.val, c.err = fn()
		normal = true
	}()
	if !normal {
		recovered = true
	}
}
