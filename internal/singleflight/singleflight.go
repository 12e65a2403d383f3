// Package singleflight coalesces concurrent calls that share a key.
package singleflight

import (
	"context"
	"errors"
	"sync"
)

// ErrLeaderPanicked is returned to followers whose leader's fn panicked.
var ErrLeaderPanicked = errors.New("singleflight: leader panicked")

// Group runs fn at most once per key at a time. Callers arriving while a
// call for the same key is in flight wait for its result instead.
//
// Concurrency notes:
//   - The first caller for a key becomes the leader and runs fn.
//   - Publishing (val, err) happens-before close(done), so followers
//     reading after <-done observe the final values.
//   - Cancelling ctx in a follower unblocks only that follower; it does
//     NOT cancel the leader's fn. Thread ctx into fn to cancel the work.
//
// The zero Group is ready to use.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Do runs fn for key unless a call for key is already in flight, in which
// case it waits for that call (or ctx) and returns its result with
// shared == true.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (v V, shared bool, err error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, true, c.err
		case <-ctx.Done():
			var zero V
			return zero, true, ctx.Err()
		}
	}

	c := &call[V]{done: make(chan struct{}), err: ErrLeaderPanicked}
	g.m[key] = c
	g.mu.Unlock()

	// Runs on panic too, so followers never hang.
	defer func() {
		g.mu.Lock()
		delete(g.m, key)
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
	return c.val, false, c.err
}

// InFlight reports the number of keys with a call in progress.
func (g *Group[K, V]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}
