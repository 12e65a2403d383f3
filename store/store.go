// Package store implements the sharded storage engine underneath the cache:
// a fixed set of independently locked shards, each mapping keys to
// type-erased, expiry-stamped entries.
//
// The store knows nothing about producers or TTL policy. It routes a key to
// its shard, and reads (shared lock) or writes (exclusive lock) that shard
// only. Operations on different shards never wait on each other.
package store

import (
	"hash/maphash"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/IvanBrykalov/lazycache/internal/util"
)

// Entry is an immutable cache record: a type-erased value, the type it was
// stored as, and an absolute expiry deadline in UnixNano.
// A refresh replaces the whole Entry; entries are never mutated in place.
type Entry struct {
	Value  any
	Type   reflect.Type
	Expiry int64
}

// Expired reports whether the entry is stale at now (UnixNano).
// The deadline itself is already stale.
func (e Entry) Expired(now int64) bool { return now >= e.Expiry }

// Store partitions keys across a fixed number of shards.
// The shard count and hash function never change after New, so a key
// always routes to the same shard for the life of the store.
// All methods are safe for concurrent use.
type Store[K comparable] struct {
	shards []*shard[K]
	hash   func(K) uint64
	seed   maphash.Seed // default hasher only; fixed for the store's lifetime
	size   atomic.Int64
}

// shard is one independently locked partition.
type shard[K comparable] struct {
	mu sync.RWMutex
	m  map[K]Entry // guarded by mu

	// keep neighbouring shard locks off the same cache line
	_ util.CacheLinePad
}

// New creates a store with exactly n empty shards.
// hash routes keys to shards; nil selects util.Hash with a seed drawn once
// here, so any comparable key type routes deterministically.
// n must be > 0.
func New[K comparable](n int, hash func(K) uint64) *Store[K] {
	if n <= 0 {
		panic("store: shard count must be > 0")
	}
	shards := make([]*shard[K], n)
	for i := range shards {
		shards[i] = &shard[K]{m: make(map[K]Entry)}
	}
	s := &Store[K]{shards: shards, hash: hash, seed: maphash.MakeSeed()}
	if s.hash == nil {
		s.hash = func(k K) uint64 { return util.Hash(s.seed, k) }
	}
	return s
}

// ShardIndex returns the shard that owns k: hash(k) mod ShardCount().
func (s *Store[K]) ShardIndex(k K) int {
	return util.ShardIndex(s.hash(k), len(s.shards))
}

// ShardCount returns the fixed number of shards.
func (s *Store[K]) ShardCount() int { return len(s.shards) }

// Lookup returns a copy of the entry stored under k.
// It holds the owning shard's lock in shared mode only.
func (s *Store[K]) Lookup(k K) (Entry, bool) {
	sh := s.shards[s.ShardIndex(k)]
	sh.mu.RLock()
	e, ok := sh.m[k]
	sh.mu.RUnlock()
	return e, ok
}

// Upsert inserts or replaces the entry for k under the shard's exclusive lock.
func (s *Store[K]) Upsert(k K, e Entry) {
	sh := s.shards[s.ShardIndex(k)]
	sh.mu.Lock()
	if _, existed := sh.m[k]; !existed {
		s.size.Add(1)
	}
	sh.m[k] = e
	sh.mu.Unlock()
}

// Remove deletes k and reports whether it was present.
func (s *Store[K]) Remove(k K) bool {
	sh := s.shards[s.ShardIndex(k)]
	sh.mu.Lock()
	_, ok := sh.m[k]
	if ok {
		delete(sh.m, k)
		s.size.Add(-1)
	}
	sh.mu.Unlock()
	return ok
}

// Len returns the number of resident entries across all shards,
// expired ones included (expiration is lazy).
func (s *Store[K]) Len() int { return int(s.size.Load()) }
