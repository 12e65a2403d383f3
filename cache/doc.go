// Package cache provides a sharded, in-process cache that sits in front of
// expensive lookups (database calls, remote fetches) and serves values of
// different types from one instance.
//
// Design
//
//   - Concurrency: keys are partitioned across a fixed number of shards
//     (package store), each protected by its own RWMutex. Reads take the
//     shard lock shared, writes take it exclusive, and shards never wait on
//     each other. The shard count (Options.Shards, default 64) is set once
//     at construction; there is no resharding.
//
//   - Type erasure: entries hold their value as `any` together with the
//     reflect.Type it was stored as. Reads check that tag against the
//     requested type and return a *TypeMismatchError instead of coercing.
//
//   - TTL: every entry carries an absolute deadline (now+ttl, UnixNano).
//     Expiration is lazy: a stale entry is only noticed, and replaced, by
//     the next operation on its exact key. There is no background sweeper,
//     so keys that expire and are never read again stay resident.
//
//   - Producers: on a miss, GetOrElseUpdate runs the caller's producer and
//     stores the result. Producer errors are returned verbatim and nothing
//     is written. The shard lock is not held while the producer runs, so
//     concurrent misses on one key may each run a producer (last write
//     wins) unless Options.Coalesce is enabled.
//
//   - Observability: Options.Metrics receives Hit/Miss/ObserveLoad/
//     TypeMismatch/Size signals (NoopMetrics by default; see metrics/prom),
//     Options.Logger takes a *zap.Logger, and Stats returns local counters.
//
// Basic usage
//
//	c := cache.New[string](cache.Options[string]{})
//	users, err := cache.GetOrElseUpdate(ctx, c, "users:active", time.Minute,
//	    func(ctx context.Context) ([]User, error) {
//	        return db.ActiveUsers(ctx)
//	    })
//
// Reading without computing
//
//	if n, ok, err := cache.Get[string, int](c, "count"); err == nil && ok {
//	    _ = n
//	}
//
// Thread-safety & complexity
//
// All functions are safe for concurrent use. Each operation hashes the key
// once, takes one shard lock and performs one map access.
package cache
