package cache

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/lazycache/store"
)

// Producer computes a fresh value on a miss. It receives the caller's ctx;
// the cache adds no deadline or cancellation of its own.
type Producer[V any] func(ctx context.Context) (V, error)

// GetOrElseUpdate returns the value cached under k if it is still fresh.
// Otherwise it runs producer, stores the result with expiry now+ttl and
// returns it.
//
// Outcomes:
//   - fresh entry of type V: its value; producer is not called.
//   - fresh entry of another type: a *TypeMismatchError (errors.Is
//     ErrTypeMismatch); producer is not called.
//   - absent or expired: producer's result. A producer error is returned
//     unchanged and leaves the cache untouched.
//
// A non-positive ttl stores a value that is already stale for the next
// caller. Unless Options.Coalesce is set, concurrent callers that all miss
// run their producers independently and the last write wins.
func GetOrElseUpdate[K comparable, V any](ctx context.Context, c *Cache[K], k K, ttl time.Duration, producer Producer[V]) (V, error) {
	now := c.now()
	if v, ok, err := lookup[K, V](c, k, now); ok || err != nil {
		return v, err
	}

	if c.opt.Coalesce {
		e, shared, err := c.flights.Do(ctx, k, func() (store.Entry, error) {
			// Another flight may have stored a fresh entry meanwhile.
			if e, ok := c.store.Lookup(k); ok && !e.Expired(c.now()) {
				return e, nil
			}
			_, e, err := produce(ctx, c, k, now, ttl, producer)
			return e, err
		})
		if shared {
			c.stats.coalesced.Inc()
		}
		if err != nil {
			var zero V
			return zero, err
		}
		return valueOf[K, V](c, k, e)
	}

	v, _, err := produce(ctx, c, k, now, ttl, producer)
	return v, err
}

// Get returns the value under k if it is present and fresh. It never runs a
// producer and never writes. ok is false for absent and expired keys; a
// fresh entry of another type yields a *TypeMismatchError.
func Get[K comparable, V any](c *Cache[K], k K) (v V, ok bool, err error) {
	return lookup[K, V](c, k, c.now())
}

// ForceInsert stores v under k with expiry now+ttl, replacing any existing
// entry whether or not it is still fresh. It may change the key's type.
func ForceInsert[K comparable, V any](c *Cache[K], k K, v V, ttl time.Duration) {
	c.store.Upsert(k, newEntry(v, c.now(), ttl))
	c.opt.Metrics.Size(c.store.Len())
}

// lookup is the read path shared by Get and GetOrElseUpdate.
func lookup[K comparable, V any](c *Cache[K], k K, now int64) (v V, ok bool, err error) {
	e, found := c.store.Lookup(k)
	if !found {
		c.miss(MissAbsent)
		return v, false, nil
	}
	if e.Expired(now) {
		c.miss(MissExpired)
		if ce := c.log.Check(zap.DebugLevel, "entry expired"); ce != nil {
			ce.Write(zap.Any("key", k), zap.Duration("stale_for", time.Duration(now-e.Expiry)))
		}
		return v, false, nil
	}
	v, err = valueOf[K, V](c, k, e)
	if err != nil {
		return v, false, err
	}
	c.hit()
	return v, true, nil
}

// produce runs the producer and, on success, upserts the new entry.
func produce[K comparable, V any](ctx context.Context, c *Cache[K], k K, now int64, ttl time.Duration, producer Producer[V]) (V, store.Entry, error) {
	start := time.Now()
	v, err := producer(ctx)
	took := time.Since(start)

	c.stats.loads.Inc()
	c.opt.Metrics.ObserveLoad(took, err)
	if err != nil {
		c.stats.loadFailures.Inc()
		if ce := c.log.Check(zap.DebugLevel, "producer failed"); ce != nil {
			ce.Write(zap.Any("key", k), zap.Duration("took", took), zap.Error(err))
		}
		var zero V
		return zero, store.Entry{}, err
	}

	e := newEntry(v, now, ttl)
	c.store.Upsert(k, e)
	c.opt.Metrics.Size(c.store.Len())
	return v, e, nil
}

// newEntry erases v's type, remembering it for the checked read.
func newEntry[V any](v V, now int64, ttl time.Duration) store.Entry {
	return store.Entry{
		Value:  v,
		Type:   reflect.TypeFor[V](),
		Expiry: deadline(now, ttl),
	}
}

// valueOf recovers the entry's value as V. The stored type must be exactly V:
// a key holds one logical type, so no interface widening is attempted.
func valueOf[K comparable, V any](c *Cache[K], k K, e store.Entry) (V, error) {
	var zero V
	if want := reflect.TypeFor[V](); e.Type != want {
		c.stats.typeMismatches.Inc()
		c.opt.Metrics.TypeMismatch()
		c.log.Warn("type mismatch",
			zap.Any("key", k), zap.Stringer("stored", e.Type), zap.Stringer("requested", want))
		return zero, &TypeMismatchError{Key: k, Want: want, Got: e.Type}
	}
	if e.Value == nil {
		// nil interface values erase to a nil any
		return zero, nil
	}
	return e.Value.(V), nil
}
