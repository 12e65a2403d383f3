package cache

import (
	"math"
	"time"

	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"

	"github.com/IvanBrykalov/lazycache/internal/singleflight"
	"github.com/IvanBrykalov/lazycache/store"
)

// Cache is a sharded, lazily expiring, heterogeneous in-memory cache.
// One Cache serves values of different types under different keys; see
// GetOrElseUpdate, Get and ForceInsert for the typed entry points.
//
// A *Cache is an explicitly shared handle: construct it once and pass it to
// whoever needs it. All methods are safe for concurrent use.
type Cache[K comparable] struct {
	store *store.Store[K]
	opt   Options[K]
	log   *zap.Logger

	// flights coalesces producer runs when Options.Coalesce is set.
	flights singleflight.Group[K, store.Entry]

	stats counters
}

// counters are xsync striped counters; hits come from many cores at once.
type counters struct {
	hits, misses, expired     *xsync.Counter
	loads, loadFailures       *xsync.Counter
	typeMismatches, coalesced *xsync.Counter
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits           int64 // fresh entries returned
	Misses         int64 // absent or expired lookups
	Expired        int64 // subset of Misses that found a stale entry
	Loads          int64 // producer runs
	LoadFailures   int64 // producer runs that returned an error
	TypeMismatches int64
	Coalesced      int64 // callers served by another caller's producer run
}

// New constructs a cache with the provided Options.
// Defaults:
//   - Shards <= 0  -> DefaultShards
//   - nil Metrics  -> NoopMetrics
//   - nil Logger   -> zap.NewNop()
func New[K comparable](opt Options[K]) *Cache[K] {
	if opt.Shards <= 0 {
		opt.Shards = DefaultShards
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}

	return &Cache[K]{
		store: store.New[K](opt.Shards, opt.Hash),
		opt:   opt,
		log:   opt.Logger.Named("cache"),
		stats: counters{
			hits:           xsync.NewCounter(),
			misses:         xsync.NewCounter(),
			expired:        xsync.NewCounter(),
			loads:          xsync.NewCounter(),
			loadFailures:   xsync.NewCounter(),
			typeMismatches: xsync.NewCounter(),
			coalesced:      xsync.NewCounter(),
		},
	}
}

// Remove deletes k if present and returns true on success.
func (c *Cache[K]) Remove(k K) bool {
	ok := c.store.Remove(k)
	if ok {
		c.opt.Metrics.Size(c.store.Len())
	}
	return ok
}

// Len returns the number of resident entries across all shards.
// Expired entries count until their key is touched again or removed.
func (c *Cache[K]) Len() int { return c.store.Len() }

// Shards returns the fixed shard count.
func (c *Cache[K]) Shards() int { return c.store.ShardCount() }

// ShardIndex returns the shard that owns k.
func (c *Cache[K]) ShardIndex(k K) int { return c.store.ShardIndex(k) }

// Stats returns a snapshot of the activity counters.
func (c *Cache[K]) Stats() Stats {
	return Stats{
		Hits:           c.stats.hits.Value(),
		Misses:         c.stats.misses.Value(),
		Expired:        c.stats.expired.Value(),
		Loads:          c.stats.loads.Value(),
		LoadFailures:   c.stats.loadFailures.Value(),
		TypeMismatches: c.stats.typeMismatches.Value(),
		Coalesced:      c.stats.coalesced.Value(),
	}
}

// ---- helpers ----

func (c *Cache[K]) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

func (c *Cache[K]) hit() {
	c.stats.hits.Inc()
	c.opt.Metrics.Hit()
}

func (c *Cache[K]) miss(reason MissReason) {
	c.stats.misses.Inc()
	if reason == MissExpired {
		c.stats.expired.Inc()
	}
	c.opt.Metrics.Miss(reason)
}

// deadline converts a relative TTL into an absolute UnixNano deadline,
// saturating instead of overflowing. A non-positive ttl yields a deadline
// at or before now, so the entry is stale on the next read.
func deadline(now int64, ttl time.Duration) int64 {
	d := int64(ttl)
	if d > 0 && now > math.MaxInt64-d {
		return math.MaxInt64
	}
	if d < 0 && now < math.MinInt64-d {
		return math.MinInt64
	}
	return now + d
}
