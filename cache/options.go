package cache

import (
	"time"

	"go.uber.org/zap"
)

// DefaultShards is the shard count used when Options.Shards is not set.
const DefaultShards = 64

// MissReason explains why a read did not produce a usable entry.
type MissReason int

const (
	// MissAbsent means no entry was stored under the key.
	MissAbsent MissReason = iota
	// MissExpired means an entry was found but its TTL had elapsed.
	MissExpired
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
// Implementations must be safe for concurrent use.
type Metrics interface {
	Hit()
	Miss(reason MissReason)
	// ObserveLoad reports one producer run: its wall time and outcome.
	ObserveLoad(d time.Duration, err error)
	TypeMismatch()
	// Size reports resident entries (expired ones included) after a write.
	Size(entries int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures a Cache. The zero value is valid; defaults are applied
// in New():
//   - Shards <= 0  => DefaultShards
//   - nil Hash     => util.Hash: xxHash for strings/integers, maphash for any other comparable key
//   - nil Clock    => time.Now()
//   - nil Metrics  => NoopMetrics
//   - nil Logger   => zap.NewNop()
type Options[K comparable] struct {
	// Shards is the fixed number of independently locked shards. It is a
	// capacity planning knob: it cannot change after New.
	Shards int

	// Hash routes keys to shards. It must be deterministic.
	Hash func(K) uint64

	// Clock allows overriding the time source (tests).
	Clock Clock

	// Observability
	Metrics Metrics
	Logger  *zap.Logger

	// Coalesce makes concurrent misses for the same key share one producer
	// run. Off by default: without it, every caller that observes a miss
	// runs its own producer and the last write wins.
	Coalesce bool
}
