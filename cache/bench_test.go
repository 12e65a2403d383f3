package cache

import (
	"context"
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// benchmarkMix exercises GetOrElseUpdate against a warm cache. Misses come
// from the cold half of the keyspace and from ForceInsert-style overwrites.
// RunParallel spawns GOMAXPROCS goroutines.
func benchmarkMix(b *testing.B, shards, writesPct int) {
	c := New[string](Options[string]{Shards: shards})
	ctx := context.Background()
	produce := func(context.Context) (string, error) { return "v", nil }

	// Preload half the keyspace to get a realistic hit-rate.
	const keys = 1 << 16
	for i := 0; i < keys/2; i++ {
		ForceInsert(c, "k:"+strconv.Itoa(i), "v", time.Hour)
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := "k:" + strconv.Itoa(i&(keys-1))
			if r.Intn(100) < writesPct {
				ForceInsert(c, k, "v", time.Hour)
			} else if _, err := GetOrElseUpdate(ctx, c, k, time.Hour, produce); err != nil {
				b.Fatal(err)
			}
			i++
		}
	})
}

func BenchmarkCache_90r10w(b *testing.B)             { benchmarkMix(b, DefaultShards, 10) }
func BenchmarkCache_50r50w(b *testing.B)             { benchmarkMix(b, DefaultShards, 50) }
func BenchmarkCache_SingleShard_90r10w(b *testing.B) { benchmarkMix(b, 1, 10) }

// BenchmarkGet_IntKeys isolates the hit path: int keys, no allocation for
// key construction, every lookup fresh.
func BenchmarkGet_IntKeys(b *testing.B) {
	c := New[int](Options[int]{})
	for i := 0; i < 1<<16; i++ {
		ForceInsert(c, i, i, time.Hour)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if _, ok, _ := Get[int, int](c, i&(1<<16-1)); !ok {
				b.Fatal("miss")
			}
			i++
		}
	})
}
