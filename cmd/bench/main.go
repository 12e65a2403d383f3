// Command bench runs a synthetic get-or-compute workload against the cache
// and exposes Prometheus metrics and optional pprof endpoints.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/IvanBrykalov/lazycache/cache"
	"github.com/IvanBrykalov/lazycache/internal/util"
	pmet "github.com/IvanBrykalov/lazycache/metrics/prom"
)

// config is parsed from the command line.
type config struct {
	Shards   int           `arg:"--shards" help:"number of shards (0 = suggest from GOMAXPROCS)"`
	TTL      time.Duration `arg:"--ttl" default:"2s" help:"entry time-to-live"`
	Coalesce bool          `arg:"--coalesce" help:"share one producer run between concurrent misses"`

	Workers  int           `arg:"--workers" help:"number of worker goroutines (0 = 2*GOMAXPROCS)"`
	Duration time.Duration `arg:"--duration" default:"10s" help:"benchmark duration"`
	Latency  time.Duration `arg:"--latency" default:"2ms" help:"simulated producer latency"`
	FailPct  int           `arg:"--fail" default:"0" help:"producer failure percentage [0..100]"`

	Keys  int     `arg:"--keys" default:"100000" help:"keyspace size"`
	ZipfS float64 `arg:"--zipf-s" default:"1.1" help:"Zipf s > 1 (skew)"`
	ZipfV float64 `arg:"--zipf-v" default:"1.0" help:"Zipf v"`
	Seed  int64   `arg:"--seed" help:"random seed (0 = time based)"`

	Pprof   string `arg:"--pprof" help:"serve pprof at addr (e.g. :6060); empty = disabled"`
	Metrics string `arg:"--http" default:":8080" help:"serve Prometheus metrics at addr"`
	Debug   bool   `arg:"--debug" help:"development logging"`
}

func (config) Description() string {
	return "bench drives cache.GetOrElseUpdate with a Zipf key distribution and a slow producer"
}

func main() {
	cfg := config{}
	arg.MustParse(&cfg)

	log := newLogger(cfg.Debug)
	defer func() { _ = log.Sync() }()

	if cfg.Shards <= 0 {
		cfg.Shards = util.ReasonableShardCount()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2 * runtime.GOMAXPROCS(0)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Keys < 1 {
		log.Fatal("keyspace must be positive", zap.Int("keys", cfg.Keys))
	}

	// ---- pprof server (on DefaultServeMux) ----
	if cfg.Pprof != "" {
		go func() {
			log.Info("pprof: serving", zap.String("addr", cfg.Pprof))
			log.Error("pprof server stopped", zap.Error(http.ListenAndServe(cfg.Pprof, nil)))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "lazycache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Info("metrics: serving", zap.String("addr", cfg.Metrics))
		log.Error("metrics server stopped", zap.Error(http.ListenAndServe(cfg.Metrics, nil)))
	}()

	c := cache.New[string](cache.Options[string]{
		Shards:   cfg.Shards,
		Metrics:  metrics,
		Logger:   log,
		Coalesce: cfg.Coalesce,
	})

	var ops, failures uint64
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for w := 0; w < cfg.Workers; w++ {
		go func(id int) {
			defer wg.Done()

			// rand.Rand is NOT goroutine-safe: one per worker.
			r := rand.New(rand.NewSource(cfg.Seed + int64(id)*9973))
			zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, uint64(cfg.Keys-1))

			for ctx.Err() == nil {
				k := "k:" + strconv.FormatUint(zipf.Uint64(), 10)
				fail := r.Intn(100) < cfg.FailPct
				_, err := cache.GetOrElseUpdate(ctx, c, k, cfg.TTL, slowProducer(k, cfg.Latency, fail))
				atomic.AddUint64(&ops, 1)
				if err != nil {
					atomic.AddUint64(&failures, 1)
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	st := c.Stats()
	n := atomic.LoadUint64(&ops)
	hitRate := 0.0
	if lookups := st.Hits + st.Misses; lookups > 0 {
		hitRate = float64(st.Hits) / float64(lookups) * 100
	}

	fmt.Printf("shards=%d workers=%d keys=%d ttl=%v coalesce=%v dur=%v seed=%d\n",
		cfg.Shards, cfg.Workers, cfg.Keys, cfg.TTL, cfg.Coalesce, elapsed, cfg.Seed)
	fmt.Printf("ops=%d (%.0f ops/s)  failures=%d\n",
		n, float64(n)/elapsed.Seconds(), atomic.LoadUint64(&failures))
	fmt.Printf("hits=%d  misses=%d (expired=%d)  hit-rate=%.2f%%\n",
		st.Hits, st.Misses, st.Expired, hitRate)
	fmt.Printf("loads=%d  load-failures=%d  coalesced=%d\n", st.Loads, st.LoadFailures, st.Coalesced)
	fmt.Printf("Len()=%d\n", c.Len())
}

// slowProducer simulates an I/O-bound lookup that honours cancellation.
func slowProducer(k string, latency time.Duration, fail bool) cache.Producer[string] {
	return func(ctx context.Context) (string, error) {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
		if fail {
			return "", fmt.Errorf("bench: simulated failure for %s", k)
		}
		return "v:" + k, nil
	}
}

func newLogger(debug bool) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return log
}
