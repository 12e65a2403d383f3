// Package prom exports cache.Metrics signals as Prometheus metrics.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/lazycache/cache"
)

// Adapter implements cache.Metrics and exports Prometheus counters,
// a producer latency histogram and an entry gauge.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits       prometheus.Counter
	misses     *prometheus.CounterVec
	loads      *prometheus.HistogramVec
	mismatches prometheus.Counter
	entries    prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Fresh entries served from the cache",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "misses_total",
				Help:        "Lookups that found no fresh entry, by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		loads: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "producer_duration_seconds",
				Help:        "Producer run time, by outcome",
				ConstLabels: constLabels,
				Buckets:     prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"outcome"},
		),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "type_mismatches_total",
			Help:        "Fresh entries requested as the wrong type",
			ConstLabels: constLabels,
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "entries",
			Help:        "Resident entries, expired ones included",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.loads, a.mismatches, a.entries)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter with a reason label.
func (a *Adapter) Miss(r cache.MissReason) { a.misses.WithLabelValues(reason(r)).Inc() }

// ObserveLoad records a producer run.
func (a *Adapter) ObserveLoad(d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	a.loads.WithLabelValues(outcome).Observe(d.Seconds())
}

// TypeMismatch increments the mismatch counter.
func (a *Adapter) TypeMismatch() { a.mismatches.Inc() }

// Size updates the entry gauge.
func (a *Adapter) Size(entries int) { a.entries.Set(float64(entries)) }

// reason maps MissReason to a stable label value.
func reason(r cache.MissReason) string {
	if r == cache.MissExpired {
		return "expired"
	}
	return "absent"
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
