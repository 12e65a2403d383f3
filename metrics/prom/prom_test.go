package prom

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/lazycache/cache"
)

func TestAdapter_ExportsCacheSignals(t *testing.T) {
	t.Parallel()
	r := require.New(t)
	ctx := context.Background()

	reg := prometheus.NewPedanticRegistry()
	m := New(reg, "lazycache", "test", prometheus.Labels{"app": "unit"})
	c := cache.New[string](cache.Options[string]{Metrics: m})

	ok := func(context.Context) (int, error) { return 1, nil }
	_, err := cache.GetOrElseUpdate(ctx, c, "a", time.Minute, ok) // miss + load
	r.NoError(err)
	_, err = cache.GetOrElseUpdate(ctx, c, "a", time.Minute, ok) // hit
	r.NoError(err)
	_, err = cache.GetOrElseUpdate(ctx, c, "a", time.Minute, func(context.Context) (string, error) { return "", nil })
	r.ErrorIs(err, cache.ErrTypeMismatch)
	_, err = cache.GetOrElseUpdate(ctx, c, "b", time.Minute, func(context.Context) (int, error) {
		return 0, errors.New("down")
	})
	r.Error(err)
	_, err = cache.GetOrElseUpdate(ctx, c, "c", 0, ok)
	r.NoError(err)
	_, err = cache.GetOrElseUpdate(ctx, c, "c", 0, ok) // zero ttl: expired on the next read
	r.NoError(err)

	r.InDelta(1, testutil.ToFloat64(m.hits), 0)
	r.InDelta(3, testutil.ToFloat64(m.misses.WithLabelValues("absent")), 0)
	r.InDelta(1, testutil.ToFloat64(m.misses.WithLabelValues("expired")), 0)
	r.InDelta(1, testutil.ToFloat64(m.mismatches), 0)
	r.InDelta(2, testutil.ToFloat64(m.entries), 0)

	r.Equal(2, testutil.CollectAndCount(m.loads))

	expected := `
# HELP lazycache_test_type_mismatches_total Fresh entries requested as the wrong type
# TYPE lazycache_test_type_mismatches_total counter
lazycache_test_type_mismatches_total{app="unit"} 1
`
	r.NoError(testutil.GatherAndCompare(reg, strings.NewReader(expected), "lazycache_test_type_mismatches_total"))
}

func TestReason(t *testing.T) {
	t.Parallel()

	if reason(cache.MissAbsent) != "absent" || reason(cache.MissExpired) != "expired" {
		t.Fatal("unexpected reason labels")
	}
}
