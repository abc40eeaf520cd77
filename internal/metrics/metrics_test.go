package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTransact(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "test")

	m.ObserveTransact(time.Millisecond, 4, true, nil)
	m.ObserveTransact(time.Millisecond, 2, false, nil)
	m.ObserveTransact(time.Millisecond, 9, true, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactions.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("failed")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.datoms))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.schemaChanges))

	n, err := testutil.GatherAndCount(reg, "test_transact_latency_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestObserveMoveAndCache(t *testing.T) {
	m := New(prometheus.NewRegistry(), "")

	m.ObserveMove(3, nil)
	m.ObserveMove(0, errors.New("mixed"))
	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()
	m.ObserverFailed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.timelineMoves.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.timelineMoves.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.movedTxs))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.observerFailures))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransact(time.Second, 1, true, nil)
		m.ObserveMove(1, nil)
		m.CacheHit()
		m.CacheMiss()
		m.ObserverFailed()
	})
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg, "dup")
	assert.Panics(t, func() { New(reg, "dup") })
}
