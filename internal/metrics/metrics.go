// Package metrics holds the Prometheus collectors a connection reports to.
//
// A nil *Metrics is valid and records nothing, so callers never branch on
// whether metrics are enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "causetdb"

// Metrics is the set of collectors for one connection.
type Metrics struct {
	transactions     *prometheus.CounterVec
	transactLatency  prometheus.Histogram
	datoms           prometheus.Counter
	schemaChanges    prometheus.Counter
	timelineMoves    *prometheus.CounterVec
	movedTxs         prometheus.Counter
	cacheLookups     *prometheus.CounterVec
	observerFailures prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	f := promauto.With(reg)
	return &Metrics{
		transactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transactions attempted, by result.",
		}, []string{"result"}),
		transactLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transact_latency_seconds",
			Help:      "Latency of committed transactions.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		datoms: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datoms_written_total",
			Help:      "Datoms asserted or retracted by committed transactions.",
		}),
		schemaChanges: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_changes_total",
			Help:      "Committed transactions that changed the schema.",
		}),
		timelineMoves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeline_moves_total",
			Help:      "Timeline moves attempted, by result.",
		}, []string{"result"}),
		movedTxs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeline_moved_transactions_total",
			Help:      "Transactions moved off the main timeline.",
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attribute_cache_lookups_total",
			Help:      "Attribute cache lookups, by result.",
		}, []string{"result"}),
		observerFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observer_failures_total",
			Help:      "Transaction observers that panicked.",
		}),
	}
}

func result(err error) string {
	if err != nil {
		return "failed"
	}
	return "committed"
}

// ObserveTransact records one transact call.
func (m *Metrics) ObserveTransact(elapsed time.Duration, datoms int, schemaChanged bool, err error) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(result(err)).Inc()
	if err != nil {
		return
	}
	m.transactLatency.Observe(elapsed.Seconds())
	m.datoms.Add(float64(datoms))
	if schemaChanged {
		m.schemaChanges.Inc()
	}
}

// ObserveMove records one timeline move.
func (m *Metrics) ObserveMove(moved int, err error) {
	if m == nil {
		return
	}
	m.timelineMoves.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.movedTxs.Add(float64(moved))
	}
}

// CacheHit records an attribute cache hit.
func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheLookups.WithLabelValues("hit").Inc()
	}
}

// CacheMiss records an attribute cache miss.
func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

// ObserverFailed records an observer that panicked.
func (m *Metrics) ObserverFailed() {
	if m != nil {
		m.observerFailures.Inc()
	}
}
