// Package metrics exports cache events to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pxgraf/task-cache/types"
)

// Prometheus owns a private registry with the cache counters. One
// collector serves any number of caches, told apart by the "cache" label.
type Prometheus struct {
	registry *prometheus.Registry

	lookups   *prometheus.CounterVec
	removals  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

// NewPrometheus creates a collector whose metric names start with namespace.
func NewPrometheus(namespace string) *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Cache lookups by resulting state (fresh, stale, pending, null, error)",
			},
			[]string{"cache", "state"},
		),
		removals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "removals_total",
				Help:      "Entries dropped by the store, by reason",
			},
			[]string{"cache", "reason"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "refreshes_total",
				Help:      "Stale entries re-stamped fresh",
			},
			[]string{"cache"},
		),
	}

	p.registry.MustRegister(p.lookups, p.removals, p.refreshes)
	return p
}

// Registry returns the registry to expose, e.g. through promhttp.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// MustRegister adds extra collectors to the registry.
func (p *Prometheus) MustRegister(collectors ...prometheus.Collector) {
	p.registry.MustRegister(collectors...)
}

// For returns the event sink of one named cache.
func (p *Prometheus) For(cache string) types.Metrics {
	return &cacheMetrics{
		hit:      p.lookups.WithLabelValues(cache, "fresh"),
		stale:    p.lookups.WithLabelValues(cache, "stale"),
		pending:  p.lookups.WithLabelValues(cache, "pending"),
		miss:     p.lookups.WithLabelValues(cache, "null"),
		fault:    p.lookups.WithLabelValues(cache, "error"),
		eviction: p.removals.WithLabelValues(cache, "evicted"),
		expire:   p.removals.WithLabelValues(cache, "expired"),
		refresh:  p.refreshes.WithLabelValues(cache),
	}
}

type cacheMetrics struct {
	hit, stale, pending, miss, fault prometheus.Counter
	eviction, expire                 prometheus.Counter
	refresh                          prometheus.Counter
}

func (m *cacheMetrics) Hit()      { m.hit.Inc() }
func (m *cacheMetrics) Stale()    { m.stale.Inc() }
func (m *cacheMetrics) Pending()  { m.pending.Inc() }
func (m *cacheMetrics) Miss()     { m.miss.Inc() }
func (m *cacheMetrics) Fault()    { m.fault.Inc() }
func (m *cacheMetrics) Eviction() { m.eviction.Inc() }
func (m *cacheMetrics) Expire()   { m.expire.Inc() }
func (m *cacheMetrics) Refresh()  { m.refresh.Inc() }
