// Package metrics carries the ambient Prometheus observability named in
// SPEC_FULL.md §3/§5 ("ambient observability carried regardless of the
// spec's non-goals") — cycle latency, decision/reason counts, probe
// cache hit ratio, and rate-limiter rejections. It never touches an
// order surface; this is read-only process introspection.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns one Prometheus registry's worth of collectors for a
// shadow-runner process. A nil *Metrics is valid everywhere it is used
// (every recording method below is a nil-safe no-op), so callers that
// don't wire an ops server pay nothing for instrumentation.
type Metrics struct {
	reg *prometheus.Registry

	cycleLatency      prometheus.Histogram
	decisions         *prometheus.CounterVec
	probeCacheLookups *prometheus.CounterVec
	rateLimitRejects  *prometheus.CounterVec
}

// New registers a fresh collector set on its own registry, grounded on
// the teacher's `internal/interfaces/http` metrics setup but scoped to
// this engine's cycle/decision/probe/risk concerns (§2 control flow).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		cycleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shadow",
			Name:      "cycle_latency_seconds",
			Help:      "Wall-clock duration of one shadow-runner decision cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shadow",
			Name:      "decisions_total",
			Help:      "Count of cycle decisions by action and reason code.",
		}, []string{"action", "reason"}),
		probeCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shadow",
			Name:      "readiness_cache_lookups_total",
			Help:      "L9 readiness cache lookups, partitioned by hit/miss.",
		}, []string{"result"}),
		rateLimitRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shadow",
			Name:      "risk_rejections_total",
			Help:      "L13 risk-control rewrites, partitioned by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.cycleLatency, m.decisions, m.probeCacheLookups, m.rateLimitRejects)
	return m
}

// Registry exposes the underlying prometheus.Registry for the ops
// server's /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) ObserveCycle(seconds float64) {
	if m == nil {
		return
	}
	m.cycleLatency.Observe(seconds)
}

func (m *Metrics) IncDecision(action, reasonCode string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(action, reasonCode).Inc()
}

func (m *Metrics) IncProbeCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.probeCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) IncRiskRejection(reasonCode string) {
	if m == nil {
		return
	}
	m.rateLimitRejects.WithLabelValues(reasonCode).Inc()
}
