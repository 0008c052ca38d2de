package engine

import "github.com/prometheus/client_golang/prometheus"

// metricsSet holds the Prometheus collectors the engine registers for
// itself. Pool-internal pin/evict/flush counts are not yet surfaced
// from vpool/upool/ppool (those packages have no Prometheus dependency
// of their own); scopesStarted is the metric the engine can expose
// without threading a registry handle through every pool.
type metricsSet struct {
	Registry      *prometheus.Registry
	scopesStarted *prometheus.CounterVec
}

// newMetricsSet builds a fresh registry per Engine rather than
// registering against the global default: multiple Engines (as in
// tests, or multiple databases in one process) must not collide over
// the same collector names.
func newMetricsSet() *metricsSet {
	reg := prometheus.NewRegistry()
	m := &metricsSet{
		Registry: reg,
		scopesStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mdb_storagecore",
				Name:      "version_scopes_started_total",
				Help:      "Number of VersionScopes started, partitioned by kind (readonly/editable).",
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(m.scopesStarted)
	return m
}
