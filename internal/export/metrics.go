package export

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Metrics contains Prometheus collectors for export runs. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	sources  *prometheus.CounterVec
	tables   prometheus.Counter
	rows     prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sources: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "larder_sources_total",
				Help: "Sources processed, by terminal status",
			},
			[]string{"status"},
		),
		tables: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "larder_tables_exported_total",
			Help: "Tables written to artifacts",
		}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "larder_rows_exported_total",
			Help: "Rows written to artifacts",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "larder_export_duration_seconds",
			Help:    "Time spent exporting one source",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
	}
	m.registry.MustRegister(m.sources, m.tables, m.rows, m.duration)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one source result.
func (m *Metrics) Observe(r types.Result) {
	if m == nil {
		return
	}
	m.sources.WithLabelValues(string(r.Status)).Inc()
	if r.Status != types.StatusPersisted {
		return
	}
	m.tables.Add(float64(r.Tables))
	m.rows.Add(float64(r.Rows))
	m.duration.Observe(r.Duration.Seconds())
}

// WriteFile writes the registry in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
