// Package metrics provides Prometheus instrumentation for mapping
// runs. A Metrics value is cheap and safe to share across pipelines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's collectors.
type Metrics struct {
	// RecordsTotal counts records read, labeled by logical source.
	RecordsTotal *prometheus.CounterVec

	// StatementsTotal counts emitted statements, labeled by triples map.
	StatementsTotal *prometheus.CounterVec

	// RecordErrorsTotal counts per-record term generation errors.
	RecordErrorsTotal prometheus.Counter

	// JoinMatchesTotal counts join matches, labeled by ref object map.
	JoinMatchesTotal *prometheus.CounterVec

	// PipelinesActive tracks currently running source pipelines.
	PipelinesActive prometheus.Gauge
}

// New builds the collectors and registers them with reg. A nil reg
// leaves the collectors unregistered, which keeps them usable but
// unexported; the engine uses that as its no-op default.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rmlstream_records_total",
			Help: "Records read from logical sources.",
		}, []string{"source"}),
		StatementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rmlstream_statements_total",
			Help: "RDF statements emitted.",
		}, []string{"triples_map"}),
		RecordErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rmlstream_record_errors_total",
			Help: "Per-record term generation errors.",
		}),
		JoinMatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rmlstream_join_matches_total",
			Help: "Join matches produced for ref object maps.",
		}, []string{"ref_object_map"}),
		PipelinesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rmlstream_pipelines_active",
			Help: "Source pipelines currently running.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.RecordsTotal,
			m.StatementsTotal,
			m.RecordErrorsTotal,
			m.JoinMatchesTotal,
			m.PipelinesActive,
		)
	}
	return m
}
