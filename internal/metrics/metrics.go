package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes recorded in advisor_turns_total
const (
	StateGathering   = "gathering"
	StateRecommended = "recommended"
	StateNoMatch     = "no_match"
	StateFailed      = "failed"
)

// Metrics holds Prometheus metrics for the advisor.
//
// Metrics:
//   - advisor_turns_total{state} - Count of completed turns by outcome
//   - advisor_extraction_fallbacks_total{operation} - Count of generative fallbacks
//   - advisor_persistence_failures_total{operation} - Count of session load/save failures
//   - advisor_turn_matches - Histogram of products returned per recommending turn
//   - advisor_turn_duration_seconds - Histogram of turn latency
type Metrics struct {
	TurnsTotal               *prometheus.CounterVec
	ExtractionFallbacksTotal *prometheus.CounterVec
	PersistenceFailuresTotal *prometheus.CounterVec
	TurnMatches              prometheus.Histogram
	TurnDuration             prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_turns_total",
				Help: "Total number of dialogue turns by outcome",
			},
			[]string{"state"},
		),

		ExtractionFallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_extraction_fallbacks_total",
				Help: "Total number of generative backend fallbacks",
			},
			[]string{"operation"}, // "extract" or "respond"
		),

		PersistenceFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_persistence_failures_total",
				Help: "Total number of session persistence failures",
			},
			[]string{"operation"}, // "load" or "save"
		),

		TurnMatches: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_turn_matches",
				Help:    "Number of products returned by recommending turns",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
		),

		TurnDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_turn_duration_seconds",
				Help:    "Duration of dialogue turns in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
		),
	}
}

// RecordTurn records the outcome and latency of one turn
func (m *Metrics) RecordTurn(state string, seconds float64) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(state).Inc()
	m.TurnDuration.Observe(seconds)
}

// RecordMatches records the result size of a recommending turn
func (m *Metrics) RecordMatches(n int) {
	if m == nil {
		return
	}
	m.TurnMatches.Observe(float64(n))
}

// ObserveFallback counts a generative backend fallback
func (m *Metrics) ObserveFallback(operation string) {
	if m == nil {
		return
	}
	m.ExtractionFallbacksTotal.WithLabelValues(operation).Inc()
}

// RecordPersistenceFailure counts a failed session load or save
func (m *Metrics) RecordPersistenceFailure(operation string) {
	if m == nil {
		return
	}
	m.PersistenceFailuresTotal.WithLabelValues(operation).Inc()
}
