package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordTurn(StateGathering, 0.01)
	m.RecordTurn(StateGathering, 0.02)
	m.RecordTurn(StateRecommended, 0.5)
	m.RecordMatches(3)
	m.ObserveFallback("extract")
	m.RecordPersistenceFailure("save")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues(StateGathering)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues(StateRecommended)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionFallbacksTotal.WithLabelValues("extract")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistenceFailuresTotal.WithLabelValues("save")))

	count, err := testutil.GatherAndCount(reg, "advisor_turn_matches", "advisor_turn_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTurn(StateFailed, 1)
		m.RecordMatches(0)
		m.ObserveFallback("respond")
		m.RecordPersistenceFailure("load")
	})
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
