package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry, Config{ServiceName: "tax-advisor", Environment: "test"})

	m.ObserveQuickCheck(true)
	m.ObserveQuickCheck(false)
	m.ObserveQuickCheck(false)
	m.ObserveRemoteCall("calculate-tax", 20*time.Millisecond, nil)
	m.ObserveRemoteCall("calculate-tax", 20*time.Millisecond, errors.New("boom"))
	m.IncStale()
	m.IncClamped("rmf")
	m.IncCalculation("calculate", "low")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.quickChecks.WithLabelValues(OutcomeTaxRequired)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.quickChecks.WithLabelValues(OutcomeNoTaxRequired)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.remoteCalls.WithLabelValues("calculate-tax", StatusOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.remoteCalls.WithLabelValues("calculate-tax", StatusError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.staleResponses))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.clampedItems.WithLabelValues("rmf")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.calculations.WithLabelValues("calculate", "low")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveQuickCheck(true)
		m.ObserveRemoteCall("calculate", time.Second, nil)
		m.IncStale()
		m.IncClamped("ssf")
		m.IncCalculation("calculate", "high")
	})
}
