package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeTaxRequired   = "tax_required"
	OutcomeNoTaxRequired = "no_tax_required"

	StatusOK    = "ok"
	StatusError = "error"
)

type Config struct {
	ServiceName string
	Environment string
}

// Metrics counts advisor and calculation traffic. A nil *Metrics records nothing.
type Metrics struct {
	quickChecks    *prometheus.CounterVec
	remoteCalls    *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
	staleResponses prometheus.Counter
	clampedItems   *prometheus.CounterVec
	calculations   *prometheus.CounterVec
}

func New(registerer prometheus.Registerer, cfg Config) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "tax-advisor"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &Metrics{
		quickChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "taxadvisor_quick_checks_total",
			Help:        "Threshold pre-checks by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "taxadvisor_remote_calls_total",
			Help:        "Calls to the calculation service by endpoint and status.",
			ConstLabels: constLabels,
		}, []string{"endpoint", "status"}),
		remoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "taxadvisor_remote_call_duration_seconds",
			Help:        "Latency of calls to the calculation service.",
			Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			ConstLabels: constLabels,
		}, []string{"endpoint"}),
		staleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "taxadvisor_stale_responses_total",
			Help:        "Responses discarded because a newer submission superseded them.",
			ConstLabels: constLabels,
		}),
		clampedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "taxadvisor_clamped_items_total",
			Help:        "Deductions clamped to their ceiling by category.",
			ConstLabels: constLabels,
		}, []string{"category"}),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "taxadvisor_calculations_total",
			Help:        "Requests served by the reference calculation service by endpoint.",
			ConstLabels: constLabels,
		}, []string{"endpoint", "risk_tolerance"}),
	}

	registerer.MustRegister(
		m.quickChecks,
		m.remoteCalls,
		m.remoteDuration,
		m.staleResponses,
		m.clampedItems,
		m.calculations,
	)

	return m
}

func (m *Metrics) ObserveQuickCheck(requiresTax bool) {
	if m == nil {
		return
	}

	outcome := OutcomeNoTaxRequired
	if requiresTax {
		outcome = OutcomeTaxRequired
	}
	m.quickChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRemoteCall(endpoint string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.remoteCalls.WithLabelValues(endpoint, status).Inc()
	m.remoteDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) IncStale() {
	if m == nil {
		return
	}
	m.staleResponses.Inc()
}

func (m *Metrics) IncClamped(category string) {
	if m == nil {
		return
	}
	m.clampedItems.WithLabelValues(category).Inc()
}

func (m *Metrics) IncCalculation(endpoint, riskTolerance string) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(endpoint, riskTolerance).Inc()
}
