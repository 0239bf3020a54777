// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Simulation metrics
	SimulationsTotal   *prometheus.CounterVec
	IterationsTotal    prometheus.Counter
	SimulationDuration *prometheus.HistogramVec
	ValidationFailures *prometheus.CounterVec
	FitFailures        *prometheus.CounterVec

	// Portfolio metrics
	AggregationsTotal  *prometheus.CounterVec
	PortfolioScenarios prometheus.Histogram
	DegenerateWarnings prometheus.Counter

	// Sensitivity metrics
	SweepsTotal      *prometheus.CounterVec
	SweepPointsTotal prometheus.Counter

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec

	// Health metrics
	UptimeSeconds prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "fair_risk_engine"
	}

	return &Metrics{
		// Simulation metrics
		SimulationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of scenario simulations by status",
		}, []string{"status"}),
		IterationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "iterations_total",
			Help:      "Total number of Monte Carlo iterations executed",
		}),
		SimulationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "duration_seconds",
			Help:      "Scenario simulation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"operation"}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "validation_failures_total",
			Help:      "Total number of rejected inputs by field",
		}, []string{"field"}),
		FitFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "fit_failures_total",
			Help:      "Total number of distribution fit failures by factor",
		}, []string{"factor"}),

		// Portfolio metrics
		AggregationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "aggregations_total",
			Help:      "Total number of portfolio aggregations by mode",
		}, []string{"mode"}),
		PortfolioScenarios: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "scenarios_per_aggregation",
			Help:      "Number of scenarios per portfolio aggregation",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		DegenerateWarnings: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "degenerate_warnings_total",
			Help:      "Total number of degenerate-result warnings reported",
		}),

		// Sensitivity metrics
		SweepsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sensitivity",
			Name:      "sweeps_total",
			Help:      "Total number of sensitivity sweeps by factor",
		}, []string{"factor"}),
		SweepPointsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sensitivity",
			Name:      "sweep_points_total",
			Help:      "Total number of sensitivity curve points computed",
		}),

		// HTTP metrics
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and code",
		}, []string{"endpoint", "code"}),

		// Health metrics
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSimulation records a completed or failed scenario simulation.
func RecordSimulation(status string, iterations int, seconds float64) {
	DefaultMetrics.SimulationsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.IterationsTotal.Add(float64(iterations))
	DefaultMetrics.SimulationDuration.WithLabelValues("calculate").Observe(seconds)
}

// RecordValidationFailure records a rejected input.
func RecordValidationFailure(field string) {
	DefaultMetrics.ValidationFailures.WithLabelValues(field).Inc()
}

// RecordFitFailure records a distribution fit failure.
func RecordFitFailure(factor string) {
	DefaultMetrics.FitFailures.WithLabelValues(factor).Inc()
}

// RecordAggregation records a portfolio aggregation run.
func RecordAggregation(mode string, scenarios, warnings int) {
	DefaultMetrics.AggregationsTotal.WithLabelValues(mode).Inc()
	DefaultMetrics.PortfolioScenarios.Observe(float64(scenarios))
	DefaultMetrics.DegenerateWarnings.Add(float64(warnings))
}

// RecordSweep records a sensitivity sweep.
func RecordSweep(factor string, points int) {
	DefaultMetrics.SweepsTotal.WithLabelValues(factor).Inc()
	DefaultMetrics.SweepPointsTotal.Add(float64(points))
}

// RecordRequest records an HTTP request outcome.
func RecordRequest(endpoint, code string, seconds float64) {
	DefaultMetrics.RequestsTotal.WithLabelValues(endpoint, code).Inc()
	DefaultMetrics.RequestDuration.WithLabelValues(endpoint).Observe(seconds)
}
