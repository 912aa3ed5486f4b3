// Package metrics holds the Prometheus instrumentation for regression runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all Prometheus metrics for bondregress.
type Registry struct {
	// Outcome counts per regression comparison, labeled by outcome
	// (new|match|mismatch|engine_error).
	Outcomes *prometheus.CounterVec

	// Duration of a full harness run in seconds.
	RunDuration prometheus.Histogram

	// Duration of a single test case comparison in seconds.
	CaseDuration prometheus.Histogram

	// Currently active harness workers.
	ActiveWorkers prometheus.Gauge

	// Total harness runs initiated.
	TotalRuns prometheus.Counter
}

// NewRegistry creates the bondregress metrics set.
func NewRegistry() *Registry {
	return &Registry{
		Outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bondregress_outcomes_total",
				Help: "Regression comparison outcomes by type",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bondregress_run_duration_seconds",
				Help:    "Duration of full regression runs in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 300.0},
			},
		),
		CaseDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bondregress_case_duration_seconds",
				Help:    "Duration of single test case comparisons in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
		),
		ActiveWorkers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bondregress_active_workers",
				Help: "Number of currently active harness workers",
			},
		),
		TotalRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bondregress_runs_total",
				Help: "Total number of regression runs initiated",
			},
		),
	}
}

// Register registers all metrics with the given registerer.
func (r *Registry) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		r.Outcomes, r.RunDuration, r.CaseDuration, r.ActiveWorkers, r.TotalRuns,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
