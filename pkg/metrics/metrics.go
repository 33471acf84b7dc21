package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes used as the "outcome" label of the runs counter
const (
	OutcomeCommitted = "committed"
	OutcomeDryRun    = "dry_run"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// RunMetrics records schedule run results in Prometheus collectors
type RunMetrics struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	coverage *prometheus.GaugeVec
	gaps     *prometheus.GaugeVec
}

// NewRunMetrics registers the schedule run collectors on the provided registerer.
// If reg is nil, the default registerer is used. If the collectors are already
// registered, the existing ones are reused.
func NewRunMetrics(reg prometheus.Registerer) (*RunMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shift_planner_runs_total",
		Help: "Total number of scheduling runs by outcome",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shift_planner_run_duration_seconds",
		Help:    "Wall-clock duration of a scheduling run",
		Buckets: prometheus.DefBuckets,
	})
	coverage := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shift_planner_coverage_ratio",
		Help: "Coverage score of the latest run of a week",
	}, []string{"week"})
	gaps := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shift_planner_gaps",
		Help: "Number of unfilled (day, window, role) requirements in the latest run of a week",
	}, []string{"week"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if coverage, err = register(reg, coverage); err != nil {
		return nil, err
	}
	if gaps, err = register(reg, gaps); err != nil {
		return nil, err
	}

	return &RunMetrics{runs: runs, duration: duration, coverage: coverage, gaps: gaps}, nil
}

// register registers c, returning the already registered collector when there is one
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, fmt.Errorf("failed to register collector: %w", err)
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, fmt.Errorf("collector registered with a different type: %w", err)
		}
		return existing, nil
	}
	return c, nil
}

// RecordRun records the outcome and quality of a single run of a week
func (m *RunMetrics) RecordRun(week string, outcome string, coverage float64, gaps int, elapsed time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
	m.coverage.WithLabelValues(week).Set(coverage)
	m.gaps.WithLabelValues(week).Set(float64(gaps))
}

// RecordFailure records a run that did not produce a schedule
func (m *RunMetrics) RecordFailure(elapsed time.Duration) {
	m.runs.WithLabelValues(OutcomeFailed).Inc()
	m.duration.Observe(elapsed.Seconds())
}
