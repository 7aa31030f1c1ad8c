package planner

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	planRuns           *prometheus.CounterVec
	planDuration       prometheus.Histogram
	unreachableSession prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Histogram, prometheus.Counter) {
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_plan_runs_total",
			Help: "Number of planning runs by outcome",
		},
		[]string{"status"},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roster_plan_duration_seconds",
			Help:    "Wall-clock duration of planning runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)
	unreachable := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_unreachable_sessions_total",
			Help: "Number of sessions found without any eligible doctor",
		},
	)
	return runs, dur, unreachable
}

func init() {
	planRuns, planDuration, unreachableSession = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers planner metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(planRuns, planDuration, unreachableSession)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	planRuns, planDuration, unreachableSession = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
