package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/rosterplan/core/metrics"
)

// PromSink exposes planning outcomes as Prometheus metrics.
type PromSink struct {
	objective  prometheus.Gauge
	nodes      prometheus.Counter
	incumbents prometheus.Counter
}

// NewPromSink registers the sink collectors on the default registerer.
// The /metrics endpoint is served separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the sink collectors on reg. A nil
// registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	objective := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roster_plan_objective",
		Help: "Objective value of the latest roster",
	})
	nodes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_plan_search_nodes_total",
		Help: "Search nodes explored across planning runs",
	})
	incumbents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_plan_incumbents_total",
		Help: "Improved rosters found during search",
	})

	var err error
	if objective, err = register(reg, objective); err != nil {
		return nil, err
	}
	if nodes, err = register(reg, nodes); err != nil {
		return nil, err
	}
	if incumbents, err = register(reg, incumbents); err != nil {
		return nil, err
	}
	return &PromSink{objective: objective, nodes: nodes, incumbents: incumbents}, nil
}

// register returns the already registered collector when c is a duplicate.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPlanRun updates the objective gauge and node counter. Runs without
// a roster leave the gauge untouched.
func (s *PromSink) RecordPlanRun(ev coremetrics.PlanRunEvent) error {
	if ev.Status == "optimal" || ev.Status == "feasible" {
		s.objective.Set(float64(ev.Objective))
	}
	if ev.Nodes > 0 {
		s.nodes.Add(float64(ev.Nodes))
	}
	return nil
}

// RecordIncumbent counts search improvements.
func (s *PromSink) RecordIncumbent(coremetrics.IncumbentEvent) error {
	s.incumbents.Inc()
	return nil
}
