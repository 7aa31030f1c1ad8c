package metrics

import "time"

// PlanRunEvent summarises one planning run.
type PlanRunEvent struct {
	RunID       string
	Backend     string
	Status      string
	Objective   int
	Bound       float64
	HasBound    bool
	Sessions    int
	Doctors     int
	Assignments int
	Unreachable int
	Nodes       int64
	Duration    time.Duration
	Err         string
	Time        time.Time
}

// MetricsSink records planning runs for observability purposes.
type MetricsSink interface {
	RecordPlanRun(ev PlanRunEvent) error
}

// IncumbentEvent is emitted whenever the search improves its best roster.
type IncumbentEvent struct {
	RunID     string
	Objective int
	Elapsed   time.Duration
	Time      time.Time
}

// IncumbentRecorder records search progress when supported by the sink.
type IncumbentRecorder interface {
	RecordIncumbent(ev IncumbentEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlanRun(PlanRunEvent) error     { return nil }
func (NopSink) RecordIncumbent(IncumbentEvent) error { return nil }
