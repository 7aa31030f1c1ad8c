package metrics

import "errors"

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlanRun forwards the event to every sink. A failing sink does not
// prevent the others from receiving it.
func (m *MultiSink) RecordPlanRun(ev PlanRunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordPlanRun(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordIncumbent forwards progress events to sinks that support them.
func (m *MultiSink) RecordIncumbent(ev IncumbentEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(IncumbentRecorder); ok {
			if err := rec.RecordIncumbent(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close releases sinks holding connections.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
