package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/rosterplan/core/events"
	coremetrics "github.com/kilianp07/rosterplan/core/metrics"
	"github.com/kilianp07/rosterplan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards search
// progress to sinks that record incumbents. It stops when the context is
// canceled or the bus is closed; the returned channel is closed on exit.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.IncumbentRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if e, ok := ev.(events.IncumbentFound); ok {
					at := e.Time
					if at.IsZero() {
						at = time.Now()
					}
					_ = rec.RecordIncumbent(coremetrics.IncumbentEvent{
						RunID:     e.RunID,
						Objective: e.Objective,
						Elapsed:   e.Elapsed,
						Time:      at,
					})
				}
			}
		}
	}()
	return done
}
