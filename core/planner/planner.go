// Package planner orchestrates a planning run: it derives the admissible
// pairs and the session conflicts, hands the resulting 0/1 program to a
// solver backend under a time budget and turns the answer into a Roster.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/rosterplan/core/conflict"
	"github.com/kilianp07/rosterplan/core/eligibility"
	"github.com/kilianp07/rosterplan/core/events"
	"github.com/kilianp07/rosterplan/core/logger"
	"github.com/kilianp07/rosterplan/core/metrics"
	"github.com/kilianp07/rosterplan/core/model"
	"github.com/kilianp07/rosterplan/core/monitoring"
	"github.com/kilianp07/rosterplan/core/runlog"
	"github.com/kilianp07/rosterplan/core/solver"
	"github.com/kilianp07/rosterplan/internal/eventbus"
)

// Planner runs planning requests. It holds no per-run state and may be used
// concurrently.
type Planner struct {
	cfg       Config
	backend   solver.Backend
	evaluator *eligibility.Evaluator
	detector  conflict.Detector
	logger    logger.Logger
	metrics   metrics.MetricsSink
	bus       eventbus.EventBus

	mu    sync.Mutex
	store runlog.LogStore
}

// New creates a planner. sink, bus and log may be nil.
func New(cfg Config, log logger.Logger, sink metrics.MetricsSink, bus eventbus.EventBus) (*Planner, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := solver.New(cfg.backendConfig())
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Planner{
		cfg:       cfg,
		backend:   backend,
		evaluator: eligibility.NewEvaluator(),
		detector:  conflict.Detector{Policy: conflict.UnknownTravelPolicy(cfg.UnknownTravel)},
		logger:    logger.OrNop(log),
		metrics:   sink,
		bus:       bus,
	}, nil
}

// Config returns the effective configuration.
func (p *Planner) Config() Config { return p.cfg }

// SetBackend replaces the solver backend.
func (p *Planner) SetBackend(b solver.Backend) {
	if b != nil {
		p.backend = b
	}
}

// SetEvaluator replaces the eligibility evaluator, typically one extended
// with WithRules.
func (p *Planner) SetEvaluator(e *eligibility.Evaluator) {
	if e != nil {
		p.evaluator = e
	}
}

// SetLogStore configures the store used to persist run history.
func (p *Planner) SetLogStore(store runlog.LogStore) {
	p.mu.Lock()
	p.store = store
	p.mu.Unlock()
}

// Verify checks a roster with the planner's travel policy.
func (p *Planner) Verify(snap *model.Snapshot, r *Roster) error {
	return Verify(snap, r, p.detector.Policy)
}

// run carries the bookkeeping of a single Plan call.
type run struct {
	id          string
	start       time.Time
	snap        *model.Snapshot
	pairs       int
	unreachable int
	sol         solver.Solution
}

// Plan computes a roster for the snapshot. On success every session is
// assigned exactly one doctor; Status tells whether the roster is proven
// optimal or only the best found within the time budget. Failures are
// *UnreachableSessionError, *InfeasibleError or an internal error.
func (p *Planner) Plan(ctx context.Context, snap *model.Snapshot) (*Roster, error) {
	if snap == nil {
		return nil, errors.New("planner: nil snapshot")
	}
	r := &run{id: uuid.NewString(), start: time.Now(), snap: snap}
	roster, err := p.plan(ctx, r)
	p.finish(ctx, r, roster, err)
	return roster, err
}

func (p *Planner) plan(ctx context.Context, r *run) (*Roster, error) {
	snap := r.snap
	sessions := snap.Sessions()
	doctors := snap.Doctors()
	p.logger.Infof("run %s: planning %d sessions with %d doctors", r.id, len(sessions), len(doctors))

	elig := p.evaluator.Evaluate(snap)
	r.pairs = len(elig.Pairs)
	if p.bus != nil {
		p.bus.Publish(events.RunStarted{RunID: r.id, Sessions: len(sessions), Doctors: len(doctors), Pairs: r.pairs, Time: r.start})
	}

	if idx := elig.Unreachable(); len(idx) > 0 {
		ue := &UnreachableSessionError{Sessions: make([]UnreachableSession, 0, len(idx))}
		for _, si := range idx {
			ue.Sessions = append(ue.Sessions, UnreachableSession{
				SessionID:  sessions[si].ID,
				Exclusions: elig.Exclusions[si],
			})
		}
		r.unreachable = len(idx)
		unreachableSession.Add(float64(len(idx)))
		return nil, ue
	}

	capacity := 0
	for _, d := range doctors {
		capacity += d.MaxSessions
	}
	if capacity < len(sessions) {
		return nil, &InfeasibleError{Reason: ReasonCapacity, Sessions: len(sessions), Capacity: capacity}
	}

	conflicts := p.detector.Detect(snap)
	prob := buildProblem(snap, elig, conflicts)
	p.logger.Debugw("model built", map[string]any{
		"run_id":      r.id,
		"variables":   prob.NumVars(),
		"conflicts":   len(conflicts),
		"exclusions":  len(prob.Exclusions),
		"capacities":  len(prob.Capacities),
		"backend":     p.backend.Name(),
		"timeout_sec": p.cfg.TimeoutSeconds,
	})

	solveCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout())
	defer cancel()
	sol, err := p.backend.Solve(solveCtx, prob, p.progress(r.id))
	if err != nil {
		monitoring.CaptureException(err, map[string]string{"component": "planner", "backend": p.backend.Name()})
		return nil, fmt.Errorf("planner: backend %s: %w", p.backend.Name(), err)
	}
	r.sol = sol

	switch sol.Status {
	case solver.StatusInfeasible:
		return nil, &InfeasibleError{Reason: ReasonConstraints}
	case solver.StatusUnknown:
		return nil, &InfeasibleError{TimedOut: true, Reason: ReasonTimeout}
	}

	if len(sol.Values) != prob.NumVars() || !prob.Feasible(sol.Values) {
		err := fmt.Errorf("planner: backend %s returned an assignment that violates the model (%d values for %d variables)", p.backend.Name(), len(sol.Values), prob.NumVars())
		monitoring.CaptureException(err, map[string]string{"component": "planner", "backend": p.backend.Name()})
		return nil, err
	}

	roster := &Roster{
		RunID:       r.id,
		Assignments: make(map[string]string, len(sessions)),
		Objective:   prob.Objective(sol.Values),
		Status:      sol.Status,
		Bound:       sol.Bound,
		HasBound:    sol.HasBound,
		Elapsed:     time.Since(r.start),
		Nodes:       sol.Nodes,
	}
	for v, on := range sol.Values {
		if !on {
			continue
		}
		pair := elig.Pairs[v]
		roster.Assignments[sessions[pair.Session].ID] = doctors[pair.Doctor].ID
	}
	if len(roster.Assignments) != len(sessions) {
		err := fmt.Errorf("planner: backend %s returned %d assignments for %d sessions", p.backend.Name(), len(roster.Assignments), len(sessions))
		monitoring.CaptureException(err, map[string]string{"component": "planner", "backend": p.backend.Name()})
		return nil, err
	}
	return roster, nil
}

// progress logs every improvement and publishes it on the bus, where the
// metrics collector picks it up.
func (p *Planner) progress(runID string) solver.ProgressFunc {
	return func(objective int, elapsed time.Duration) {
		p.logger.Debugw("incumbent", map[string]any{"run_id": runID, "objective": objective, "elapsed_ms": elapsed.Milliseconds()})
		if p.bus != nil {
			p.bus.Publish(events.IncumbentFound{RunID: runID, Objective: objective, Elapsed: elapsed, Time: time.Now()})
		}
	}
}

// finish records the outcome of a run on every observability channel.
func (p *Planner) finish(ctx context.Context, r *run, roster *Roster, err error) {
	elapsed := time.Since(r.start)
	status := string(Kind(err))
	if roster != nil {
		status = roster.Status.String()
	}
	planRuns.WithLabelValues(status).Inc()
	planDuration.Observe(elapsed.Seconds())

	ev := metrics.PlanRunEvent{
		RunID:       r.id,
		Backend:     p.backend.Name(),
		Status:      status,
		Sessions:    len(r.snap.Sessions()),
		Doctors:     len(r.snap.Doctors()),
		Unreachable: r.unreachable,
		Nodes:       r.sol.Nodes,
		Duration:    elapsed,
		Time:        r.start,
	}
	rec := runlog.LogRecord{
		RunID:     r.id,
		Timestamp: r.start,
		Status:    status,
		Sessions:  ev.Sessions,
		Doctors:   ev.Doctors,
		ElapsedMS: elapsed.Milliseconds(),
	}
	finished := events.RunFinished{RunID: r.id, Status: status, Elapsed: elapsed, Err: err}
	if roster != nil {
		ev.Objective, ev.Bound, ev.HasBound = roster.Objective, roster.Bound, roster.HasBound
		ev.Assignments = len(roster.Assignments)
		rec.Objective, rec.Assignments = roster.Objective, roster.Assignments
		finished.Objective, finished.Assignments = roster.Objective, roster.Assignments
	}
	if err != nil {
		ev.Err, rec.Error = err.Error(), err.Error()
	}

	if mErr := p.metrics.RecordPlanRun(ev); mErr != nil {
		p.logger.Errorf("plan metrics error: %v", mErr)
	}
	if p.bus != nil {
		p.bus.Publish(finished)
	}
	p.mu.Lock()
	store := p.store
	p.mu.Unlock()
	if store != nil {
		if sErr := store.Append(context.WithoutCancel(ctx), rec); sErr != nil {
			p.logger.Errorf("run log error: %v", sErr)
		}
	}

	switch {
	case err != nil:
		p.logger.Warnf("run %s failed after %s: %v", r.id, elapsed, err)
	case roster.Status == solver.StatusFeasible:
		if gap, ok := roster.Gap(); ok {
			p.logger.Warnf("run %s: time budget reached, objective %d not proven optimal (gap %.1f%%)", r.id, roster.Objective, gap*100)
		} else {
			p.logger.Warnf("run %s: time budget reached, objective %d not proven optimal", r.id, roster.Objective)
		}
	default:
		p.logger.Infof("run %s: optimal objective %d in %s (%d nodes)", r.id, roster.Objective, elapsed, roster.Nodes)
	}
}
