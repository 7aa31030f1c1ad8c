// Package solver hides the search technology behind a small Backend
// interface. The planner describes the roster as a generic 0/1 Problem and
// gets back a Solution tagged with how confident the backend is in it.
package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/rosterplan/core/factory"
)

// Status classifies a solve outcome.
type Status int

const (
	// StatusUnknown means the budget ran out before any solution was found.
	StatusUnknown Status = iota
	// StatusOptimal means the solution is proven optimal.
	StatusOptimal
	// StatusFeasible means a solution was found but the budget ran out
	// before optimality could be proven.
	StatusFeasible
	// StatusInfeasible means the search proved no solution exists.
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "optimal":
		*s = StatusOptimal
	case "feasible":
		*s = StatusFeasible
	case "infeasible":
		*s = StatusInfeasible
	case "unknown":
		*s = StatusUnknown
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

// HasSolution reports whether the status carries a usable assignment.
func (s Status) HasSolution() bool { return s == StatusOptimal || s == StatusFeasible }

// Solution is the result of a solve.
type Solution struct {
	Status    Status
	Values    []bool // one entry per variable, nil without a solution
	Objective int
	// Bound is the best proven upper bound on the objective when HasBound.
	Bound    float64
	HasBound bool
	Nodes    int64
	Elapsed  time.Duration
}

// ProgressFunc is notified whenever a better solution is found.
type ProgressFunc func(objective int, elapsed time.Duration)

// Backend solves Problems. Solve must stop when ctx is done and report the
// best solution found so far.
type Backend interface {
	Name() string
	Solve(ctx context.Context, p Problem, progress ProgressFunc) (Solution, error)
}

// ErrUnknownBackend is returned by New for unregistered backend names.
var ErrUnknownBackend = errors.New("unknown solver backend")

var backends = factory.NewRegistry[Backend]()

// Register adds a backend factory identified by name.
func Register(name string, f factory.Factory[Backend]) error {
	return backends.Register(name, f)
}

// Backends lists the registered backend names.
func Backends() []string { return backends.Names() }

// New creates a backend from its configuration.
func New(cfg factory.ModuleConfig) (Backend, error) {
	b, err := backends.Create(cfg)
	if errors.Is(err, factory.ErrUnknownType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Type)
	}
	return b, err
}

func init() {
	_ = Register(BranchAndBoundName, func(conf map[string]any) (Backend, error) {
		var o Options
		if err := factory.Decode(conf, &o); err != nil {
			return nil, err
		}
		return NewBranchAndBound(o), nil
	})
}
