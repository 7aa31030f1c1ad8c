package scenarios

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rosterplan/core/planner"
	"github.com/kilianp07/rosterplan/infra/logger"
	"github.com/kilianp07/rosterplan/infra/metrics"
	"github.com/kilianp07/rosterplan/internal/eventbus"
)

// RunScenario plans sc twice in deterministic mode and checks the outcome,
// the roster invariants and that both runs agree on the objective.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	bus := eventbus.New()
	defer bus.Close()

	cfg := planner.Config{TimeoutSeconds: 10, Deterministic: true, UnknownTravel: sc.UnknownTravel}
	p, err := planner.New(cfg, logger.NopLogger{}, sink, bus)
	require.NoError(t, err)

	snap, err := sc.Input.Snapshot(nil)
	if err != nil {
		assert.Equal(t, sc.Expected.Outcome, string(planner.Kind(err)), "snapshot: %v", err)
		return
	}

	roster, err := p.Plan(context.Background(), snap)
	outcome := string(planner.Kind(err))
	if err == nil {
		outcome = roster.Status.String()
	}
	require.Equal(t, sc.Expected.Outcome, outcome, "plan error: %v", err)

	if err != nil {
		checkFailure(t, sc, err)
		return
	}

	require.NoError(t, p.Verify(snap, roster))
	if sc.Expected.Objective != nil {
		assert.Equal(t, *sc.Expected.Objective, roster.Objective)
	}
	if sc.Expected.Assignments != nil {
		assert.Equal(t, sc.Expected.Assignments, roster.Assignments)
	}
	assert.Equal(t, float64(roster.Objective), gauge(t, reg, "roster_plan_objective"))

	again, err := p.Plan(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, roster.Objective, again.Objective, "repeated run changed the objective")
}

func checkFailure(t *testing.T, sc *Scenario, err error) {
	t.Helper()
	var ue *planner.UnreachableSessionError
	if errors.As(err, &ue) && sc.Expected.Unreachable != nil {
		ids := make([]string, 0, len(ue.Sessions))
		for _, s := range ue.Sessions {
			ids = append(ids, s.SessionID)
		}
		sort.Strings(ids)
		assert.Equal(t, sc.Expected.Unreachable, ids)
	}
	var ie *planner.InfeasibleError
	if errors.As(err, &ie) && sc.Expected.Reason != "" {
		assert.Equal(t, sc.Expected.Reason, ie.Reason)
	}
}

func gauge(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
