package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/rosterplan/core/metrics"
)

func TestPromSink_RecordPlanRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordPlanRun(coremetrics.PlanRunEvent{Status: "optimal", Objective: 9, Nodes: 100}))
	require.NoError(t, sink.RecordPlanRun(coremetrics.PlanRunEvent{Status: "infeasible", Nodes: 50, Err: "infeasible"}))
	require.NoError(t, sink.RecordIncumbent(coremetrics.IncumbentEvent{Objective: 9}))

	assert.Equal(t, 9.0, testutil.ToFloat64(sink.objective))
	assert.Equal(t, 150.0, testutil.ToFloat64(sink.nodes))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.incumbents))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordPlanRun(coremetrics.PlanRunEvent{Status: "feasible", Objective: 4, Nodes: 10}))
	assert.Equal(t, 4.0, testutil.ToFloat64(second.objective))
	assert.Equal(t, 10.0, testutil.ToFloat64(second.nodes))
}
