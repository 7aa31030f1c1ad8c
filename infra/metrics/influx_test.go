package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/rosterplan/core/metrics"
)

func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordPlanRun(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.PlanRunEvent{
		RunID:       "run-1",
		Backend:     "branch_and_bound",
		Status:      "feasible",
		Objective:   12,
		Bound:       14.5,
		HasBound:    true,
		Sessions:    6,
		Doctors:     3,
		Assignments: 6,
		Nodes:       2048,
		Duration:    1500 * time.Microsecond,
		Time:        now,
	}
	if err := sink.RecordPlanRun(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("plan_run").
		AddTag("status", "feasible").
		AddTag("backend", "branch_and_bound").
		AddField("run_id", "run-1").
		AddField("objective", 12).
		AddField("sessions", 6).
		AddField("doctors", 3).
		AddField("assignments", 6).
		AddField("unreachable", 0).
		AddField("nodes", int64(2048)).
		AddField("duration_ms", 1.5).
		AddField("bound", 14.5).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != expected {
		t.Errorf("unexpected body: %v\nwant: %s", got, expected)
	}
}

func TestInfluxSink_RecordPlanRunError(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	if err := sink.RecordPlanRun(coremetrics.PlanRunEvent{RunID: "r", Status: "infeasible", Err: "no roster", Time: time.Now()}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	got := bodies()
	if len(got) != 1 || !strings.Contains(got[0], `error="no roster"`) || strings.Contains(got[0], "bound=") {
		t.Errorf("unexpected body: %v", got)
	}
}

func TestInfluxSink_RecordIncumbent(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	if err := sink.RecordIncumbent(coremetrics.IncumbentEvent{RunID: "r1", Objective: 3, Elapsed: 40 * time.Millisecond, Time: now}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("plan_incumbent").
		AddTag("run_id", "r1").
		AddField("objective", 3).
		AddField("elapsed_ms", int64(40)).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if got := bodies(); len(got) != 1 || got[0] != expected {
		t.Errorf("unexpected body: %v", got)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
