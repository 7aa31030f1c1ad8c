package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rosterplan/config"
	"github.com/kilianp07/rosterplan/core/model"
	"github.com/kilianp07/rosterplan/core/runlog"
	"github.com/kilianp07/rosterplan/infra/mqtt"
)

func snapshot(t *testing.T) *model.Snapshot {
	t.Helper()
	snap, err := model.NewSnapshot(model.Input{
		Doctors:   []model.Doctor{{ID: "d1", MaxSessions: 1}, {ID: "d2", MaxSessions: 1}},
		Locations: []model.Location{{ID: "L1"}},
		Sessions: []model.Session{
			{ID: "s1", Date: model.MustDate("2024-03-04"), LocationID: "L1", Start: model.MustClock("09:00"), End: model.MustClock("12:00")},
			{ID: "s2", Date: model.MustDate("2024-03-05"), LocationID: "L1", Start: model.MustClock("09:00"), End: model.MustClock("12:00")},
		},
		Preferences: []model.Preference{{DoctorID: "d1", LocationID: "L1", Score: 1}},
	})
	require.NoError(t, err)
	return snap
}

func newService(t *testing.T, cfg *config.Config) (*Service, *mqtt.MockPublisher, runlog.LogStore) {
	t.Helper()
	store, err := runlog.NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	pub := mqtt.NewMockPublisher()
	svc, err := New(cfg, WithLogStore(store), WithPublisher(pub))
	require.NoError(t, err)
	return svc, pub, store
}

func TestService_PlanRecordsAndAnnounces(t *testing.T) {
	cfg := config.Default()
	cfg.Planner.Deterministic = true
	svc, pub, store := newService(t, cfg)

	roster, err := svc.Plan(context.Background(), snapshot(t))
	require.NoError(t, err)
	assert.Len(t, roster.Assignments, 2)

	recs, err := store.Query(context.Background(), runlog.LogQuery{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, roster.RunID, recs[0].RunID)

	require.NoError(t, svc.Close())
	require.Equal(t, 1, pub.Count(cfg.MQTT.RosterTopic()))
	var msg mqtt.RosterMessage
	require.NoError(t, json.Unmarshal(pub.Messages[cfg.MQTT.RosterTopic()][0], &msg))
	assert.Equal(t, roster.RunID, msg.RunID)
	assert.Equal(t, roster.Assignments, msg.Assignments)

	assert.NoError(t, svc.Close())
}

func TestService_Handler(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Token = "secret"
	svc, _, _ := newService(t, cfg)
	defer func() { _ = svc.Close() }()
	h := svc.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "roster_plan")
}

func TestService_WithoutObservers(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Sinks = nil
	cfg.RunLog.Backend = runlog.BackendNone
	svc, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, svc.Close())
}
