package runs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rosterplan/core/runlog"
)

func seededStore(t *testing.T) runlog.LogStore {
	t.Helper()
	store, err := runlog.NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	base := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	for _, rec := range []runlog.LogRecord{
		{RunID: "r1", Timestamp: base, Status: "optimal", Assignments: map[string]string{"s1": "d1"}},
		{RunID: "r2", Timestamp: base.Add(time.Hour), Status: "infeasible", Error: "no roster"},
		{RunID: "r3", Timestamp: base.Add(2 * time.Hour), Status: "feasible", Assignments: map[string]string{"s1": "d2"}},
	} {
		require.NoError(t, store.Append(context.Background(), rec))
	}
	return store
}

func get(t *testing.T, h http.Handler, url string) (*httptest.ResponseRecorder, []runlog.LogRecord) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))
	var out []runlog.LogRecord
	if rr.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func ids(recs []runlog.LogRecord) []string {
	out := []string{}
	for _, r := range recs {
		out = append(out, r.RunID)
	}
	return out
}

func TestRunsHandler_Filters(t *testing.T) {
	h := NewHandler(seededStore(t))
	cases := []struct {
		url  string
		want []string
	}{
		{"/api/runs", []string{"r1", "r2", "r3"}},
		{"/api/runs?status=infeasible", []string{"r2"}},
		{"/api/runs?doctor_id=d2", []string{"r3"}},
		{"/api/runs?start=2024-03-04T08:30:00Z", []string{"r2", "r3"}},
		{"/api/runs?end=2024-03-04T08:30:00Z", []string{"r1"}},
		{"/api/runs?limit=1", []string{"r3"}},
		{"/api/runs?run_id=r2", []string{"r2"}},
		{"/api/runs?status=unknown", []string{}},
	}
	for _, tc := range cases {
		rr, out := get(t, h, tc.url)
		require.Equal(t, http.StatusOK, rr.Code, tc.url)
		assert.Equal(t, tc.want, ids(out), tc.url)
	}
}

func TestRunsHandler_BadRequests(t *testing.T) {
	h := NewHandler(runlog.NopStore{})
	rr, _ := get(t, h, "/api/runs?start=yesterday")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr, _ = get(t, h, "/api/runs?limit=many")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/runs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr, out := get(t, h, "/api/runs")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, out)
	assert.Equal(t, "[]\n", rr.Body.String())
}
