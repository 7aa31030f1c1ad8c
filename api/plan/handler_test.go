package plan

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rosterplan/core/model"
	"github.com/kilianp07/rosterplan/core/planner"
	"github.com/kilianp07/rosterplan/infra/tabular"
)

func bundle() tabular.Bundle {
	return tabular.Bundle{
		Doctors:   []tabular.DoctorRow{{DoctorID: "d1", Name: "Dr One", MaxSessions: 2}},
		Locations: []tabular.LocationRow{{LocationID: "L1", Name: "North"}},
		Sessions: []tabular.SessionRow{
			{SessionID: "s1", Date: "2024-03-04", LocationID: "L1", StartTime: "09:00", EndTime: "12:00"},
			{SessionID: "s2", Date: "2024-03-04", LocationID: "L1", StartTime: "13:00", EndTime: "16:00"},
		},
		Preferences: []tabular.PreferenceRow{{DoctorID: "d1", LocationID: "L1", Score: 2}},
	}
}

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	p, err := planner.New(planner.Config{TimeoutSeconds: 5, Deterministic: true}, nil, nil, nil)
	require.NoError(t, err)
	return NewHandler(p, nil, 1<<20)
}

func post(t *testing.T, h http.Handler, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, url, bytes.NewReader(data)))
	return rr
}

func TestPlanHandler_JSON(t *testing.T) {
	rr := post(t, newHandler(t), "/api/plan", bundle())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "optimal", rr.Header().Get("X-Roster-Status"))

	var doc struct {
		Status    string           `json:"status"`
		Objective int              `json:"objective"`
		Rows      []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Equal(t, "optimal", doc.Status)
	assert.Equal(t, 4, doc.Objective)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "d1", doc.Rows[0]["doctor_id"])
}

func TestPlanHandler_CSV(t *testing.T) {
	rr := post(t, newHandler(t), "/api/plan?format=csv", bundle())
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	records, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestPlanHandler_Errors(t *testing.T) {
	h := newHandler(t)

	b := bundle()
	b.Doctors[0].MaxSessions = -1
	rr := post(t, h, "/api/plan", b)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	var resp struct {
		Kind    string         `json:"kind"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "validation", resp.Kind)
	assert.Equal(t, "max_sessions", resp.Details["field"])

	b = bundle()
	b.Doctors[0].UnavailableDates = []string{"2024-03-04"}
	rr = post(t, h, "/api/plan", b)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "unreachable_session", resp.Kind)

	b = bundle()
	b.Doctors[0].MaxSessions = 1
	rr = post(t, h, "/api/plan", b)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "infeasible", resp.Kind)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/plan", bytes.NewReader([]byte(`{"nurses":[]}`))))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = post(t, h, "/api/plan?format=xlsx", bundle())
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/plan", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

type mockPlanner struct{ mock.Mock }

func (m *mockPlanner) Plan(ctx context.Context, snap *model.Snapshot) (*planner.Roster, error) {
	args := m.Called(ctx, snap)
	r, _ := args.Get(0).(*planner.Roster)
	return r, args.Error(1)
}

func TestPlanHandler_InternalError(t *testing.T) {
	p := &mockPlanner{}
	p.On("Plan", mock.Anything, mock.AnythingOfType("*model.Snapshot")).Return(nil, errors.New("boom")).Once()
	p.On("Plan", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded).Once()

	rr := post(t, NewHandler(p, nil, 0), "/api/plan", bundle())
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = post(t, NewHandler(p, nil, 0), "/api/plan", bundle())
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	p.AssertExpectations(t)
}
