package runs

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/rosterplan/core/runlog"
)

// NewHandler returns an HTTP handler exposing the run history via
// GET /api/runs. Supported filters: start, end (RFC 3339), status,
// doctor_id, run_id and limit.
func NewHandler(store runlog.LogStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []runlog.LogRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func parseQuery(r *http.Request) (runlog.LogQuery, error) {
	v := r.URL.Query()
	q := runlog.LogQuery{
		Status:   v.Get("status"),
		DoctorID: v.Get("doctor_id"),
		RunID:    v.Get("run_id"),
	}
	var err error
	if s := v.Get("start"); s != "" {
		if q.Start, err = time.Parse(time.RFC3339, s); err != nil {
			return q, err
		}
	}
	if s := v.Get("end"); s != "" {
		if q.End, err = time.Parse(time.RFC3339, s); err != nil {
			return q, err
		}
	}
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			return q, err
		}
	}
	return q, nil
}
