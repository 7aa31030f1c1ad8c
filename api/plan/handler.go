package plan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kilianp07/rosterplan/core/model"
	"github.com/kilianp07/rosterplan/core/planner"
	"github.com/kilianp07/rosterplan/infra/tabular"
	"github.com/kilianp07/rosterplan/pkg/export"
)

// Planner computes a roster for a snapshot.
type Planner interface {
	Plan(ctx context.Context, snap *model.Snapshot) (*planner.Roster, error)
}

// ErrorResponse is the body of every failed plan request.
type ErrorResponse struct {
	Kind    planner.ErrorKind `json:"kind"`
	Error   string            `json:"error"`
	Details any               `json:"details,omitempty"`
}

// NewHandler returns an HTTP handler accepting a tabular.Bundle as JSON via
// POST /api/plan. The roster is returned in the format named by the format
// query parameter (json by default).
func NewHandler(p Planner, v *validator.Validate, maxBody int64) http.Handler {
	if v == nil {
		v = tabular.NewValidator()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		format := export.FormatJSON
		if s := r.URL.Query().Get("format"); s != "" {
			f, err := export.ParseFormat(s)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			format = f
		}
		if maxBody > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		var b tabular.Bundle
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
			return
		}
		snap, err := b.Snapshot(v)
		if err != nil {
			writeError(w, err)
			return
		}
		roster, err := p.Plan(r.Context(), snap)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentType(format))
		w.Header().Set("X-Roster-Status", roster.Status.String())
		if err := export.Write(w, format, snap, roster); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Kind: planner.Kind(err), Error: err.Error()}
	code := http.StatusInternalServerError
	var ve *model.ValidationError
	var ue *planner.UnreachableSessionError
	var ie *planner.InfeasibleError
	switch {
	case errors.As(err, &ve):
		code, resp.Details = http.StatusBadRequest, ve
	case errors.As(err, &ue):
		code, resp.Details = http.StatusUnprocessableEntity, ue
	case errors.As(err, &ie):
		code, resp.Details = http.StatusUnprocessableEntity, ie
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

func contentType(f export.Format) string {
	switch f {
	case export.FormatCSV:
		return "text/csv"
	case export.FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}
