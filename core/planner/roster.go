package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/rosterplan/core/conflict"
	"github.com/kilianp07/rosterplan/core/eligibility"
	"github.com/kilianp07/rosterplan/core/model"
	"github.com/kilianp07/rosterplan/core/solver"
)

// Roster is a complete assignment of doctors to sessions.
type Roster struct {
	RunID string `json:"run_id"`
	// Assignments maps every session ID to exactly one doctor ID.
	Assignments map[string]string `json:"assignments"`
	Objective   int               `json:"objective"`
	Status      solver.Status     `json:"status"`
	// Bound is the best known upper bound on the objective when HasBound.
	Bound    float64       `json:"bound,omitempty"`
	HasBound bool          `json:"has_bound"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Nodes    int64         `json:"nodes"`
}

// Optimal reports whether the roster is proven optimal.
func (r *Roster) Optimal() bool { return r.Status == solver.StatusOptimal }

// Gap returns the relative distance between the objective and the bound.
func (r *Roster) Gap() (float64, bool) {
	if r.Status == solver.StatusOptimal {
		return 0, true
	}
	if !r.HasBound {
		return 0, false
	}
	return (r.Bound - float64(r.Objective)) / math.Max(1, math.Abs(r.Bound)), true
}

// Row is one line of the roster table.
type Row struct {
	Date          model.Date  `json:"date"`
	SessionID     string      `json:"session_id"`
	LocationID    string      `json:"location_id"`
	LocationName  string      `json:"location_name"`
	DoctorID      string      `json:"doctor_id"`
	DoctorName    string      `json:"doctor_name"`
	Start         model.Clock `json:"start_time"`
	End           model.Clock `json:"end_time"`
	Room          string      `json:"room"`
	RequiredSkill string      `json:"required_skill"`
}

// Rows renders the roster as table rows sorted by date, location and start.
func (r *Roster) Rows(snap *model.Snapshot) []Row {
	rows := make([]Row, 0, len(r.Assignments))
	for _, s := range snap.Sessions() {
		doctorID, ok := r.Assignments[s.ID]
		if !ok {
			continue
		}
		row := Row{
			Date:          s.Date,
			SessionID:     s.ID,
			LocationID:    s.LocationID,
			LocationName:  s.LocationID,
			DoctorID:      doctorID,
			DoctorName:    doctorID,
			Start:         s.Start,
			End:           s.End,
			Room:          s.Room,
			RequiredSkill: s.RequiredSkill,
		}
		if loc, ok := snap.Location(s.LocationID); ok && loc.Name != "" {
			row.LocationName = loc.Name
		}
		if d, ok := snap.Doctor(doctorID); ok && d.Name != "" {
			row.DoctorName = d.Name
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.LocationID != b.LocationID {
			return a.LocationID < b.LocationID
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.SessionID < b.SessionID
	})
	return rows
}

// VerifyError lists every hard-constraint violation found in a roster.
type VerifyError struct {
	Violations []string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("roster violates %d constraint(s): %s", len(e.Violations), strings.Join(e.Violations, "; "))
}

// Verify re-checks a roster against the snapshot independently of the
// search: coverage, capacity, eligibility, overlap and travel, and that the
// reported objective matches the preferences.
func Verify(snap *model.Snapshot, r *Roster, policy conflict.UnknownTravelPolicy) error {
	var v []string
	sessions := snap.Sessions()
	assigned := make(map[string]int, len(sessions))
	for id := range r.Assignments {
		if _, ok := snap.Session(id); !ok {
			v = append(v, fmt.Sprintf("unknown session %s", id))
		}
	}

	eval := eligibility.NewEvaluator()
	objective := 0
	for _, s := range sessions {
		doctorID, ok := r.Assignments[s.ID]
		if !ok {
			v = append(v, fmt.Sprintf("session %s is not covered", s.ID))
			continue
		}
		d, ok := snap.Doctor(doctorID)
		if !ok {
			v = append(v, fmt.Sprintf("session %s assigned to unknown doctor %s", s.ID, doctorID))
			continue
		}
		if ok, reason := eval.Check(snap, d, s); !ok {
			v = append(v, fmt.Sprintf("doctor %s is not eligible for %s: %s", d.ID, s.ID, reason))
		}
		assigned[d.ID]++
		objective += snap.Preference(d.ID, s.LocationID)
	}

	for _, d := range snap.Doctors() {
		if n := assigned[d.ID]; n > d.MaxSessions {
			v = append(v, fmt.Sprintf("doctor %s holds %d sessions, max %d", d.ID, n, d.MaxSessions))
		}
	}

	for _, c := range (conflict.Detector{Policy: policy}).Detect(snap) {
		a, b := sessions[c.A], sessions[c.B]
		da, okA := r.Assignments[a.ID]
		db, okB := r.Assignments[b.ID]
		if okA && okB && da == db {
			v = append(v, fmt.Sprintf("doctor %s holds %s and %s (%s)", da, a.ID, b.ID, c.Kind))
		}
	}

	if objective != r.Objective {
		v = append(v, fmt.Sprintf("objective %d does not match preferences %d", r.Objective, objective))
	}
	if len(v) > 0 {
		return &VerifyError{Violations: v}
	}
	return nil
}
