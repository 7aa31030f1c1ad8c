// Package eligibility decides which doctors may staff which sessions. The
// output is a sparse list of admissible pairs that becomes the decision
// variables of the solver, plus the exclusion reasons needed to explain
// sessions nobody can take.
package eligibility

import "github.com/kilianp07/rosterplan/core/model"

// Pair is an admissible (doctor, session) combination. Indices refer to the
// snapshot's ordered Doctors() and Sessions() slices.
type Pair struct {
	Doctor  int
	Session int
}

// Exclusion records why a doctor cannot take a session.
type Exclusion struct {
	DoctorID string `json:"doctor_id"`
	Reason   Reason `json:"reason"`
}

// Result is the outcome of evaluating every (doctor, session) pair.
type Result struct {
	// Pairs is the flat arena of admissible pairs. Position in this slice is
	// the variable index used by the solver.
	Pairs []Pair
	// BySession lists pair indices per session index.
	BySession [][]int
	// ByDoctor lists pair indices per doctor index.
	ByDoctor [][]int
	// Exclusions lists the rejected doctors per session index.
	Exclusions [][]Exclusion

	snap *model.Snapshot
}

// Evaluator applies a pipeline of rules.
type Evaluator struct {
	rules []Rule
}

// NewEvaluator returns an evaluator running the default rules.
func NewEvaluator() *Evaluator {
	return &Evaluator{rules: DefaultRules()}
}

// WithRules returns a copy of e that also runs the extra rules after the
// built-in ones.
func (e *Evaluator) WithRules(extra ...Rule) *Evaluator {
	rules := make([]Rule, 0, len(e.rules)+len(extra))
	rules = append(rules, e.rules...)
	rules = append(rules, extra...)
	return &Evaluator{rules: rules}
}

// Check runs the rules on a single pair and returns the first failing reason.
func (e *Evaluator) Check(snap *model.Snapshot, d model.Doctor, s model.Session) (bool, Reason) {
	for _, r := range e.rules {
		if !r.Admit(snap, d, s) {
			return false, r.Reason()
		}
	}
	return true, ""
}

// Evaluate checks every pair of the snapshot.
func (e *Evaluator) Evaluate(snap *model.Snapshot) *Result {
	doctors := snap.Doctors()
	sessions := snap.Sessions()
	res := &Result{
		BySession:  make([][]int, len(sessions)),
		ByDoctor:   make([][]int, len(doctors)),
		Exclusions: make([][]Exclusion, len(sessions)),
		snap:       snap,
	}
	for si, s := range sessions {
		for di, d := range doctors {
			ok, reason := e.Check(snap, d, s)
			if !ok {
				res.Exclusions[si] = append(res.Exclusions[si], Exclusion{DoctorID: d.ID, Reason: reason})
				continue
			}
			idx := len(res.Pairs)
			res.Pairs = append(res.Pairs, Pair{Doctor: di, Session: si})
			res.BySession[si] = append(res.BySession[si], idx)
			res.ByDoctor[di] = append(res.ByDoctor[di], idx)
		}
	}
	return res
}

// Eligible reports whether the doctor index may take the session index.
func (r *Result) Eligible(doctor, session int) bool {
	for _, p := range r.BySession[session] {
		if r.Pairs[p].Doctor == doctor {
			return true
		}
	}
	return false
}

// DoctorsFor returns the IDs of the doctors eligible for a session ID.
func (r *Result) DoctorsFor(sessionID string) []string {
	for si, s := range r.snap.Sessions() {
		if s.ID != sessionID {
			continue
		}
		ids := make([]string, 0, len(r.BySession[si]))
		for _, p := range r.BySession[si] {
			ids = append(ids, r.snap.Doctors()[r.Pairs[p].Doctor].ID)
		}
		return ids
	}
	return nil
}

// Unreachable returns the indices of sessions without any eligible doctor,
// in session order.
func (r *Result) Unreachable() []int {
	var out []int
	for si, pairs := range r.BySession {
		if len(pairs) == 0 {
			out = append(out, si)
		}
	}
	return out
}
