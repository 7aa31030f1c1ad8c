package planner

import (
	"github.com/kilianp07/rosterplan/core/conflict"
	"github.com/kilianp07/rosterplan/core/eligibility"
	"github.com/kilianp07/rosterplan/core/model"
	"github.com/kilianp07/rosterplan/core/solver"
)

// buildProblem turns the admissible pairs into a 0/1 program. Variable v
// is elig.Pairs[v].
func buildProblem(snap *model.Snapshot, elig *eligibility.Result, conflicts []conflict.Conflict) solver.Problem {
	doctors := snap.Doctors()
	sessions := snap.Sessions()

	p := solver.Problem{
		Weights: make([]int, len(elig.Pairs)),
		Groups:  make([][]int, len(sessions)),
	}
	for v, pair := range elig.Pairs {
		p.Weights[v] = snap.Preference(doctors[pair.Doctor].ID, sessions[pair.Session].LocationID)
	}
	for si, vars := range elig.BySession {
		p.Groups[si] = append([]int(nil), vars...)
	}
	for di, vars := range elig.ByDoctor {
		// A doctor eligible for no more sessions than they may hold is
		// never constrained by capacity.
		if len(vars) <= doctors[di].MaxSessions {
			continue
		}
		p.Capacities = append(p.Capacities, solver.Capacity{
			Vars:  append([]int(nil), vars...),
			Limit: doctors[di].MaxSessions,
		})
	}

	varOf := make([]int, len(doctors))
	for i := range varOf {
		varOf[i] = -1
	}
	for _, c := range conflicts {
		for _, v := range elig.BySession[c.B] {
			varOf[elig.Pairs[v].Doctor] = v
		}
		for _, v := range elig.BySession[c.A] {
			if w := varOf[elig.Pairs[v].Doctor]; w >= 0 {
				p.Exclusions = append(p.Exclusions, [2]int{v, w})
			}
		}
		for _, v := range elig.BySession[c.B] {
			varOf[elig.Pairs[v].Doctor] = -1
		}
	}
	return p
}
