// Package conflict finds pairs of sessions that a single doctor can never
// hold together, independent of which doctor it is. Only sessions on the same
// date are compared.
package conflict

import (
	"sort"

	"github.com/kilianp07/rosterplan/core/model"
)

// Kind classifies a conflict.
type Kind string

const (
	KindOverlap Kind = "overlap"
	KindTravel  Kind = "travel"
)

// Conflict is a mutually exclusive pair of sessions. A and B index the
// snapshot's Sessions(); A starts no later than B.
type Conflict struct {
	A    int
	B    int
	Kind Kind
	// GapMinutes is B.Start - A.End, negative when the sessions overlap.
	GapMinutes int
	// RequiredMinutes is the travel time from A's location to B's.
	RequiredMinutes int
}

// Detector computes structural conflicts.
type Detector struct {
	Policy UnknownTravelPolicy
}

// NewDetector returns a detector treating unknown travel times as infeasible.
func NewDetector() Detector { return Detector{Policy: UnknownInfeasible} }

// Detect returns every conflicting same-day pair, ordered by date and start.
func (d Detector) Detect(snap *model.Snapshot) []Conflict {
	sessions := snap.Sessions()
	travel := NewTravelMatrix(snap, d.Policy)

	byDate := make(map[model.Date][]int)
	var dates []model.Date
	for i, s := range sessions {
		if _, ok := byDate[s.Date]; !ok {
			dates = append(dates, s.Date)
		}
		byDate[s.Date] = append(byDate[s.Date], i)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var out []Conflict
	for _, day := range dates {
		idx := byDate[day]
		sort.Slice(idx, func(i, j int) bool {
			a, b := sessions[idx[i]], sessions[idx[j]]
			if a.Start != b.Start {
				return a.Start < b.Start
			}
			if a.End != b.End {
				return a.End < b.End
			}
			return a.ID < b.ID
		})
		for i := 0; i < len(idx); i++ {
			a := sessions[idx[i]]
			for j := i + 1; j < len(idx); j++ {
				b := sessions[idx[j]]
				gap := b.Start.Sub(a.End)
				required := travel.Minutes(a.LocationID, b.LocationID)
				c := Conflict{A: idx[i], B: idx[j], GapMinutes: gap, RequiredMinutes: required}
				switch {
				case a.Overlaps(b):
					c.Kind = KindOverlap
				case gap < required:
					c.Kind = KindTravel
				default:
					continue
				}
				out = append(out, c)
			}
		}
	}
	return out
}
