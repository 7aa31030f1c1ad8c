package conflict

import "github.com/kilianp07/rosterplan/core/model"

// Unknown is the travel time assumed when no entry exists in either
// direction. It exceeds any same-day gap.
const Unknown = 1 << 30

// UnknownTravelPolicy controls how missing travel entries are treated.
type UnknownTravelPolicy string

const (
	// UnknownInfeasible forbids one doctor from holding two sessions at
	// locations without a known travel time.
	UnknownInfeasible UnknownTravelPolicy = "infeasible"
	// UnknownIgnore treats a missing entry as zero minutes.
	UnknownIgnore UnknownTravelPolicy = "ignore"
)

// TravelMatrix answers travel-time lookups between locations.
type TravelMatrix struct {
	snap   *model.Snapshot
	policy UnknownTravelPolicy
}

// NewTravelMatrix wraps the snapshot's travel entries. An empty policy means
// UnknownInfeasible.
func NewTravelMatrix(snap *model.Snapshot, policy UnknownTravelPolicy) TravelMatrix {
	if policy == "" {
		policy = UnknownInfeasible
	}
	return TravelMatrix{snap: snap, policy: policy}
}

// Known reports whether a travel time exists for from→to, directly or via
// the reverse entry.
func (m TravelMatrix) Known(from, to string) bool {
	if from == to {
		return true
	}
	if _, ok := m.snap.Travel(from, to); ok {
		return true
	}
	_, ok := m.snap.Travel(to, from)
	return ok
}

// Minutes returns the required travel minutes from one location to another.
// The same location needs none; a missing directed entry falls back to the
// reverse direction; a missing pair yields Unknown under UnknownInfeasible.
func (m TravelMatrix) Minutes(from, to string) int {
	if from == to {
		return 0
	}
	if v, ok := m.snap.Travel(from, to); ok {
		return v
	}
	if v, ok := m.snap.Travel(to, from); ok {
		return v
	}
	if m.policy == UnknownIgnore {
		return 0
	}
	return Unknown
}
