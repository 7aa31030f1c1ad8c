package planner

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kilianp07/rosterplan/core/eligibility"
	"github.com/kilianp07/rosterplan/core/model"
)

// UnreachableSession describes a session no doctor can take.
type UnreachableSession struct {
	SessionID  string                  `json:"session_id"`
	Exclusions []eligibility.Exclusion `json:"exclusions"`
}

// UnreachableSessionError is returned before solving when at least one
// session has no eligible doctor.
type UnreachableSessionError struct {
	Sessions []UnreachableSession `json:"sessions"`
}

func (e *UnreachableSessionError) Error() string {
	parts := make([]string, 0, len(e.Sessions))
	for _, s := range e.Sessions {
		if len(s.Exclusions) == 0 {
			parts = append(parts, s.SessionID+" (no doctors)")
			continue
		}
		counts := make(map[eligibility.Reason]int)
		for _, ex := range s.Exclusions {
			counts[ex.Reason]++
		}
		reasons := make([]string, 0, len(counts))
		for r, n := range counts {
			reasons = append(reasons, fmt.Sprintf("%s=%d", r, n))
		}
		sort.Strings(reasons)
		parts = append(parts, fmt.Sprintf("%s (%s)", s.SessionID, strings.Join(reasons, ", ")))
	}
	return fmt.Sprintf("%d session(s) without eligible doctor: %s", len(e.Sessions), strings.Join(parts, "; "))
}

// Infeasibility reasons.
const (
	ReasonCapacity    = "capacity"
	ReasonConstraints = "constraints"
	ReasonTimeout     = "timeout"
)

// InfeasibleError reports that no roster satisfies the hard constraints, or
// that none was found within the time budget when TimedOut is set.
type InfeasibleError struct {
	TimedOut bool   `json:"timed_out"`
	Reason   string `json:"reason"`
	// Sessions and Capacity are filled by the capacity pre-check.
	Sessions int `json:"sessions,omitempty"`
	Capacity int `json:"capacity,omitempty"`
}

func (e *InfeasibleError) Error() string {
	switch {
	case e.Reason == ReasonCapacity:
		return fmt.Sprintf("infeasible: %d sessions exceed total doctor capacity %d", e.Sessions, e.Capacity)
	case e.TimedOut:
		return "infeasible: no roster found within the time budget"
	default:
		return "infeasible: conflicts and capacity over-constrain the roster"
	}
}

// ErrorKind classifies planning failures for presentation layers.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindValidation         ErrorKind = "validation"
	KindUnreachableSession ErrorKind = "unreachable_session"
	KindInfeasible         ErrorKind = "infeasible"
	KindInternal           ErrorKind = "internal"
)

// Kind maps an error returned by the planning pipeline to its class.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var ve *model.ValidationError
	var ue *UnreachableSessionError
	var ie *InfeasibleError
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ue):
		return KindUnreachableSession
	case errors.As(err, &ie):
		return KindInfeasible
	default:
		return KindInternal
	}
}
