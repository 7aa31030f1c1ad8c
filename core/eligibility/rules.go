package eligibility

import "github.com/kilianp07/rosterplan/core/model"

// Reason identifies the rule that excluded a (doctor, session) pair.
type Reason string

const (
	ReasonUnavailable Reason = "unavailable"
	ReasonSkill       Reason = "skill_mismatch"
	ReasonRhythm      Reason = "rhythm"
	ReasonWeekRule    Reason = "week_rule"
)

// Rule is a narrowing filter over (doctor, session) pairs. A pair is
// admissible only when every rule admits it.
type Rule interface {
	Reason() Reason
	Admit(snap *model.Snapshot, d model.Doctor, s model.Session) bool
}

// RuleFunc adapts a plain function to the Rule interface.
type RuleFunc struct {
	Name Reason
	Fn   func(snap *model.Snapshot, d model.Doctor, s model.Session) bool
}

func (r RuleFunc) Reason() Reason { return r.Name }

func (r RuleFunc) Admit(snap *model.Snapshot, d model.Doctor, s model.Session) bool {
	return r.Fn(snap, d, s)
}

// UnavailableRule rejects sessions on a doctor's blocked dates. Nothing
// overrides it.
type UnavailableRule struct{}

func (UnavailableRule) Reason() Reason { return ReasonUnavailable }

func (UnavailableRule) Admit(_ *model.Snapshot, d model.Doctor, s model.Session) bool {
	return !d.Unavailable.Has(s.Date)
}

// SkillRule requires the doctor to hold the session's skill, if any.
type SkillRule struct{}

func (SkillRule) Reason() Reason { return ReasonSkill }

func (SkillRule) Admit(_ *model.Snapshot, d model.Doctor, s model.Session) bool {
	return s.RequiredSkill == "" || d.HasSkill(s.RequiredSkill)
}

// RhythmRule restricts doctors with a standing rhythm to their weekdays,
// unless the date is explicitly marked available.
type RhythmRule struct{}

func (RhythmRule) Reason() Reason { return ReasonRhythm }

func (RhythmRule) Admit(snap *model.Snapshot, d model.Doctor, s model.Session) bool {
	days := snap.Workdays(d.ID)
	if len(days) == 0 {
		return true
	}
	if _, ok := days[s.Date.Weekday()]; ok {
		return true
	}
	return d.Available.Has(s.Date)
}

// WeekRuleRule limits the doctor to the locations listed by a matching week
// rule. Without a matching rule there is no restriction.
type WeekRuleRule struct{}

func (WeekRuleRule) Reason() Reason { return ReasonWeekRule }

func (WeekRuleRule) Admit(snap *model.Snapshot, d model.Doctor, s model.Session) bool {
	allowed := snap.WeekRuleLocations(d.ID, s.Date.WeekOfMonth(), s.Date.Weekday())
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[s.LocationID]
	return ok
}

// DefaultRules returns the built-in rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{UnavailableRule{}, SkillRule{}, RhythmRule{}, WeekRuleRule{}}
}
