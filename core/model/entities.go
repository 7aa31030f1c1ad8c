package model

import "strings"

// Doctor is a schedulable clinician.
type Doctor struct {
	ID          string
	Name        string
	MaxSessions int // capacity over the whole planning horizon
	// Unavailable dates block assignment and win over every other rule.
	Unavailable DateSet
	// Available dates re-enable a date excluded by the doctor's rhythm.
	Available DateSet
	// Home dates are reserved for remote work. Informational only.
	Home   DateSet
	Skills map[string]struct{}
}

// HasSkill reports whether the doctor carries the given tag. Matching is
// case-insensitive.
func (d Doctor) HasSkill(skill string) bool {
	_, ok := d.Skills[strings.ToLower(skill)]
	return ok
}

// NewSkillSet lower-cases and de-duplicates the given tags.
func NewSkillSet(skills ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(skills))
	for _, sk := range skills {
		sk = strings.ToLower(strings.TrimSpace(sk))
		if sk != "" {
			s[sk] = struct{}{}
		}
	}
	return s
}

// Location is a site where sessions take place.
type Location struct {
	ID           string
	Name         string
	DefaultStart Clock // zero when not configured
	DefaultEnd   Clock
}

// Room is a named room within a location.
type Room struct {
	ID         string
	LocationID string
	Name       string
}

// Session is a time-bound block of work at a location that needs exactly one
// doctor. The interval [Start, End) is half-open.
type Session struct {
	ID            string
	Date          Date
	LocationID    string
	Start         Clock
	End           Clock
	RequiredSkill string // empty means unrestricted
	Room          string
}

// Overlaps reports whether the two sessions share a date and their intervals
// intersect.
func (s Session) Overlaps(o Session) bool {
	return s.Date == o.Date && s.Start < o.End && o.Start < s.End
}

// Preference scores how much a doctor likes working at a location.
type Preference struct {
	DoctorID   string
	LocationID string
	Score      int
}

// WorkdayRule lists one weekday of a doctor's standing rhythm.
type WorkdayRule struct {
	DoctorID string
	Weekday  Weekday
}

// WeekRule permits a location for a doctor on a weekday within a
// week-of-month bucket. Rules sharing (doctor, week, weekday) union their
// locations.
type WeekRule struct {
	DoctorID    string
	WeekOfMonth int
	Weekday     Weekday
	LocationID  string
}

// TravelTime is the directed travel duration between two locations.
type TravelTime struct {
	FromLocationID string
	ToLocationID   string
	Minutes        int
}
