package model

import (
	"fmt"
	"sort"
	"strings"
)

// Input gathers the raw entities of one planning invocation.
type Input struct {
	Doctors     []Doctor
	Locations   []Location
	Sessions    []Session
	Rooms       []Room
	Preferences []Preference
	Workdays    []WorkdayRule
	WeekRules   []WeekRule
	TravelTimes []TravelTime
}

type pairKey struct{ a, b string }

type weekRuleKey struct {
	doctorID string
	week     int
	weekday  Weekday
}

// Snapshot is the immutable, indexed view of an Input. Slices returned by its
// accessors are shared and must not be modified.
type Snapshot struct {
	doctors   []Doctor
	locations []Location
	sessions  []Session
	rooms     []Room

	doctorIdx   map[string]int
	locationIdx map[string]int
	sessionIdx  map[string]int

	prefs     map[pairKey]int
	travel    map[pairKey]int
	workdays  map[string]map[Weekday]struct{}
	weekRules map[weekRuleKey]map[string]struct{}
}

// NewSnapshot validates and indexes in. Entities are ordered by identifier so
// that every downstream stage iterates deterministically. Referential
// integrity (e.g. a session pointing to an unknown location) is not checked.
// Skill tags are lower-cased.
//
//gocyclo:ignore
func NewSnapshot(in Input) (*Snapshot, error) {
	s := &Snapshot{
		doctors:     append([]Doctor(nil), in.Doctors...),
		locations:   append([]Location(nil), in.Locations...),
		sessions:    append([]Session(nil), in.Sessions...),
		rooms:       append([]Room(nil), in.Rooms...),
		doctorIdx:   make(map[string]int, len(in.Doctors)),
		locationIdx: make(map[string]int, len(in.Locations)),
		sessionIdx:  make(map[string]int, len(in.Sessions)),
		prefs:       make(map[pairKey]int, len(in.Preferences)),
		travel:      make(map[pairKey]int, len(in.TravelTimes)),
		workdays:    make(map[string]map[Weekday]struct{}),
		weekRules:   make(map[weekRuleKey]map[string]struct{}),
	}
	sort.Slice(s.doctors, func(i, j int) bool { return s.doctors[i].ID < s.doctors[j].ID })
	sort.Slice(s.locations, func(i, j int) bool { return s.locations[i].ID < s.locations[j].ID })
	sort.Slice(s.sessions, func(i, j int) bool { return s.sessions[i].ID < s.sessions[j].ID })

	for i, d := range s.doctors {
		if d.ID == "" {
			return nil, invalid("doctor", "", "doctor_id", "empty identifier")
		}
		if _, dup := s.doctorIdx[d.ID]; dup {
			return nil, invalid("doctor", d.ID, "doctor_id", "duplicate identifier")
		}
		if d.MaxSessions < 0 {
			return nil, invalid("doctor", d.ID, "max_sessions", fmt.Sprintf("must be non-negative, got %d", d.MaxSessions))
		}
		if len(d.Skills) > 0 {
			tags := make([]string, 0, len(d.Skills))
			for sk := range d.Skills {
				tags = append(tags, sk)
			}
			s.doctors[i].Skills = NewSkillSet(tags...)
		}
		s.doctorIdx[d.ID] = i
	}
	for i, l := range s.locations {
		if l.ID == "" {
			return nil, invalid("location", "", "location_id", "empty identifier")
		}
		if _, dup := s.locationIdx[l.ID]; dup {
			return nil, invalid("location", l.ID, "location_id", "duplicate identifier")
		}
		s.locationIdx[l.ID] = i
	}
	for i, ss := range s.sessions {
		if ss.ID == "" {
			return nil, invalid("session", "", "session_id", "empty identifier")
		}
		if _, dup := s.sessionIdx[ss.ID]; dup {
			return nil, invalid("session", ss.ID, "session_id", "duplicate identifier")
		}
		s.sessions[i].RequiredSkill = strings.ToLower(strings.TrimSpace(ss.RequiredSkill))
		s.sessionIdx[ss.ID] = i
	}
	seenRooms := make(map[string]struct{}, len(s.rooms))
	for _, r := range s.rooms {
		if r.ID == "" {
			continue
		}
		if _, dup := seenRooms[r.ID]; dup {
			return nil, invalid("room", r.ID, "room_id", "duplicate identifier")
		}
		seenRooms[r.ID] = struct{}{}
	}
	for _, p := range in.Preferences {
		k := pairKey{p.DoctorID, p.LocationID}
		if _, dup := s.prefs[k]; dup {
			return nil, invalid("preference", p.DoctorID+"/"+p.LocationID, "", "duplicate (doctor_id, location_id)")
		}
		s.prefs[k] = p.Score
	}
	for _, t := range in.TravelTimes {
		key := t.FromLocationID + "->" + t.ToLocationID
		if t.Minutes < 0 {
			return nil, invalid("travel_time", key, "minutes", "must be non-negative")
		}
		k := pairKey{t.FromLocationID, t.ToLocationID}
		if _, dup := s.travel[k]; dup {
			return nil, invalid("travel_time", key, "", "duplicate (from, to)")
		}
		s.travel[k] = t.Minutes
	}
	for _, w := range in.Workdays {
		if !w.Weekday.Valid() {
			return nil, invalid("workday_rule", w.DoctorID, "weekday", fmt.Sprintf("out of range 1..7: %d", w.Weekday))
		}
		set, ok := s.workdays[w.DoctorID]
		if !ok {
			set = make(map[Weekday]struct{})
			s.workdays[w.DoctorID] = set
		}
		set[w.Weekday] = struct{}{}
	}
	for _, r := range in.WeekRules {
		if r.WeekOfMonth < 1 || r.WeekOfMonth > 5 {
			return nil, invalid("week_rule", r.DoctorID, "week_of_month", fmt.Sprintf("out of range 1..5: %d", r.WeekOfMonth))
		}
		if !r.Weekday.Valid() {
			return nil, invalid("week_rule", r.DoctorID, "weekday", fmt.Sprintf("out of range 1..7: %d", r.Weekday))
		}
		k := weekRuleKey{r.DoctorID, r.WeekOfMonth, r.Weekday}
		set, ok := s.weekRules[k]
		if !ok {
			set = make(map[string]struct{})
			s.weekRules[k] = set
		}
		set[r.LocationID] = struct{}{}
	}
	return s, nil
}

// Doctors returns all doctors ordered by ID.
func (s *Snapshot) Doctors() []Doctor { return s.doctors }

// Locations returns all locations ordered by ID.
func (s *Snapshot) Locations() []Location { return s.locations }

// Sessions returns all sessions ordered by ID.
func (s *Snapshot) Sessions() []Session { return s.sessions }

// Rooms returns the rooms in input order.
func (s *Snapshot) Rooms() []Room { return s.rooms }

// Doctor looks a doctor up by ID.
func (s *Snapshot) Doctor(id string) (Doctor, bool) {
	i, ok := s.doctorIdx[id]
	if !ok {
		return Doctor{}, false
	}
	return s.doctors[i], true
}

// Location looks a location up by ID.
func (s *Snapshot) Location(id string) (Location, bool) {
	i, ok := s.locationIdx[id]
	if !ok {
		return Location{}, false
	}
	return s.locations[i], true
}

// Session looks a session up by ID.
func (s *Snapshot) Session(id string) (Session, bool) {
	i, ok := s.sessionIdx[id]
	if !ok {
		return Session{}, false
	}
	return s.sessions[i], true
}

// Preference returns the score of (doctor, location), 0 when absent.
func (s *Snapshot) Preference(doctorID, locationID string) int {
	return s.prefs[pairKey{doctorID, locationID}]
}

// HasPreferences reports whether any preference was supplied.
func (s *Snapshot) HasPreferences() bool { return len(s.prefs) > 0 }

// Workdays returns the rhythm of a doctor. An empty result means no rhythm.
func (s *Snapshot) Workdays(doctorID string) map[Weekday]struct{} {
	return s.workdays[doctorID]
}

// WeekRuleLocations returns the locations permitted for the doctor on the
// given week-of-month and weekday, or nil when no rule matches.
func (s *Snapshot) WeekRuleLocations(doctorID string, week int, wd Weekday) map[string]struct{} {
	return s.weekRules[weekRuleKey{doctorID, week, wd}]
}

// Travel returns the directed travel minutes between two locations as
// supplied, without any fallback.
func (s *Snapshot) Travel(from, to string) (int, bool) {
	m, ok := s.travel[pairKey{from, to}]
	return m, ok
}
