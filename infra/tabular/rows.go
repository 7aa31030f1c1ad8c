package tabular

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kilianp07/rosterplan/core/model"
)

// DoctorRow is one line of doctors.csv.
type DoctorRow struct {
	DoctorID         string   `json:"doctor_id" yaml:"doctor_id" validate:"required"`
	Name             string   `json:"name" yaml:"name" validate:"required"`
	MaxSessions      int      `json:"max_sessions" yaml:"max_sessions" validate:"min=0"`
	UnavailableDates []string `json:"unavailable_dates,omitempty" yaml:"unavailable_dates,omitempty"`
	AvailableDates   []string `json:"available_dates,omitempty" yaml:"available_dates,omitempty"`
	HomeDates        []string `json:"home_dates,omitempty" yaml:"home_dates,omitempty"`
	Skills           []string `json:"skills,omitempty" yaml:"skills,omitempty"`
}

// LocationRow is one line of locations.csv.
type LocationRow struct {
	LocationID       string `json:"location_id" yaml:"location_id" validate:"required"`
	Name             string `json:"name" yaml:"name" validate:"required"`
	DefaultStartTime string `json:"default_start_time,omitempty" yaml:"default_start_time,omitempty"`
	DefaultEndTime   string `json:"default_end_time,omitempty" yaml:"default_end_time,omitempty"`
}

// SessionRow is one line of sessions.csv.
type SessionRow struct {
	SessionID     string `json:"session_id" yaml:"session_id" validate:"required"`
	Date          string `json:"date" yaml:"date" validate:"required"`
	LocationID    string `json:"location_id" yaml:"location_id" validate:"required"`
	StartTime     string `json:"start_time" yaml:"start_time" validate:"required"`
	EndTime       string `json:"end_time" yaml:"end_time" validate:"required"`
	RequiredSkill string `json:"required_skill,omitempty" yaml:"required_skill,omitempty"`
	Room          string `json:"room,omitempty" yaml:"room,omitempty"`
}

// PreferenceRow is one line of preferences.csv.
type PreferenceRow struct {
	DoctorID   string `json:"doctor_id" yaml:"doctor_id" validate:"required"`
	LocationID string `json:"location_id" yaml:"location_id" validate:"required"`
	Score      int    `json:"score" yaml:"score"`
}

// TravelTimeRow is one line of travel_times.csv.
type TravelTimeRow struct {
	FromLocationID string `json:"from_location_id" yaml:"from_location_id" validate:"required"`
	ToLocationID   string `json:"to_location_id" yaml:"to_location_id" validate:"required"`
	Minutes        int    `json:"minutes" yaml:"minutes" validate:"min=0"`
}

// WorkdayRow is one line of doctor_workdays.csv.
type WorkdayRow struct {
	DoctorID string `json:"doctor_id" yaml:"doctor_id" validate:"required"`
	Weekday  string `json:"weekday" yaml:"weekday" validate:"required"`
}

// WeekRuleRow is one line of doctor_week_rules.csv.
type WeekRuleRow struct {
	DoctorID    string `json:"doctor_id" yaml:"doctor_id" validate:"required"`
	WeekOfMonth int    `json:"week_of_month" yaml:"week_of_month" validate:"min=1,max=5"`
	Weekday     string `json:"weekday" yaml:"weekday" validate:"required"`
	LocationID  string `json:"location_id" yaml:"location_id" validate:"required"`
}

// RoomRow is one line of rooms.csv.
type RoomRow struct {
	RoomID     string `json:"room_id" yaml:"room_id" validate:"required"`
	LocationID string `json:"location_id" yaml:"location_id" validate:"required"`
	Name       string `json:"name" yaml:"name"`
}

// Bundle holds the raw rows of every input table. It is the JSON body
// accepted by the HTTP plan endpoint as well as the result of Load.
type Bundle struct {
	Doctors     []DoctorRow     `json:"doctors" yaml:"doctors"`
	Locations   []LocationRow   `json:"locations" yaml:"locations"`
	Sessions    []SessionRow    `json:"sessions" yaml:"sessions"`
	Preferences []PreferenceRow `json:"preferences,omitempty" yaml:"preferences,omitempty"`
	TravelTimes []TravelTimeRow `json:"travel_times,omitempty" yaml:"travel_times,omitempty"`
	Workdays    []WorkdayRow    `json:"workdays,omitempty" yaml:"workdays,omitempty"`
	WeekRules   []WeekRuleRow   `json:"week_rules,omitempty" yaml:"week_rules,omitempty"`
	Rooms       []RoomRow       `json:"rooms,omitempty" yaml:"rooms,omitempty"`
}

// NewValidator returns a validator reporting fields by their column name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every row of b. The first failure is returned as a
// *model.ValidationError.
//
//gocyclo:ignore
func (b Bundle) Validate(v *validator.Validate) error {
	if v == nil {
		v = NewValidator()
	}
	for _, r := range b.Doctors {
		if err := check(v, "doctor", r.DoctorID, r); err != nil {
			return err
		}
	}
	for _, r := range b.Locations {
		if err := check(v, "location", r.LocationID, r); err != nil {
			return err
		}
	}
	for _, r := range b.Sessions {
		if err := check(v, "session", r.SessionID, r); err != nil {
			return err
		}
	}
	for _, r := range b.Preferences {
		if err := check(v, "preference", r.DoctorID+"/"+r.LocationID, r); err != nil {
			return err
		}
	}
	for _, r := range b.TravelTimes {
		if err := check(v, "travel_time", r.FromLocationID+"->"+r.ToLocationID, r); err != nil {
			return err
		}
	}
	for _, r := range b.Workdays {
		if err := check(v, "workday", r.DoctorID, r); err != nil {
			return err
		}
	}
	for _, r := range b.WeekRules {
		if err := check(v, "week_rule", r.DoctorID, r); err != nil {
			return err
		}
	}
	for _, r := range b.Rooms {
		if err := check(v, "room", r.RoomID, r); err != nil {
			return err
		}
	}
	return nil
}

func check(v *validator.Validate, entity, key string, row any) error {
	err := v.Struct(row)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &model.ValidationError{Entity: entity, Key: key, Field: fe.Field(), Reason: "failed " + reason}
	}
	return err
}

// Input validates b and converts it into engine entities.
//
//gocyclo:ignore
func (b Bundle) Input(v *validator.Validate) (model.Input, error) {
	if err := b.Validate(v); err != nil {
		return model.Input{}, err
	}
	var in model.Input
	for _, r := range b.Doctors {
		d := model.Doctor{
			ID:          r.DoctorID,
			Name:        r.Name,
			MaxSessions: r.MaxSessions,
			Skills:      model.NewSkillSet(r.Skills...),
		}
		var err error
		if d.Unavailable, err = dateSet("doctor", r.DoctorID, "unavailable_dates", r.UnavailableDates); err != nil {
			return model.Input{}, err
		}
		if d.Available, err = dateSet("doctor", r.DoctorID, "available_dates", r.AvailableDates); err != nil {
			return model.Input{}, err
		}
		if d.Home, err = dateSet("doctor", r.DoctorID, "home_dates", r.HomeDates); err != nil {
			return model.Input{}, err
		}
		in.Doctors = append(in.Doctors, d)
	}
	for _, r := range b.Locations {
		l := model.Location{ID: r.LocationID, Name: r.Name}
		var err error
		if l.DefaultStart, err = optionalClock("location", r.LocationID, "default_start_time", r.DefaultStartTime); err != nil {
			return model.Input{}, err
		}
		if l.DefaultEnd, err = optionalClock("location", r.LocationID, "default_end_time", r.DefaultEndTime); err != nil {
			return model.Input{}, err
		}
		in.Locations = append(in.Locations, l)
	}
	for _, r := range b.Sessions {
		s := model.Session{
			ID:            r.SessionID,
			LocationID:    r.LocationID,
			RequiredSkill: strings.ToLower(strings.TrimSpace(r.RequiredSkill)),
			Room:          r.Room,
		}
		var err error
		if s.Date, err = model.ParseDate(r.Date); err != nil {
			return model.Input{}, &model.ValidationError{Entity: "session", Key: r.SessionID, Field: "date", Reason: err.Error()}
		}
		if s.Start, err = model.ParseClock(r.StartTime); err != nil {
			return model.Input{}, &model.ValidationError{Entity: "session", Key: r.SessionID, Field: "start_time", Reason: err.Error()}
		}
		if s.End, err = model.ParseClock(r.EndTime); err != nil {
			return model.Input{}, &model.ValidationError{Entity: "session", Key: r.SessionID, Field: "end_time", Reason: err.Error()}
		}
		in.Sessions = append(in.Sessions, s)
	}
	for _, r := range b.Preferences {
		in.Preferences = append(in.Preferences, model.Preference{DoctorID: r.DoctorID, LocationID: r.LocationID, Score: r.Score})
	}
	for _, r := range b.TravelTimes {
		in.TravelTimes = append(in.TravelTimes, model.TravelTime{FromLocationID: r.FromLocationID, ToLocationID: r.ToLocationID, Minutes: r.Minutes})
	}
	for _, r := range b.Workdays {
		wd, err := model.ParseWeekday(r.Weekday)
		if err != nil {
			return model.Input{}, &model.ValidationError{Entity: "workday", Key: r.DoctorID, Field: "weekday", Reason: err.Error()}
		}
		in.Workdays = append(in.Workdays, model.WorkdayRule{DoctorID: r.DoctorID, Weekday: wd})
	}
	for _, r := range b.WeekRules {
		wd, err := model.ParseWeekday(r.Weekday)
		if err != nil {
			return model.Input{}, &model.ValidationError{Entity: "week_rule", Key: r.DoctorID, Field: "weekday", Reason: err.Error()}
		}
		in.WeekRules = append(in.WeekRules, model.WeekRule{DoctorID: r.DoctorID, WeekOfMonth: r.WeekOfMonth, Weekday: wd, LocationID: r.LocationID})
	}
	for _, r := range b.Rooms {
		name := r.Name
		if name == "" {
			name = r.RoomID
		}
		in.Rooms = append(in.Rooms, model.Room{ID: r.RoomID, LocationID: r.LocationID, Name: name})
	}
	return in, nil
}

// Snapshot validates b and builds the indexed engine snapshot.
func (b Bundle) Snapshot(v *validator.Validate) (*model.Snapshot, error) {
	in, err := b.Input(v)
	if err != nil {
		return nil, err
	}
	return model.NewSnapshot(in)
}

func dateSet(entity, key, field string, values []string) (model.DateSet, error) {
	dates := make([]model.Date, 0, len(values))
	for _, s := range values {
		d, err := model.ParseDate(s)
		if err != nil {
			return nil, &model.ValidationError{Entity: entity, Key: key, Field: field, Reason: err.Error()}
		}
		dates = append(dates, d)
	}
	return model.NewDateSet(dates...), nil
}

func optionalClock(entity, key, field, value string) (model.Clock, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	c, err := model.ParseClock(value)
	if err != nil {
		return 0, &model.ValidationError{Entity: entity, Key: key, Field: field, Reason: err.Error()}
	}
	return c, nil
}
