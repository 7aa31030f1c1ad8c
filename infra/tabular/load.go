package tabular

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Paths locates the input tables. Doctors, Locations and Sessions are
// required; an empty optional path means the table is absent.
type Paths struct {
	Doctors     string `json:"doctors"`
	Locations   string `json:"locations"`
	Sessions    string `json:"sessions"`
	Preferences string `json:"preferences"`
	TravelTimes string `json:"travel_times"`
	Workdays    string `json:"doctor_workdays"`
	WeekRules   string `json:"doctor_week_rules"`
	Rooms       string `json:"rooms"`
}

// DirPaths returns the conventional file names inside dir. Optional tables
// are only referenced when the file exists.
func DirPaths(dir string) Paths {
	p := Paths{
		Doctors:   filepath.Join(dir, "doctors.csv"),
		Locations: filepath.Join(dir, "locations.csv"),
		Sessions:  filepath.Join(dir, "sessions.csv"),
	}
	optional := map[string]*string{
		"preferences.csv":       &p.Preferences,
		"travel_times.csv":      &p.TravelTimes,
		"doctor_workdays.csv":   &p.Workdays,
		"doctor_week_rules.csv": &p.WeekRules,
		"rooms.csv":             &p.Rooms,
	}
	for name, dst := range optional {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			*dst = path
		}
	}
	return p
}

// Validate reports missing required paths.
func (p Paths) Validate() error {
	var errs []error
	if p.Doctors == "" {
		errs = append(errs, errors.New("doctors path is required"))
	}
	if p.Locations == "" {
		errs = append(errs, errors.New("locations path is required"))
	}
	if p.Sessions == "" {
		errs = append(errs, errors.New("sessions path is required"))
	}
	return errors.Join(errs...)
}

// Load reads every table named in p.
func Load(p Paths) (Bundle, error) {
	if err := p.Validate(); err != nil {
		return Bundle{}, err
	}
	var b Bundle
	var err error
	if b.Doctors, err = readFile(p.Doctors, ReadDoctors); err != nil {
		return Bundle{}, err
	}
	if b.Locations, err = readFile(p.Locations, ReadLocations); err != nil {
		return Bundle{}, err
	}
	if b.Sessions, err = readFile(p.Sessions, ReadSessions); err != nil {
		return Bundle{}, err
	}
	if b.Preferences, err = readFile(p.Preferences, ReadPreferences); err != nil {
		return Bundle{}, err
	}
	if b.TravelTimes, err = readFile(p.TravelTimes, ReadTravelTimes); err != nil {
		return Bundle{}, err
	}
	if b.Workdays, err = readFile(p.Workdays, ReadWorkdays); err != nil {
		return Bundle{}, err
	}
	if b.WeekRules, err = readFile(p.WeekRules, ReadWeekRules); err != nil {
		return Bundle{}, err
	}
	if b.Rooms, err = readFile(p.Rooms, ReadRooms); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// LoadRuleTables reads the tables session generation depends on:
// locations, and week rules and rooms when present.
func LoadRuleTables(p Paths) (Bundle, error) {
	if p.Locations == "" {
		return Bundle{}, errors.New("locations path is required")
	}
	var b Bundle
	var err error
	if b.Locations, err = readFile(p.Locations, ReadLocations); err != nil {
		return Bundle{}, err
	}
	if b.WeekRules, err = readFile(p.WeekRules, ReadWeekRules); err != nil {
		return Bundle{}, err
	}
	if b.Rooms, err = readFile(p.Rooms, ReadRooms); err != nil {
		return Bundle{}, err
	}
	return b, nil
}
