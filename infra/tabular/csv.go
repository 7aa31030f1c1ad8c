// Package tabular reads the roster input tables from CSV files and turns
// them into an engine snapshot.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/rosterplan/core/model"
)

// table is a parsed CSV file addressed by column name.
type table struct {
	entity string
	cols   map[string]int
	rows   [][]string
	line   int
}

func readTable(r io.Reader, entity string, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &model.ValidationError{Entity: entity, Reason: "empty file"}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", entity, err)
	}
	t := &table{entity: entity, cols: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		t.cols[h] = i
	}
	for _, col := range required {
		if _, ok := t.cols[col]; !ok {
			return nil, &model.ValidationError{Entity: entity, Field: col, Reason: "missing column"}
		}
	}
	t.rows, err = cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s rows: %w", entity, err)
	}
	return t, nil
}

// get returns the trimmed value of col on row, or "" when absent.
func (t *table) get(row []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) int(row []string, col, key string) (int, error) {
	s := t.get(row, col)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &model.ValidationError{Entity: t.entity, Key: key, Field: col, Reason: fmt.Sprintf("not an integer: %q", s)}
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ReadDoctors parses doctors.csv. Rows with a blank doctor_id are skipped
// and a blank name defaults to the id.
func ReadDoctors(r io.Reader) ([]DoctorRow, error) {
	t, err := readTable(r, "doctor", "doctor_id", "name", "max_sessions",
		"unavailable_dates", "available_dates", "home_dates", "skills")
	if err != nil {
		return nil, err
	}
	var out []DoctorRow
	for _, row := range t.rows {
		id := t.get(row, "doctor_id")
		if id == "" {
			continue
		}
		maxSessions, err := t.int(row, "max_sessions", id)
		if err != nil {
			return nil, err
		}
		var skills []string
		for _, s := range splitList(t.get(row, "skills")) {
			skills = append(skills, strings.ToLower(s))
		}
		out = append(out, DoctorRow{
			DoctorID:         id,
			Name:             orDefault(t.get(row, "name"), id),
			MaxSessions:      maxSessions,
			UnavailableDates: splitList(t.get(row, "unavailable_dates")),
			AvailableDates:   splitList(t.get(row, "available_dates")),
			HomeDates:        splitList(t.get(row, "home_dates")),
			Skills:           skills,
		})
	}
	return out, nil
}

// ReadLocations parses locations.csv. Default times are optional columns.
func ReadLocations(r io.Reader) ([]LocationRow, error) {
	t, err := readTable(r, "location", "location_id", "name")
	if err != nil {
		return nil, err
	}
	var out []LocationRow
	for _, row := range t.rows {
		id := t.get(row, "location_id")
		if id == "" {
			continue
		}
		out = append(out, LocationRow{
			LocationID:       id,
			Name:             orDefault(t.get(row, "name"), id),
			DefaultStartTime: t.get(row, "default_start_time"),
			DefaultEndTime:   t.get(row, "default_end_time"),
		})
	}
	return out, nil
}

// ReadSessions parses sessions.csv. The room column is optional.
func ReadSessions(r io.Reader) ([]SessionRow, error) {
	t, err := readTable(r, "session", "session_id", "date", "location_id",
		"start_time", "end_time", "required_skill")
	if err != nil {
		return nil, err
	}
	var out []SessionRow
	for _, row := range t.rows {
		id := t.get(row, "session_id")
		if id == "" {
			continue
		}
		out = append(out, SessionRow{
			SessionID:     id,
			Date:          t.get(row, "date"),
			LocationID:    t.get(row, "location_id"),
			StartTime:     t.get(row, "start_time"),
			EndTime:       t.get(row, "end_time"),
			RequiredSkill: strings.ToLower(t.get(row, "required_skill")),
			Room:          t.get(row, "room"),
		})
	}
	return out, nil
}

// ReadPreferences parses preferences.csv.
func ReadPreferences(r io.Reader) ([]PreferenceRow, error) {
	t, err := readTable(r, "preference", "doctor_id", "location_id", "score")
	if err != nil {
		return nil, err
	}
	var out []PreferenceRow
	for _, row := range t.rows {
		doc, loc := t.get(row, "doctor_id"), t.get(row, "location_id")
		if doc == "" || loc == "" {
			continue
		}
		score, err := t.int(row, "score", doc+"/"+loc)
		if err != nil {
			return nil, err
		}
		out = append(out, PreferenceRow{DoctorID: doc, LocationID: loc, Score: score})
	}
	return out, nil
}

// ReadTravelTimes parses travel_times.csv.
func ReadTravelTimes(r io.Reader) ([]TravelTimeRow, error) {
	t, err := readTable(r, "travel_time", "from_location_id", "to_location_id", "minutes")
	if err != nil {
		return nil, err
	}
	var out []TravelTimeRow
	for _, row := range t.rows {
		from, to := t.get(row, "from_location_id"), t.get(row, "to_location_id")
		if from == "" || to == "" {
			continue
		}
		minutes, err := t.int(row, "minutes", from+"->"+to)
		if err != nil {
			return nil, err
		}
		out = append(out, TravelTimeRow{FromLocationID: from, ToLocationID: to, Minutes: minutes})
	}
	return out, nil
}

// ReadWorkdays parses doctor_workdays.csv.
func ReadWorkdays(r io.Reader) ([]WorkdayRow, error) {
	t, err := readTable(r, "workday", "doctor_id", "weekday")
	if err != nil {
		return nil, err
	}
	var out []WorkdayRow
	for _, row := range t.rows {
		doc := t.get(row, "doctor_id")
		if doc == "" {
			continue
		}
		out = append(out, WorkdayRow{DoctorID: doc, Weekday: t.get(row, "weekday")})
	}
	return out, nil
}

// ReadWeekRules parses doctor_week_rules.csv. Rows without a location are
// skipped.
func ReadWeekRules(r io.Reader) ([]WeekRuleRow, error) {
	t, err := readTable(r, "week_rule", "doctor_id", "week_of_month", "weekday", "location_id")
	if err != nil {
		return nil, err
	}
	var out []WeekRuleRow
	for _, row := range t.rows {
		doc, loc := t.get(row, "doctor_id"), t.get(row, "location_id")
		if doc == "" || loc == "" {
			continue
		}
		week, err := t.int(row, "week_of_month", doc)
		if err != nil {
			return nil, err
		}
		out = append(out, WeekRuleRow{DoctorID: doc, WeekOfMonth: week, Weekday: t.get(row, "weekday"), LocationID: loc})
	}
	return out, nil
}

// ReadRooms parses rooms.csv.
func ReadRooms(r io.Reader) ([]RoomRow, error) {
	t, err := readTable(r, "room", "room_id", "location_id")
	if err != nil {
		return nil, err
	}
	var out []RoomRow
	for _, row := range t.rows {
		id := t.get(row, "room_id")
		if id == "" {
			continue
		}
		out = append(out, RoomRow{RoomID: id, LocationID: t.get(row, "location_id"), Name: orDefault(t.get(row, "name"), id)})
	}
	return out, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// SessionColumns is the header written by WriteSessions.
var SessionColumns = []string{"session_id", "date", "location_id", "start_time", "end_time", "required_skill", "room"}

// WriteSessions writes sessions in the layout read by ReadSessions.
func WriteSessions(w io.Writer, sessions []model.Session) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SessionColumns); err != nil {
		return err
	}
	for _, s := range sessions {
		rec := []string{s.ID, s.Date.String(), s.LocationID, s.Start.String(), s.End.String(), s.RequiredSkill, s.Room}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
