package sessiongen

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/rosterplan/core/model"
)

// RuleFile is the YAML layout accepted by LoadRules.
//
//	rules:
//	  - doctor_id: d1
//	    week_of_month: 1
//	    weekday: ma
//	    location_id: L1
type RuleFile struct {
	Rules []struct {
		DoctorID    string        `yaml:"doctor_id"`
		WeekOfMonth int           `yaml:"week_of_month"`
		Weekday     model.Weekday `yaml:"weekday"`
		LocationID  string        `yaml:"location_id"`
	} `yaml:"rules"`
}

// LoadRules decodes week rules from YAML.
func LoadRules(r io.Reader) ([]model.WeekRule, error) {
	var f RuleFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	out := make([]model.WeekRule, 0, len(f.Rules))
	for i, r := range f.Rules {
		if r.WeekOfMonth < 1 || r.WeekOfMonth > 5 {
			return nil, fmt.Errorf("rule %d: week_of_month %d out of range 1..5", i, r.WeekOfMonth)
		}
		if !r.Weekday.Valid() {
			return nil, fmt.Errorf("rule %d: weekday missing", i)
		}
		out = append(out, model.WeekRule{
			DoctorID:    r.DoctorID,
			WeekOfMonth: r.WeekOfMonth,
			Weekday:     r.Weekday,
			LocationID:  r.LocationID,
		})
	}
	return out, nil
}
