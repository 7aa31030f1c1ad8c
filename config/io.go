package config

import (
	"fmt"

	"github.com/kilianp07/rosterplan/core/model"
	"github.com/kilianp07/rosterplan/infra/tabular"
	"github.com/kilianp07/rosterplan/pkg/export"
)

// InputsConfig locates the CSV tables. Files set explicitly win over the
// conventional names inside Dir.
type InputsConfig struct {
	Dir   string        `json:"dir"`
	Files tabular.Paths `json:"files"`
}

// Paths resolves the table locations.
func (c InputsConfig) Paths() tabular.Paths {
	p := c.Files
	if c.Dir == "" {
		return p
	}
	d := tabular.DirPaths(c.Dir)
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&p.Doctors, d.Doctors)
	fill(&p.Locations, d.Locations)
	fill(&p.Sessions, d.Sessions)
	fill(&p.Preferences, d.Preferences)
	fill(&p.TravelTimes, d.TravelTimes)
	fill(&p.Workdays, d.Workdays)
	fill(&p.WeekRules, d.WeekRules)
	fill(&p.Rooms, d.Rooms)
	return p
}

// OutputConfig selects where and how the roster is written. An empty path
// writes to stdout.
type OutputConfig struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

// SetDefaults infers the format from the path.
func (c *OutputConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = string(export.FormatFromPath(c.Path))
	}
}

// Validate checks the format name.
func (c OutputConfig) Validate() error {
	_, err := export.ParseFormat(c.Format)
	return err
}

// SessionsConfig drives session generation from week rules.
type SessionsConfig struct {
	RulesPath    string `json:"rules_path"`
	DefaultStart string `json:"default_start"`
	DefaultEnd   string `json:"default_end"`
}

// SetDefaults applies the generator's fallback times.
func (c *SessionsConfig) SetDefaults() {
	if c.DefaultStart == "" {
		c.DefaultStart = "09:00"
	}
	if c.DefaultEnd == "" {
		c.DefaultEnd = "17:00"
	}
}

// Validate checks the fallback times.
func (c SessionsConfig) Validate() error {
	start, err := model.ParseClock(c.DefaultStart)
	if err != nil {
		return err
	}
	end, err := model.ParseClock(c.DefaultEnd)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("default_end %s must be after default_start %s", c.DefaultEnd, c.DefaultStart)
	}
	return nil
}

// Times returns the parsed fallback times.
func (c SessionsConfig) Times() (start, end model.Clock) {
	start, _ = model.ParseClock(c.DefaultStart)
	end, _ = model.ParseClock(c.DefaultEnd)
	return start, end
}
