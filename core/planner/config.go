package planner

import (
	"fmt"
	"time"

	"github.com/kilianp07/rosterplan/core/conflict"
	"github.com/kilianp07/rosterplan/core/factory"
	"github.com/kilianp07/rosterplan/core/solver"
)

const (
	DefaultTimeoutSeconds  = 20
	DefaultWorkers         = 8
	DefaultSeed            = 1
	DefaultLPBoundMaxCells = 40000
)

// Config controls a planning run.
type Config struct {
	TimeoutSeconds int   `json:"timeout_seconds"`
	Workers        int   `json:"workers"`
	Seed           int64 `json:"seed"`
	// Deterministic forces a single search worker so that repeated runs on
	// the same input return the same roster.
	Deterministic bool   `json:"deterministic"`
	Backend       string `json:"backend"`
	// LPBoundMaxCells caps the size of the relaxation used to prove
	// optimality early. Zero disables it.
	LPBoundMaxCells int    `json:"lp_bound_max_cells"`
	UnknownTravel   string `json:"unknown_travel"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	c := Config{LPBoundMaxCells: DefaultLPBoundMaxCells}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero values. LPBoundMaxCells is left alone since zero
// is meaningful.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if c.Backend == "" {
		c.Backend = solver.BranchAndBoundName
	}
	if c.UnknownTravel == "" {
		c.UnknownTravel = string(conflict.UnknownInfeasible)
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("planner: timeout_seconds must be positive")
	}
	if c.Workers < 0 {
		return fmt.Errorf("planner: workers must be positive")
	}
	if c.LPBoundMaxCells < 0 {
		return fmt.Errorf("planner: lp_bound_max_cells must not be negative")
	}
	switch conflict.UnknownTravelPolicy(c.UnknownTravel) {
	case "", conflict.UnknownInfeasible, conflict.UnknownIgnore:
	default:
		return fmt.Errorf("planner: unknown_travel must be %q or %q, got %q",
			conflict.UnknownInfeasible, conflict.UnknownIgnore, c.UnknownTravel)
	}
	return nil
}

// Timeout returns the wall-clock budget of a solve.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// backendConfig translates the planner settings into the backend's module
// configuration.
func (c Config) backendConfig() factory.ModuleConfig {
	workers := c.Workers
	if c.Deterministic {
		workers = 1
	}
	cells := c.LPBoundMaxCells
	if cells == 0 {
		cells = -1
	}
	return factory.ModuleConfig{
		Type: c.Backend,
		Conf: map[string]any{
			"workers":            workers,
			"seed":               c.Seed,
			"lp_bound_max_cells": cells,
		},
	}
}
