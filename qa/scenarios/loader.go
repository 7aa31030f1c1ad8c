// Package scenarios runs YAML planning fixtures end to end through the
// planner and checks the roster properties every result must satisfy.
package scenarios

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/rosterplan/infra/tabular"
)

// Expected describes the outcome a scenario must produce. Outcome is the
// roster status (optimal, feasible) or the error kind (infeasible,
// unreachable_session, validation).
type Expected struct {
	Outcome     string            `yaml:"outcome"`
	Objective   *int              `yaml:"objective,omitempty"`
	Assignments map[string]string `yaml:"assignments,omitempty"`
	Unreachable []string          `yaml:"unreachable,omitempty"`
	Reason      string            `yaml:"reason,omitempty"`
}

type Scenario struct {
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description,omitempty"`
	UnknownTravel string         `yaml:"unknown_travel,omitempty"`
	Input         tabular.Bundle `yaml:"input"`
	Expected      Expected       `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	return &sc, nil
}

// LoadDir loads every *.yaml file in dir in name order.
func LoadDir(dir string) ([]*Scenario, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
