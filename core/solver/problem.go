package solver

import (
	"errors"
	"fmt"
)

// ErrInvalidProblem is wrapped by Validate failures.
var ErrInvalidProblem = errors.New("invalid problem")

// Capacity bounds the number of true variables among Vars.
type Capacity struct {
	Vars  []int
	Limit int
}

// Problem is a 0/1 program over NumVars() boolean variables:
//
//	maximize   Σ Weights[v]·x[v]
//	subject to Σ x[v] = 1        for every group in Groups
//	           Σ x[v] ≤ Limit    for every Capacity
//	           x[a] + x[b] ≤ 1   for every pair in Exclusions
//
// Every variable belongs to exactly one group.
type Problem struct {
	Weights    []int
	Groups     [][]int
	Capacities []Capacity
	Exclusions [][2]int
}

// NumVars returns the number of decision variables.
func (p Problem) NumVars() int { return len(p.Weights) }

// Validate checks index ranges and group membership.
func (p Problem) Validate() error {
	n := p.NumVars()
	seen := make([]bool, n)
	for g, vars := range p.Groups {
		for _, v := range vars {
			if v < 0 || v >= n {
				return fmt.Errorf("%w: group %d references variable %d of %d", ErrInvalidProblem, g, v, n)
			}
			if seen[v] {
				return fmt.Errorf("%w: variable %d belongs to more than one group", ErrInvalidProblem, v)
			}
			seen[v] = true
		}
	}
	for v, ok := range seen {
		if !ok {
			return fmt.Errorf("%w: variable %d belongs to no group", ErrInvalidProblem, v)
		}
	}
	for i, c := range p.Capacities {
		for _, v := range c.Vars {
			if v < 0 || v >= n {
				return fmt.Errorf("%w: capacity %d references variable %d of %d", ErrInvalidProblem, i, v, n)
			}
		}
	}
	for i, e := range p.Exclusions {
		if e[0] < 0 || e[0] >= n || e[1] < 0 || e[1] >= n || e[0] == e[1] {
			return fmt.Errorf("%w: exclusion %d is malformed: %v", ErrInvalidProblem, i, e)
		}
	}
	return nil
}

// Objective evaluates the weight of an assignment.
func (p Problem) Objective(values []bool) int {
	total := 0
	for v, on := range values {
		if on {
			total += p.Weights[v]
		}
	}
	return total
}

// Feasible reports whether values satisfies every constraint.
func (p Problem) Feasible(values []bool) bool {
	if len(values) != p.NumVars() {
		return false
	}
	for _, vars := range p.Groups {
		n := 0
		for _, v := range vars {
			if values[v] {
				n++
			}
		}
		if n != 1 {
			return false
		}
	}
	for _, c := range p.Capacities {
		n := 0
		for _, v := range c.Vars {
			if values[v] {
				n++
			}
		}
		if n > c.Limit {
			return false
		}
	}
	for _, e := range p.Exclusions {
		if values[e[0]] && values[e[1]] {
			return false
		}
	}
	return true
}
