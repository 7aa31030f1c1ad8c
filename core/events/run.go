package events

import "time"

// RunStarted is published when the planner begins a run.
type RunStarted struct {
	RunID    string
	Sessions int
	Doctors  int
	Pairs    int
	Time     time.Time
}

// IncumbentFound is published whenever the search finds a better roster.
type IncumbentFound struct {
	RunID     string
	Objective int
	Elapsed   time.Duration
	Time      time.Time
}

// RunFinished is published once per run. Status is empty when Err is set
// before a solve could be attempted.
type RunFinished struct {
	RunID       string
	Status      string
	Objective   int
	Assignments map[string]string
	Elapsed     time.Duration
	Err         error
}
