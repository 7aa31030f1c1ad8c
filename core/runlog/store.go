// Package runlog keeps the history of planning runs.
package runlog

import (
	"context"
	"time"
)

// LogRecord captures one planning run and its outcome.
type LogRecord struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	// Status is the solver status for successful runs and the error kind
	// otherwise.
	Status      string            `json:"status"`
	Objective   int               `json:"objective"`
	Sessions    int               `json:"sessions"`
	Doctors     int               `json:"doctors"`
	Assignments map[string]string `json:"assignments,omitempty"`
	Error       string            `json:"error,omitempty"`
	ElapsedMS   int64             `json:"elapsed_ms"`
}

// LogQuery defines filters for retrieving records. Zero values match
// everything. Limit keeps the most recent records.
type LogQuery struct {
	Start    time.Time
	End      time.Time
	Status   string
	DoctorID string
	RunID    string
	Limit    int
}

// Matches reports whether r passes every filter of q except Limit.
func (q LogQuery) Matches(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.DoctorID != "" {
		for _, d := range r.Assignments {
			if d == q.DoctorID {
				return true
			}
		}
		return false
	}
	return true
}

func (q LogQuery) limit(res []LogRecord) []LogRecord {
	if q.Limit > 0 && len(res) > q.Limit {
		return res[len(res)-q.Limit:]
	}
	return res
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, LogRecord) error              { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]LogRecord, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }
