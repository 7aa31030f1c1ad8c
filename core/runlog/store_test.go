package runlog

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords(base time.Time) []LogRecord {
	return []LogRecord{
		{RunID: "r1", Timestamp: base, Status: "optimal", Objective: 4, Assignments: map[string]string{"s1": "d1"}},
		{RunID: "r2", Timestamp: base.Add(time.Minute), Status: "infeasible", Error: "infeasible"},
		{RunID: "r3", Timestamp: base.Add(2 * time.Minute), Status: "feasible", Assignments: map[string]string{"s1": "d2", "s2": "d1"}},
	}
}

func TestLogRecord_JSON(t *testing.T) {
	rec := LogRecord{
		RunID:       "r1",
		Timestamp:   time.Unix(0, 0),
		Status:      "optimal",
		Objective:   3,
		Sessions:    2,
		Doctors:     1,
		Assignments: map[string]string{"s1": "d1"},
		ElapsedMS:   12,
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"run_id", "timestamp", "status", "objective", "sessions", "doctors", "assignments", "elapsed_ms"} {
		assert.Contains(t, m, k)
	}
	assert.NotContains(t, m, "error")
}

func TestLogQuery_Matches(t *testing.T) {
	base := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	recs := sampleRecords(base)
	cases := []struct {
		name string
		q    LogQuery
		want []string
	}{
		{"all", LogQuery{}, []string{"r1", "r2", "r3"}},
		{"status", LogQuery{Status: "infeasible"}, []string{"r2"}},
		{"doctor", LogQuery{DoctorID: "d1"}, []string{"r1", "r3"}},
		{"start", LogQuery{Start: base.Add(30 * time.Second)}, []string{"r2", "r3"}},
		{"end", LogQuery{End: base.Add(30 * time.Second)}, []string{"r1"}},
		{"run", LogQuery{RunID: "r3"}, []string{"r3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for _, r := range recs {
				if tc.q.Matches(r) {
					got = append(got, r.RunID)
				}
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func testStore(t *testing.T, store LogStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	for _, r := range sampleRecords(base) {
		require.NoError(t, store.Append(ctx, r))
	}

	out, err := store.Query(ctx, LogQuery{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "r1", out[0].RunID)
	assert.Equal(t, map[string]string{"s1": "d1"}, out[0].Assignments)

	out, err = store.Query(ctx, LogQuery{DoctorID: "d2"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "r3", out[0].RunID)

	out, err = store.Query(ctx, LogQuery{Status: "optimal"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	out, err = store.Query(ctx, LogQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "r2", out[0].RunID)
}

func TestJSONLStore(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "nested", "runs.jsonl"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	testStore(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	testStore(t, store)
}

func TestSQLiteStore_DoctorIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, LogRecord{RunID: "a", Timestamp: base, Status: "optimal", Assignments: map[string]string{"s1": "D1", "s2": "D2"}}))
	require.NoError(t, store.Append(ctx, LogRecord{RunID: "b", Timestamp: base.Add(time.Hour), Status: "infeasible"}))
	require.NoError(t, store.Append(ctx, LogRecord{RunID: "c", Timestamp: base.Add(2 * time.Hour), Status: "optimal", Assignments: map[string]string{"s1": "D2"}}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err, "reopening keeps the schema")
	defer func() { _ = store.Close() }()

	out, err := store.Query(ctx, LogQuery{DoctorID: "D2"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].RunID)
	assert.Equal(t, "c", out[1].RunID)

	out, err = store.Query(ctx, LogQuery{DoctorID: "D2", Limit: 1})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "c", out[0].RunID)

	out, err = store.Query(ctx, LogQuery{Status: "infeasible"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Assignments)
}

func TestRotatingJSONLStore_Query(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	testStore(t, store)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	big := make(map[string]string, 2000)
	for i := 0; i < 2000; i++ {
		big[fmt.Sprintf("session-%04d", i)] = "doctor-with-a-long-identifier"
	}
	rec := LogRecord{RunID: "big", Timestamp: time.Now(), Assignments: big}
	for i := 0; i < 30; i++ {
		require.NoError(t, store.Append(context.Background(), rec))
	}
	files, err := filepath.Glob(filepath.Join(filepath.Dir(path), "runs*.jsonl"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(files), 2, "expected rotated files")

	out, err := store.Query(context.Background(), LogQuery{RunID: "big"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{BackendJSONL, BackendRotating, BackendSQLite, BackendNone} {
		store, err := Open(Config{Backend: backend, Path: filepath.Join(dir, backend)})
		require.NoError(t, err, backend)
		require.NoError(t, store.Close())
	}
	_, err := Open(Config{Backend: "mongo"})
	assert.Error(t, err)
}
