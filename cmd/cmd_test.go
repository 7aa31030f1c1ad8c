package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rosterplan/core/planner"
	"github.com/kilianp07/rosterplan/core/runlog"
)

const (
	doctorsCSV = `doctor_id,name,max_sessions,unavailable_dates,available_dates,home_dates,skills
D1,Alice,2,,,,echo
D2,Bob,2,2024-03-05,,,
`
	locationsCSV = `location_id,name,default_start_time,default_end_time
L1,North,,
L2,South,13:00,17:00
`
	sessionsCSV = `session_id,date,location_id,start_time,end_time,required_skill
S1,2024-03-04,L1,08:30,12:30,echo
S2,2024-03-05,L2,13:00,17:00,
`
)

func inputDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"doctors.csv":     doctorsCSV,
		"locations.csv":   locationsCSV,
		"sessions.csv":    sessionsCSV,
		"preferences.csv": "doctor_id,location_id,score\nD2,L1,3\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	solveOpts, sessionsOpts, runsOpts = solveOptions{}, sessionsOptions{}, runsOptions{}
	t.Setenv("K_RUNLOG__BACKEND", runlog.BackendNone)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestSolve_WritesCSV(t *testing.T) {
	dir := inputDir(t)
	out := filepath.Join(dir, "roster.csv")
	_, stderr, err := execute(t, "solve", "-i", dir, "-o", out, "--deterministic", "--verify")
	require.NoError(t, err)
	assert.Contains(t, stderr, "optimal")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"S1", "2024-03-04", "L1", "North", "D1", "Alice", "08:30", "12:30", "echo", ""}, records[1])
	assert.Equal(t, "D1", records[2][4])
}

func TestSolve_JSONToStdout(t *testing.T) {
	stdout, _, err := execute(t, "solve", "-i", inputDir(t), "-f", "json", "-q")
	require.NoError(t, err)
	var doc struct {
		Status string           `json:"status"`
		Rows   []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "optimal", doc.Status)
	assert.Len(t, doc.Rows, 2)
}

func TestSolve_Unreachable(t *testing.T) {
	dir := inputDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sessions.csv"),
		[]byte("session_id,date,location_id,start_time,end_time,required_skill\nS1,2024-03-04,L1,08:30,12:30,surgery\n"), 0o644))
	_, stderr, err := execute(t, "solve", "-i", dir, "-q")
	var ue *planner.UnreachableSessionError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, stderr, "S1")
}

func TestSolve_GeneratesFromRules(t *testing.T) {
	dir := inputDir(t)
	rules := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("rules:\n  - doctor_id: D1\n    week_of_month: 1\n    weekday: wo\n    location_id: L1\n"), 0o644))

	stdout, _, err := execute(t, "solve", "-i", dir, "-f", "csv", "-q", "--rules", rules, "--from", "2024-03-06", "--to", "2024-03-06")
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewBufferString(stdout)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestSessionsGenerate(t *testing.T) {
	dir := inputDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doctor_week_rules.csv"),
		[]byte("doctor_id,week_of_month,weekday,location_id\nD1,1,ma,L2\n"), 0o644))

	stdout, stderr, err := execute(t, "sessions", "generate", "-i", dir, "--from", "2024-03-01", "--to", "2024-03-31")
	require.NoError(t, err)
	assert.Contains(t, stderr, "generated 1 sessions")
	records, err := csv.NewReader(bytes.NewBufferString(stdout)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"GEN-20240304-L2", "2024-03-04", "L2", "13:00", "17:00", "", ""}, records[1])

	_, _, err = execute(t, "sessions", "generate", "-i", t.TempDir(), "--from", "2024-03-01", "--to", "2024-03-31")
	assert.Error(t, err)
}

func TestRuns_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	store, err := runlog.NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), runlog.LogRecord{RunID: "r1", Status: "optimal", Assignments: map[string]string{"S1": "D1"}}))
	require.NoError(t, store.Append(context.Background(), runlog.LogRecord{RunID: "r2", Status: "infeasible"}))

	solveOpts, sessionsOpts, runsOpts = solveOptions{}, sessionsOptions{}, runsOptions{}
	t.Setenv("K_RUNLOG__BACKEND", runlog.BackendJSONL)
	t.Setenv("K_RUNLOG__PATH", path)
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"--env-file", "", "runs", "--json", "--doctor", "D1"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	var recs []runlog.LogRecord
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "r1", recs[0].RunID)
}
