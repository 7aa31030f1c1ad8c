package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rosterplan/core/runlog"
)

type runsOptions struct {
	status   string
	doctorID string
	runID    string
	since    time.Duration
	limit    int
	asJSON   bool
}

var runsOpts runsOptions

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the planning run history",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	f := runsCmd.Flags()
	f.StringVar(&runsOpts.status, "status", "", "only runs with this status or error kind")
	f.StringVar(&runsOpts.doctorID, "doctor", "", "only runs assigning this doctor")
	f.StringVar(&runsOpts.runID, "run", "", "a single run ID")
	f.DurationVar(&runsOpts.since, "since", 0, "only runs newer than this, e.g. 24h")
	f.IntVar(&runsOpts.limit, "limit", 20, "most recent runs to show (0 for all)")
	f.BoolVar(&runsOpts.asJSON, "json", false, "print the records as JSON")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	q := runlog.LogQuery{
		Status:   runsOpts.status,
		DoctorID: runsOpts.doctorID,
		RunID:    runsOpts.runID,
		Limit:    runsOpts.limit,
	}
	if runsOpts.since > 0 {
		q.Start = time.Now().Add(-runsOpts.since)
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runsOpts.asJSON {
		if recs == nil {
			recs = []runlog.LogRecord{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	if len(recs) == 0 {
		_, _ = fmt.Fprintln(out, "no runs recorded")
		return nil
	}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.Timestamp.Local().Format(time.DateTime),
			r.RunID,
			r.Status,
			strconv.Itoa(r.Objective),
			fmt.Sprintf("%d/%d", len(r.Assignments), r.Sessions),
			strconv.Itoa(r.Doctors),
			(time.Duration(r.ElapsedMS) * time.Millisecond).String(),
		})
	}
	_, _ = fmt.Fprintln(out, renderTable(
		[]string{"time", "run", "status", "objective", "assigned", "doctors", "elapsed"}, rows))
	return nil
}
