package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rosterplan/app"
	"github.com/kilianp07/rosterplan/core/model"
	"github.com/kilianp07/rosterplan/core/planner"
	"github.com/kilianp07/rosterplan/core/sessiongen"
	"github.com/kilianp07/rosterplan/infra/tabular"
	"github.com/kilianp07/rosterplan/pkg/export"
)

type solveOptions struct {
	inputDir      string
	output        string
	format        string
	rules         string
	from, to      string
	timeout       int
	deterministic bool
	verify        bool
	quiet         bool
}

var solveOpts solveOptions

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Compute a roster from the input tables",
	Long: `Reads doctors, locations, sessions and the optional tables from the
input directory, assigns every session to exactly one doctor and writes the
roster as CSV, JSON or PDF.`,
	Args: cobra.NoArgs,
	RunE: runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVarP(&solveOpts.inputDir, "input", "i", "", "directory holding the input CSV files")
	f.StringVarP(&solveOpts.output, "output", "o", "", "output file (stdout when empty)")
	f.StringVarP(&solveOpts.format, "format", "f", "", "output format: csv, json or pdf")
	f.StringVar(&solveOpts.rules, "rules", "", "YAML week rules used to generate extra sessions")
	f.StringVar(&solveOpts.from, "from", "", "first date of generated sessions")
	f.StringVar(&solveOpts.to, "to", "", "last date of generated sessions")
	f.IntVar(&solveOpts.timeout, "timeout", 0, "solver time budget in seconds")
	f.BoolVar(&solveOpts.deterministic, "deterministic", false, "single worker search for reproducible rosters")
	f.BoolVar(&solveOpts.verify, "verify", false, "re-check the roster against every hard constraint")
	f.BoolVarP(&solveOpts.quiet, "quiet", "q", false, "do not print the run summary")
	rootCmd.AddCommand(solveCmd)
}

func applySolveFlags(cmd *cobra.Command) {
	if solveOpts.inputDir != "" {
		cfg.Inputs.Dir = solveOpts.inputDir
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Path = solveOpts.output
		cfg.Output.Format = ""
	}
	if solveOpts.format != "" {
		cfg.Output.Format = solveOpts.format
	}
	cfg.Output.SetDefaults()
	if solveOpts.rules != "" {
		cfg.Sessions.RulesPath = solveOpts.rules
	}
	if solveOpts.timeout > 0 {
		cfg.Planner.TimeoutSeconds = solveOpts.timeout
	}
	if solveOpts.deterministic {
		cfg.Planner.Deterministic = true
	}
}

func runSolve(cmd *cobra.Command, _ []string) error {
	applySolveFlags(cmd)
	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	snap, err := loadSnapshot()
	if err != nil {
		return err
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	roster, err := svc.Plan(cmd.Context(), snap)
	if err != nil {
		explain(cmd.ErrOrStderr(), err)
		return err
	}
	if solveOpts.verify {
		if err := svc.Planner.Verify(snap, roster); err != nil {
			return fmt.Errorf("verify roster: %w", err)
		}
	}

	if err := writeRoster(cmd.OutOrStdout(), format, snap, roster); err != nil {
		return err
	}
	if !solveOpts.quiet {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), renderSummary("Roster", summary(snap, roster)))
	}
	return nil
}

// loadSnapshot reads the input tables and merges sessions generated from
// week rules when a rules file is configured.
func loadSnapshot() (*model.Snapshot, error) {
	b, err := tabular.Load(cfg.Inputs.Paths())
	if err != nil {
		return nil, err
	}
	in, err := b.Input(nil)
	if err != nil {
		return nil, err
	}
	if cfg.Sessions.RulesPath != "" {
		rules, err := loadRulesFile(cfg.Sessions.RulesPath)
		if err != nil {
			return nil, err
		}
		generated, err := generateSessions(in, rules, solveOpts.from, solveOpts.to)
		if err != nil {
			return nil, err
		}
		in.Sessions = sessiongen.Merge(in.Sessions, generated)
	}
	return model.NewSnapshot(in)
}

// loadRulesFile decodes YAML week rules; an empty path yields none.
func loadRulesFile(path string) ([]model.WeekRule, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	rules, err := sessiongen.LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// generateSessions expands rules together with the week rules of in over
// [from, to]. Generated IDs never collide with the sessions of in.
func generateSessions(in model.Input, rules []model.WeekRule, from, to string) ([]model.Session, error) {
	if from == "" || to == "" {
		return nil, errors.New("--from and --to are required to generate sessions")
	}
	start, err := model.ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := model.ParseDate(to)
	if err != nil {
		return nil, err
	}
	all := make([]model.WeekRule, 0, len(rules)+len(in.WeekRules))
	all = append(append(all, rules...), in.WeekRules...)

	existing := make([]string, len(in.Sessions))
	for i, s := range in.Sessions {
		existing[i] = s.ID
	}
	defStart, defEnd := cfg.Sessions.Times()
	return sessiongen.Generate(in.Locations, all, in.Rooms, sessiongen.Options{
		From: start, To: end, DefaultStart: defStart, DefaultEnd: defEnd, Existing: existing,
	})
}

func writeRoster(stdout io.Writer, format export.Format, snap *model.Snapshot, roster *planner.Roster) error {
	if cfg.Output.Path == "" {
		return export.Write(stdout, format, snap, roster)
	}
	f, err := os.Create(cfg.Output.Path)
	if err != nil {
		return err
	}
	if err := export.Write(f, format, snap, roster); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func summary(snap *model.Snapshot, r *planner.Roster) [][2]string {
	pairs := [][2]string{
		{"run", r.RunID},
		{"status", r.Status.String()},
		{"objective", strconv.Itoa(r.Objective)},
	}
	if gap, ok := r.Gap(); ok {
		pairs = append(pairs, [2]string{"gap", fmt.Sprintf("%.1f%%", gap*100)})
	}
	pairs = append(pairs,
		[2]string{"sessions", strconv.Itoa(len(snap.Sessions()))},
		[2]string{"doctors", strconv.Itoa(len(snap.Doctors()))},
		[2]string{"elapsed", r.Elapsed.Round(time.Millisecond).String()},
	)
	if cfg.Output.Path != "" {
		pairs = append(pairs, [2]string{"output", cfg.Output.Path})
	}
	return pairs
}

// explain prints a readable account of a planning failure.
func explain(w io.Writer, err error) {
	var ue *planner.UnreachableSessionError
	var ie *planner.InfeasibleError
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ue):
		_, _ = fmt.Fprintln(w, renderError("%d session(s) have no eligible doctor", len(ue.Sessions)))
		rows := make([][]string, 0)
		for _, s := range ue.Sessions {
			if len(s.Exclusions) == 0 {
				rows = append(rows, []string{s.SessionID, "-", "no doctors"})
			}
			for _, ex := range s.Exclusions {
				rows = append(rows, []string{s.SessionID, ex.DoctorID, string(ex.Reason)})
			}
		}
		_, _ = fmt.Fprintln(w, renderTable([]string{"session", "doctor", "reason"}, rows))
	case errors.As(err, &ie):
		_, _ = fmt.Fprintln(w, renderError("%s", ie.Error()))
	case errors.As(err, &ve):
		_, _ = fmt.Fprintln(w, renderError("invalid input: %s", ve.Error()))
	}
}
