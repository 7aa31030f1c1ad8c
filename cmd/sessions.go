package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rosterplan/infra/tabular"
)

type sessionsOptions struct {
	inputDir string
	rules    string
	from, to string
	output   string
}

var sessionsOpts sessionsOptions

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Session related commands",
}

var sessionsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate sessions from week rules",
	Long: `Expands the week rules of the rules file and of doctor_week_rules.csv
into one session per location and matching date, written as sessions.csv.`,
	Args: cobra.NoArgs,
	RunE: runSessionsGenerate,
}

func init() {
	f := sessionsGenerateCmd.Flags()
	f.StringVarP(&sessionsOpts.inputDir, "input", "i", "", "directory holding locations.csv and the optional rule tables")
	f.StringVar(&sessionsOpts.rules, "rules", "", "YAML week rules")
	f.StringVar(&sessionsOpts.from, "from", "", "first date")
	f.StringVar(&sessionsOpts.to, "to", "", "last date")
	f.StringVarP(&sessionsOpts.output, "output", "o", "", "output file (stdout when empty)")
	_ = sessionsGenerateCmd.MarkFlagRequired("from")
	_ = sessionsGenerateCmd.MarkFlagRequired("to")
	sessionsCmd.AddCommand(sessionsGenerateCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsGenerate(cmd *cobra.Command, _ []string) error {
	if sessionsOpts.inputDir != "" {
		cfg.Inputs.Dir = sessionsOpts.inputDir
	}
	rulesPath := sessionsOpts.rules
	if rulesPath == "" {
		rulesPath = cfg.Sessions.RulesPath
	}
	b, err := tabular.LoadRuleTables(cfg.Inputs.Paths())
	if err != nil {
		return err
	}
	in, err := b.Input(nil)
	if err != nil {
		return err
	}
	rules, err := loadRulesFile(rulesPath)
	if err != nil {
		return err
	}
	if len(rules)+len(in.WeekRules) == 0 {
		return errors.New("no week rules: pass --rules or provide doctor_week_rules.csv")
	}
	sessions, err := generateSessions(in, rules, sessionsOpts.from, sessionsOpts.to)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if sessionsOpts.output != "" {
		f, err := os.Create(sessionsOpts.output)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	if err := tabular.WriteSessions(out, sessions); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "generated %d sessions\n", len(sessions))
	return nil
}
