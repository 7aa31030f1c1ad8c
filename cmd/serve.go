package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/rosterplan/app"
	"github.com/kilianp07/rosterplan/infra/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planning API",
	Long: `Starts an HTTP server exposing POST /api/plan, GET /api/runs,
/metrics and /healthz until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides http.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Serve(cmd.Context())
}
