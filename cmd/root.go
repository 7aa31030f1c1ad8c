// Package cmd implements the rosterplan command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/rosterplan/config"
	coremon "github.com/kilianp07/rosterplan/core/monitoring"
	"github.com/kilianp07/rosterplan/infra/logger"
	"github.com/kilianp07/rosterplan/infra/monitoring"
)

// defaultConfigPath is used when --config is not given and the file exists.
const defaultConfigPath = "config.yaml"

var (
	cfgPath string
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "rosterplan",
	Short:             "Assign doctors to clinic sessions",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
}

// Execute runs the CLI until it completes or an interrupt is received.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer coremon.Flush(2 * time.Second)
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	path := cfgPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	c, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format == "console")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		logger.New("main").Warnf("sentry disabled: %v", err)
		return nil
	}
	coremon.Init(mon)
	return nil
}
