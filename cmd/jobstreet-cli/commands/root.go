package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"jobstreet-applied/internal/config"
	"jobstreet-applied/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	// cfg is loaded before any sub command runs.
	cfg     config.Config
	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "jobstreet-cli",
	Short: "jobstreet-cli collects the jobs you applied to on JobStreet and exports them.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logFile, err = telemetry.InitSlog(verbose, cfg.LogFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file to read, a .local variant next to it overrides values.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
