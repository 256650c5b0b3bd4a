package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jrhy/bmap/internal/logging"
)

func newRootCmd() *cobra.Command {
	var logLevelStr, configFile string
	var logOpts logging.Options
	rootCmd := &cobra.Command{
		Use:   "bmap",
		Short: "Inspect and combine ordered key/value files",
		Long: `bmap works on files holding a JSON array of [key, value] pairs,
the encoding used by bmap.Map. Results are written to stdout in the
same format; logs go to stderr.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile == "" {
				configFile = os.Getenv(envPrefix + "_CONFIG")
			}
			used, err := loadConfig(cmd, configFile)
			if err != nil {
				return err
			}
			level, err := logging.ParseLogLevel(logLevelStr)
			if err != nil {
				return err
			}
			logOpts.Level = level
			logging.ConfigureLogger(cmd.ErrOrStderr(), logOpts)
			if used != "" {
				slog.Debug("loaded config", slog.String("file", used))
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&logLevelStr, "log-level", "l", logging.DefaultLogLevel.String(), "Set logging level [debug|info|warn|error]")
	rootCmd.PersistentFlags().BoolVarP(&logOpts.JSON, "log-json", "j", false, "Print logs in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "f", "", "Config file (yaml, json or toml) with defaults for any flag")

	rootCmd.AddCommand(
		newFingerprintCmd(),
		newSortCmd(),
		newMergeCmd(),
		newDiffCmd(),
		newApplyCmd(),
		newStatsCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
