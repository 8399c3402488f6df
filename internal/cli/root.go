// Package cli implements the viper command line.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/viperlab/viper/internal/logging"
)

var (
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "viper",
	Short: "Perturb text with visually similar characters",
	Long: `viper replaces characters in text with visually similar ones drawn from a
character embedding space, recording every substitution it makes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON lines")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// commandLogger builds the logger for commands that take no config file.
func commandLogger(cmd *cobra.Command) (*slog.Logger, error) {
	return logging.New(logging.Config{Level: logLevel, JSON: logJSON, Writer: cmd.ErrOrStderr()})
}
