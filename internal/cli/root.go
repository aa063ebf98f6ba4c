// Package cli implements the tickloop command.
package cli

import (
	"log/slog"

	"github.com/randalmurphal/tickloop/internal/logging"
	"github.com/spf13/cobra"
)

// flags shared by every subcommand.
type rootFlags struct {
	config    string
	logLevel  string
	logFormat string
	debug     bool
}

// NewRootCmd creates the root cobra command for the tickloop CLI.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "tickloop",
		Short:         "Cooperative tick-driven event scheduler",
		Long:          "tickloop runs a task table described by a YAML or JSON file and inspects the snapshots it journals.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.config, "config", "c", "tickloop.yaml", "Settings file (.yaml, .yml, .json)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the settings file")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format (text, json); overrides the settings file")

	root.AddCommand(
		newRunCmd(flags),
		newInspectCmd(flags),
	)
	return root
}

// logger builds the command logger. Flags win over the settings file.
func (f *rootFlags) logger(cmd *cobra.Command, level, format string) *slog.Logger {
	if f.logLevel != "" {
		level = f.logLevel
	}
	if f.debug {
		level = "debug"
	}
	if f.logFormat != "" {
		format = f.logFormat
	}
	return logging.NewLoggerWithWriter(logging.ParseLevel(level), format, cmd.ErrOrStderr())
}
