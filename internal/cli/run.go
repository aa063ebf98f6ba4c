package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/randalmurphal/tickloop/pkg/tickloop"
	"github.com/randalmurphal/tickloop/pkg/tickloop/config"
	"github.com/randalmurphal/tickloop/pkg/tickloop/journal"
	"github.com/randalmurphal/tickloop/pkg/tickloop/registry"
	"github.com/spf13/cobra"
)

func newRunCmd(root *rootFlags) *cobra.Command {
	var (
		duration    time.Duration
		runID       string
		journalPath string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured task table",
		Long: `Run registers every task of the settings file, admits its configured
events and drives the loop from a ticker until --duration elapses or the
process is interrupted. The final snapshot is printed as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(root.config)
			if err != nil {
				return err
			}
			logger := root.logger(cmd, settings.Log.Level, settings.Log.Format)

			opts := []tickloop.Option{
				tickloop.WithLogger(logger),
				tickloop.WithCapacity(settings.TableCapacity),
				tickloop.WithInboxSize(settings.InboxSize),
				tickloop.WithMetrics(settings.Metrics),
				tickloop.WithTracing(settings.Tracing),
			}
			if runID != "" {
				opts = append(opts, tickloop.WithRunID(runID))
			}
			if journalPath == "" {
				journalPath = settings.Journal.Path
			}
			if journalPath != "" {
				store, err := journal.NewSQLiteStore(journalPath)
				if err != nil {
					return fmt.Errorf("open journal: %w", err)
				}
				defer store.Close()
				opts = append(opts, tickloop.WithJournal(store, settings.Journal.Every))
			}

			sched := tickloop.New(opts...)
			if _, err := registry.Builtins(logger).RegisterTasks(sched, settings); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			src := tickloop.NewIntervalSource(settings.TickPeriod.Std())
			err = sched.RunWithSource(ctx, src)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sched.Snapshot())
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 5*time.Second, "How long to run (0 runs until interrupted)")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run identifier (default: generated)")
	cmd.Flags().StringVar(&journalPath, "journal", "", "SQLite journal path; overrides the settings file")
	return cmd
}
