package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/randalmurphal/tickloop/pkg/tickloop"
	"github.com/randalmurphal/tickloop/pkg/tickloop/journal"
	"github.com/spf13/cobra"
)

func newInspectCmd(root *rootFlags) *cobra.Command {
	var (
		journalPath string
		seq         int
	)

	cmd := &cobra.Command{
		Use:   "inspect [run-id]",
		Short: "List journaled runs and snapshots",
		Long: `Without arguments, inspect lists the runs in the journal. With a run id
it lists that run's snapshots, and with --seq it prints one snapshot
(-1 selects the latest).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening a store creates its file; inspect must not.
			if _, err := os.Stat(journalPath); err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			store, err := journal.NewSQLiteStore(journalPath)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				runs, err := store.Runs()
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs journaled.")
					return nil
				}
				for _, id := range runs {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			runID := args[0]
			if cmd.Flags().Changed("seq") {
				var data []byte
				if seq < 0 {
					_, data, err = store.Latest(runID)
				} else {
					data, err = store.Load(runID, seq)
				}
				if err != nil {
					return fmt.Errorf("run %s: %w", runID, err)
				}
				var snap tickloop.Snapshot
				if err := json.Unmarshal(data, &snap); err != nil {
					return fmt.Errorf("decode snapshot: %w", err)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			infos, err := store.List(runID)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				return fmt.Errorf("run %s: %w", runID, journal.ErrNotFound)
			}
			fmt.Fprintf(out, "%-6s  %-8s  %s\n", "SEQ", "BYTES", "SAVED")
			for _, info := range infos {
				fmt.Fprintf(out, "%-6d  %-8d  %s\n", info.Sequence, info.Size, info.Timestamp.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&journalPath, "journal", "j", "tickloop.db", "SQLite journal path")
	cmd.Flags().IntVar(&seq, "seq", -1, "Print the snapshot with this sequence (-1 = latest)")
	return cmd
}
