package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sequent/internal/state"
)

// newHistoryCommand creates the history command.
func newHistoryCommand() *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent check runs",
		Long: `List recent check runs recorded in the state database.

With --run, shows the per-theorem results of one run instead.`,
		Example: `  # Last 20 runs
  sequent history

  # Per-theorem results of a run
  sequent history --run 4b3f...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("run history is disabled (--no-state)")
			}
			defer func() { _ = store.Close() }()

			if runID != "" {
				return renderRunDetail(cmd, store, runID)
			}
			return renderRunList(cmd, store, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show per-theorem results for one run")

	return cmd
}

func renderRunList(cmd *cobra.Command, store state.StateStore, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Started", "Status", "Theorems", "Certified", "Failed"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			shortID(run.ID),
			run.StartedAt.Format(time.RFC3339),
			run.Status,
			run.Theorems,
			run.Certified,
			run.Failed,
		})
	}
	t.Render()
	return nil
}

func renderRunDetail(cmd *cobra.Command, store state.StateStore, runID string) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	results, err := store.GetTheoremsForRun(runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s (%s) on %s\n\n", run.ID, run.Status, run.Root)

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Theorem", "Module", "Status", "Duration", "Error"})
	for _, res := range results {
		t.AppendRow(table.Row{
			res.Name,
			res.Module,
			res.Status,
			fmt.Sprintf("%dms", res.DurationMS),
			res.Error,
		})
	}
	t.Render()
	return nil
}

// shortID abbreviates a run UUID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
