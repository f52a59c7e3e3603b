package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/modelflow/pkg/core"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show run history from the state database",
		Long: `List recent runs, newest first. Pass a run ID to see the per-node
results of that run.`,
		Example: `  # Show the last 10 runs
  modelflow runs

  # Show the last 50 runs
  modelflow runs --limit 50

  # Show node results of a specific run
  modelflow runs 4f7c2a1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runRunDetail(cmd, args[0])
			}
			return runRunList(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to show")

	return cmd
}

func runRunList(cmd *cobra.Command, limit int) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	runs, err := cmdCtx.Engine.Store().ListRuns(limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if cmdCtx.Cfg.OutputFormat == "json" {
		return printJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Run ID", "Target", "Status", "Started", "Duration", "Error"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.ID, r.Target, r.Status, r.StartedAt.Format(time.RFC3339), runDuration(r), r.Error})
	}
	t.Render()

	return nil
}

func runRunDetail(cmd *cobra.Command, runID string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	store := cmdCtx.Engine.Store()
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	results, err := store.ListNodeResults(runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if cmdCtx.Cfg.OutputFormat == "json" {
		return printJSON(out, runSummary(run, results))
	}

	fmt.Fprintf(out, "Run %s (%s): %s\n", run.ID, run.Target, run.Status)
	if run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", run.Error)
	}
	fmt.Fprintln(out)

	t := newTable(out)
	t.AppendHeader(table.Row{"Node", "Status", "Materialized", "Rows", "Duration", "Detail"})
	for _, r := range results {
		detail := r.Reason
		if r.Error != "" {
			detail = r.Error
		}
		t.AppendRow(table.Row{r.Node, r.Status, r.Materialized, r.RowCount, r.Duration.Round(time.Millisecond), detail})
	}
	t.Render()

	return nil
}

func runDuration(r *core.Run) string {
	if r.CompletedAt == nil {
		return ""
	}
	return r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}
