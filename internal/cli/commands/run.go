package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/modelflow/internal/engine"
	"github.com/leapstack-labs/modelflow/pkg/core"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Select      string
	FullRefresh bool
	FailFast    bool
	Threads     int
	SkipSeeds   bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute nodes in dependency order",
		Long: `Compile the project and execute nodes against the target database.

Nodes run level by level: a node starts only after all of its upstreams
have finished. Unchanged nodes are skipped unless --full-refresh is
given. When a node fails, its descendants are skipped and the run
continues elsewhere in the graph; --fail-fast stops scheduling new nodes
instead.`,
		Example: `  # Run every node
  modelflow run

  # Run one node and everything downstream of it
  modelflow run --select stg_orders+

  # Run a node with all of its upstreams
  modelflow run --select +fct_orders

  # Rebuild everything from scratch, stopping at the first failure
  modelflow run --full-refresh --fail-fast

  # Run up to 4 nodes of the same level concurrently
  modelflow run --threads 4`,
		Aliases: []string{"build"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Select, "select", "s", "", "Node selector (name, +name, name+, +name+)")
	cmd.Flags().BoolVar(&opts.FullRefresh, "full-refresh", false, "Rebuild all selected nodes, ignoring checksums")
	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "Stop scheduling new nodes after the first failure")
	cmd.Flags().IntVar(&opts.Threads, "threads", 0, "Concurrent nodes per level (default from config)")
	cmd.Flags().BoolVar(&opts.SkipSeeds, "skip-seeds", false, "Do not load seed CSVs before running")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Ctrl-C cancels the run; in-flight nodes finish, the rest are
	// recorded as canceled.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !opts.SkipSeeds {
		if err := cmdCtx.Engine.LoadSeeds(ctx); err != nil {
			return fmt.Errorf("failed to load seeds: %w", err)
		}
	}

	threads := opts.Threads
	if threads == 0 {
		threads = cmdCtx.Cfg.Threads
	}

	run, results, runErr := cmdCtx.Engine.Run(ctx, engine.RunOptions{
		Select:      opts.Select,
		FullRefresh: opts.FullRefresh,
		FailFast:    opts.FailFast,
		Threads:     threads,
	})
	if run == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	if cmdCtx.Cfg.OutputFormat == "json" {
		if err := printJSON(out, runSummary(run, results)); err != nil {
			return err
		}
		return runErr
	}

	for _, warning := range cmdCtx.Engine.Warnings() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", warning)
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Node", "Status", "Materialized", "Rows", "Duration", "Detail"})
	for _, r := range results {
		detail := r.Reason
		if r.Error != "" {
			detail = r.Error
		}
		rows := ""
		if r.Status == core.NodeStatusSuccess && r.Materialized != core.MaterializationView {
			rows = fmt.Sprintf("%d", r.RowCount)
		}
		t.AppendRow(table.Row{r.Node, r.Status, r.Materialized, rows, r.Duration.Round(time.Millisecond), detail})
	}
	t.Render()

	counts := map[core.NodeStatus]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	elapsed := time.Since(run.StartedAt).Round(time.Millisecond)
	if run.CompletedAt != nil {
		elapsed = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond)
	}
	fmt.Fprintf(out, "\nRun %s: %s (%d succeeded, %d failed, %d skipped) in %s\n",
		run.ID, run.Status,
		counts[core.NodeStatusSuccess],
		counts[core.NodeStatusFailed],
		counts[core.NodeStatusSkipped]+counts[core.NodeStatusSkippedUpstream],
		elapsed)

	return runErr
}

// runSummary shapes a run and its node results for JSON output.
func runSummary(run *core.Run, results []*core.NodeResult) map[string]any {
	nodes := make([]map[string]any, 0, len(results))
	for _, r := range results {
		nodes = append(nodes, map[string]any{
			"node":         r.Node,
			"status":       r.Status,
			"materialized": r.Materialized,
			"rows":         r.RowCount,
			"duration_ms":  r.Duration.Milliseconds(),
			"reason":       r.Reason,
			"error":        r.Error,
		})
	}
	return map[string]any{
		"run_id":  run.ID,
		"target":  run.Target,
		"status":  run.Status,
		"error":   run.Error,
		"results": nodes,
	}
}
