package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	var dotFlag bool

	cmd := &cobra.Command{
		Use:   "dag",
		Short: "Show the dependency graph",
		Long: `Display the dependency graph grouped by execution level.

Nodes in the same level have no dependencies on each other and can run
concurrently. Use --dot to emit Graphviz output instead.`,
		Example: `  # Show execution levels
  modelflow dag

  # Render with Graphviz
  modelflow dag --dot | dot -Tsvg > dag.svg

  # Machine-readable levels
  modelflow dag --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDAG(cmd, dotFlag)
		},
	}

	cmd.Flags().BoolVar(&dotFlag, "dot", false, "Emit the graph in Graphviz DOT format")

	return cmd
}

func runDAG(cmd *cobra.Command, dotFlag bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Engine.Compile(); err != nil {
		return err
	}

	graph := cmdCtx.Engine.Graph()
	out := cmd.OutOrStdout()

	if dotFlag {
		fmt.Fprintln(out, "digraph modelflow {")
		fmt.Fprintln(out, "  rankdir=LR;")
		for _, name := range graph.Names() {
			fmt.Fprintf(out, "  %q;\n", name)
		}
		for _, name := range graph.Names() {
			for _, child := range graph.Children(name) {
				fmt.Fprintf(out, "  %q -> %q;\n", name, child)
			}
		}
		fmt.Fprintln(out, "}")
		return nil
	}

	levels, err := graph.ExecutionLevels(nil)
	if err != nil {
		return err
	}

	if cmdCtx.Cfg.OutputFormat == "json" {
		return printJSON(out, map[string]any{
			"levels": levels,
			"nodes":  graph.NodeCount(),
			"edges":  graph.EdgeCount(),
		})
	}

	fmt.Fprintln(out, "Dependency graph (execution levels):")
	fmt.Fprintln(out)

	for i, level := range levels {
		fmt.Fprintf(out, "Level %d:\n", i)
		for _, name := range level {
			fmt.Fprintf(out, "  %s\n", name)
			if parents := graph.Parents(name); len(parents) > 0 {
				fmt.Fprintf(out, "    depends on: %s\n", strings.Join(parents, ", "))
			}
			if children := graph.Children(name); len(children) > 0 {
				fmt.Fprintf(out, "    used by: %s\n", strings.Join(children, ", "))
			}
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Total: %d nodes, %d dependencies\n", graph.NodeCount(), graph.EdgeCount())

	return nil
}
