package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/modelflow/internal/selector"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var selectFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List nodes and their dependencies",
		Long: `List nodes in execution order with their materialization, schema,
and direct upstreams. A selector narrows the listing the same way it
narrows a run.`,
		Example: `  # List all nodes
  modelflow list

  # List a node and its upstreams
  modelflow list --select +fct_orders

  # Machine-readable listing
  modelflow list --output json`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, selectFlag)
		},
	}

	cmd.Flags().StringVarP(&selectFlag, "select", "s", "", "Node selector (name, +name, name+, +name+)")

	return cmd
}

func runList(cmd *cobra.Command, selectFlag string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Engine.Compile(); err != nil {
		return err
	}

	graph := cmdCtx.Engine.Graph()
	names, err := selector.Select(graph, selectFlag)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if cmdCtx.Cfg.OutputFormat == "json" {
		type listedNode struct {
			Name         string   `json:"name"`
			Materialized string   `json:"materialized"`
			Schema       string   `json:"schema"`
			DependsOn    []string `json:"depends_on"`
			Sources      []string `json:"sources,omitempty"`
		}
		listed := make([]listedNode, 0, len(names))
		for _, name := range names {
			node := cmdCtx.Engine.Node(name)
			listed = append(listed, listedNode{
				Name:         node.Name,
				Materialized: node.Materialized,
				Schema:       node.Schema,
				DependsOn:    node.DependsOn,
				Sources:      node.ExternalRefs,
			})
		}
		return printJSON(out, listed)
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"#", "Node", "Materialized", "Schema", "Depends On"})
	for i, name := range names {
		node := cmdCtx.Engine.Node(name)
		t.AppendRow(table.Row{
			i + 1,
			node.Name,
			node.Materialized,
			node.Schema,
			strings.Join(node.DependsOn, ", "),
		})
	}
	t.Render()

	return nil
}
