package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the project without executing anything",
		Long: `Parse every node, resolve references, and build the dependency graph.

Compilation catches SQL syntax errors, dependency cycles, and (with
--strict) unknown table references before anything touches the database.
The compiled graph is written to manifest.json in the target directory.`,
		Example: `  # Validate the project
  modelflow compile

  # Fail on unknown table references
  modelflow compile --strict`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompile(cmd)
		},
	}

	return cmd
}

func runCompile(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Engine.Compile(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	graph := cmdCtx.Engine.Graph()
	warnings := cmdCtx.Engine.Warnings()

	if cmdCtx.Cfg.OutputFormat == "json" {
		manifest, err := cmdCtx.Engine.Manifest()
		if err != nil {
			return err
		}
		return printJSON(out, manifest)
	}

	for _, warning := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", warning)
	}

	fmt.Fprintf(out, "Compiled %d nodes, %d dependencies, %d warnings\n",
		graph.NodeCount(), graph.EdgeCount(), len(warnings))
	if cmdCtx.Cfg.TargetDir != "" {
		fmt.Fprintf(out, "Manifest written to %s\n", cmdCtx.Cfg.TargetDir)
	}

	return nil
}
