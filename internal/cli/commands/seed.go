package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load seed CSV files into the target database",
		Long: `Load every .csv file under the seeds directory as a table.

Seed tables land in the default schema and are replaced on every load.
Nodes can select from them like any other table.`,
		Example: `  # Load all seeds
  modelflow seed`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd)
		},
	}

	return cmd
}

func runSeed(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Engine.LoadSeeds(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load seeds: %w", err)
	}

	seeds := cmdCtx.Engine.Project().Seeds
	out := cmd.OutOrStdout()

	if cmdCtx.Cfg.OutputFormat == "json" {
		loaded := make([]map[string]string, 0, len(seeds))
		for _, s := range seeds {
			loaded = append(loaded, map[string]string{
				"name":     s.Name,
				"relation": s.Relation(),
				"file":     s.FilePath,
			})
		}
		return printJSON(out, loaded)
	}

	if len(seeds) == 0 {
		fmt.Fprintln(out, "No seeds found")
		return nil
	}
	for _, s := range seeds {
		fmt.Fprintf(out, "Loaded %s from %s\n", s.Relation(), s.FilePath)
	}

	return nil
}
