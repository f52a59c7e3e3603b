package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new modelflow project",
		Long: `Create a starter project: modelflow.yaml, a sources declaration, a seed
CSV, and two nodes (a staging view and a mart table) that build from it.

Existing files are left alone unless --force is given.`,
		Example: `  # Initialize in the current directory
  modelflow init

  # Initialize in a new directory
  modelflow init my-project

  # Overwrite existing files
  modelflow init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "modelflow.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("modelflow.yaml already exists, use --force to overwrite")
	}

	if err := copyTemplate("starter", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	out := cmd.OutOrStdout()
	files, _ := listTemplateFiles("starter")
	for _, f := range files {
		fmt.Fprintf(out, "  created %s\n", f)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Project initialized.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Run 'modelflow seed' to load the sample data")
	fmt.Fprintln(out, "  2. Run 'modelflow run' to build the nodes")
	fmt.Fprintln(out, "  3. Run 'modelflow dag' to see the dependency graph")

	return nil
}
