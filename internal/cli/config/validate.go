package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/leapstack-labs/modelflow/internal/adapter"
	"github.com/leapstack-labs/modelflow/pkg/core"
)

// validOutputFormats are the accepted values for --output.
var validOutputFormats = []string{"table", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.NodesDir == "" {
		return fmt.Errorf("nodes_dir is required")
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", c.Threads)
	}

	validOutput := false
	for _, f := range validOutputFormats {
		if c.OutputFormat == f {
			validOutput = true
			break
		}
	}
	if !validOutput {
		return fmt.Errorf("invalid output format %q, expected one of: %s",
			c.OutputFormat, strings.Join(validOutputFormats, ", "))
	}

	if c.DefaultMaterialized != "" && !core.ValidMaterialization(c.DefaultMaterialized) {
		return fmt.Errorf("invalid default_materialized %q, expected one of: view, table, incremental",
			c.DefaultMaterialized)
	}

	// A named target that has no entry in targets: is only an error if
	// the project declares targets at all. Projects without a targets:
	// block fall back to in-memory DuckDB.
	if len(c.Targets) > 0 {
		t, ok := c.Targets[c.Target]
		if !ok {
			return fmt.Errorf("target %q is not defined in modelflow.yaml, available: %s",
				c.Target, strings.Join(targetNames(c.Targets), ", "))
		}
		if err := validateTarget(c.Target, t); err != nil {
			return err
		}
	}

	return nil
}

// ValidateDirectories checks if required directories exist.
// Kept separate from Validate so that help and init work without a
// project on disk.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.NodesDir); os.IsNotExist(err) {
		return fmt.Errorf("nodes directory does not exist: %s\nHint: Create the directory or use --nodes-dir to specify a different path", c.NodesDir)
	}
	return nil
}

func validateTarget(name string, t *TargetConfig) error {
	if t == nil {
		return fmt.Errorf("target %q has an empty configuration", name)
	}
	if t.Type == "" {
		return fmt.Errorf("target %q has no type, expected one of: %s",
			name, strings.Join(adapter.ListAdapters(), ", "))
	}
	if !adapter.IsRegistered(t.Type) {
		return fmt.Errorf("target %q uses unknown adapter type %q, available: %s",
			name, t.Type, strings.Join(adapter.ListAdapters(), ", "))
	}
	if t.Type == "postgres" && t.Database == "" {
		return fmt.Errorf("target %q requires a database name for postgres", name)
	}
	return nil
}

func targetNames(targets map[string]*TargetConfig) []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
