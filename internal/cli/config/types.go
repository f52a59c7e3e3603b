// Package config loads and validates CLI configuration for modelflow.
//
// Configuration is merged from four layers, lowest to highest precedence:
// built-in defaults, modelflow.yaml, MODELFLOW_* environment variables,
// and command-line flags.
package config

import (
	"github.com/leapstack-labs/modelflow/internal/adapter"
)

// TargetConfig is an alias for the adapter connection configuration. A
// project declares one entry per target under the targets: key in
// modelflow.yaml.
type TargetConfig = adapter.Config

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is resolved at load time, never read from the file.
	ProjectRoot string `koanf:"-"`

	NodesDir            string `koanf:"nodes_dir"`
	SeedsDir            string `koanf:"seeds_dir"`
	SourcesFile         string `koanf:"sources_file"`
	TargetDir           string `koanf:"target_dir"`
	StatePath           string `koanf:"state_path"`
	Target              string `koanf:"target"`
	DefaultSchema       string `koanf:"default_schema"`
	DefaultMaterialized string `koanf:"default_materialized"`
	Threads             int    `koanf:"threads"`
	Strict              bool   `koanf:"strict"`
	Verbose             bool   `koanf:"verbose"`
	OutputFormat        string `koanf:"output"`

	// Targets maps target names ("dev", "prod") to connection configs.
	Targets map[string]*TargetConfig `koanf:"targets"`
}

// Default configuration values.
const (
	DefaultNodesDir     = "nodes"
	DefaultSeedsDir     = "seeds"
	DefaultSourcesFile  = "sources.yaml"
	DefaultTargetDir    = "target"
	DefaultStateFile    = ".modelflow/state.db"
	DefaultTarget       = "dev"
	DefaultSchema       = "main"
	DefaultMaterialized = "view"
	DefaultThreads      = 1
	DefaultOutput       = "table"
)

// ActiveTarget returns the connection config for the selected target.
// Projects without a targets: block get an in-memory DuckDB target so
// modelflow works out of the box.
func (c *Config) ActiveTarget() *TargetConfig {
	if t, ok := c.Targets[c.Target]; ok && t != nil {
		return t
	}
	return &TargetConfig{Type: "duckdb", Path: ":memory:"}
}
