// Package commands implements the modelflow subcommands.
package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/modelflow/internal/cli/config"
	"github.com/leapstack-labs/modelflow/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Engine *engine.Engine
}

// NewCommandContext creates a CommandContext with an engine.
// Returns the context and a cleanup function that must be called
// (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	if err := cfg.ValidateDirectories(); err != nil {
		return nil, nil, err
	}

	eng, err := createEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Engine: eng,
	}, cleanup, nil
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables. The fallback keeps commands usable when they are
// constructed outside the root command, as in tests.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	threads := config.DefaultThreads
	if v := os.Getenv("MODELFLOW_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			threads = n
		}
	}

	return &config.Config{
		NodesDir:            getEnvOrDefault("MODELFLOW_NODES_DIR", config.DefaultNodesDir),
		SeedsDir:            getEnvOrDefault("MODELFLOW_SEEDS_DIR", config.DefaultSeedsDir),
		SourcesFile:         getEnvOrDefault("MODELFLOW_SOURCES_FILE", config.DefaultSourcesFile),
		TargetDir:           getEnvOrDefault("MODELFLOW_TARGET_DIR", config.DefaultTargetDir),
		StatePath:           getEnvOrDefault("MODELFLOW_STATE_PATH", config.DefaultStateFile),
		Target:              getEnvOrDefault("MODELFLOW_TARGET", config.DefaultTarget),
		DefaultSchema:       getEnvOrDefault("MODELFLOW_DEFAULT_SCHEMA", config.DefaultSchema),
		DefaultMaterialized: getEnvOrDefault("MODELFLOW_DEFAULT_MATERIALIZED", config.DefaultMaterialized),
		Threads:             threads,
		Strict:              os.Getenv("MODELFLOW_STRICT") == "true",
		Verbose:             os.Getenv("MODELFLOW_VERBOSE") == "true",
		OutputFormat:        getEnvOrDefault("MODELFLOW_OUTPUT", config.DefaultOutput),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	// Ensure state directory exists
	if cfg.StatePath != ":memory:" {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, err
			}
		}
	}

	engineCfg := engine.Config{
		ProjectDir:          cfg.ProjectRoot,
		NodesDir:            cfg.NodesDir,
		SeedsDir:            cfg.SeedsDir,
		SourcesFile:         cfg.SourcesFile,
		TargetDir:           cfg.TargetDir,
		StatePath:           cfg.StatePath,
		Target:              cfg.Target,
		AdapterConfig:       *cfg.ActiveTarget(),
		DefaultSchema:       cfg.DefaultSchema,
		DefaultMaterialized: cfg.DefaultMaterialized,
		Strict:              cfg.Strict,
		Logger:              logger,
	}

	return engine.New(engineCfg)
}
