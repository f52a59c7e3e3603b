package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in the command context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for
// config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

var configFileNames = []string{"modelflow.yaml", "modelflow.yml"}

// configExistsIn checks if a modelflow config file exists in the directory.
func configExistsIn(dir string) bool {
	for _, name := range configFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a modelflow
// config file. Returns empty string if not found within
// maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root from CLI flags and the
// filesystem.
// Priority:
//  1. Explicit --project-dir flag
//  2. Infer from --nodes-dir (parent if it contains a config or is named "nodes")
//  3. Search upward from CWD for modelflow.yaml
//  4. Current working directory
func inferProjectRoot(flags *pflag.FlagSet) string {
	if flags != nil {
		if projectDir, _ := flags.GetString("project-dir"); projectDir != "" && flags.Changed("project-dir") {
			abs, err := filepath.Abs(projectDir)
			if err == nil {
				return abs
			}
			return filepath.Clean(projectDir)
		}
	}

	if flags != nil {
		if nodesDir, _ := flags.GetString("nodes-dir"); nodesDir != "" && flags.Changed("nodes-dir") {
			absNodes, err := filepath.Abs(nodesDir)
			if err == nil {
				parent := filepath.Dir(absNodes)

				if configExistsIn(parent) {
					return parent
				}

				if filepath.Base(absNodes) == "nodes" {
					return parent
				}
			}
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not
// absolute. Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config file >
// defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	projectRoot := inferProjectRoot(flags)

	// Paths given as flags are relative to CWD, not the project root.
	// Convert them to absolute paths up front so the resolution step
	// below leaves them alone.
	var flagNodesDir, flagSeedsDir, flagTargetDir, flagStatePath string
	if flags != nil {
		if flags.Changed("nodes-dir") {
			if v, _ := flags.GetString("nodes-dir"); v != "" {
				flagNodesDir, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("seeds-dir") {
			if v, _ := flags.GetString("seeds-dir"); v != "" {
				flagSeedsDir, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("target-dir") {
			if v, _ := flags.GetString("target-dir"); v != "" {
				flagTargetDir, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("state") {
			if v, _ := flags.GetString("state"); v != "" && v != ":memory:" {
				flagStatePath, _ = filepath.Abs(v)
			} else {
				flagStatePath = v
			}
		}
	}

	// An explicit config file anchors the project root at its directory
	// unless a more specific hint was given via flags.
	if cfgFile != "" && projectRoot == inferProjectRoot(nil) {
		if absPath, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(absPath)
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"nodes_dir":            DefaultNodesDir,
		"seeds_dir":            DefaultSeedsDir,
		"sources_file":         DefaultSourcesFile,
		"target_dir":           DefaultTargetDir,
		"state_path":           DefaultStateFile,
		"target":               DefaultTarget,
		"default_schema":       DefaultSchema,
		"default_materialized": DefaultMaterialized,
		"threads":              DefaultThreads,
		"strict":               false,
		"verbose":              false,
		"output":               DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load the config file. Search the project root if no
	// explicit file was provided.
	if cfgFile == "" {
		for _, name := range configFileNames {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (MODELFLOW_ prefix)
	// Transform: MODELFLOW_NODES_DIR -> nodes_dir
	if err := k.Load(env.Provider("MODELFLOW_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "MODELFLOW_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --state for brevity; the config key is
			// state_path.
			if key == "state" {
				return "state_path", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Set project root and resolve relative paths against it.
	cfg.ProjectRoot = projectRoot

	if flagNodesDir != "" {
		cfg.NodesDir = flagNodesDir
	} else {
		cfg.NodesDir = resolvePathRelativeTo(cfg.NodesDir, projectRoot)
	}
	if flagSeedsDir != "" {
		cfg.SeedsDir = flagSeedsDir
	} else {
		cfg.SeedsDir = resolvePathRelativeTo(cfg.SeedsDir, projectRoot)
	}
	if flagTargetDir != "" {
		cfg.TargetDir = flagTargetDir
	} else {
		cfg.TargetDir = resolvePathRelativeTo(cfg.TargetDir, projectRoot)
	}
	cfg.SourcesFile = resolvePathRelativeTo(cfg.SourcesFile, projectRoot)
	if flagStatePath != "" {
		cfg.StatePath = flagStatePath
	} else if cfg.StatePath != ":memory:" {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}

	// Expand ${VAR} references in connection credentials so passwords
	// stay out of modelflow.yaml.
	for _, t := range cfg.Targets {
		expandTargetEnvVars(t)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns in a string with environment
// variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands environment variables in sensitive target
// fields.
func expandTargetEnvVars(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
	t.Username = expandEnvVars(t.Username)
	t.Password = expandEnvVars(t.Password)
	t.Path = expandEnvVars(t.Path)
}
