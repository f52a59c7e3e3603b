// Package engine compiles a project into a dependency graph and executes
// it against a target database in dependency order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/modelflow/internal/adapter"
	"github.com/leapstack-labs/modelflow/internal/dag"
	"github.com/leapstack-labs/modelflow/internal/project"
	"github.com/leapstack-labs/modelflow/internal/state"
	"github.com/leapstack-labs/modelflow/pkg/core"
)

// Config holds engine configuration.
type Config struct {
	// ProjectDir is the project root containing nodes/, seeds/ and
	// sources.yaml.
	ProjectDir string
	// NodesDir overrides the default nodes directory (relative to root).
	NodesDir string
	// SeedsDir overrides the default seeds directory (relative to root).
	SeedsDir string
	// SourcesFile overrides the default sources.yaml location.
	SourcesFile string
	// TargetDir is where manifest.json and run_results.json are written.
	// Empty disables artifact output.
	TargetDir string
	// StatePath is the path to the SQLite state database.
	StatePath string
	// Target names the active target ("dev", "prod").
	Target string
	// AdapterConfig contains the database connection configuration.
	AdapterConfig adapter.Config
	// DefaultSchema is used for nodes without a schema of their own.
	DefaultSchema string
	// DefaultMaterialized is the project-wide materialization default.
	DefaultMaterialized string
	// Strict promotes unknown references to compile errors.
	Strict bool
	// Renderer turns raw SQL into executable SQL. Defaults to the
	// identity renderer.
	Renderer Renderer
	// Logger is the structured logger (uses discard if nil).
	Logger *slog.Logger
}

// Engine orchestrates compilation and execution of a project.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	store    state.Store
	renderer Renderer

	// Database adapter (lazy initialized)
	db          adapter.Adapter
	dbConnected bool
	dbMu        sync.Mutex

	// Populated by Compile
	proj      *project.Project
	graph     *dag.Graph
	warnings  []string
	parseErrs map[string]string
}

// New creates a new engine. The database adapter is only connected when a
// run or seed load needs it.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine", "project_dir", cfg.ProjectDir, "target", cfg.Target)

	if cfg.StatePath == "" {
		cfg.StatePath = ":memory:"
	}
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	if cfg.AdapterConfig.Type == "" {
		cfg.AdapterConfig.Type = "duckdb"
	}
	if cfg.Target == "" {
		cfg.Target = "dev"
	}

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = IdentityRenderer{}
	}

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		renderer: renderer,
	}, nil
}

// ensureDBConnected lazily connects to the target database.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}

	e.logger.Debug("connecting to database", "adapter_type", e.cfg.AdapterConfig.Type)

	db, err := adapter.NewAdapter(e.cfg.AdapterConfig)
	if err != nil {
		return fmt.Errorf("failed to create database adapter: %w", err)
	}
	if err := db.Connect(ctx, e.cfg.AdapterConfig); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	e.db = db
	e.dbConnected = true

	e.logger.Debug("database connected", "dialect", db.DialectName())
	return nil
}

// Close releases all resources.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	var errs []error
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Graph returns the dependency graph built by Compile.
func (e *Engine) Graph() *dag.Graph {
	return e.graph
}

// Project returns the loaded project.
func (e *Engine) Project() *project.Project {
	return e.proj
}

// Store returns the state store.
func (e *Engine) Store() state.Store {
	return e.store
}

// Warnings returns the non-fatal findings of the last Compile, such as
// unknown references.
func (e *Engine) Warnings() []string {
	return e.warnings
}

// Node returns a compiled node by name.
func (e *Engine) Node(name string) *core.Node {
	if e.proj == nil {
		return nil
	}
	return e.proj.Node(name)
}
