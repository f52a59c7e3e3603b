package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/modelflow/internal/dag"
	"github.com/leapstack-labs/modelflow/internal/deps"
	"github.com/leapstack-labs/modelflow/internal/project"
	"github.com/leapstack-labs/modelflow/pkg/core"
	"github.com/leapstack-labs/modelflow/pkg/sqlparse"
)

// Compile loads the project, parses every node's SQL, resolves
// references, and builds the dependency graph. It must run before
// selection or execution. Parse errors are node-local: the broken node
// is reported as a warning and fails at run time, while the rest of the
// project compiles. In strict mode unknown references are errors;
// otherwise they become warnings and count as external inputs.
func (e *Engine) Compile() error {
	start := time.Now()

	proj, err := project.Load(e.cfg.ProjectDir, project.Options{
		NodesDir:            e.cfg.NodesDir,
		SeedsDir:            e.cfg.SeedsDir,
		SourcesFile:         e.cfg.SourcesFile,
		DefaultSchema:       e.cfg.DefaultSchema,
		DefaultMaterialized: e.cfg.DefaultMaterialized,
		Logger:              e.logger,
	})
	if err != nil {
		return err
	}

	graph := dag.New()
	warnings := []string{}
	parseErrs := map[string]string{}
	nodeNames := proj.NodeNames()

	for _, node := range proj.Nodes {
		stmts, err := sqlparse.ParseStatements(node.RawSQL)
		if err != nil {
			// A broken file condemns only this node. It stays in the
			// graph so its dependents are skipped at run time.
			msg := fmt.Sprintf("%s: %v", node.FilePath, err)
			parseErrs[node.Name] = msg
			warnings = append(warnings, msg)
			e.logger.Warn("parse failed", "node", node.Name, "file", node.FilePath, "error", err)
			graph.AddNode(node.Name, node)
			continue
		}

		refs := deps.ExtractAll(stmts, node.Name)
		cats := deps.Categorize(refs, nodeNames, proj.Sources)

		node.DependsOn = cats.Internal
		node.ExternalRefs = cats.External
		node.UnknownRefs = cats.Unknown

		if len(cats.Unknown) > 0 {
			if e.cfg.Strict {
				return &core.UnknownReferenceError{Node: node.Name, Refs: cats.Unknown}
			}
			warning := fmt.Sprintf("node %q references unknown tables: %s",
				node.Name, strings.Join(cats.Unknown, ", "))
			warnings = append(warnings, warning)
			e.logger.Warn("unknown reference", "node", node.Name, "refs", cats.Unknown)
		}

		rendered, err := e.renderer.Render(node)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", node.Name, err)
		}
		node.RenderedSQL = rendered

		graph.AddNode(node.Name, node)
	}

	for _, node := range proj.Nodes {
		for _, parent := range node.DependsOn {
			if err := graph.AddEdge(parent, node.Name); err != nil {
				return fmt.Errorf("failed to add edge %s -> %s: %w", parent, node.Name, err)
			}
		}
	}

	if err := graph.Validate(); err != nil {
		return err
	}

	e.proj = proj
	e.graph = graph
	e.warnings = warnings
	e.parseErrs = parseErrs

	e.logger.Info("compiled project",
		"nodes", len(proj.Nodes),
		"sources", len(proj.Sources),
		"warnings", len(warnings),
		"duration_ms", time.Since(start).Milliseconds())

	if e.cfg.TargetDir != "" {
		if err := e.WriteManifest(); err != nil {
			return err
		}
	}
	return nil
}

// Manifest builds the manifest artifact for the compiled graph.
func (e *Engine) Manifest() (*core.Manifest, error) {
	if e.graph == nil {
		return nil, fmt.Errorf("project not compiled")
	}

	levels, err := e.graph.ExecutionLevels(nil)
	if err != nil {
		return nil, err
	}

	manifest := &core.Manifest{
		GeneratedAt: time.Now().UTC(),
		Target:      e.cfg.Target,
		Nodes:       make(map[string]core.ManifestNode, len(e.proj.Nodes)),
		Sources:     e.proj.Sources,
		Levels:      levels,
	}
	for _, node := range e.proj.Nodes {
		manifest.Nodes[node.Name] = core.ManifestNode{
			FilePath:     node.FilePath,
			Materialized: node.Materialized,
			Schema:       node.Schema,
			Relation:     node.Relation(),
			UniqueKey:    node.UniqueKey,
			Tags:         node.Tags,
			DependsOn:    node.DependsOn,
			ExternalRefs: node.ExternalRefs,
			UnknownRefs:  node.UnknownRefs,
			SQLChecksum:  node.SQLChecksum(),
		}
	}
	return manifest, nil
}
