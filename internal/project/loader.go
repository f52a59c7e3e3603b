package project

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/modelflow/pkg/core"
)

// Options configures project loading. Directory and file options may be
// absolute paths; relative paths are resolved against the project root.
type Options struct {
	NodesDir            string // default "nodes"
	SeedsDir            string // default "seeds"
	SourcesFile         string // default "sources.yaml"
	DefaultSchema       string // schema for nodes outside a subdirectory
	DefaultMaterialized string // project-wide materialization default
	Logger              *slog.Logger
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.NodesDir == "" {
		opts.NodesDir = "nodes"
	}
	if opts.SeedsDir == "" {
		opts.SeedsDir = "seeds"
	}
	if opts.SourcesFile == "" {
		opts.SourcesFile = "sources.yaml"
	}
	if opts.DefaultSchema == "" {
		opts.DefaultSchema = "main"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return opts
}

// Project is a loaded transformation project: node files with their
// frontmatter applied, declared sources, and seed files.
type Project struct {
	Root    string
	Nodes   []*core.Node
	Sources []core.Source
	Seeds   []Seed

	byName map[string]*core.Node
}

// Seed is a CSV file to be loaded as a table before nodes run.
type Seed struct {
	Name     string
	FilePath string
	Schema   string
}

// Relation returns the seed's schema-qualified table name.
func (s Seed) Relation() string {
	return s.Schema + "." + s.Name
}

// Node returns the named node, or nil if the project has no such node.
func (p *Project) Node(name string) *core.Node {
	return p.byName[name]
}

// NodeNames returns all node names in lexical order.
func (p *Project) NodeNames() []string {
	names := make([]string, 0, len(p.byName))
	for name := range p.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads a project from disk: every .sql file under the nodes
// directory becomes a node, sources.yaml declares external tables, and
// .csv files under the seeds directory become seeds. Two nodes resolving
// to the same name is an error naming both files.
func Load(root string, options Options) (*Project, error) {
	opts := options.withDefaults()

	proj := &Project{
		Root:   root,
		byName: make(map[string]*core.Node),
	}

	nodesDir := resolvePath(root, opts.NodesDir)
	if err := loadNodes(proj, nodesDir, opts); err != nil {
		return nil, err
	}

	sources, err := LoadSources(resolvePath(root, opts.SourcesFile))
	if err != nil {
		return nil, err
	}
	proj.Sources = sources

	seeds, err := discoverSeeds(resolvePath(root, opts.SeedsDir), opts.DefaultSchema)
	if err != nil {
		return nil, err
	}
	proj.Seeds = seeds

	opts.Logger.Debug("project loaded",
		"root", root,
		"nodes", len(proj.Nodes),
		"sources", len(proj.Sources),
		"seeds", len(proj.Seeds))

	return proj, nil
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func loadNodes(proj *Project, nodesDir string, opts Options) error {
	info, err := os.Stat(nodesDir)
	if err != nil {
		return fmt.Errorf("nodes directory %s: %w", nodesDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("nodes path %s is not a directory", nodesDir)
	}

	err = filepath.WalkDir(nodesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
			return nil
		}

		node, err := loadNodeFile(path, nodesDir, opts)
		if err != nil {
			return err
		}

		if existing, ok := proj.byName[node.Name]; ok {
			return &core.DuplicateNodeError{
				Name:      node.Name,
				FirstPath: existing.FilePath,
				OtherPath: node.FilePath,
			}
		}
		proj.byName[node.Name] = node
		proj.Nodes = append(proj.Nodes, node)
		return nil
	})
	if err != nil {
		return err
	}

	sort.Slice(proj.Nodes, func(i, j int) bool {
		return proj.Nodes[i].Name < proj.Nodes[j].Name
	})
	return nil
}

func loadNodeFile(path, nodesDir string, opts Options) (*core.Node, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from WalkDir under the project root
	if err != nil {
		return nil, fmt.Errorf("read node file %s: %w", path, err)
	}

	fm, err := ExtractFrontmatter(string(content))
	if err != nil {
		switch e := err.(type) {
		case *FrontmatterError:
			e.File = path
		case *UnknownFieldError:
			e.File = path
		}
		return nil, err
	}

	fm.Config.ApplyDefaults(path, schemaFromPath(path, nodesDir, opts.DefaultSchema), opts.DefaultMaterialized)

	return &core.Node{
		Name:         fm.Config.Name,
		FilePath:     path,
		RawSQL:       fm.SQL,
		Materialized: fm.Config.Materialized,
		Schema:       fm.Config.Schema,
		UniqueKey:    fm.Config.UniqueKey,
		Tags:         fm.Config.Tags,
		Description:  fm.Config.Description,
	}, nil
}

// schemaFromPath derives the default schema from the node's top-level
// directory under the nodes root. nodes/staging/stg_orders.sql lands in
// schema "staging"; a file directly under the nodes root uses the
// project's default schema.
func schemaFromPath(path, nodesDir, defaultSchema string) string {
	rel, err := filepath.Rel(nodesDir, path)
	if err != nil {
		return defaultSchema
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return defaultSchema
	}
	return parts[0]
}

func discoverSeeds(seedsDir, defaultSchema string) ([]Seed, error) {
	entries, err := os.ReadDir(seedsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("seeds directory %s: %w", seedsDir, err)
	}

	var seeds []Seed
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		seeds = append(seeds, Seed{
			Name:     strings.TrimSuffix(entry.Name(), ".csv"),
			FilePath: filepath.Join(seedsDir, entry.Name()),
			Schema:   defaultSchema,
		})
	}
	sort.Slice(seeds, func(i, j int) bool { return seeds[i].Name < seeds[j].Name })
	return seeds, nil
}
