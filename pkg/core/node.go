package core

// Node represents a single SQL transformation unit: one .sql file compiled
// into the dependency graph.
type Node struct {
	// Name uniquely identifies the node within the project.
	Name string
	// FilePath is the path to the SQL file, relative to the project root.
	FilePath string
	// RawSQL is the file content with the frontmatter block stripped.
	RawSQL string
	// RenderedSQL is the executable SQL produced by the renderer.
	RenderedSQL string
	// Materialized defines how the node is stored: view, table, incremental.
	Materialized string
	// Schema is the target database schema.
	Schema string
	// UniqueKey drives merge semantics for incremental nodes.
	UniqueKey string
	// Tags are metadata labels for filtering.
	Tags []string
	// Description is optional human-readable documentation.
	Description string

	// DependsOn are names of other nodes this node reads from.
	DependsOn []string
	// ExternalRefs are declared source tables this node reads from.
	ExternalRefs []string
	// UnknownRefs are referenced tables that matched neither a node nor a
	// declared source.
	UnknownRefs []string
}

// Relation returns the schema-qualified relation name this node
// materializes into.
func (n *Node) Relation() string {
	if n.Schema == "" {
		return n.Name
	}
	return n.Schema + "." + n.Name
}

// SQLChecksum returns the checksum of the node's raw SQL.
func (n *Node) SQLChecksum() string {
	return Checksum(n.RawSQL)
}

// ConfigFingerprint captures the execution-relevant configuration of a
// node. A change to any of these fields invalidates checksum-based
// skipping even when the SQL itself is unchanged.
func (n *Node) ConfigFingerprint() string {
	return Checksum(n.Materialized + "\x00" + n.Schema + "\x00" + n.UniqueKey)
}

// Source is an external table declared in sources.yaml. Sources are graph
// inputs: they are never executed, only referenced.
type Source struct {
	Name        string `yaml:"name"`
	Schema      string `yaml:"schema"`
	Description string `yaml:"description,omitempty"`
}

// Relation returns the schema-qualified name of the source table.
func (s *Source) Relation() string {
	if s.Schema == "" {
		return s.Name
	}
	return s.Schema + "." + s.Name
}
