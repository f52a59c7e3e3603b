package core

import "time"

// Manifest is the JSON artifact describing a compiled project. It is
// written to target/manifest.json after every compile and run.
type Manifest struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Target      string                  `json:"target"`
	Nodes       map[string]ManifestNode `json:"nodes"`
	Sources     []Source                `json:"sources,omitempty"`
	Levels      [][]string              `json:"levels"`
}

// ManifestNode is the serialized form of a compiled node.
type ManifestNode struct {
	FilePath     string   `json:"file_path"`
	Materialized string   `json:"materialized"`
	Schema       string   `json:"schema,omitempty"`
	Relation     string   `json:"relation"`
	UniqueKey    string   `json:"unique_key,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	DependsOn    []string `json:"depends_on,omitempty"`
	ExternalRefs []string `json:"external_refs,omitempty"`
	UnknownRefs  []string `json:"unknown_refs,omitempty"`
	SQLChecksum  string   `json:"sql_checksum"`
}

// RunResults is the JSON artifact summarizing a completed run. It is
// written to target/run_results.json.
type RunResults struct {
	RunID       string          `json:"run_id"`
	Target      string          `json:"target"`
	Status      RunStatus       `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Results     []RunResultNode `json:"results"`
}

// RunResultNode is one node's entry in RunResults.
type RunResultNode struct {
	Node        string     `json:"node"`
	Status      NodeStatus `json:"status"`
	DurationSec float64    `json:"duration_sec"`
	RowCount    int64      `json:"row_count,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Error       string     `json:"error,omitempty"`
}
