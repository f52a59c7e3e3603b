// Package state persists run history and success checksums in SQLite so
// later runs can skip unchanged nodes and the CLI can inspect past runs.
package state

import (
	"github.com/leapstack-labs/modelflow/pkg/core"
)

// ChecksumRecord captures what a node looked like at its last successful
// build: its SQL checksum, its config fingerprint, and the combined
// checksum of its upstreams at that time.
type ChecksumRecord struct {
	SQLChecksum       string
	ConfigFingerprint string
	UpstreamChecksum  string
}

// Store is the persistence surface the engine and CLI depend on.
type Store interface {
	// RecordRunStart persists a new run in status running.
	RecordRunStart(run *core.Run) error

	// RecordNodeResult persists one node's outcome within a run.
	RecordNodeResult(result *core.NodeResult) error

	// CompleteRun finalizes a run with its terminal status.
	CompleteRun(id string, status core.RunStatus, errMsg string) error

	// SaveChecksums upserts a node's success checksums.
	SaveChecksums(nodeName, runID string, rec ChecksumRecord) error

	// LastSuccessChecksums returns the stored checksum record per node.
	LastSuccessChecksums() (map[string]ChecksumRecord, error)

	// GetRun retrieves a run by ID.
	GetRun(id string) (*core.Run, error)

	// ListRuns retrieves the most recent runs, newest first.
	ListRuns(limit int) ([]*core.Run, error)

	// ListNodeResults retrieves the node results of a run in insertion
	// order.
	ListNodeResults(runID string) ([]*core.NodeResult, error)

	// Close releases the underlying database.
	Close() error
}
