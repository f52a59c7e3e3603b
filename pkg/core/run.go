package core

import "time"

// RunStatus represents the overall outcome of a run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// NodeStatus represents the outcome of a single node within a run.
type NodeStatus string

// Node status constants.
const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusFailed  NodeStatus = "failed"
	// NodeStatusSkipped means the node was up to date or out of scope.
	NodeStatusSkipped NodeStatus = "skipped"
	// NodeStatusSkippedUpstream means an ancestor failed earlier in the run.
	NodeStatusSkippedUpstream NodeStatus = "skipped_upstream"
)

// Run represents one invocation of the engine over a node scope.
type Run struct {
	ID          string
	Target      string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// NodeResult records what happened to one node during a run.
type NodeResult struct {
	RunID        string
	Node         string
	Status       NodeStatus
	Materialized string
	StartedAt    time.Time
	Duration     time.Duration
	RowCount     int64
	// Checksum is the composite checksum recorded on success and compared
	// on the next run to decide whether the node can be skipped.
	Checksum string
	// Reason explains a skip, e.g. the name of the failed ancestor.
	Reason string
	Error  string
}
