package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/modelflow/internal/selector"
	"github.com/leapstack-labs/modelflow/internal/state"
	"github.com/leapstack-labs/modelflow/pkg/core"
)

// RunOptions controls a single engine run.
type RunOptions struct {
	// Select scopes the run to a selector expression. Empty runs
	// everything.
	Select string
	// FullRefresh drops existing relations and rebuilds, bypassing
	// checksum skipping.
	FullRefresh bool
	// FailFast stops scheduling new nodes after the first failure.
	FailFast bool
	// Threads is the maximum number of nodes executed concurrently
	// within a level. Values below 1 mean serial execution.
	Threads int
}

// runState tracks shared progress across workers within a run.
type runState struct {
	mu sync.Mutex
	// unavailable maps a node that failed or was skipped for a failed
	// ancestor to the name of the root failed node.
	unavailable map[string]string
	failures    int
	firstErr    string
	canceled    bool
}

func (rs *runState) markFailed(node string, errMsg string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.unavailable[node] = node
	rs.failures++
	if rs.firstErr == "" {
		rs.firstErr = errMsg
	}
}

func (rs *runState) markUnavailable(node, rootCause string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.unavailable[node] = rootCause
}

// failedAncestor returns the root failed node responsible for any of the
// given parents being unavailable.
func (rs *runState) failedAncestor(parents []string) (string, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for _, parent := range parents {
		if cause, ok := rs.unavailable[parent]; ok {
			return cause, true
		}
	}
	return "", false
}

func (rs *runState) hasFailures() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.failures > 0
}

// Run executes the compiled graph level by level. Nodes whose checksums
// match their last success are skipped, nodes below a failure are marked
// skipped_upstream, and fail-fast stops scheduling after the first
// failure.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*core.Run, []*core.NodeResult, error) {
	if e.graph == nil {
		if err := e.Compile(); err != nil {
			return nil, nil, err
		}
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, nil, err
	}

	scope, err := selector.Select(e.graph, opts.Select)
	if err != nil {
		return nil, nil, err
	}
	levels, err := e.graph.ExecutionLevels(scope)
	if err != nil {
		return nil, nil, err
	}

	run := state.NewRun(e.cfg.Target)
	if err := e.store.RecordRunStart(run); err != nil {
		return nil, nil, fmt.Errorf("failed to record run: %w", err)
	}
	e.logger.Info("starting run", "run_id", run.ID, "target", run.Target, "nodes", len(scope))

	lastChecksums, err := e.store.LastSuccessChecksums()
	if err != nil {
		_ = e.store.CompleteRun(run.ID, core.RunStatusFailed, err.Error())
		return run, nil, err
	}

	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}

	rs := &runState{unavailable: make(map[string]string)}
	var results []*core.NodeResult
	stopped := false
	stopReason := ""

	checkStop := func() {
		if !stopped && ctx.Err() != nil {
			rs.mu.Lock()
			rs.canceled = true
			rs.mu.Unlock()
			stopped = true
			stopReason = "run canceled"
		}
		if !stopped && opts.FailFast && rs.hasFailures() {
			stopped = true
			stopReason = "stopped by fail-fast"
		}
	}
	skip := func(runID, name, reason string) *core.NodeResult {
		return e.recordResult(&core.NodeResult{
			RunID:        runID,
			Node:         name,
			Status:       core.NodeStatusSkipped,
			Materialized: e.proj.Node(name).Materialized,
			StartedAt:    time.Now().UTC(),
			Reason:       reason,
		})
	}

	for _, level := range levels {
		levelResults := make([]*core.NodeResult, len(level))

		if threads == 1 {
			// Serial execution keeps stop checks exact: each node sees
			// the outcome of every node before it.
			for i, name := range level {
				checkStop()
				if stopped {
					levelResults[i] = skip(run.ID, name, stopReason)
					continue
				}
				levelResults[i] = e.processNode(ctx, run.ID, name, lastChecksums, rs, opts.FullRefresh)
			}
		} else {
			var g errgroup.Group
			g.SetLimit(threads)
			for i, name := range level {
				checkStop()
				if stopped {
					levelResults[i] = skip(run.ID, name, stopReason)
					continue
				}
				g.Go(func() error {
					levelResults[i] = e.processNode(ctx, run.ID, name, lastChecksums, rs, opts.FullRefresh)
					return nil
				})
			}
			_ = g.Wait()
			// Failures inside the level stop the next level from
			// scheduling, not the in-flight workers.
			checkStop()
		}
		results = append(results, levelResults...)
	}

	status := core.RunStatusCompleted
	var runErr error
	rs.mu.Lock()
	canceled, failures, firstErr := rs.canceled, rs.failures, rs.firstErr
	rs.mu.Unlock()

	switch {
	case canceled:
		status = core.RunStatusCanceled
		runErr = ctx.Err()
	case failures > 0:
		status = core.RunStatusFailed
		runErr = fmt.Errorf("%d node(s) failed, first error: %s", failures, firstErr)
	}

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	_ = e.store.CompleteRun(run.ID, status, errMsg)
	e.logger.Info("run finished", "run_id", run.ID, "status", status, "failures", failures)

	completed, err := e.store.GetRun(run.ID)
	if err == nil {
		run = completed
	}

	if e.cfg.TargetDir != "" {
		if err := e.WriteRunResults(run, results); err != nil {
			e.logger.Warn("failed to write run results artifact", "error", err)
		}
	}
	return run, results, runErr
}

// processNode decides the fate of one node: skipped_upstream below a
// failure, skipped when checksums match, executed otherwise.
func (e *Engine) processNode(ctx context.Context, runID, name string,
	lastChecksums map[string]state.ChecksumRecord, rs *runState, fullRefresh bool) *core.NodeResult {

	node := e.proj.Node(name)
	result := &core.NodeResult{
		RunID:        runID,
		Node:         name,
		Materialized: node.Materialized,
		StartedAt:    time.Now().UTC(),
	}

	if msg, broken := e.parseErrs[name]; broken {
		rs.markFailed(name, msg)
		result.Status = core.NodeStatusFailed
		result.Error = msg
		e.logger.Error("node failed", "node", name, "error", msg)
		return e.recordResult(result)
	}

	if cause, found := rs.failedAncestor(node.DependsOn); found {
		rs.markUnavailable(name, cause)
		result.Status = core.NodeStatusSkippedUpstream
		result.Reason = fmt.Sprintf("upstream %s failed", cause)
		e.logger.Info("node skipped", "node", name, "reason", result.Reason)
		return e.recordResult(result)
	}

	if !fullRefresh && e.upToDate(node, lastChecksums) {
		result.Status = core.NodeStatusSkipped
		result.Reason = "up to date"
		e.logger.Info("node skipped", "node", name, "reason", result.Reason)
		return e.recordResult(result)
	}

	e.logger.Info("executing node", "node", name, "materialized", node.Materialized)
	rowCount, err := e.materialize(ctx, node, fullRefresh)
	result.Duration = time.Since(result.StartedAt)

	if err != nil {
		rs.markFailed(name, err.Error())
		result.Status = core.NodeStatusFailed
		result.Error = err.Error()
		e.logger.Error("node failed", "node", name, "error", err)
		return e.recordResult(result)
	}

	rec := e.checksumRecord(node)
	if err := e.store.SaveChecksums(name, runID, rec); err != nil {
		e.logger.Warn("failed to save checksums", "node", name, "error", err)
	}

	result.Status = core.NodeStatusSuccess
	result.RowCount = rowCount
	result.Checksum = core.CombineChecksums(map[string]string{
		"sql":      rec.SQLChecksum,
		"config":   rec.ConfigFingerprint,
		"upstream": rec.UpstreamChecksum,
	})
	e.logger.Info("node built", "node", name, "rows", rowCount,
		"duration_ms", result.Duration.Milliseconds())
	return e.recordResult(result)
}

// upToDate reports whether the node can be skipped: its SQL, its config,
// and all of its upstreams must be unchanged since its last success.
func (e *Engine) upToDate(node *core.Node, lastChecksums map[string]state.ChecksumRecord) bool {
	last, ok := lastChecksums[node.Name]
	if !ok {
		return false
	}
	current := e.checksumRecord(node)
	return current == last
}

// checksumRecord captures the node's current checksums, including the
// combined checksum of its upstream nodes.
func (e *Engine) checksumRecord(node *core.Node) state.ChecksumRecord {
	upstream := make(map[string]string, len(node.DependsOn))
	for _, parent := range node.DependsOn {
		upstream[parent] = e.proj.Node(parent).SQLChecksum()
	}
	return state.ChecksumRecord{
		SQLChecksum:       node.SQLChecksum(),
		ConfigFingerprint: node.ConfigFingerprint(),
		UpstreamChecksum:  core.CombineChecksums(upstream),
	}
}

func (e *Engine) recordResult(result *core.NodeResult) *core.NodeResult {
	if err := e.store.RecordNodeResult(result); err != nil {
		e.logger.Warn("failed to record node result", "node", result.Node, "error", err)
	}
	return result
}
