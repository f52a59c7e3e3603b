package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/modelflow/pkg/core"
)

// WriteManifest writes target/manifest.json for the compiled graph.
func (e *Engine) WriteManifest() error {
	manifest, err := e.Manifest()
	if err != nil {
		return err
	}
	return e.writeArtifact("manifest.json", manifest)
}

// WriteRunResults writes target/run_results.json for a finished run.
func (e *Engine) WriteRunResults(run *core.Run, results []*core.NodeResult) error {
	completedAt := time.Now().UTC()
	if run.CompletedAt != nil {
		completedAt = *run.CompletedAt
	}

	artifact := &core.RunResults{
		RunID:       run.ID,
		Target:      run.Target,
		Status:      run.Status,
		StartedAt:   run.StartedAt,
		CompletedAt: completedAt,
		Results:     make([]core.RunResultNode, 0, len(results)),
	}
	for _, r := range results {
		artifact.Results = append(artifact.Results, core.RunResultNode{
			Node:        r.Node,
			Status:      r.Status,
			DurationSec: r.Duration.Seconds(),
			RowCount:    r.RowCount,
			Reason:      r.Reason,
			Error:       r.Error,
		})
	}
	return e.writeArtifact("run_results.json", artifact)
}

func (e *Engine) writeArtifact(name string, v any) error {
	if err := os.MkdirAll(e.cfg.TargetDir, 0o755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := filepath.Join(e.cfg.TargetDir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	e.logger.Debug("wrote artifact", "path", path)
	return nil
}
