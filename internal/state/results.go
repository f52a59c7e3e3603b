package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/leapstack-labs/modelflow/pkg/core"
)

// RecordNodeResult persists one node's outcome within a run.
func (s *SQLiteStore) RecordNodeResult(result *core.NodeResult) error {
	if s.db == nil {
		return errNotOpened
	}

	var rowCount sql.NullInt64
	if result.Status == core.NodeStatusSuccess {
		rowCount = sql.NullInt64{Int64: result.RowCount, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO node_results
		 (id, run_id, node_name, status, materialized, started_at, duration_ms, row_count, checksum, reason, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		generateID(), result.RunID, result.Node, string(result.Status), result.Materialized,
		result.StartedAt, result.Duration.Milliseconds(), rowCount,
		nullable(result.Checksum), nullable(result.Reason), nullable(result.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to record node result: %w", err)
	}
	return nil
}

// ListNodeResults retrieves the node results of a run in insertion order.
func (s *SQLiteStore) ListNodeResults(runID string) ([]*core.NodeResult, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.Query(
		`SELECT run_id, node_name, status, materialized, started_at, duration_ms, row_count, checksum, reason, error
		 FROM node_results WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list node results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*core.NodeResult
	for rows.Next() {
		result := &core.NodeResult{}
		var status string
		var durationMs int64
		var rowCount sql.NullInt64
		var checksum, reason, errMsg sql.NullString

		err := rows.Scan(&result.RunID, &result.Node, &status, &result.Materialized,
			&result.StartedAt, &durationMs, &rowCount, &checksum, &reason, &errMsg)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node result: %w", err)
		}

		result.Status = core.NodeStatus(status)
		result.Duration = time.Duration(durationMs) * time.Millisecond
		result.RowCount = rowCount.Int64
		result.Checksum = checksum.String
		result.Reason = reason.String
		result.Error = errMsg.String
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate node results: %w", err)
	}
	return results, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
