package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/modelflow/pkg/core"
)

// NewRun constructs a run record for a target with a fresh UUID.
func NewRun(target string) *core.Run {
	return &core.Run{
		ID:        generateID(),
		Target:    target,
		Status:    core.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// RecordRunStart persists a new run in status running.
func (s *SQLiteStore) RecordRunStart(run *core.Run) error {
	if s.db == nil {
		return errNotOpened
	}

	s.logger.Debug("recording run start", "id", run.ID, "target", run.Target)

	_, err := s.db.Exec(
		`INSERT INTO runs (id, target, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Target, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// CompleteRun finalizes a run with its terminal status.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, errMsg string) error {
	if s.db == nil {
		return errNotOpened
	}

	var errVal sql.NullString
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), errVal, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. A missing run returns core.ErrNotFound.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	row := s.db.QueryRow(
		`SELECT id, target, status, started_at, completed_at, error FROM runs WHERE id = ?`, id)

	run, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.Query(
		`SELECT id, target, status, started_at, completed_at, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(scan func(...any) error) (*core.Run, error) {
	run := &core.Run{}
	var status string
	var completedAt sql.NullTime
	var errMsg sql.NullString

	if err := scan(&run.ID, &run.Target, &status, &run.StartedAt, &completedAt, &errMsg); err != nil {
		return nil, err
	}

	run.Status = core.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}
