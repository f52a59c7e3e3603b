package state

import (
	"fmt"
	"time"
)

// SaveChecksums upserts a node's success checksums. Called once per node
// after a successful materialization.
func (s *SQLiteStore) SaveChecksums(nodeName, runID string, rec ChecksumRecord) error {
	if s.db == nil {
		return errNotOpened
	}

	_, err := s.db.Exec(
		`INSERT INTO node_checksums (node_name, sql_checksum, config_fingerprint, upstream_checksum, run_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(node_name) DO UPDATE SET
		   sql_checksum = excluded.sql_checksum,
		   config_fingerprint = excluded.config_fingerprint,
		   upstream_checksum = excluded.upstream_checksum,
		   run_id = excluded.run_id,
		   updated_at = excluded.updated_at`,
		nodeName, rec.SQLChecksum, rec.ConfigFingerprint, rec.UpstreamChecksum,
		runID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save checksums for %s: %w", nodeName, err)
	}
	return nil
}

// LastSuccessChecksums returns the stored checksum record per node.
func (s *SQLiteStore) LastSuccessChecksums() (map[string]ChecksumRecord, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.Query(
		`SELECT node_name, sql_checksum, config_fingerprint, upstream_checksum FROM node_checksums`)
	if err != nil {
		return nil, fmt.Errorf("failed to load checksums: %w", err)
	}
	defer func() { _ = rows.Close() }()

	checksums := make(map[string]ChecksumRecord)
	for rows.Next() {
		var name string
		var rec ChecksumRecord
		if err := rows.Scan(&name, &rec.SQLChecksum, &rec.ConfigFingerprint, &rec.UpstreamChecksum); err != nil {
			return nil, fmt.Errorf("failed to scan checksum row: %w", err)
		}
		checksums[name] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checksums: %w", err)
	}
	return checksums, nil
}
