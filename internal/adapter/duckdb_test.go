package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newDuckDB(t *testing.T) *DuckDBAdapter {
	t.Helper()
	ctx := context.Background()
	a := NewDuckDBAdapter()
	if err := a.Connect(ctx, Config{Path: ":memory:"}); err != nil {
		t.Fatalf("failed to connect to in-memory DuckDB: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestDuckDBAdapter_ConnectFileBased(t *testing.T) {
	ctx := context.Background()
	a := NewDuckDBAdapter()

	dbPath := filepath.Join(t.TempDir(), "test.duckdb")
	if err := a.Connect(ctx, Config{Path: dbPath}); err != nil {
		t.Fatalf("failed to connect to file-based DuckDB: %v", err)
	}
	defer a.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestDuckDBAdapter_EnsureSchemaIdempotent(t *testing.T) {
	ctx := context.Background()
	a := newDuckDB(t)

	if err := a.EnsureSchema(ctx, "staging"); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	if err := a.EnsureSchema(ctx, "staging"); err != nil {
		t.Fatalf("second EnsureSchema should be a no-op: %v", err)
	}
}

func TestDuckDBAdapter_CreateOrReplaceTable(t *testing.T) {
	ctx := context.Background()
	a := newDuckDB(t)

	if err := a.EnsureSchema(ctx, "staging"); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	if err := a.CreateOrReplaceTable(ctx, "staging.nums", "SELECT 1 AS n UNION ALL SELECT 2"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	count, err := a.RowCount(ctx, "staging.nums")
	if err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 rows, got %d", count)
	}

	// Replace with a different shape
	if err := a.CreateOrReplaceTable(ctx, "staging.nums", "SELECT 'a' AS letter"); err != nil {
		t.Fatalf("failed to replace table: %v", err)
	}
	count, err = a.RowCount(ctx, "staging.nums")
	if err != nil {
		t.Fatalf("failed to count rows after replace: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row after replace, got %d", count)
	}
}

func TestDuckDBAdapter_CreateOrReplaceView(t *testing.T) {
	ctx := context.Background()
	a := newDuckDB(t)

	if err := a.CreateOrReplaceView(ctx, "main.v", "SELECT 42 AS answer"); err != nil {
		t.Fatalf("failed to create view: %v", err)
	}

	exists, err := a.RelationExists(ctx, "main", "v")
	if err != nil {
		t.Fatalf("failed to check relation: %v", err)
	}
	if !exists {
		t.Error("view should exist")
	}

	if err := a.DropViewIfExists(ctx, "main.v"); err != nil {
		t.Fatalf("failed to drop view: %v", err)
	}
	exists, err = a.RelationExists(ctx, "main", "v")
	if err != nil {
		t.Fatalf("failed to check relation after drop: %v", err)
	}
	if exists {
		t.Error("view should be gone after drop")
	}
}

func TestDuckDBAdapter_RelationExists(t *testing.T) {
	ctx := context.Background()
	a := newDuckDB(t)

	exists, err := a.RelationExists(ctx, "main", "nope")
	if err != nil {
		t.Fatalf("failed to check relation: %v", err)
	}
	if exists {
		t.Error("relation should not exist")
	}
}

func TestDuckDBAdapter_ApplyIncrementalMerge(t *testing.T) {
	ctx := context.Background()
	a := newDuckDB(t)

	err := a.CreateOrReplaceTable(ctx, "main.events",
		"SELECT 1 AS id, 'old' AS status UNION ALL SELECT 2, 'old'")
	if err != nil {
		t.Fatalf("failed to seed table: %v", err)
	}

	// Row 2 is updated, row 3 is new. Row 1 must survive untouched.
	err = a.ApplyIncremental(ctx, "main.events", "id",
		"SELECT 2 AS id, 'new' AS status UNION ALL SELECT 3, 'new'")
	if err != nil {
		t.Fatalf("failed to apply incremental: %v", err)
	}

	count, err := a.RowCount(ctx, "main.events")
	if err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 rows after merge, got %d", count)
	}

	rows, err := a.Query(ctx, "SELECT status FROM main.events WHERE id = 2")
	if err != nil {
		t.Fatalf("failed to query merged row: %v", err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatal("expected a row for id 2")
	}
	var status string
	if err := rows.Scan(&status); err != nil {
		t.Fatalf("failed to scan: %v", err)
	}
	if status != "new" {
		t.Errorf("expected merged status %q, got %q", "new", status)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows error: %v", err)
	}
}

func TestDuckDBAdapter_ApplyIncrementalAppend(t *testing.T) {
	ctx := context.Background()
	a := newDuckDB(t)

	if err := a.CreateOrReplaceTable(ctx, "main.log", "SELECT 1 AS id"); err != nil {
		t.Fatalf("failed to seed table: %v", err)
	}
	if err := a.ApplyIncremental(ctx, "main.log", "", "SELECT 1 AS id"); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	count, err := a.RowCount(ctx, "main.log")
	if err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if count != 2 {
		t.Errorf("append without unique key should duplicate, got %d rows", count)
	}
}

func TestDuckDBAdapter_LoadCSV(t *testing.T) {
	ctx := context.Background()
	a := newDuckDB(t)

	csvPath := filepath.Join(t.TempDir(), "codes.csv")
	content := "code,name\nUS,United States\nDE,Germany\n"
	if err := os.WriteFile(csvPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write CSV: %v", err)
	}

	if err := a.LoadCSV(ctx, "main.codes", csvPath); err != nil {
		t.Fatalf("failed to load CSV: %v", err)
	}

	count, err := a.RowCount(ctx, "main.codes")
	if err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 rows, got %d", count)
	}
}

func TestDuckDBAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	a := NewDuckDBAdapter()

	if err := a.Exec(ctx, "SELECT 1"); err == nil {
		t.Error("Exec without Connect should fail")
	}
	if _, err := a.Query(ctx, "SELECT 1"); err == nil {
		t.Error("Query without Connect should fail")
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close without Connect should not fail: %v", err)
	}
}
