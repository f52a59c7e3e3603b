package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register("duckdb", func() Adapter { return NewDuckDBAdapter() })
}

// DuckDBAdapter implements the Adapter interface for DuckDB.
type DuckDBAdapter struct {
	sqlBase
	config Config
}

// NewDuckDBAdapter creates a new DuckDB adapter instance.
func NewDuckDBAdapter() *DuckDBAdapter {
	return &DuckDBAdapter{sqlBase: sqlBase{dialect: "duckdb"}}
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *DuckDBAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.db = db
	a.config = cfg
	return nil
}

// CreateOrReplaceTable rebuilds the relation from the select in one
// statement.
func (a *DuckDBAdapter) CreateOrReplaceTable(ctx context.Context, relation, selectSQL string) error {
	return a.Exec(ctx, fmt.Sprintf("CREATE OR REPLACE TABLE %s AS %s", relation, selectSQL))
}

// LoadCSV loads data from a CSV file into a table using read_csv_auto,
// which infers the column types from the file.
func (a *DuckDBAdapter) LoadCSV(ctx context.Context, relation, filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto('%s', header=true)",
		relation,
		strings.ReplaceAll(absPath, "'", "''"),
	)
	return a.Exec(ctx, query)
}

// DialectName returns "duckdb".
func (a *DuckDBAdapter) DialectName() string { return "duckdb" }

var _ Adapter = (*DuckDBAdapter)(nil)
