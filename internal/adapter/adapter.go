// Package adapter provides database adapters for executing node
// materializations against a target warehouse.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
)

// Config holds the configuration for connecting to a database.
type Config struct {
	// Type specifies the database type (e.g., "duckdb", "postgres")
	Type string `koanf:"type"`

	// Path is the file path for file-based databases (e.g., DuckDB).
	// Use ":memory:" for an in-memory database.
	Path string `koanf:"path"`

	// Host is the hostname for network-based databases
	Host string `koanf:"host"`

	// Port is the port number for network-based databases
	Port int `koanf:"port"`

	// Database is the database name
	Database string `koanf:"database"`

	// Username for authentication
	Username string `koanf:"username"`

	// Password for authentication
	Password string `koanf:"password"`

	// Schema is the default schema to use
	Schema string `koanf:"schema"`

	// Options contains additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter is the capability set the engine needs from a target database.
// Relations are schema-qualified names ("staging.stg_orders").
type Adapter interface {
	// Connect establishes a connection to the database.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// EnsureSchema creates the schema if it does not already exist.
	EnsureSchema(ctx context.Context, schema string) error

	// CreateOrReplaceView materializes selectSQL as a view.
	CreateOrReplaceView(ctx context.Context, relation, selectSQL string) error

	// CreateOrReplaceTable materializes selectSQL as a table (CTAS).
	CreateOrReplaceTable(ctx context.Context, relation, selectSQL string) error

	// ApplyIncremental merges selectSQL's rows into an existing relation.
	// With a unique key, matching rows are replaced; without one, rows are
	// appended.
	ApplyIncremental(ctx context.Context, relation, uniqueKey, selectSQL string) error

	// DropViewIfExists removes the view when present.
	DropViewIfExists(ctx context.Context, relation string) error

	// DropTableIfExists removes the table when present.
	DropTableIfExists(ctx context.Context, relation string) error

	// RelationExists reports whether a table or view with the given name
	// exists in the schema.
	RelationExists(ctx context.Context, schema, name string) (bool, error)

	// RowCount returns the number of rows in the relation.
	RowCount(ctx context.Context, relation string) (int64, error)

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// LoadCSV loads data from a CSV file into a table, creating or
	// replacing it.
	LoadCSV(ctx context.Context, relation, filePath string) error

	// DialectName returns the SQL dialect name ("duckdb", "postgres").
	DialectName() string
}

// Error wraps a failed database operation with the dialect and operation
// that caused it.
type Error struct {
	Dialect string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Dialect, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
