package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// sqlBase implements the capability methods shared by adapters built on
// database/sql. Dialect-specific behavior (connect, CTAS replacement, CSV
// loading) lives in the concrete adapters.
type sqlBase struct {
	db      *sql.DB
	dialect string
}

var errNotConnected = errors.New("database connection not established")

func (b *sqlBase) wrap(op string, err error) error {
	return &Error{Dialect: b.dialect, Op: op, Err: err}
}

func (b *sqlBase) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *sqlBase) Exec(ctx context.Context, sqlStr string) error {
	if b.db == nil {
		return b.wrap("exec", errNotConnected)
	}
	if _, err := b.db.ExecContext(ctx, sqlStr); err != nil {
		return b.wrap("exec", err)
	}
	return nil
}

func (b *sqlBase) Query(ctx context.Context, sqlStr string) (*Rows, error) {
	if b.db == nil {
		return nil, b.wrap("query", errNotConnected)
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, b.wrap("query", err)
	}
	return &Rows{Rows: rows}, nil
}

func (b *sqlBase) EnsureSchema(ctx context.Context, schema string) error {
	return b.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema))
}

func (b *sqlBase) CreateOrReplaceView(ctx context.Context, relation, selectSQL string) error {
	return b.Exec(ctx, fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s", relation, selectSQL))
}

func (b *sqlBase) DropViewIfExists(ctx context.Context, relation string) error {
	return b.Exec(ctx, fmt.Sprintf("DROP VIEW IF EXISTS %s", relation))
}

func (b *sqlBase) DropTableIfExists(ctx context.Context, relation string) error {
	return b.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", relation))
}

func (b *sqlBase) RelationExists(ctx context.Context, schema, name string) (bool, error) {
	if b.db == nil {
		return false, b.wrap("relation exists", errNotConnected)
	}
	query := "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2"
	if b.dialect == "duckdb" {
		query = strings.NewReplacer("$1", "?", "$2", "?").Replace(query)
	}
	var count int
	if err := b.db.QueryRowContext(ctx, query, schema, name).Scan(&count); err != nil {
		return false, b.wrap("relation exists", err)
	}
	return count > 0, nil
}

func (b *sqlBase) RowCount(ctx context.Context, relation string) (int64, error) {
	if b.db == nil {
		return 0, b.wrap("row count", errNotConnected)
	}
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", relation) //nolint:gosec // relation comes from validated node config
	if err := b.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, b.wrap("row count", err)
	}
	return count, nil
}

// ApplyIncremental merges new rows into an existing relation inside a
// transaction. With a unique key the select is staged into a temp table,
// matching target rows are deleted, and the staged rows inserted. Without
// one the rows are appended directly.
func (b *sqlBase) ApplyIncremental(ctx context.Context, relation, uniqueKey, selectSQL string) error {
	if b.db == nil {
		return b.wrap("incremental", errNotConnected)
	}

	if uniqueKey == "" {
		return b.Exec(ctx, fmt.Sprintf("INSERT INTO %s %s", relation, selectSQL))
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return b.wrap("incremental", err)
	}
	defer func() { _ = tx.Rollback() }()

	tmp := tempName(relation)
	statements := []string{
		fmt.Sprintf("CREATE TEMPORARY TABLE %s AS %s", tmp, selectSQL),
		fmt.Sprintf("DELETE FROM %s WHERE %s IN (SELECT %s FROM %s)", relation, uniqueKey, uniqueKey, tmp),
		fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", relation, tmp),
		fmt.Sprintf("DROP TABLE %s", tmp),
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return b.wrap("incremental", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return b.wrap("incremental", err)
	}
	return nil
}

// tempName derives a session-local staging table name from a relation.
func tempName(relation string) string {
	_, name := SplitRelation(relation)
	return "modelflow_tmp_" + name
}

// SplitRelation splits "schema.name" into its parts. A bare name gets an
// empty schema.
func SplitRelation(relation string) (schema, name string) {
	if i := strings.LastIndex(relation, "."); i >= 0 {
		return relation[:i], relation[i+1:]
	}
	return "", relation
}
