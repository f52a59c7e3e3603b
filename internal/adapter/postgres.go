package adapter

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

func init() {
	Register("postgres", func() Adapter { return NewPostgresAdapter() })
}

// PostgresAdapter implements the Adapter interface for PostgreSQL using the
// pgx stdlib driver.
type PostgresAdapter struct {
	sqlBase
	config Config
}

// NewPostgresAdapter creates a new PostgreSQL adapter instance.
func NewPostgresAdapter() *PostgresAdapter {
	return &PostgresAdapter{sqlBase: sqlBase{dialect: "postgres"}}
}

// buildPostgresDSN builds a keyword/value DSN from the config.
func buildPostgresDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := cfg.Options["sslmode"]
	if sslmode == "" {
		sslmode = "disable"
	}

	parts := []string{
		fmt.Sprintf("host=%s", host),
		fmt.Sprintf("port=%d", port),
		fmt.Sprintf("dbname=%s", cfg.Database),
		fmt.Sprintf("sslmode=%s", sslmode),
	}
	if cfg.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", cfg.Username))
	}
	if cfg.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", cfg.Password))
	}
	return strings.Join(parts, " ")
}

// Connect establishes a connection to PostgreSQL.
func (a *PostgresAdapter) Connect(ctx context.Context, cfg Config) error {
	db, err := sql.Open("pgx", buildPostgresDSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.db = db
	a.config = cfg
	return nil
}

// CreateOrReplaceView drops and recreates the view. Postgres rejects
// CREATE OR REPLACE when the column set changes, so the drop is explicit.
func (a *PostgresAdapter) CreateOrReplaceView(ctx context.Context, relation, selectSQL string) error {
	if err := a.Exec(ctx, fmt.Sprintf("DROP VIEW IF EXISTS %s CASCADE", relation)); err != nil {
		return err
	}
	return a.Exec(ctx, fmt.Sprintf("CREATE VIEW %s AS %s", relation, selectSQL))
}

// CreateOrReplaceTable drops and recreates the table. Postgres has no
// CREATE OR REPLACE TABLE.
func (a *PostgresAdapter) CreateOrReplaceTable(ctx context.Context, relation, selectSQL string) error {
	if err := a.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", relation)); err != nil {
		return err
	}
	return a.Exec(ctx, fmt.Sprintf("CREATE TABLE %s AS %s", relation, selectSQL))
}

// DropViewIfExists removes the view and anything depending on it.
func (a *PostgresAdapter) DropViewIfExists(ctx context.Context, relation string) error {
	return a.Exec(ctx, fmt.Sprintf("DROP VIEW IF EXISTS %s CASCADE", relation))
}

// DropTableIfExists removes the table and anything depending on it.
func (a *PostgresAdapter) DropTableIfExists(ctx context.Context, relation string) error {
	return a.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", relation))
}

// LoadCSV loads a CSV file into a table of text columns named after the
// header row.
func (a *PostgresAdapter) LoadCSV(ctx context.Context, relation, filePath string) error {
	if a.db == nil {
		return a.wrap("load csv", errNotConnected)
	}

	f, err := os.Open(filePath) //nolint:gosec // G304: path comes from the project's seeds directory
	if err != nil {
		return fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("CSV file %s is empty", filePath)
	}

	header := records[0]
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = sanitizeIdentifier(name)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return a.wrap("load csv", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", relation)); err != nil {
		return a.wrap("load csv", err)
	}

	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = col + " TEXT"
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", relation, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return a.wrap("load csv", err)
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", //nolint:gosec // identifiers are sanitized above
		relation, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	for _, record := range records[1:] {
		args := make([]any, len(record))
		for i, v := range record {
			args[i] = v
		}
		if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
			return a.wrap("load csv", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return a.wrap("load csv", err)
	}
	return nil
}

// DialectName returns "postgres".
func (a *PostgresAdapter) DialectName() string { return "postgres" }

var identifierUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

var postgresReservedWords = map[string]bool{
	"user": true, "order": true, "group": true, "table": true,
	"select": true, "from": true, "where": true, "index": true,
	"primary": true, "references": true, "check": true, "default": true,
}

// sanitizeIdentifier makes a CSV header usable as a column name: unsafe
// characters become underscores and reserved words are quoted.
func sanitizeIdentifier(name string) string {
	clean := identifierUnsafe.ReplaceAllString(name, "_")
	if isReservedWord(clean) {
		return `"` + clean + `"`
	}
	return clean
}

func isReservedWord(word string) bool {
	return postgresReservedWords[strings.ToLower(word)]
}

var _ Adapter = (*PostgresAdapter)(nil)
