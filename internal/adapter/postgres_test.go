package adapter

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected string
	}{
		{
			name: "basic connection",
			config: Config{
				Host:     "localhost",
				Port:     5432,
				Database: "testdb",
				Username: "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=testdb sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode",
			config: Config{
				Host:     "prod.example.com",
				Port:     5432,
				Database: "proddb",
				Username: "admin",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=prod.example.com port=5432 dbname=proddb sslmode=require user=admin",
		},
		{
			name: "defaults",
			config: Config{
				Database: "mydb",
			},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestPostgresAdapter_DialectName(t *testing.T) {
	assert.Equal(t, "postgres", NewPostgresAdapter().DialectName())
}

func TestPostgresAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	a := NewPostgresAdapter()

	assert.Error(t, a.Exec(ctx, "SELECT 1"))

	_, err := a.Query(ctx, "SELECT 1")
	assert.Error(t, err)

	assert.Error(t, a.LoadCSV(ctx, "main.t", "/tmp/none.csv"))
	assert.NoError(t, a.Close())
}

func newMockPostgres(t *testing.T) (*PostgresAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := NewPostgresAdapter()
	a.db = db
	return a, mock
}

func TestPostgresAdapter_CreateOrReplaceTable(t *testing.T) {
	a, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectExec("DROP TABLE IF EXISTS marts.fct_orders CASCADE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE marts.fct_orders AS SELECT * FROM staging.stg_orders").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := a.CreateOrReplaceTable(ctx, "marts.fct_orders", "SELECT * FROM staging.stg_orders")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdapter_CreateOrReplaceView(t *testing.T) {
	a, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectExec("DROP VIEW IF EXISTS staging.v CASCADE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE VIEW staging.v AS SELECT 1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, a.CreateOrReplaceView(ctx, "staging.v", "SELECT 1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdapter_ApplyIncrementalMergeStatements(t *testing.T) {
	a, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMPORARY TABLE modelflow_tmp_events AS SELECT * FROM new_events").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM marts.events WHERE id IN (SELECT id FROM modelflow_tmp_events)").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO marts.events SELECT * FROM modelflow_tmp_events").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DROP TABLE modelflow_tmp_events").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := a.ApplyIncremental(ctx, "marts.events", "id", "SELECT * FROM new_events")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdapter_ApplyIncrementalAppend(t *testing.T) {
	a, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO marts.events SELECT * FROM new_events").
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := a.ApplyIncremental(ctx, "marts.events", "", "SELECT * FROM new_events")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdapter_RelationExists(t *testing.T) {
	a, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2").
		WithArgs("staging", "stg_orders").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := a.RelationExists(ctx, "staging", "stg_orders")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"name", "name"},
		{"my column", "my_column"},
		{"user", `"user"`},
		{"order", `"order"`},
		{"my-field", "my_field"},
		{"customer_id", "customer_id"},
		{"UPPERCASE", "UPPERCASE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeIdentifier(tt.input))
		})
	}
}

func TestIsReservedWord(t *testing.T) {
	assert.True(t, isReservedWord("user"))
	assert.True(t, isReservedWord("USER"))
	assert.True(t, isReservedWord("Order"))
	assert.False(t, isReservedWord("customer"))
	assert.False(t, isReservedWord("users"))
}
