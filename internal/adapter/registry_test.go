package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfRegistration(t *testing.T) {
	assert.True(t, IsRegistered("duckdb"), "duckdb adapter should be auto-registered")
	assert.True(t, IsRegistered("postgres"), "postgres adapter should be auto-registered")
	assert.False(t, IsRegistered("unknown_db"))
}

func TestListAdapters(t *testing.T) {
	adapters := ListAdapters()
	assert.Contains(t, adapters, "duckdb")
	assert.Contains(t, adapters, "postgres")
	assert.IsIncreasing(t, adapters)
}

func TestNewAdapter_Success(t *testing.T) {
	a, err := NewAdapter(Config{Type: "duckdb", Path: ":memory:"})
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "duckdb", a.DialectName())
}

func TestNewAdapter_UnknownType(t *testing.T) {
	_, err := NewAdapter(Config{Type: "snowflake"})
	require.Error(t, err)

	var unknownErr *UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "snowflake", unknownErr.Type)
	assert.Contains(t, unknownErr.Available, "duckdb")
	assert.Contains(t, err.Error(), "modelflow.yaml")
}

func TestNewAdapter_EmptyType(t *testing.T) {
	_, err := NewAdapter(Config{})
	require.Error(t, err)
	assert.Equal(t, "adapter type not specified", err.Error())
}

func TestRegister(t *testing.T) {
	Register("test_adapter", func() Adapter { return nil })

	assert.True(t, IsRegistered("test_adapter"))
	factory, ok := Get("test_adapter")
	assert.True(t, ok)
	assert.NotNil(t, factory)
}

func TestSplitRelation(t *testing.T) {
	tests := []struct {
		relation   string
		wantSchema string
		wantName   string
	}{
		{"staging.stg_orders", "staging", "stg_orders"},
		{"orders", "", "orders"},
		{"db.staging.orders", "db.staging", "orders"},
	}

	for _, tt := range tests {
		schema, name := SplitRelation(tt.relation)
		assert.Equal(t, tt.wantSchema, schema, tt.relation)
		assert.Equal(t, tt.wantName, name, tt.relation)
	}
}
