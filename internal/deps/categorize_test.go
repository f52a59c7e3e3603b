package deps

import (
	"testing"

	"github.com/leapstack-labs/modelflow/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestCategorize_InternalMatch(t *testing.T) {
	cats := Categorize(
		[]string{"stg_orders", "STG_CUSTOMERS"},
		[]string{"stg_orders", "stg_customers"},
		nil,
	)

	assert.Equal(t, []string{"stg_orders", "stg_customers"}, cats.Internal)
	assert.Empty(t, cats.External)
	assert.Empty(t, cats.Unknown)
}

func TestCategorize_QualifiedRefMatchesNodeByLastSegment(t *testing.T) {
	cats := Categorize(
		[]string{"staging.stg_orders"},
		[]string{"stg_orders"},
		nil,
	)

	assert.Equal(t, []string{"stg_orders"}, cats.Internal)
}

func TestCategorize_ExternalSources(t *testing.T) {
	sources := []core.Source{
		{Name: "raw_orders", Schema: "raw"},
		{Name: "raw_customers", Schema: "raw"},
	}

	cats := Categorize(
		[]string{"raw_orders", "raw.raw_customers"},
		nil,
		sources,
	)

	assert.Equal(t, []string{"raw_orders", "raw_customers"}, cats.External)
	assert.Empty(t, cats.Unknown)
}

func TestCategorize_UnknownAlsoCountedExternal(t *testing.T) {
	cats := Categorize(
		[]string{"mystery_table"},
		[]string{"stg_orders"},
		[]core.Source{{Name: "raw_orders", Schema: "raw"}},
	)

	assert.Equal(t, []string{"mystery_table"}, cats.Unknown)
	assert.Equal(t, []string{"mystery_table"}, cats.External)
	assert.Empty(t, cats.Internal)
}

func TestCategorize_NodeWinsOverSource(t *testing.T) {
	// A name declared both as a node and a source resolves to the node.
	cats := Categorize(
		[]string{"orders"},
		[]string{"orders"},
		[]core.Source{{Name: "orders", Schema: "raw"}},
	)

	assert.Equal(t, []string{"orders"}, cats.Internal)
	assert.Empty(t, cats.External)
}
