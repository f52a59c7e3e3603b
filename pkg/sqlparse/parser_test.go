package sqlparse_test

import (
	"testing"

	"github.com/leapstack-labs/modelflow/pkg/sqlparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleSelect(t *testing.T) {
	stmt, err := sqlparse.Parse("SELECT id, name FROM customers")
	require.NoError(t, err)
	require.NotNil(t, stmt.Body)

	core := stmt.Body.Left
	require.NotNil(t, core)
	assert.Len(t, core.Columns, 2)
	require.NotNil(t, core.From)

	table, ok := core.From.Source.(*sqlparse.TableName)
	require.True(t, ok)
	assert.Equal(t, "customers", table.Name)
	assert.Empty(t, table.Schema)
}

func TestParse_QualifiedTableName(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		catalog string
		schema  string
		table   string
		alias   string
	}{
		{
			name:   "schema qualified",
			sql:    "SELECT * FROM raw.orders",
			schema: "raw",
			table:  "orders",
		},
		{
			name:    "catalog qualified",
			sql:     "SELECT * FROM prod.raw.orders",
			catalog: "prod",
			schema:  "raw",
			table:   "orders",
		},
		{
			name:   "alias with AS",
			sql:    "SELECT * FROM raw.orders AS o",
			schema: "raw",
			table:  "orders",
			alias:  "o",
		},
		{
			name:  "alias without AS",
			sql:   "SELECT * FROM orders o",
			table: "orders",
			alias: "o",
		},
		{
			name:  "quoted identifier",
			sql:   `SELECT * FROM "Order Items"`,
			table: "Order Items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := sqlparse.Parse(tt.sql)
			require.NoError(t, err)

			table, ok := stmt.Body.Left.From.Source.(*sqlparse.TableName)
			require.True(t, ok)
			assert.Equal(t, tt.catalog, table.Catalog)
			assert.Equal(t, tt.schema, table.Schema)
			assert.Equal(t, tt.table, table.Name)
			assert.Equal(t, tt.alias, table.Alias)
		})
	}
}

func TestParse_Joins(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		wantType sqlparse.JoinType
	}{
		{"plain join", "SELECT * FROM a JOIN b ON a.id = b.id", sqlparse.JoinInner},
		{"inner join", "SELECT * FROM a INNER JOIN b ON a.id = b.id", sqlparse.JoinInner},
		{"left join", "SELECT * FROM a LEFT JOIN b ON a.id = b.id", sqlparse.JoinLeft},
		{"left outer join", "SELECT * FROM a LEFT OUTER JOIN b ON a.id = b.id", sqlparse.JoinLeft},
		{"right join", "SELECT * FROM a RIGHT JOIN b ON a.id = b.id", sqlparse.JoinRight},
		{"full outer join", "SELECT * FROM a FULL OUTER JOIN b ON a.id = b.id", sqlparse.JoinFull},
		{"cross join", "SELECT * FROM a CROSS JOIN b", sqlparse.JoinCross},
		{"comma join", "SELECT * FROM a, b", sqlparse.JoinComma},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := sqlparse.Parse(tt.sql)
			require.NoError(t, err)
			require.Len(t, stmt.Body.Left.From.Joins, 1)
			assert.Equal(t, tt.wantType, stmt.Body.Left.From.Joins[0].Type)
		})
	}
}

func TestParse_JoinUsing(t *testing.T) {
	stmt, err := sqlparse.Parse("SELECT * FROM a JOIN b USING (id, region)")
	require.NoError(t, err)
	require.Len(t, stmt.Body.Left.From.Joins, 1)
	assert.Equal(t, []string{"id", "region"}, stmt.Body.Left.From.Joins[0].Using)
}

func TestParse_NaturalJoinRejectsOn(t *testing.T) {
	_, err := sqlparse.Parse("SELECT * FROM a NATURAL JOIN b ON a.id = b.id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NATURAL JOIN cannot have ON")
}

func TestParse_WithClause(t *testing.T) {
	sql := `WITH active AS (
		SELECT * FROM customers WHERE active = true
	), recent AS (
		SELECT * FROM orders WHERE created_at > '2024-01-01'
	)
	SELECT * FROM active JOIN recent ON active.id = recent.customer_id`

	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)
	require.NotNil(t, stmt.With)
	require.Len(t, stmt.With.CTEs, 2)
	assert.Equal(t, "active", stmt.With.CTEs[0].Name)
	assert.Equal(t, "recent", stmt.With.CTEs[1].Name)
	assert.False(t, stmt.With.Recursive)
}

func TestParse_RecursiveCTE(t *testing.T) {
	sql := `WITH RECURSIVE nums AS (
		SELECT 1 AS n
		UNION ALL
		SELECT n + 1 FROM nums WHERE n < 10
	)
	SELECT * FROM nums`

	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)
	require.NotNil(t, stmt.With)
	assert.True(t, stmt.With.Recursive)
}

func TestParse_SetOperations(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		op   sqlparse.SetOpType
	}{
		{"union", "SELECT a FROM t1 UNION SELECT a FROM t2", sqlparse.SetOpUnion},
		{"union all", "SELECT a FROM t1 UNION ALL SELECT a FROM t2", sqlparse.SetOpUnionAll},
		{"intersect", "SELECT a FROM t1 INTERSECT SELECT a FROM t2", sqlparse.SetOpIntersect},
		{"except", "SELECT a FROM t1 EXCEPT SELECT a FROM t2", sqlparse.SetOpExcept},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := sqlparse.Parse(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.op, stmt.Body.Op)
			require.NotNil(t, stmt.Body.Right)
		})
	}
}

func TestParse_DerivedTable(t *testing.T) {
	stmt, err := sqlparse.Parse("SELECT * FROM (SELECT id FROM orders) sub")
	require.NoError(t, err)

	derived, ok := stmt.Body.Left.From.Source.(*sqlparse.DerivedTable)
	require.True(t, ok)
	assert.Equal(t, "sub", derived.Alias)
	require.NotNil(t, derived.Select)
}

func TestParse_SubqueryInWhere(t *testing.T) {
	sql := "SELECT * FROM orders WHERE customer_id IN (SELECT id FROM customers WHERE active = true)"
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)

	in, ok := stmt.Body.Left.Where.(*sqlparse.InExpr)
	require.True(t, ok)
	require.NotNil(t, in.Query)
	assert.False(t, in.Not)
}

func TestParse_ExistsSubquery(t *testing.T) {
	sql := "SELECT * FROM customers c WHERE EXISTS (SELECT 1 FROM orders o WHERE o.customer_id = c.id)"
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)

	exists, ok := stmt.Body.Left.Where.(*sqlparse.ExistsExpr)
	require.True(t, ok)
	require.NotNil(t, exists.Query)
}

func TestParse_ScalarSubquery(t *testing.T) {
	sql := "SELECT (SELECT max(total) FROM orders) AS max_total FROM customers"
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)

	_, ok := stmt.Body.Left.Columns[0].Expr.(*sqlparse.SubqueryExpr)
	assert.True(t, ok)
}

func TestParse_CaseExpression(t *testing.T) {
	sql := `SELECT CASE WHEN status = 'open' THEN 1 ELSE 0 END AS is_open FROM tickets`
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)

	caseExpr, ok := stmt.Body.Left.Columns[0].Expr.(*sqlparse.CaseExpr)
	require.True(t, ok)
	assert.Nil(t, caseExpr.Operand)
	assert.Len(t, caseExpr.Whens, 1)
	assert.NotNil(t, caseExpr.Else)
}

func TestParse_CastForms(t *testing.T) {
	stmt, err := sqlparse.Parse("SELECT CAST(total AS DECIMAL(10, 2)), created_at::date FROM orders")
	require.NoError(t, err)

	cast1, ok := stmt.Body.Left.Columns[0].Expr.(*sqlparse.CastExpr)
	require.True(t, ok)
	assert.Equal(t, "DECIMAL(10, 2)", cast1.Type)

	cast2, ok := stmt.Body.Left.Columns[1].Expr.(*sqlparse.CastExpr)
	require.True(t, ok)
	assert.Equal(t, "date", cast2.Type)
}

func TestParse_WindowFunction(t *testing.T) {
	sql := `SELECT row_number() OVER (PARTITION BY customer_id ORDER BY created_at DESC) AS rn FROM orders`
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)

	fn, ok := stmt.Body.Left.Columns[0].Expr.(*sqlparse.FuncCall)
	require.True(t, ok)
	require.NotNil(t, fn.Over)
	assert.Len(t, fn.Over.PartitionBy, 1)
	assert.Len(t, fn.Over.OrderBy, 1)
	assert.True(t, fn.Over.OrderBy[0].Desc)
}

func TestParse_WindowFrameIsConsumed(t *testing.T) {
	sql := `SELECT sum(total) OVER (ORDER BY created_at ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW) FROM orders`
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)

	fn, ok := stmt.Body.Left.Columns[0].Expr.(*sqlparse.FuncCall)
	require.True(t, ok)
	require.NotNil(t, fn.Over)
}

func TestParse_FullClauseSet(t *testing.T) {
	sql := `SELECT region, count(*) AS cnt
		FROM orders
		WHERE total > 0
		GROUP BY region
		HAVING count(*) > 10
		ORDER BY cnt DESC NULLS LAST
		LIMIT 5 OFFSET 10`

	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)

	core := stmt.Body.Left
	assert.NotNil(t, core.Where)
	assert.Len(t, core.GroupBy, 1)
	assert.NotNil(t, core.Having)
	assert.Len(t, core.OrderBy, 1)
	assert.NotNil(t, core.Limit)
	assert.NotNil(t, core.Offset)
}

func TestParse_CommentsAreSkipped(t *testing.T) {
	sql := `-- leading comment
	SELECT id /* inline */ FROM orders -- trailing`
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)
	assert.Len(t, stmt.Body.Left.Columns, 1)
}

func TestParseStatements_MultipleStatements(t *testing.T) {
	stmts, err := sqlparse.ParseStatements(
		"SELECT * FROM first_table; SELECT * FROM second_table;")
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	second, ok := stmts[1].Body.Left.From.Source.(*sqlparse.TableName)
	require.True(t, ok)
	assert.Equal(t, "second_table", second.Name)
}

func TestParse_TrailingSemicolonAllowed(t *testing.T) {
	stmt, err := sqlparse.Parse("SELECT * FROM customers;")
	require.NoError(t, err)
	require.NotNil(t, stmt.Body)
}

func TestParse_RejectsSecondStatement(t *testing.T) {
	_, err := sqlparse.Parse("SELECT 1; SELECT 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single statement")
}

func TestParse_RejectsTrailingTokens(t *testing.T) {
	_, err := sqlparse.Parse("SELECT 1 FROM t )")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after statement")
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := sqlparse.Parse("  ;; ")
	require.Error(t, err)
}

func TestParse_ErrorIncludesPosition(t *testing.T) {
	_, err := sqlparse.Parse("SELECT FROM")
	require.Error(t, err)

	var parseErr *sqlparse.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "line 1")
}

func TestParse_NotVariants(t *testing.T) {
	sql := `SELECT * FROM t WHERE a NOT IN (1, 2) AND b NOT LIKE 'x%' AND c IS NOT NULL`
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)
	assert.NotNil(t, stmt.Body.Left.Where)
}

func TestParse_StringEscapes(t *testing.T) {
	stmt, err := sqlparse.Parse(`SELECT 'it''s' FROM t`)
	require.NoError(t, err)

	lit, ok := stmt.Body.Left.Columns[0].Expr.(*sqlparse.Literal)
	require.True(t, ok)
	assert.Equal(t, "it's", lit.Value)
}
