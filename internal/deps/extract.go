// Package deps extracts table dependencies from parsed SQL and
// categorizes them against the project's nodes and declared sources.
package deps

import (
	"strings"

	"github.com/leapstack-labs/modelflow/pkg/sqlparse"
)

// Extract returns every table referenced by the statement, in first
// appearance order, excluding CTE names and references to selfName.
// CTE filtering is case-insensitive and applies to bare names only: a
// schema-qualified reference such as "analytics.orders" always names a
// real relation, even when a CTE called "orders" is in scope.
func Extract(stmt *sqlparse.SelectStmt, selfName string) []string {
	return ExtractAll([]*sqlparse.SelectStmt{stmt}, selfName)
}

// ExtractAll unions the references of several statements, still in first
// appearance order. CTE names are scoped to the statement that declares
// them.
func ExtractAll(stmts []*sqlparse.SelectStmt, selfName string) []string {
	c := &collector{
		seen: make(map[string]bool),
		self: normalizeName(selfName),
	}
	for _, stmt := range stmts {
		c.ctes = make(map[string]bool)
		c.collectStatement(stmt)
	}
	return c.refs
}

type collector struct {
	refs []string
	seen map[string]bool
	ctes map[string]bool // lowercased CTE names, cumulative over nested WITH
	self string
}

func (c *collector) collectStatement(stmt *sqlparse.SelectStmt) {
	if stmt == nil {
		return
	}

	if stmt.With != nil {
		// Register names first so recursive CTEs can reference themselves.
		for _, cte := range stmt.With.CTEs {
			c.ctes[strings.ToLower(cte.Name)] = true
		}
		for _, cte := range stmt.With.CTEs {
			c.collectStatement(cte.Select)
		}
	}

	c.collectBody(stmt.Body)
}

func (c *collector) collectBody(body *sqlparse.SelectBody) {
	if body == nil {
		return
	}
	c.collectCore(body.Left)
	c.collectBody(body.Right)
}

func (c *collector) collectCore(core *sqlparse.SelectCore) {
	if core == nil {
		return
	}

	for _, item := range core.Columns {
		c.collectExpr(item.Expr)
	}

	if core.From != nil {
		c.collectTableRef(core.From.Source)
		for _, join := range core.From.Joins {
			c.collectTableRef(join.Right)
			c.collectExpr(join.Condition)
		}
	}

	c.collectExpr(core.Where)
	for _, e := range core.GroupBy {
		c.collectExpr(e)
	}
	c.collectExpr(core.Having)
	c.collectExpr(core.Qualify)
	for _, item := range core.OrderBy {
		c.collectExpr(item.Expr)
	}
	c.collectExpr(core.Limit)
	c.collectExpr(core.Offset)
}

func (c *collector) collectTableRef(ref sqlparse.TableRef) {
	switch r := ref.(type) {
	case *sqlparse.TableName:
		c.addRef(r.Qualified())
	case *sqlparse.DerivedTable:
		c.collectStatement(r.Select)
	case *sqlparse.LateralTable:
		c.collectStatement(r.Select)
	}
}

func (c *collector) collectExpr(expr sqlparse.Expr) {
	switch e := expr.(type) {
	case nil:
		return
	case *sqlparse.BinaryExpr:
		c.collectExpr(e.Left)
		c.collectExpr(e.Right)
	case *sqlparse.UnaryExpr:
		c.collectExpr(e.Expr)
	case *sqlparse.ParenExpr:
		c.collectExpr(e.Expr)
	case *sqlparse.FuncCall:
		for _, arg := range e.Args {
			c.collectExpr(arg)
		}
		c.collectExpr(e.Filter)
		if e.Over != nil {
			for _, pe := range e.Over.PartitionBy {
				c.collectExpr(pe)
			}
			for _, item := range e.Over.OrderBy {
				c.collectExpr(item.Expr)
			}
		}
	case *sqlparse.CaseExpr:
		c.collectExpr(e.Operand)
		for _, when := range e.Whens {
			c.collectExpr(when.Condition)
			c.collectExpr(when.Result)
		}
		c.collectExpr(e.Else)
	case *sqlparse.CastExpr:
		c.collectExpr(e.Expr)
	case *sqlparse.InExpr:
		c.collectExpr(e.Expr)
		for _, v := range e.Values {
			c.collectExpr(v)
		}
		c.collectStatement(e.Query)
	case *sqlparse.BetweenExpr:
		c.collectExpr(e.Expr)
		c.collectExpr(e.Low)
		c.collectExpr(e.High)
	case *sqlparse.LikeExpr:
		c.collectExpr(e.Expr)
		c.collectExpr(e.Pattern)
	case *sqlparse.IsNullExpr:
		c.collectExpr(e.Expr)
	case *sqlparse.IsBoolExpr:
		c.collectExpr(e.Expr)
	case *sqlparse.ExistsExpr:
		c.collectStatement(e.Query)
	case *sqlparse.SubqueryExpr:
		c.collectStatement(e.Query)
	}
}

func (c *collector) addRef(name string) {
	lower := strings.ToLower(name)

	// CTE names shadow bare table names only.
	if !strings.Contains(lower, ".") && c.ctes[lower] {
		return
	}

	// Incremental nodes may reference themselves.
	if c.self != "" && normalizeName(name) == c.self {
		return
	}

	if c.seen[lower] {
		return
	}
	c.seen[lower] = true
	c.refs = append(c.refs, name)
}

// normalizeName lowercases a table reference and strips any schema or
// catalog qualification.
func normalizeName(name string) string {
	lower := strings.ToLower(name)
	if idx := strings.LastIndex(lower, "."); idx >= 0 {
		return lower[idx+1:]
	}
	return lower
}
