package sqlparse

// Node is implemented by every AST node.
type Node interface {
	node()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	expr()
}

// TableRef is implemented by every FROM-clause table reference.
type TableRef interface {
	Node
	tableRef()
}

// SelectStmt is a complete SELECT statement, optionally with a WITH clause.
type SelectStmt struct {
	With *WithClause
	Body *SelectBody
}

// WithClause holds the CTE list of a statement.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE is a single common table expression.
type CTE struct {
	Name   string
	Select *SelectStmt
}

// SetOpType identifies a set operation between SELECT cores.
type SetOpType string

// Set operation constants.
const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpUnionAll  SetOpType = "UNION ALL"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// SelectBody is a SELECT core with an optional chained set operation.
type SelectBody struct {
	Left  *SelectCore
	Op    SetOpType
	All   bool
	Right *SelectBody
}

// SelectCore is a single SELECT ... FROM ... clause group.
type SelectCore struct {
	Distinct bool
	Columns  []SelectItem
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	Qualify  Expr
	OrderBy  []OrderByItem
	Limit    Expr
	Offset   Expr
}

// SelectItem is one entry in the SELECT list.
type SelectItem struct {
	Expr      Expr
	Alias     string
	Star      bool   // SELECT *
	TableStar string // SELECT t.*
}

// OrderByItem is one entry in an ORDER BY list.
type OrderByItem struct {
	Expr       Expr
	Desc       bool
	NullsFirst *bool
}

// FromClause is the FROM part of a SELECT core.
type FromClause struct {
	Source TableRef
	Joins  []*Join
}

// JoinType identifies the kind of join.
type JoinType string

// Join type constants.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	JoinComma JoinType = "COMMA"
)

// Join is a single join against the running FROM source.
type Join struct {
	Type      JoinType
	Natural   bool
	Right     TableRef
	Condition Expr
	Using     []string
}

// TableName is a possibly qualified table reference.
type TableName struct {
	Catalog string
	Schema  string
	Name    string
	Alias   string
}

// Qualified returns the dotted form of the table name without alias.
func (t *TableName) Qualified() string {
	switch {
	case t.Catalog != "":
		return t.Catalog + "." + t.Schema + "." + t.Name
	case t.Schema != "":
		return t.Schema + "." + t.Name
	default:
		return t.Name
	}
}

// DerivedTable is a subquery in FROM position.
type DerivedTable struct {
	Select *SelectStmt
	Alias  string
}

// LateralTable is a LATERAL subquery in FROM position.
type LateralTable struct {
	Select *SelectStmt
	Alias  string
}

// ColumnRef is a possibly qualified column reference.
type ColumnRef struct {
	Table  string
	Column string
}

// LiteralType identifies a literal kind.
type LiteralType int

// Literal kinds.
const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// Literal is a constant value.
type Literal struct {
	Type  LiteralType
	Value string
}

// StarExpr is * or table.* in expression position.
type StarExpr struct {
	Table string
}

// BinaryExpr is a binary operator application.
type BinaryExpr struct {
	Left  Expr
	Op    TokenType
	Right Expr
}

// UnaryExpr is a prefix operator application.
type UnaryExpr struct {
	Op   TokenType
	Expr Expr
}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

// FuncCall is a function invocation, possibly windowed.
type FuncCall struct {
	Name     string
	Star     bool
	Distinct bool
	Args     []Expr
	Filter   Expr
	Over     *WindowSpec
}

// WindowSpec is the OVER (...) part of a window function.
type WindowSpec struct {
	PartitionBy []Expr
	OrderBy     []OrderByItem
}

// CaseExpr is a CASE expression, searched or simple.
type CaseExpr struct {
	Operand Expr // nil for searched CASE
	Whens   []*WhenClause
	Else    Expr
}

// WhenClause is one WHEN ... THEN ... arm.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CastExpr is CAST(expr AS type) or expr::type.
type CastExpr struct {
	Expr Expr
	Type string
}

// InExpr is expr [NOT] IN (values | subquery).
type InExpr struct {
	Expr   Expr
	Not    bool
	Values []Expr
	Query  *SelectStmt
}

// BetweenExpr is expr [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

// LikeExpr is expr [NOT] LIKE/ILIKE pattern.
type LikeExpr struct {
	Expr    Expr
	Not     bool
	Op      TokenType
	Pattern Expr
}

// IsNullExpr is expr IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

// IsBoolExpr is expr IS [NOT] TRUE/FALSE.
type IsBoolExpr struct {
	Expr  Expr
	Not   bool
	Value bool
}

// ExistsExpr is [NOT] EXISTS (subquery).
type ExistsExpr struct {
	Not   bool
	Query *SelectStmt
}

// SubqueryExpr is a scalar subquery in expression position.
type SubqueryExpr struct {
	Query *SelectStmt
}

func (*SelectStmt) node()   {}
func (*WithClause) node()   {}
func (*CTE) node()          {}
func (*SelectBody) node()   {}
func (*SelectCore) node()   {}
func (*FromClause) node()   {}
func (*Join) node()         {}
func (*TableName) node()    {}
func (*DerivedTable) node() {}
func (*LateralTable) node() {}
func (*ColumnRef) node()    {}
func (*Literal) node()      {}
func (*StarExpr) node()     {}
func (*BinaryExpr) node()   {}
func (*UnaryExpr) node()    {}
func (*ParenExpr) node()    {}
func (*FuncCall) node()     {}
func (*WindowSpec) node()   {}
func (*CaseExpr) node()     {}
func (*WhenClause) node()   {}
func (*CastExpr) node()     {}
func (*InExpr) node()       {}
func (*BetweenExpr) node()  {}
func (*LikeExpr) node()     {}
func (*IsNullExpr) node()   {}
func (*IsBoolExpr) node()   {}
func (*ExistsExpr) node()   {}
func (*SubqueryExpr) node() {}

func (*ColumnRef) expr()    {}
func (*Literal) expr()      {}
func (*StarExpr) expr()     {}
func (*BinaryExpr) expr()   {}
func (*UnaryExpr) expr()    {}
func (*ParenExpr) expr()    {}
func (*FuncCall) expr()     {}
func (*CaseExpr) expr()     {}
func (*CastExpr) expr()     {}
func (*InExpr) expr()       {}
func (*BetweenExpr) expr()  {}
func (*LikeExpr) expr()     {}
func (*IsNullExpr) expr()   {}
func (*IsBoolExpr) expr()   {}
func (*ExistsExpr) expr()   {}
func (*SubqueryExpr) expr() {}

func (*TableName) tableRef()    {}
func (*DerivedTable) tableRef() {}
func (*LateralTable) tableRef() {}
