package sqlparse

import (
	"fmt"
	"strings"
)

// Primary expression parsing: literals, column refs, function calls, CASE,
// CAST, EXISTS, parenthesized expressions and scalar subqueries.
//
// Grammar:
//
//	primary    → literal | column_ref | func_call | paren_expr
//	           | case_expr | cast_expr | exists_expr
//	literal    → NUMBER | STRING | TRUE | FALSE | NULL
//	column_ref → [table "."] column | [schema "." table "."] column
//	func_call  → identifier "(" [DISTINCT] [expr_list | "*"] ")"
//	             [FILTER "(" WHERE expr ")"] [OVER window_spec]

// parsePrimary parses a primary expression.
func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case TOKEN_NUMBER:
		lit := &Literal{Type: LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_STRING:
		lit := &Literal{Type: LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_TRUE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: "true"}

	case TOKEN_FALSE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: "false"}

	case TOKEN_NULL:
		p.nextToken()
		return &Literal{Type: LiteralNull, Value: "null"}

	case TOKEN_CASE:
		return p.parseCaseExpr()

	case TOKEN_CAST:
		return p.parseCastExpr()

	case TOKEN_EXISTS:
		return p.parseExistsExpr(false)

	case TOKEN_IDENT:
		return p.parseIdentifierExpr()

	case TOKEN_LPAREN:
		return p.parseParenExpr()

	case TOKEN_STAR:
		p.nextToken()
		return &StarExpr{}

	default:
		p.addError(fmt.Sprintf("unexpected token in expression: %s", p.token.Type))
		p.nextToken()
		return nil
	}
}

// parseIdentifierExpr parses an identifier which could be a column ref or
// function call.
func (p *Parser) parseIdentifierExpr() Expr {
	name := p.token.Literal
	p.nextToken()

	if p.check(TOKEN_LPAREN) {
		return p.parseFuncCall(name)
	}

	if p.check(TOKEN_DOT) {
		return p.parseQualifiedColumnRef(name)
	}

	return &ColumnRef{Column: name}
}

// parseQualifiedColumnRef parses table.column, schema.table.column, or
// table.* in expression position.
func (p *Parser) parseQualifiedColumnRef(firstPart string) Expr {
	parts := []string{firstPart}

	for p.match(TOKEN_DOT) {
		if p.check(TOKEN_STAR) {
			p.nextToken()
			return &StarExpr{Table: firstPart}
		}

		if p.check(TOKEN_IDENT) {
			parts = append(parts, p.token.Literal)
			p.nextToken()
		}
	}

	ref := &ColumnRef{}
	switch len(parts) {
	case 2:
		ref.Table = parts[0]
		ref.Column = parts[1]
	case 3:
		// schema.table.column: the schema is not needed for column refs
		ref.Table = parts[1]
		ref.Column = parts[2]
	default:
		ref.Column = parts[len(parts)-1]
	}

	return ref
}

// parseFuncCall parses a function call.
func (p *Parser) parseFuncCall(name string) Expr {
	fn := &FuncCall{Name: strings.ToUpper(name)}

	p.expect(TOKEN_LPAREN)

	if p.check(TOKEN_STAR) {
		fn.Star = true
		p.nextToken()
	} else if !p.check(TOKEN_RPAREN) {
		if p.match(TOKEN_DISTINCT) {
			fn.Distinct = true
		}

		for {
			arg := p.parseExpression()
			fn.Args = append(fn.Args, arg)

			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	}

	p.expect(TOKEN_RPAREN)

	// FILTER clause (for aggregates)
	if p.match(TOKEN_FILTER) {
		p.expect(TOKEN_LPAREN)
		p.expect(TOKEN_WHERE)
		fn.Filter = p.parseExpression()
		p.expect(TOKEN_RPAREN)
	}

	// OVER clause (window function)
	if p.match(TOKEN_OVER) {
		fn.Over = p.parseWindowSpec()
	}

	return fn
}

// parseWindowSpec parses OVER ( [PARTITION BY ...] [ORDER BY ...] [frame] ).
// Frame specifications are consumed but not retained.
func (p *Parser) parseWindowSpec() *WindowSpec {
	spec := &WindowSpec{}
	p.expect(TOKEN_LPAREN)

	if p.check(TOKEN_PARTITION) {
		p.nextToken()
		p.expect(TOKEN_BY)
		spec.PartitionBy = p.parseExpressionList()
	}

	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		spec.OrderBy = p.parseOrderByList()
	}

	// Skip any frame clause (ROWS BETWEEN ... etc.) up to the closing paren.
	depth := 0
	for !p.check(TOKEN_EOF) {
		if p.check(TOKEN_LPAREN) {
			depth++
		} else if p.check(TOKEN_RPAREN) {
			if depth == 0 {
				break
			}
			depth--
		}
		p.nextToken()
	}

	p.expect(TOKEN_RPAREN)
	return spec
}

// parseCaseExpr parses a CASE expression, simple or searched.
func (p *Parser) parseCaseExpr() Expr {
	p.expect(TOKEN_CASE)
	caseExpr := &CaseExpr{}

	// Simple CASE has an operand before the first WHEN
	if !p.check(TOKEN_WHEN) {
		caseExpr.Operand = p.parseExpression()
	}

	for p.match(TOKEN_WHEN) {
		when := &WhenClause{}
		when.Condition = p.parseExpression()
		p.expect(TOKEN_THEN)
		when.Result = p.parseExpression()
		caseExpr.Whens = append(caseExpr.Whens, when)
	}

	if p.match(TOKEN_ELSE) {
		caseExpr.Else = p.parseExpression()
	}

	p.expect(TOKEN_END)
	return caseExpr
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() Expr {
	p.expect(TOKEN_CAST)
	p.expect(TOKEN_LPAREN)

	cast := &CastExpr{}
	cast.Expr = p.parseExpression()

	p.expect(TOKEN_AS)
	cast.Type = p.parseTypeName()

	p.expect(TOKEN_RPAREN)
	return cast
}

// parseTypeName parses a SQL type name, e.g. INTEGER, VARCHAR(10),
// DECIMAL(10, 2), DOUBLE PRECISION.
func (p *Parser) parseTypeName() string {
	if !p.check(TOKEN_IDENT) {
		p.addError("expected type name")
		return ""
	}

	name := p.token.Literal
	p.nextToken()

	// Two-word types like DOUBLE PRECISION and CHARACTER VARYING. Anything
	// else after the type name is an alias, not part of the type.
	if p.check(TOKEN_IDENT) {
		switch strings.ToLower(p.token.Literal) {
		case "precision", "varying":
			name += " " + p.token.Literal
			p.nextToken()
		}
	}

	// Optional precision/scale arguments
	if p.match(TOKEN_LPAREN) {
		var args []string
		for p.check(TOKEN_NUMBER) {
			args = append(args, p.token.Literal)
			p.nextToken()
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		p.expect(TOKEN_RPAREN)
		name += "(" + strings.Join(args, ", ") + ")"
	}

	return name
}

// parseExistsExpr parses [NOT] EXISTS (subquery).
func (p *Parser) parseExistsExpr(not bool) Expr {
	p.expect(TOKEN_EXISTS)
	p.expect(TOKEN_LPAREN)

	exists := &ExistsExpr{Not: not}
	exists.Query = p.parseStatement()

	p.expect(TOKEN_RPAREN)
	return exists
}

// parseParenExpr parses a parenthesized expression or scalar subquery.
func (p *Parser) parseParenExpr() Expr {
	p.expect(TOKEN_LPAREN)

	// Scalar subquery
	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
		sub := &SubqueryExpr{Query: p.parseStatement()}
		p.expect(TOKEN_RPAREN)
		return sub
	}

	expr := p.parseExpression()
	p.expect(TOKEN_RPAREN)
	return &ParenExpr{Expr: expr}
}
