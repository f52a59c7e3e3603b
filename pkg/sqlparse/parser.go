// Package sqlparse provides a recursive descent parser for the SELECT
// subset of SQL used by transformation nodes.
//
// # Grammar overview
//
//	script        → statement (";" statement)* [";"]
//	statement     → [WITH cte_list] select_body
//	cte_list      → cte ("," cte)*
//	cte           → identifier AS "(" statement ")"
//	select_body   → select_core [(UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body]
//	select_core   → SELECT [DISTINCT|ALL] select_list
//	                [FROM from_clause] [WHERE expr] [GROUP BY expr_list]
//	                [HAVING expr] [QUALIFY expr] [ORDER BY order_list]
//	                [LIMIT expr] [OFFSET expr]
//
// The parser is deliberately permissive about dialect details: its job is
// to recover structure (and in particular every table reference), not to
// validate SQL for a specific engine.
package sqlparse

import "fmt"

// Parser parses SQL into an AST.
type Parser struct {
	lexer  *Lexer
	token  Token // current token
	peek   Token // lookahead token
	peek2  Token // second lookahead token
	errors []error
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	p := &Parser{lexer: NewLexer(sql)}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single statement and returns its AST, or the first
// parse error. Anything after the statement besides semicolons is an
// error.
func Parse(sql string) (*SelectStmt, error) {
	stmts, err := ParseStatements(sql)
	if err != nil {
		return nil, err
	}
	if len(stmts) > 1 {
		return nil, fmt.Errorf("expected a single statement, got %d", len(stmts))
	}
	return stmts[0], nil
}

// ParseStatements parses a script of one or more semicolon-separated
// statements and returns their ASTs, or the first parse error.
func ParseStatements(sql string) ([]*SelectStmt, error) {
	p := NewParser(sql)
	var stmts []*SelectStmt

	for p.match(TOKEN_SEMI) {
	}
	for !p.check(TOKEN_EOF) {
		stmts = append(stmts, p.parseStatement())
		if len(p.errors) > 0 {
			return nil, p.errors[0]
		}
		if !p.check(TOKEN_EOF) && !p.check(TOKEN_SEMI) {
			p.addError(fmt.Sprintf("unexpected token %s after statement", p.token.Type))
			return nil, p.errors[0]
		}
		for p.match(TOKEN_SEMI) {
		}
	}

	if len(stmts) == 0 {
		p.addError("empty input")
		return nil, p.errors[0]
	}
	return stmts, nil
}

// ---------- Token helpers ----------

func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

func (p *Parser) checkPeek2(t TokenType) bool {
	return p.peek2.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("unexpected token %s, expected %s", p.token.Type, t))
	return false
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// isKeyword reports whether the token is reserved and cannot be an alias.
func (p *Parser) isKeyword(tok Token) bool {
	switch tok.Type {
	case TOKEN_FROM, TOKEN_UNION, TOKEN_INTERSECT, TOKEN_EXCEPT,
		TOKEN_WHERE, TOKEN_GROUP, TOKEN_HAVING, TOKEN_QUALIFY,
		TOKEN_ORDER, TOKEN_LIMIT, TOKEN_OFFSET,
		TOKEN_LEFT, TOKEN_RIGHT, TOKEN_INNER, TOKEN_OUTER, TOKEN_FULL,
		TOKEN_CROSS, TOKEN_JOIN, TOKEN_ON, TOKEN_LATERAL, TOKEN_NATURAL,
		TOKEN_USING:
		return true
	}
	return false
}

// isJoinKeyword reports whether the token starts or continues a JOIN.
func (p *Parser) isJoinKeyword(tok Token) bool {
	switch tok.Type {
	case TOKEN_JOIN, TOKEN_LEFT, TOKEN_RIGHT, TOKEN_INNER, TOKEN_OUTER,
		TOKEN_FULL, TOKEN_CROSS, TOKEN_ON, TOKEN_LATERAL, TOKEN_NATURAL,
		TOKEN_USING:
		return true
	}
	return false
}

// isClauseKeyword reports whether the token starts a new clause.
func (p *Parser) isClauseKeyword(tok Token) bool {
	switch tok.Type {
	case TOKEN_WHERE, TOKEN_GROUP, TOKEN_HAVING, TOKEN_QUALIFY,
		TOKEN_ORDER, TOKEN_LIMIT, TOKEN_OFFSET,
		TOKEN_UNION, TOKEN_INTERSECT, TOKEN_EXCEPT:
		return true
	}
	return false
}

// ---------- Statement parsing ----------

// parseStatement parses a complete SQL statement.
func (p *Parser) parseStatement() *SelectStmt {
	stmt := &SelectStmt{}

	if p.check(TOKEN_WITH) {
		stmt.With = p.parseWithClause()
	}

	stmt.Body = p.parseSelectBody()

	return stmt
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *WithClause {
	p.expect(TOKEN_WITH)
	with := &WithClause{}

	if p.match(TOKEN_RECURSIVE) {
		with.Recursive = true
	}

	for {
		cte := p.parseCTE()
		with.CTEs = append(with.CTEs, cte)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return with
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *CTE {
	cte := &CTE{}

	if !p.check(TOKEN_IDENT) {
		p.addError("expected CTE name")
		return cte
	}
	cte.Name = p.token.Literal
	p.nextToken()

	p.expect(TOKEN_AS)

	p.expect(TOKEN_LPAREN)
	cte.Select = p.parseStatement()
	p.expect(TOKEN_RPAREN)

	return cte
}

// parseSelectBody parses a SELECT body with possible set operations.
func (p *Parser) parseSelectBody() *SelectBody {
	body := &SelectBody{}
	body.Left = p.parseSelectCore()

	if p.check(TOKEN_UNION) || p.check(TOKEN_INTERSECT) || p.check(TOKEN_EXCEPT) {
		switch p.token.Type {
		case TOKEN_UNION:
			p.nextToken()
			if p.match(TOKEN_ALL) {
				body.Op = SetOpUnionAll
				body.All = true
			} else {
				body.Op = SetOpUnion
				p.match(TOKEN_DISTINCT) // optional
			}
		case TOKEN_INTERSECT:
			p.nextToken()
			body.Op = SetOpIntersect
			p.match(TOKEN_ALL)
		case TOKEN_EXCEPT:
			p.nextToken()
			body.Op = SetOpExcept
			p.match(TOKEN_ALL)
		}

		// Right side recurses for chained operations.
		body.Right = p.parseSelectBody()
	}

	return body
}

// parseSelectCore parses a single SELECT clause group.
func (p *Parser) parseSelectCore() *SelectCore {
	p.expect(TOKEN_SELECT)
	core := &SelectCore{}

	if p.match(TOKEN_DISTINCT) {
		core.Distinct = true
	} else {
		p.match(TOKEN_ALL)
	}

	core.Columns = p.parseSelectList()

	if p.match(TOKEN_FROM) {
		core.From = p.parseFromClause()
	}

	if p.match(TOKEN_WHERE) {
		core.Where = p.parseExpression()
	}

	if p.check(TOKEN_GROUP) {
		p.nextToken()
		p.expect(TOKEN_BY)
		core.GroupBy = p.parseExpressionList()
	}

	if p.match(TOKEN_HAVING) {
		core.Having = p.parseExpression()
	}

	if p.match(TOKEN_QUALIFY) {
		core.Qualify = p.parseExpression()
	}

	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		core.OrderBy = p.parseOrderByList()
	}

	if p.match(TOKEN_LIMIT) {
		core.Limit = p.parseExpression()
	}

	if p.match(TOKEN_OFFSET) {
		core.Offset = p.parseExpression()
	}

	return core
}

// parseSelectList parses the list of SELECT items.
func (p *Parser) parseSelectList() []SelectItem {
	var items []SelectItem

	for {
		item := p.parseSelectItem()
		items = append(items, item)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return items
}

// parseSelectItem parses a single SELECT item.
func (p *Parser) parseSelectItem() SelectItem {
	item := SelectItem{}

	if p.check(TOKEN_STAR) {
		item.Star = true
		p.nextToken()
		return item
	}

	// table.* using 3-token lookahead, no rollback needed
	if p.check(TOKEN_IDENT) && p.checkPeek(TOKEN_DOT) && p.checkPeek2(TOKEN_STAR) {
		tableName := p.token.Literal
		p.nextToken() // identifier
		p.nextToken() // DOT
		p.nextToken() // STAR
		item.TableStar = tableName
		return item
	}

	item.Expr = p.parseExpression()

	if p.match(TOKEN_AS) {
		if p.check(TOKEN_IDENT) {
			item.Alias = p.token.Literal
			p.nextToken()
		} else {
			p.addError("expected alias after AS")
		}
	} else if p.check(TOKEN_IDENT) && !p.isKeyword(p.token) {
		// Alias without AS
		item.Alias = p.token.Literal
		p.nextToken()
	}

	return item
}

// parseOrderByList parses a list of ORDER BY items.
func (p *Parser) parseOrderByList() []OrderByItem {
	var items []OrderByItem

	for {
		item := p.parseOrderByItem()
		items = append(items, item)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return items
}

// parseOrderByItem parses a single ORDER BY item.
func (p *Parser) parseOrderByItem() OrderByItem {
	item := OrderByItem{}
	item.Expr = p.parseExpression()

	if p.match(TOKEN_ASC) {
		item.Desc = false
	} else if p.match(TOKEN_DESC) {
		item.Desc = true
	}

	if p.match(TOKEN_NULLS) {
		if p.match(TOKEN_FIRST) {
			b := true
			item.NullsFirst = &b
		} else if p.match(TOKEN_LAST) {
			b := false
			item.NullsFirst = &b
		}
	}

	return item
}

// parseExpressionList parses a comma-separated list of expressions.
func (p *Parser) parseExpressionList() []Expr {
	var exprs []Expr

	for {
		expr := p.parseExpression()
		exprs = append(exprs, expr)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return exprs
}
