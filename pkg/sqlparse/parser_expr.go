package sqlparse

// Expression parsing using a Pratt parser.
//
// Precedence levels:
//
//	precNone       = 0
//	precOr         = 1
//	precAnd        = 2
//	precNot        = 3
//	precComparison = 4  (=, !=, <, >, <=, >=, IS, IN, BETWEEN, LIKE, ILIKE)
//	precAddition   = 5  (+, -, ||)
//	precMultiply   = 6  (*, /, %)
//	precUnary      = 7  (-, +, NOT)
//	precPostfix    = 8  (::)

const (
	precNone = iota
	precOr
	precAnd
	precNot
	precComparison
	precAddition
	precMultiply
	precUnary
	precPostfix
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() Expr {
	return p.parseExpressionWithPrecedence(precNone + 1)
}

func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) Expr {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for {
		prec := p.infixPrecedence(p.token.Type)
		if prec < minPrecedence {
			break
		}

		left = p.parseInfixExpr(left, prec)
		if left == nil {
			break
		}
	}

	return left
}

// parsePrefixExpr parses unary operators and primary expressions.
func (p *Parser) parsePrefixExpr() Expr {
	switch p.token.Type {
	case TOKEN_NOT:
		if p.checkPeek(TOKEN_EXISTS) {
			p.nextToken() // consume NOT
			return p.parseExistsExpr(true)
		}
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precNot)
		return &UnaryExpr{Op: TOKEN_NOT, Expr: expr}

	case TOKEN_MINUS:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precUnary)
		return &UnaryExpr{Op: TOKEN_MINUS, Expr: expr}

	case TOKEN_PLUS:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precUnary)
		return &UnaryExpr{Op: TOKEN_PLUS, Expr: expr}

	default:
		return p.parsePrimary()
	}
}

// infixPrecedence returns the precedence of t as an infix operator, or
// precNone if it is not one.
func (p *Parser) infixPrecedence(t TokenType) int {
	switch t {
	case TOKEN_OR:
		return precOr
	case TOKEN_AND:
		return precAnd
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE:
		return precComparison
	case TOKEN_IS, TOKEN_IN, TOKEN_BETWEEN, TOKEN_LIKE, TOKEN_ILIKE:
		return precComparison
	case TOKEN_NOT:
		// Infix NOT introduces NOT IN, NOT BETWEEN, NOT LIKE
		return precComparison
	case TOKEN_PLUS, TOKEN_MINUS, TOKEN_DPIPE:
		return precAddition
	case TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT:
		return precMultiply
	case TOKEN_DCOLON:
		return precPostfix
	default:
		return precNone
	}
}

// parseInfixExpr parses an infix expression given the left operand.
func (p *Parser) parseInfixExpr(left Expr, prec int) Expr {
	switch p.token.Type {
	case TOKEN_NOT:
		return p.parseNotInfixExpr(left)

	case TOKEN_IS:
		return p.parseIsExpr(left)

	case TOKEN_IN:
		p.nextToken()
		return p.parseInExpr(left, false)

	case TOKEN_BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, false)

	case TOKEN_LIKE, TOKEN_ILIKE:
		op := p.token.Type
		p.nextToken()
		return p.parseLikeExpr(left, false, op)

	case TOKEN_DCOLON:
		p.nextToken()
		return p.parseCastSuffix(left)
	}

	// Standard binary operator; right operand binds tighter for left
	// associativity.
	op := p.token
	p.nextToken()
	right := p.parseExpressionWithPrecedence(prec + 1)

	return &BinaryExpr{Left: left, Op: op.Type, Right: right}
}

// parseNotInfixExpr handles NOT as an infix modifier (NOT IN, NOT BETWEEN, NOT LIKE).
func (p *Parser) parseNotInfixExpr(left Expr) Expr {
	p.nextToken() // consume NOT

	switch p.token.Type {
	case TOKEN_IN:
		p.nextToken()
		return p.parseInExpr(left, true)

	case TOKEN_BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, true)

	case TOKEN_LIKE, TOKEN_ILIKE:
		op := p.token.Type
		p.nextToken()
		return p.parseLikeExpr(left, true, op)

	default:
		p.addError("expected IN, BETWEEN, LIKE, or ILIKE after NOT")
		return left
	}
}

// parseIsExpr parses IS [NOT] NULL / IS [NOT] TRUE / IS [NOT] FALSE.
func (p *Parser) parseIsExpr(left Expr) Expr {
	p.nextToken() // consume IS

	isNot := p.match(TOKEN_NOT)

	switch p.token.Type {
	case TOKEN_NULL:
		p.nextToken()
		return &IsNullExpr{Expr: left, Not: isNot}

	case TOKEN_TRUE:
		p.nextToken()
		return &IsBoolExpr{Expr: left, Not: isNot, Value: true}

	case TOKEN_FALSE:
		p.nextToken()
		return &IsBoolExpr{Expr: left, Not: isNot, Value: false}

	default:
		p.addError("expected NULL, TRUE, or FALSE after IS")
		return left
	}
}

// parseInExpr parses an IN expression, list or subquery form.
func (p *Parser) parseInExpr(left Expr, not bool) Expr {
	p.expect(TOKEN_LPAREN)
	in := &InExpr{Expr: left, Not: not}

	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
		in.Query = p.parseStatement()
	} else {
		in.Values = p.parseExpressionList()
	}

	p.expect(TOKEN_RPAREN)
	return in
}

// parseBetweenExpr parses a BETWEEN expression. Bounds parse at addition
// precedence so the separating AND is not captured.
func (p *Parser) parseBetweenExpr(left Expr, not bool) Expr {
	between := &BetweenExpr{Expr: left, Not: not}
	between.Low = p.parseExpressionWithPrecedence(precAddition)
	p.expect(TOKEN_AND)
	between.High = p.parseExpressionWithPrecedence(precAddition)
	return between
}

// parseLikeExpr parses a LIKE/ILIKE expression.
func (p *Parser) parseLikeExpr(left Expr, not bool, op TokenType) Expr {
	like := &LikeExpr{Expr: left, Not: not, Op: op}
	like.Pattern = p.parseExpressionWithPrecedence(precAddition)
	return like
}

// parseCastSuffix parses the type name after ::.
func (p *Parser) parseCastSuffix(left Expr) Expr {
	typeName := p.parseTypeName()
	return &CastExpr{Expr: left, Type: typeName}
}
