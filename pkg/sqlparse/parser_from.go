package sqlparse

// FROM clause parsing: table references, derived tables, lateral joins, JOINs.
//
// Grammar:
//
//	from_clause   → table_ref (join)*
//	table_ref     → table_name | derived_table | lateral_table
//	table_name    → [catalog "."] [schema "."] identifier [AS identifier]
//	derived_table → "(" statement ")" [AS] identifier
//	lateral_table → LATERAL "(" statement ")" [AS] identifier
//	join          → [NATURAL] join_type JOIN table_ref [ON expr | USING "(" cols ")"]
//	              | "," table_ref
//	join_type     → [INNER] | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER] | CROSS

// parseFromClause parses the FROM clause.
func (p *Parser) parseFromClause() *FromClause {
	from := &FromClause{}
	from.Source = p.parseTableRef()

	for {
		join := p.parseJoin()
		if join == nil {
			break
		}
		from.Joins = append(from.Joins, join)
	}

	return from
}

// parseTableRef parses a table reference.
func (p *Parser) parseTableRef() TableRef {
	if p.match(TOKEN_LATERAL) {
		return p.parseLateralTable()
	}

	if p.check(TOKEN_LPAREN) {
		return p.parseDerivedTable()
	}

	return p.parseTableName()
}

// parseTableName parses a table name with optional schema/catalog and alias.
func (p *Parser) parseTableName() *TableName {
	table := &TableName{}

	if !p.check(TOKEN_IDENT) {
		p.addError("expected table name")
		return table
	}

	// Potentially qualified name: catalog.schema.table
	parts := []string{p.token.Literal}
	p.nextToken()

	for p.match(TOKEN_DOT) {
		if p.check(TOKEN_IDENT) {
			parts = append(parts, p.token.Literal)
			p.nextToken()
		}
	}

	switch len(parts) {
	case 1:
		table.Name = parts[0]
	case 2:
		table.Schema = parts[0]
		table.Name = parts[1]
	case 3:
		table.Catalog = parts[0]
		table.Schema = parts[1]
		table.Name = parts[2]
	}

	if p.match(TOKEN_AS) {
		if p.check(TOKEN_IDENT) {
			table.Alias = p.token.Literal
			p.nextToken()
		}
	} else if p.check(TOKEN_IDENT) && !p.isJoinKeyword(p.token) && !p.isClauseKeyword(p.token) {
		table.Alias = p.token.Literal
		p.nextToken()
	}

	return table
}

// parseDerivedTable parses a subquery in FROM position.
func (p *Parser) parseDerivedTable() *DerivedTable {
	p.expect(TOKEN_LPAREN)
	derived := &DerivedTable{}
	derived.Select = p.parseStatement()
	p.expect(TOKEN_RPAREN)

	if p.match(TOKEN_AS) {
		if p.check(TOKEN_IDENT) {
			derived.Alias = p.token.Literal
			p.nextToken()
		}
	} else if p.check(TOKEN_IDENT) {
		derived.Alias = p.token.Literal
		p.nextToken()
	}

	return derived
}

// parseLateralTable parses a LATERAL subquery.
func (p *Parser) parseLateralTable() *LateralTable {
	p.expect(TOKEN_LPAREN)
	lateral := &LateralTable{}
	lateral.Select = p.parseStatement()
	p.expect(TOKEN_RPAREN)

	if p.match(TOKEN_AS) {
		if p.check(TOKEN_IDENT) {
			lateral.Alias = p.token.Literal
			p.nextToken()
		}
	} else if p.check(TOKEN_IDENT) {
		lateral.Alias = p.token.Literal
		p.nextToken()
	}

	return lateral
}

// parseJoin parses a JOIN clause. Returns nil when the current token does
// not start a join.
func (p *Parser) parseJoin() *Join {
	join := &Join{}

	// Comma join (implicit cross join)
	if p.match(TOKEN_COMMA) {
		join.Type = JoinComma
		join.Right = p.parseTableRef()
		return join
	}

	if p.match(TOKEN_NATURAL) {
		join.Natural = true
	}

	switch p.token.Type {
	case TOKEN_INNER:
		join.Type = JoinInner
		p.nextToken()
	case TOKEN_LEFT:
		join.Type = JoinLeft
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_RIGHT:
		join.Type = JoinRight
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_FULL:
		join.Type = JoinFull
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_CROSS:
		join.Type = JoinCross
		p.nextToken()
	case TOKEN_JOIN:
		// Plain JOIN = INNER JOIN
		join.Type = JoinInner
	default:
		if join.Natural {
			p.addError("expected JOIN after NATURAL")
		}
		return nil
	}

	if !p.expect(TOKEN_JOIN) {
		return nil
	}

	join.Right = p.parseTableRef()
	p.parseJoinCondition(join)
	return join
}

// parseJoinCondition handles ON/USING/NATURAL validation.
func (p *Parser) parseJoinCondition(join *Join) {
	switch {
	case join.Natural:
		// NATURAL JOIN cannot have ON or USING
		if p.check(TOKEN_ON) || p.check(TOKEN_USING) {
			p.addError("NATURAL JOIN cannot have ON or USING clause")
		}
	case p.match(TOKEN_ON):
		join.Condition = p.parseExpression()
	case p.match(TOKEN_USING):
		join.Using = p.parseUsingColumns()
	}
}

// parseUsingColumns parses the column list in USING (col1, col2, ...).
func (p *Parser) parseUsingColumns() []string {
	p.expect(TOKEN_LPAREN)
	var cols []string
	for {
		if !p.check(TOKEN_IDENT) {
			p.addError("expected column name in USING clause")
			break
		}
		cols = append(cols, p.token.Literal)
		p.nextToken()
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	p.expect(TOKEN_RPAREN)
	return cols
}
