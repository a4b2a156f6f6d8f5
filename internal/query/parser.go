package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser is a recursive-descent parser over a token slice.
type Parser struct {
	src    string
	tokens []Token
	pos    int
	depth  int
}

// NewParser lexes src and returns a parser positioned at its first token.
func NewParser(src string) (*Parser, error) {
	if len(src) > MaxQueryLength {
		return nil, &ParseError{
			Message: fmt.Sprintf("%d bytes (max %d)", len(src), MaxQueryLength),
			Line:    1,
			Column:  1,
			Err:     ErrQueryTooLong,
		}
	}
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return &Parser{src: src, tokens: tokens}, nil
}

// Parse parses exactly one statement. A trailing ';' is allowed.
func Parse(text string) (*Query, error) {
	p, err := NewParser(text)
	if err != nil {
		return nil, err
	}
	if p.current().Type == TokenEOF {
		return nil, p.errorf("empty query")
	}
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenSemicolon {
		p.advance()
	}
	if p.current().Type != TokenEOF {
		return nil, p.errorf("unexpected %s after end of query", p.describe(p.current()))
	}
	return q, nil
}

// ParseBatch parses statements separated by top-level ';'. Separators
// inside string literals never split a statement; empty statements are skipped.
func ParseBatch(text string) ([]*Query, error) {
	p, err := NewParser(text)
	if err != nil {
		return nil, err
	}
	var queries []*Query
	for {
		for p.current().Type == TokenSemicolon {
			p.advance()
		}
		if p.current().Type == TokenEOF {
			break
		}
		q, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)

		switch p.current().Type {
		case TokenSemicolon, TokenEOF:
		default:
			return nil, p.errorf("expected ';' or end of input, got %s", p.describe(p.current()))
		}
	}
	if len(queries) == 0 {
		return nil, p.errorf("empty query batch")
	}
	return queries, nil
}

// ParseEmbedded preprocesses host-literal text and parses one statement.
func ParseEmbedded(text string) (*Query, error) {
	return Parse(Preprocess(text))
}

// ParseEmbeddedBatch preprocesses host-literal text and parses a batch.
func ParseEmbeddedBatch(text string) ([]*Query, error) {
	return ParseBatch(Preprocess(text))
}

func (p *Parser) current() Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(ahead int) Token {
	i := p.pos + ahead
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) is(kw Keyword) bool {
	tok := p.current()
	return tok.Type == TokenIdent && tok.Keyword == kw
}

// accept consumes the keyword if present.
func (p *Parser) accept(kw Keyword) bool {
	if p.is(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectKeyword(kw Keyword) error {
	if !p.accept(kw) {
		return p.errorf("expected %s, got %s", keywordSpellings[kw][0], p.describe(p.current()))
	}
	return nil
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return tok, p.errorf("expected %s, got %s", tt, p.describe(tok))
	}
	p.advance()
	return tok, nil
}

// expectIdent consumes a non-reserved identifier.
func (p *Parser) expectIdent(what string) (string, error) {
	tok := p.current()
	if tok.Type != TokenIdent || tok.Keyword.Reserved() {
		return "", p.errorf("expected %s, got %s", what, p.describe(tok))
	}
	p.advance()
	return tok.Text, nil
}

// expectName consumes any identifier, reserved or not. Used after '.'.
func (p *Parser) expectName(what string) (string, error) {
	tok := p.current()
	if tok.Type != TokenIdent {
		return "", p.errorf("expected %s, got %s", what, p.describe(tok))
	}
	p.advance()
	return tok.Text, nil
}

func (p *Parser) describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		if tok.Keyword.Reserved() {
			return fmt.Sprintf("keyword %s", tok.Text)
		}
		return fmt.Sprintf("identifier %s", tok.Text)
	case TokenString:
		return "string literal"
	case TokenParam:
		return "parameter &" + tok.Text
	default:
		return tok.Type.String()
	}
}

func (p *Parser) errorf(format string, args ...any) *ParseError {
	tok := p.current()
	return &ParseError{
		Message:   fmt.Sprintf(format, args...),
		Offset:    tok.Offset,
		Line:      tok.Line,
		Column:    tok.Column,
		Remainder: p.src[tok.Offset:],
	}
}

// enter tracks nesting; every call must be paired with leave.
func (p *Parser) enter() error {
	p.depth++
	if p.depth > MaxExpressionDepth {
		err := p.errorf("nesting exceeds %d levels", MaxExpressionDepth)
		err.Err = ErrExpressionTooDeep
		return err
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// parseQuery parses a statement with its unions and the trailing
// ORDER BY / ИТОГИ clauses that apply to the whole union.
func (p *Parser) parseQuery() (*Query, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	q, err := p.parseQueryCore()
	if err != nil {
		return nil, err
	}

	for p.accept(kwUnion) {
		all := p.accept(kwAll)
		part, err := p.parseQueryCore()
		if err != nil {
			return nil, err
		}
		q.Unions = append(q.Unions, Union{All: all, Query: part})
	}

	if p.is(kwOrder) {
		p.advance()
		if err := p.expectKeyword(kwBy); err != nil {
			return nil, err
		}
		items, err := p.parseOrderItems()
		if err != nil {
			return nil, err
		}
		q.OrderBy = &OrderByClause{Items: items}
	}
	if p.accept(kwAutoOrder) {
		if q.OrderBy == nil {
			q.OrderBy = &OrderByClause{}
		}
		q.OrderBy.AutoOrder = true
	}
	if p.is(kwTotals) {
		totals, err := p.parseTotals()
		if err != nil {
			return nil, err
		}
		q.Totals = totals
	}
	return q, nil
}

// parseQueryCore parses ВЫБРАТЬ through ИМЕЮЩИЕ.
func (p *Parser) parseQueryCore() (*Query, error) {
	if err := p.expectKeyword(kwSelect); err != nil {
		return nil, err
	}
	q := &Query{}
	if err := p.parseSelectModifiers(&q.Select); err != nil {
		return nil, err
	}

	fields, err := p.parseSelectFields(true)
	if err != nil {
		return nil, err
	}
	q.Select.Fields = fields

	if p.is(kwInto) {
		if err := p.parseInto(&q.Select); err != nil {
			return nil, err
		}
	}

	if p.accept(kwFrom) {
		sources, err := p.parseSources()
		if err != nil {
			return nil, err
		}
		q.From.Sources = sources
	}

	// The temp-table target may also follow the source list.
	if p.is(kwInto) {
		if q.Select.IntoTempTable != "" {
			return nil, p.errorf("duplicate ПОМЕСТИТЬ clause")
		}
		if err := p.parseInto(&q.Select); err != nil {
			return nil, err
		}
	}

	if p.accept(kwWhere) {
		where, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		q.Where = where
	}

	if p.is(kwGroup) {
		p.advance()
		if err := p.expectKeyword(kwBy); err != nil {
			return nil, err
		}
		groupBy, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		q.GroupBy = groupBy
	}

	if p.accept(kwHaving) {
		having, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		q.Having = having
	}

	return q, nil
}

func (p *Parser) parseSelectModifiers(sel *SelectClause) error {
	for {
		switch {
		case p.accept(kwAllowed):
			sel.Allowed = true
		case p.accept(kwDistinct):
			sel.Distinct = true
		case p.accept(kwTop):
			tok, err := p.expect(TokenNumber)
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(tok.Text)
			if err != nil {
				return p.errorf("invalid row limit %s", tok.Text)
			}
			sel.Top = &n
		default:
			return nil
		}
	}
}

// parseSelectFields parses a comma-separated select list. Wildcards are
// only accepted when allowWildcard is set.
func (p *Parser) parseSelectFields(allowWildcard bool) ([]SelectField, error) {
	var fields []SelectField
	for {
		field, err := p.parseSelectField(allowWildcard)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		if p.current().Type != TokenComma {
			return fields, nil
		}
		p.advance()
	}
}

func (p *Parser) parseSelectField(allowWildcard bool) (SelectField, error) {
	if allowWildcard {
		if p.current().Type == TokenStar {
			p.advance()
			return SelectField{Expr: Wildcard{}}, nil
		}
		if p.current().Type == TokenIdent && p.peekAt(1).Type == TokenDot && p.peekAt(2).Type == TokenStar {
			table := p.advance().Text
			p.advance()
			p.advance()
			return SelectField{Expr: Wildcard{Table: table}}, nil
		}
	}

	expr, err := p.parseExpression()
	if err != nil {
		return SelectField{}, err
	}
	field := SelectField{Expr: expr}
	if p.accept(kwAs) {
		alias, err := p.expectIdent("alias")
		if err != nil {
			return SelectField{}, err
		}
		field.Alias = alias
	}
	return field, nil
}

// parseInto parses ПОМЕСТИТЬ name [ИНДЕКСИРОВАТЬ ПО expr, ...].
func (p *Parser) parseInto(sel *SelectClause) error {
	p.advance()
	name, err := p.expectIdent("temporary table name")
	if err != nil {
		return err
	}
	sel.IntoTempTable = name

	if p.is(kwIndex) && p.peekAt(1).Type == TokenIdent && p.peekAt(1).Keyword == kwBy {
		p.advance()
		p.advance()
		indexBy, err := p.parseExpressionList()
		if err != nil {
			return err
		}
		sel.IndexBy = indexBy
	}
	return nil
}

func (p *Parser) parseSources() ([]TableSource, error) {
	var sources []TableSource
	for {
		source, err := p.parseTableSource()
		if err != nil {
			return nil, err
		}
		for p.isJoinStart() {
			join, err := p.parseJoin()
			if err != nil {
				return nil, err
			}
			source.Joins = append(source.Joins, join)
		}
		sources = append(sources, source)
		if p.current().Type != TokenComma {
			return sources, nil
		}
		p.advance()
	}
}

// parseTableSource parses a reference and its optional КАК alias.
func (p *Parser) parseTableSource() (TableSource, error) {
	ref, err := p.parseTableReference()
	if err != nil {
		return TableSource{}, err
	}
	source := TableSource{Table: ref}
	if p.accept(kwAs) {
		alias, err := p.expectIdent("table alias")
		if err != nil {
			return TableSource{}, err
		}
		source.Alias = alias
	}
	return source, nil
}

func (p *Parser) isJoinStart() bool {
	return p.is(kwLeft) || p.is(kwRight) || p.is(kwFull) || p.is(kwInner) || p.is(kwJoin)
}

func (p *Parser) parseJoin() (Join, error) {
	var join Join
	switch {
	case p.accept(kwLeft):
		join.Type = LeftJoin
	case p.accept(kwRight):
		join.Type = RightJoin
	case p.accept(kwFull):
		join.Type = FullJoin
	case p.accept(kwInner):
		join.Type = InnerJoin
	default:
		join.Type = InnerJoin
	}
	p.accept(kwOuter)
	if err := p.expectKeyword(kwJoin); err != nil {
		return Join{}, err
	}

	source, err := p.parseTableSource()
	if err != nil {
		return Join{}, err
	}
	join.Source = source

	if p.accept(kwBy) || p.accept(kwOn) {
		on, err := p.parseExpression()
		if err != nil {
			return Join{}, err
		}
		join.On = on
	}
	return join, nil
}

// parseTableReference tries, in order: subquery, virtual table, catalog,
// document, register, bare name.
func (p *Parser) parseTableReference() (TableReference, error) {
	if p.current().Type == TokenLParen {
		p.advance()
		if !p.is(kwSelect) {
			return nil, p.errorf("expected nested query, got %s", p.describe(p.current()))
		}
		q, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return SubqueryTable{Query: q}, nil
	}

	first, err := p.expectIdent("table name")
	if err != nil {
		return nil, err
	}
	path := []string{first}
	for p.current().Type == TokenDot {
		p.advance()
		seg, err := p.expectName("table name segment")
		if err != nil {
			return nil, err
		}
		path = append(path, seg)
	}

	if kind, ok := registerKind(path[0]); ok {
		switch len(path) {
		case 2:
			if p.current().Type == TokenLParen {
				return nil, p.errorf("register %s.%s takes no parameters", path[0], path[1])
			}
			return Register{Kind: kind, Name: path[1]}, nil
		case 3:
			vt := VirtualTable{Base: Register{Kind: kind, Name: path[1]}, Name: path[2]}
			if p.current().Type == TokenLParen {
				params, err := p.parseVirtualTableParams()
				if err != nil {
					return nil, err
				}
				vt.Params = params
			}
			return vt, nil
		}
		return nil, p.errorf("malformed register reference %s", strings.Join(path, "."))
	}

	if p.current().Type == TokenLParen {
		return nil, p.errorf("only register virtual tables take parameters")
	}

	switch {
	case matchesAny(path[0], catalogPrefixes):
		switch len(path) {
		case 2:
			return Catalog{Name: path[1]}, nil
		case 3:
			return Catalog{Name: path[1], Section: path[2]}, nil
		}
		return nil, p.errorf("malformed catalog reference %s", strings.Join(path, "."))
	case matchesAny(path[0], documentPrefixes):
		switch len(path) {
		case 2:
			return Document{Name: path[1]}, nil
		case 3:
			return Document{Name: path[1], Section: path[2]}, nil
		}
		return nil, p.errorf("malformed document reference %s", strings.Join(path, "."))
	}

	if len(path) > 1 {
		return nil, p.errorf("unknown object kind %s", path[0])
	}
	return Table{Name: first}, nil
}

// parseVirtualTableParams parses (param, ...). A parameter is Name = expr,
// a positional expression, or empty.
func (p *Parser) parseVirtualTableParams() ([]VirtualTableParam, error) {
	p.advance()
	if p.current().Type == TokenRParen {
		p.advance()
		return nil, nil
	}
	var params []VirtualTableParam
	for {
		var param VirtualTableParam
		switch {
		case p.current().Type == TokenComma || p.current().Type == TokenRParen:
		case p.current().Type == TokenIdent && !p.current().Keyword.Reserved() && p.peekAt(1).Type == TokenEq:
			param.Name = p.advance().Text
			p.advance()
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			param.Value = value
		default:
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			param.Value = value
		}
		params = append(params, param)

		if p.current().Type == TokenRParen {
			p.advance()
			return params, nil
		}
		if _, err := p.expect(TokenComma); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseOrderItems() ([]OrderItem, error) {
	var items []OrderItem
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		item := OrderItem{Expr: expr}
		if p.accept(kwDesc) {
			item.Direction = Descending
		} else {
			p.accept(kwAsc)
		}
		items = append(items, item)
		if p.current().Type != TokenComma {
			return items, nil
		}
		p.advance()
	}
}

// parseTotals parses ИТОГИ [aggregates] ПО [ОБЩИЕ][, field, ...].
func (p *Parser) parseTotals() (*TotalsClause, error) {
	p.advance()
	totals := &TotalsClause{}
	if !p.is(kwBy) {
		aggregates, err := p.parseSelectFields(false)
		if err != nil {
			return nil, err
		}
		totals.Aggregates = aggregates
	}
	if err := p.expectKeyword(kwBy); err != nil {
		return nil, err
	}

	if p.accept(kwOverall) {
		totals.Overall = true
		if p.current().Type != TokenComma {
			return totals, nil
		}
		p.advance()
	}

	for {
		name, err := p.parseDottedName()
		if err != nil {
			return nil, err
		}
		totals.By = append(totals.By, name)
		if p.current().Type != TokenComma {
			return totals, nil
		}
		p.advance()
	}
}

func (p *Parser) parseDottedName() (string, error) {
	first, err := p.expectIdent("field name")
	if err != nil {
		return "", err
	}
	segs := []string{first}
	for p.current().Type == TokenDot {
		p.advance()
		seg, err := p.expectName("field name")
		if err != nil {
			return "", err
		}
		segs = append(segs, seg)
	}
	return strings.Join(segs, "."), nil
}

func (p *Parser) parseExpressionList() ([]Expression, error) {
	var exprs []Expression
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if p.current().Type != TokenComma {
			return exprs, nil
		}
		p.advance()
	}
}
