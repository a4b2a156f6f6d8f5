package query

import (
	"strconv"
	"strings"

	"github.com/roach88/bslq/internal/ir"
)

// Operator precedence, lowest to highest:
//
//	ИЛИ
//	И
//	НЕ
//	comparison: = <> < <= > >=, ПОДОБНО, МЕЖДУ .. И, В (..), ЕСТЬ [НЕ] NULL
//	additive: + -
//	multiplicative: * /
//	unary minus
//	postfix '.'
//	primary

// parseExpression parses a full expression.
func (p *Parser) parseExpression() (Expression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	return p.parseOr()
}

func (p *Parser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(kwOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Left: left, Op: OpOr, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.accept(kwAnd) {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Left: left, Op: OpAnd, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expression, error) {
	if !p.is(kwNot) {
		return p.parseComparison()
	}
	p.advance()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return UnaryOp{Op: OpNot, Operand: operand}, nil
}

var comparisonOps = map[TokenType]BinaryOperator{
	TokenEq: OpEq,
	TokenNe: OpNe,
	TokenLt: OpLt,
	TokenLe: OpLe,
	TokenGt: OpGt,
	TokenGe: OpGe,
}

func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if op, ok := comparisonOps[p.current().Type]; ok {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return BinaryOp{Left: left, Op: op, Right: right}, nil
	}

	if p.is(kwIs) {
		p.advance()
		negated := p.accept(kwNot)
		if err := p.expectKeyword(kwNull); err != nil {
			return nil, err
		}
		var expr Expression = BinaryOp{Left: left, Op: OpIs, Right: Literal{Kind: LiteralNull}}
		if negated {
			expr = UnaryOp{Op: OpNot, Operand: expr}
		}
		return expr, nil
	}

	// X НЕ ПОДОБНО / НЕ МЕЖДУ / НЕ В
	negated := false
	if p.is(kwNot) {
		next := p.peekAt(1)
		if next.Type == TokenIdent && (next.Keyword == kwLike || next.Keyword == kwBetween || next.Keyword == kwIn) {
			p.advance()
			negated = true
		}
	}

	var expr Expression
	switch {
	case p.accept(kwLike):
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		expr = BinaryOp{Left: left, Op: OpLike, Right: right}
	case p.accept(kwBetween):
		low, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword(kwAnd); err != nil {
			return nil, err
		}
		high, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		expr = Between{Expr: left, Low: low, High: high}
	case p.accept(kwIn):
		list, err := p.parseInList()
		if err != nil {
			return nil, err
		}
		expr = In{Expr: left, List: list}
	default:
		return left, nil
	}

	if negated {
		expr = UnaryOp{Op: OpNot, Operand: expr}
	}
	return expr, nil
}

// parseInList parses (expr, ...) or (nested query).
func (p *Parser) parseInList() ([]Expression, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	if p.is(kwSelect) {
		q, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return []Expression{Subquery{Query: q}}, nil
	}
	list, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseAdditive() (Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOperator
		switch p.current().Type {
		case TokenPlus:
			op = OpAdd
		case TokenMinus:
			op = OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseMultiplicative() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOperator
		switch p.current().Type {
		case TokenStar:
			op = OpMul
		case TokenSlash:
			op = OpDiv
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseUnary() (Expression, error) {
	if p.current().Type != TokenMinus {
		return p.parsePostfix()
	}
	p.advance()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return UnaryOp{Op: OpNeg, Operand: operand}, nil
}

// parsePostfix folds trailing .Name segments into a QualifiedField.
func (p *Parser) parsePostfix() (Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenDot {
		p.advance()
		name, err := p.expectName("field name")
		if err != nil {
			return nil, err
		}
		switch e := expr.(type) {
		case Field:
			expr = QualifiedField{Table: e.Name, Field: name}
		case QualifiedField:
			e.Path = append(e.Path, name)
			expr = e
		default:
			return nil, p.errorf("field access .%s requires a name on the left", name)
		}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (Expression, error) {
	tok := p.current()
	switch tok.Type {
	case TokenLParen:
		p.advance()
		if p.is(kwSelect) {
			q, err := p.parseQuery()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRParen); err != nil {
				return nil, err
			}
			return Subquery{Query: q}, nil
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil
	case TokenParam:
		p.advance()
		return Parameter{Name: tok.Text}, nil
	case TokenString:
		p.advance()
		return Literal{Kind: LiteralString, Value: tok.Text}, nil
	case TokenNumber:
		p.advance()
		return Literal{Kind: LiteralNumber, Value: tok.Text}, nil
	case TokenIdent:
		return p.parseIdentPrimary()
	}
	return nil, p.errorf("expected expression, got %s", p.describe(tok))
}

func (p *Parser) parseIdentPrimary() (Expression, error) {
	tok := p.current()
	switch tok.Keyword {
	case kwCase:
		return p.parseCase()
	case kwCast:
		return p.parseCast()
	case kwTrue:
		p.advance()
		return Literal{Kind: LiteralBoolean, Value: "ИСТИНА"}, nil
	case kwFalse:
		p.advance()
		return Literal{Kind: LiteralBoolean, Value: "ЛОЖЬ"}, nil
	case kwNull:
		p.advance()
		return Literal{Kind: LiteralNull}, nil
	case kwUndefined:
		p.advance()
		return Literal{Kind: LiteralUndefined}, nil
	}

	if tok.Keyword.Reserved() {
		return nil, p.errorf("expected expression, got %s", p.describe(tok))
	}

	if p.peekAt(1).Type == TokenLParen {
		switch tok.Keyword {
		case kwValue:
			return p.parseValueLiteral()
		case kwDateTime:
			if lit, ok := p.tryDateLiteral(); ok {
				return lit, nil
			}
		}
		return p.parseFunctionCall()
	}

	p.advance()
	return Field{Name: tok.Text}, nil
}

func (p *Parser) parseFunctionCall() (Expression, error) {
	name := p.advance().Text
	p.advance()
	call := FunctionCall{Name: name}
	if p.accept(kwDistinct) {
		call.Distinct = true
	}
	if p.current().Type == TokenRParen {
		p.advance()
		return call, nil
	}
	if p.current().Type == TokenStar && p.peekAt(1).Type == TokenRParen {
		p.advance()
		p.advance()
		call.Args = []Expression{Wildcard{}}
		return call, nil
	}
	args, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	call.Args = args
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return call, nil
}

// tryDateLiteral parses ДАТАВРЕМЯ(n, ...) with numeric arguments only.
// Anything else is left for parseFunctionCall.
func (p *Parser) tryDateLiteral() (Expression, bool) {
	save := p.pos
	p.advance()
	p.advance()
	var parts []string
	for {
		tok := p.current()
		if tok.Type != TokenNumber || strings.Contains(tok.Text, ".") {
			p.pos = save
			return nil, false
		}
		parts = append(parts, tok.Text)
		p.advance()
		switch p.current().Type {
		case TokenComma:
			p.advance()
		case TokenRParen:
			p.advance()
			if len(parts) != 1 && len(parts) != 3 && len(parts) != 6 {
				p.pos = save
				return nil, false
			}
			return Literal{Kind: LiteralDate, Value: strings.Join(parts, ",")}, true
		default:
			p.pos = save
			return nil, false
		}
	}
}

// emptyRefNames are the last path segments that denote an empty reference.
var emptyRefNames = []string{"ПустаяСсылка", "EmptyRef"}

// parseValueLiteral parses ЗНАЧЕНИЕ(Kind.Name.Item).
func (p *Parser) parseValueLiteral() (Expression, error) {
	p.advance()
	p.advance()
	var segs []string
	for {
		seg, err := p.expectName("predefined value path")
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
		if p.current().Type != TokenDot {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	if len(segs) < 2 {
		return nil, p.errorf("predefined value needs a qualified path")
	}

	kind := LiteralPredefined
	if matchesAny(segs[len(segs)-1], emptyRefNames) {
		kind = LiteralEmptyReference
	}
	return Literal{Kind: kind, Value: strings.Join(segs, ".")}, nil
}

func (p *Parser) parseCase() (Expression, error) {
	p.advance()
	var c Case
	for p.accept(kwWhen) {
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword(kwThen); err != nil {
			return nil, err
		}
		result, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Whens = append(c.Whens, When{Condition: cond, Result: result})
	}
	if len(c.Whens) == 0 {
		return nil, p.errorf("ВЫБОР requires at least one КОГДА branch")
	}
	if p.accept(kwElse) {
		elseExpr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Else = elseExpr
	}
	if err := p.expectKeyword(kwEnd); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Parser) parseCast() (Expression, error) {
	p.advance()
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword(kwAs); err != nil {
		return nil, err
	}
	dt, err := p.parseDataType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return Cast{Expr: expr, Type: dt}, nil
}

func (p *Parser) parseDataType() (DataType, error) {
	name, err := p.expectIdent("type name")
	if err != nil {
		return DataType{}, err
	}

	if p.current().Type == TokenDot {
		segs := []string{name}
		for p.current().Type == TokenDot {
			p.advance()
			seg, err := p.expectName("type name")
			if err != nil {
				return DataType{}, err
			}
			segs = append(segs, seg)
		}
		return DataType{Kind: TypeReference, Reference: strings.Join(segs, ".")}, nil
	}

	switch ir.Fold(name) {
	case ir.Fold("Число"), "number":
		dt := DataType{Kind: TypeNumber}
		qual, err := p.parseTypeQualifiers(2)
		if err != nil {
			return DataType{}, err
		}
		if len(qual) > 0 {
			dt.Precision = qual[0]
		}
		if len(qual) > 1 {
			dt.Scale = qual[1]
		}
		return dt, nil
	case ir.Fold("Строка"), "string":
		dt := DataType{Kind: TypeString}
		qual, err := p.parseTypeQualifiers(1)
		if err != nil {
			return DataType{}, err
		}
		if len(qual) > 0 {
			dt.Length = qual[0]
		}
		return dt, nil
	case ir.Fold("Дата"), "date":
		return DataType{Kind: TypeDate}, nil
	case ir.Fold("Булево"), "boolean":
		return DataType{Kind: TypeBoolean}, nil
	}
	return DataType{}, p.errorf("unknown type %s", name)
}

// parseTypeQualifiers parses an optional (n[, m]) with at most max numbers.
func (p *Parser) parseTypeQualifiers(max int) ([]int, error) {
	if p.current().Type != TokenLParen {
		return nil, nil
	}
	p.advance()
	var nums []int
	for {
		tok, err := p.expect(TokenNumber)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(tok.Text)
		if err != nil {
			return nil, p.errorf("invalid type qualifier %s", tok.Text)
		}
		nums = append(nums, n)
		if len(nums) > max {
			return nil, p.errorf("too many type qualifiers")
		}
		if p.current().Type == TokenRParen {
			p.advance()
			return nums, nil
		}
		if _, err := p.expect(TokenComma); err != nil {
			return nil, err
		}
	}
}
