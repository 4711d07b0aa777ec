// Package parser implements PEL's recursive-descent parser: source text to
// an ast.Model. Grounded on go-calcmark's parser.Parser (precedence-climbing
// expression grammar) and its newer spec/parser.RecursiveDescentParser
// (token-navigation helpers, nesting-depth and token-count security limits,
// panic-mode statement recovery).
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pel-lang/pel/ast"
	"github.com/pel-lang/pel/lexer"
)

// shorthandAliases maps the informal unit suffixes used in the `value/1mo`
// rate shorthand (spec.md §4.2) to their canonical dimension word.
var shorthandAliases = map[string]string{
	"mo": "Month", "mos": "Month",
	"yr": "Year", "yrs": "Year",
	"wk": "Week", "wks": "Week",
	"d": "Day", "days": "Day",
	"hr": "Hour", "hrs": "Hour",
}

// Parser is a recursive-descent, precedence-climbing parser over a PEL
// token stream.
type Parser struct {
	tokens  []lexer.Token
	current int
	errors  []error

	depth    int
	maxDepth int
}

// New tokenizes source and returns a Parser ready to Parse it. A lex error
// is folded into the first returned error rather than panicking.
func New(source string) (*Parser, error) {
	toks, err := lexer.NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	if len(toks) > MaxTokenCount {
		return nil, &SecurityError{
			Message: fmt.Sprintf("token count exceeds security limit: %d tokens (max %d)", len(toks), MaxTokenCount),
			Limit:   "MaxTokenCount",
			Actual:  len(toks),
		}
	}
	return &Parser{tokens: toks, maxDepth: MaxNestingDepth}, nil
}

// Parse parses the full token stream into a Model. After a bad statement it
// recovers (panic mode) and keeps parsing, collecting errors up to
// MaxErrors, but it returns only the first collected error.
func (p *Parser) Parse() (*ast.Model, error) {
	model := &ast.Model{Name: "main"}

	p.skipNewlines()
	if p.check(lexer.MODEL) {
		m, err := p.parseModelHeader()
		if err != nil {
			return nil, err
		}
		model = m
	} else {
		for !p.isAtEnd() {
			p.skipNewlines()
			if p.isAtEnd() {
				break
			}
			before := p.current
			stmt, err := p.parseStatement()
			if err != nil {
				p.recordError(err)
				p.recoverToNextStatement()
				if p.current == before {
					p.advance() // a stray token recovery stops on (e.g. `}`) must not stall the loop
				}
				continue
			}
			if stmt != nil {
				model.Body = append(model.Body, stmt)
			}
		}
	}

	if len(p.errors) > 0 {
		return model, p.errors[0]
	}
	return model, nil
}

func (p *Parser) parseModelHeader() (*ast.Model, error) {
	start := p.peek()
	p.advance() // 'model'
	nameTok, err := p.consume(lexer.IDENTIFIER, "expected model name after 'model'")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.LBRACE, "expected '{' after model name"); err != nil {
		return nil, err
	}

	model := &ast.Model{Name: nameTok.Value}
	p.skipNewlines()
	for !p.check(lexer.RBRACE) && !p.isAtEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			p.recordError(err)
			p.recoverToNextStatement()
			continue
		}
		if stmt != nil {
			model.Body = append(model.Body, stmt)
		}
		p.skipNewlines()
	}
	if _, err := p.consume(lexer.RBRACE, "expected '}' to close model body"); err != nil {
		return nil, err
	}
	model.Range = rangeBetween(start, p.previous())
	return model, nil
}

func (p *Parser) recordError(err error) {
	if len(p.errors) < MaxErrors {
		p.errors = append(p.errors, err)
	}
}

// recoverToNextStatement implements panic-mode recovery: discard tokens
// until a NEWLINE, RBRACE, or a statement-starting keyword, so one
// malformed declaration does not prevent diagnosing the rest of the file.
func (p *Parser) recoverToNextStatement() {
	for !p.isAtEnd() {
		if p.check(lexer.NEWLINE) {
			p.advance()
			return
		}
		switch p.peek().Type {
		case lexer.PARAM, lexer.VAR, lexer.CONSTRAINT, lexer.POLICY, lexer.RBRACE:
			return
		}
		p.advance()
	}
}

func (p *Parser) skipNewlines() {
	for p.match(lexer.NEWLINE) {
	}
}

// --- Statements ---

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.peek().Type {
	case lexer.PARAM:
		return p.parseParamDecl()
	case lexer.VAR:
		return p.parseVarDecl()
	case lexer.CONSTRAINT:
		return p.parseConstraintDecl()
	case lexer.POLICY:
		return p.parsePolicyDecl()
	default:
		return nil, p.errorAt(p.peek(), fmt.Sprintf("expected a declaration, got %s", p.peek().Type))
	}
}

// parseParamDecl parses `param name: Type [= expr | ~ Dist(...)] {provenance}`.
func (p *Parser) parseParamDecl() (*ast.ParamDecl, error) {
	start := p.peek()
	p.advance() // 'param'
	nameTok, err := p.consume(lexer.IDENTIFIER, "expected parameter name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.COLON, "expected ':' after parameter name"); err != nil {
		return nil, err
	}
	unit, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}

	decl := &ast.ParamDecl{Name: nameTok.Value, Unit: unit}

	switch {
	case p.match(lexer.ASSIGN):
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		decl.Default = val
	case p.match(lexer.TILDE):
		dist, err := p.parseDistExpr()
		if err != nil {
			return nil, err
		}
		decl.Default = dist
	default:
		return nil, p.errorAt(p.peek(), "expected '=' or '~' after parameter type")
	}

	if p.check(lexer.LBRACE) {
		fields, err := p.parseProvenanceBlock()
		if err != nil {
			return nil, err
		}
		decl.Provenance = fields
	}
	decl.Range = rangeBetween(start, p.previous())
	return decl, nil
}

// parseProvenanceBlock parses `{ source: "...", method: "...", confidence: 0.9, ... }`.
func (p *Parser) parseProvenanceBlock() ([]ast.ProvenanceField, error) {
	if _, err := p.consume(lexer.LBRACE, "expected '{' to open provenance block"); err != nil {
		return nil, err
	}
	var fields []ast.ProvenanceField
	for !p.check(lexer.RBRACE) && !p.isAtEnd() {
		keyTok, err := p.consume(lexer.IDENTIFIER, "expected provenance field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.COLON, "expected ':' after provenance field name"); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.ProvenanceField{Key: keyTok.Value, Value: val})
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if _, err := p.consume(lexer.RBRACE, "expected '}' to close provenance block"); err != nil {
		return nil, err
	}
	return fields, nil
}

// parseVarDecl parses `var name[t]: Type = expr` (the `[t]` suffix marks a
// time-indexed recurrence; its absence marks a plain computed variable).
func (p *Parser) parseVarDecl() (*ast.VarDecl, error) {
	start := p.peek()
	p.advance() // 'var'
	nameTok, err := p.consume(lexer.IDENTIFIER, "expected variable name")
	if err != nil {
		return nil, err
	}
	indexed := false
	if p.match(lexer.LBRACKET) {
		if _, err := p.consume(lexer.IDENTIFIER, "expected 't' inside '[...]'"); err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.RBRACKET, "expected ']' after time index"); err != nil {
			return nil, err
		}
		indexed = true
	}
	if _, err := p.consume(lexer.COLON, "expected ':' after variable name"); err != nil {
		return nil, err
	}
	unit, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.ASSIGN, "expected '=' in variable declaration"); err != nil {
		return nil, err
	}
	val, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.VarDecl{
		Name: nameTok.Value, Unit: unit, Indexed: indexed, Value: val,
		Range: rangeBetween(start, p.previous()),
	}, nil
}

// parseConstraintDecl parses `constraint name: expr { severity: warning, message: "..." }`.
func (p *Parser) parseConstraintDecl() (*ast.ConstraintDecl, error) {
	start := p.peek()
	p.advance() // 'constraint'
	nameTok, err := p.consume(lexer.IDENTIFIER, "expected constraint name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.COLON, "expected ':' after constraint name"); err != nil {
		return nil, err
	}
	pred, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	decl := &ast.ConstraintDecl{Name: nameTok.Value, Predicate: pred, Severity: ast.SeverityError}

	if p.check(lexer.LBRACE) {
		p.advance()
		for !p.check(lexer.RBRACE) && !p.isAtEnd() {
			// `severity` lexes as the SEVERITY keyword, `message` as an identifier.
			keyTok := p.peek()
			if keyTok.Type != lexer.IDENTIFIER && keyTok.Type != lexer.SEVERITY {
				return nil, p.errorAt(keyTok, "expected constraint attribute name")
			}
			p.advance()
			if keyTok.Value != "severity" && keyTok.Value != "message" {
				return nil, p.errorAt(keyTok, fmt.Sprintf("unknown constraint attribute %q", keyTok.Value))
			}
			if _, err := p.consume(lexer.COLON, "expected ':' after attribute name"); err != nil {
				return nil, err
			}
			switch keyTok.Value {
			case "severity":
				sevTok := p.peek()
				if sevTok.Type != lexer.IDENTIFIER {
					return nil, p.errorAt(sevTok, "expected a severity identifier")
				}
				p.advance()
				decl.Severity = ast.ConstraintSeverity(sevTok.Value)
			case "message":
				msgTok, err := p.consume(lexer.STRING, "expected a string message")
				if err != nil {
					return nil, err
				}
				decl.Message = msgTok.Value
			}
			if !p.match(lexer.COMMA) {
				break
			}
		}
		if _, err := p.consume(lexer.RBRACE, "expected '}' to close constraint attributes"); err != nil {
			return nil, err
		}
	}
	decl.Range = rangeBetween(start, p.previous())
	return decl, nil
}

// parsePolicyDecl parses `policy name(arg, arg) -> Type { expr }`.
func (p *Parser) parsePolicyDecl() (*ast.PolicyDecl, error) {
	start := p.peek()
	p.advance() // 'policy'
	nameTok, err := p.consume(lexer.IDENTIFIER, "expected policy name")
	if err != nil {
		return nil, err
	}
	var params []string
	if p.match(lexer.LPAREN) {
		for !p.check(lexer.RPAREN) && !p.isAtEnd() {
			argTok, err := p.consume(lexer.IDENTIFIER, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, argTok.Value)
			if !p.match(lexer.COMMA) {
				break
			}
		}
		if _, err := p.consume(lexer.RPAREN, "expected ')' after policy parameters"); err != nil {
			return nil, err
		}
	}
	var unit ast.UnitSpec
	if p.match(lexer.ARROW) {
		u, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		unit = u
	}
	if _, err := p.consume(lexer.LBRACE, "expected '{' to open policy body"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if _, err := p.consume(lexer.RBRACE, "expected '}' to close policy body"); err != nil {
		return nil, err
	}
	return &ast.PolicyDecl{
		Name: nameTok.Value, Params: params, Unit: unit, Body: body,
		Range: rangeBetween(start, p.previous()),
	}, nil
}

// parseTypeSpec parses a type annotation's unit phrase:
// `Currency<USD>`, `Count<Customer>`, `Duration in Month`,
// `Rate per Month [per Customer ...]`, or a bare kind name like `Fraction`.
// Enforces E0700: a `per X` phrase may not repeat a dimension word.
func (p *Parser) parseTypeSpec() (ast.UnitSpec, error) {
	kindTok, err := p.consume(lexer.IDENTIFIER, "expected a type name")
	if err != nil {
		return ast.UnitSpec{}, err
	}
	spec := ast.UnitSpec{Kind: kindTok.Value}

	switch {
	case p.match(lexer.LT):
		dimTok, err := p.consume(lexer.IDENTIFIER, "expected a dimension word inside '<...>'")
		if err != nil {
			return ast.UnitSpec{}, err
		}
		if _, err := p.consume(lexer.GT, "expected '>' to close dimension"); err != nil {
			return ast.UnitSpec{}, err
		}
		spec.Dim = dimTok.Value
	case p.match(lexer.IN):
		dimTok, err := p.consume(lexer.IDENTIFIER, "expected a dimension word after 'in'")
		if err != nil {
			return ast.UnitSpec{}, err
		}
		spec.Dim = dimTok.Value
	case p.check(lexer.PER):
		seen := map[string]bool{}
		for p.match(lexer.PER) {
			dimTok, err := p.consume(lexer.IDENTIFIER, "expected a dimension word after 'per'")
			if err != nil {
				return ast.UnitSpec{}, err
			}
			if seen[dimTok.Value] {
				return ast.UnitSpec{}, newParseError(
					fmt.Sprintf("duplicate 'per %s' in unit phrase [E0700]", dimTok.Value),
					dimTok.Line, dimTok.Column)
			}
			seen[dimTok.Value] = true
			spec.PerKeys = append(spec.PerKeys, dimTok.Value)
		}
	}
	return spec, nil
}

// --- Expressions: precedence ladder ---
// expression -> or -> and -> comparison -> additive -> multiplicative ->
// exponent -> unary -> primary

func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseIfExpr()
}

func (p *Parser) parseIfExpr() (ast.Expr, error) {
	if !p.check(lexer.IF) {
		return p.parseOr()
	}
	start := p.peek()
	p.advance()
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.THEN, "expected 'then' after if-condition"); err != nil {
		return nil, err
	}
	thenExpr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.ELSE, "expected 'else' in if-expression"); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseIfExpr()
	if err != nil {
		return nil, err
	}
	return &ast.IfExpr{Cond: cond, Then: thenExpr, Else: elseExpr, Range: rangeBetween(start, p.previous())}, nil
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.OR) {
		opTok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalOp{Op: opTok.Value, Left: left, Right: right, Range: rangeBetween(left.GetRange(), right.GetRange())}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.AND) {
		opTok := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalOp{Op: opTok.Value, Left: left, Right: right, Range: rangeBetween(left.GetRange(), right.GetRange())}
	}
	return left, nil
}

var comparisonOps = map[lexer.TokenType]string{
	lexer.LT: "<", lexer.GT: ">", lexer.LE: "<=", lexer.GE: ">=", lexer.EQ: "==", lexer.NEQ: "!=",
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := comparisonOps[p.peek().Type]
		if !ok {
			break
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.ComparisonOp{Op: op, Left: left, Right: right, Range: rangeBetween(left.GetRange(), right.GetRange())}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.PLUS) || p.check(lexer.MINUS) {
		opTok := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: opTok.Value, Left: left, Right: right, Range: rangeBetween(left.GetRange(), right.GetRange())}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseExponent()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.STAR) || p.check(lexer.SLASH) || p.check(lexer.PERCENT) {
		opTok := p.advance()
		right, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: opTok.Value, Left: left, Right: right, Range: rangeBetween(left.GetRange(), right.GetRange())}
	}
	return left, nil
}

func (p *Parser) parseExponent() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.check(lexer.CARET) {
		opTok := p.advance()
		right, err := p.parseExponent() // right-associative
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: opTok.Value, Left: left, Right: right, Range: rangeBetween(left.GetRange(), right.GetRange())}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.check(lexer.MINUS) || p.check(lexer.NOT) {
		opTok := p.advance()
		if err := p.enterDepth(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		p.exitDepth()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: opTok.Value, Operand: operand, Range: rangeBetween(&opTok, operand.GetRange())}, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles time-indexing: `name[t]`, `name[t-1]`.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.LBRACKET) {
		start := p.advance()
		offset := 0
		if _, err := p.consume(lexer.IDENTIFIER, "expected 't' inside index"); err != nil {
			return nil, err
		}
		if p.match(lexer.MINUS) {
			numTok, err := p.consume(lexer.NUMBER, "expected an offset after 't-'")
			if err != nil {
				return nil, err
			}
			n, convErr := strconv.Atoi(numTok.Value)
			if convErr != nil {
				return nil, newParseError(fmt.Sprintf("invalid time offset %q", numTok.Value), numTok.Line, numTok.Column)
			}
			offset = n
		}
		if _, err := p.consume(lexer.RBRACKET, "expected ']' after time index"); err != nil {
			return nil, err
		}
		expr = &ast.Index{Target: expr, Offset: offset, Range: rangeBetween(&start, p.previous())}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	if err := p.enterDepth(); err != nil {
		return nil, err
	}
	defer p.exitDepth()

	tok := p.peek()
	switch tok.Type {
	case lexer.NUMBER:
		return p.parseNumberLiteral()
	case lexer.STRING:
		p.advance()
		return &ast.StringLiteral{Value: tok.Value, Range: tokRange(tok)}, nil
	case lexer.BOOLEAN:
		p.advance()
		return &ast.BooleanLiteral{Value: tok.Value == "true", Range: tokRange(tok)}, nil
	case lexer.DIST:
		return p.parseDistExpr()
	case lexer.LBRACKET:
		return p.parseArrayExpr()
	case lexer.LPAREN:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.RPAREN, "expected ')' to close grouped expression"); err != nil {
			return nil, err
		}
		return inner, nil
	case lexer.IDENTIFIER:
		return p.parseIdentifierOrCall()
	default:
		return nil, p.errorAt(tok, fmt.Sprintf("unexpected token %s", tok.Type))
	}
}

// parseNumberLiteral parses a numeric token and any immediately-following
// unit phrase: a bare number, a `$`-quantity, a `NUMBER IDENTIFIER`
// quantity, a `Quantity per X [per Y ...]` rate, or a `value/1mo` shorthand
// rate (spec.md §4.2).
func (p *Parser) parseNumberLiteral() (ast.Expr, error) {
	tok := p.advance()

	if idx := strings.IndexByte(tok.Value, '/'); idx >= 0 {
		base, suffix := tok.Value[:idx], tok.Value[idx+1:]
		wordPart := strings.TrimLeft(suffix, "0123456789")
		word := strings.ToLower(wordPart)
		canon, ok := shorthandAliases[word]
		if !ok {
			return nil, newParseError(fmt.Sprintf("unrecognized time-unit shorthand %q", suffix), tok.Line, tok.Column)
		}
		unit := "USD"
		if strings.HasPrefix(base, "$") {
			base = base[1:]
		}
		return &ast.RateLiteral{Value: base, Unit: unit, PerKeys: []string{canon}, Range: tokRange(tok)}, nil
	}

	value := tok.Value
	unit := ""
	if strings.HasPrefix(value, "$") {
		value = value[1:]
		unit = "USD"
	}
	if strings.HasSuffix(value, "%") {
		value = value[:len(value)-1]
		num, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, newParseError(fmt.Sprintf("invalid percent literal %q", tok.Value), tok.Line, tok.Column)
		}
		return &ast.NumberLiteral{Value: fmt.Sprintf("%g", num/100), Range: tokRange(tok)}, nil
	}

	// A bare unit suffix identifier immediately follows a quantity literal,
	// e.g. `42 Customers`, `3.5 GB` (not a reserved keyword or 'per').
	if unit == "" && p.check(lexer.IDENTIFIER) {
		suffixTok := p.advance()
		unit = suffixTok.Value
	}

	if p.check(lexer.PER) {
		if unit == "" {
			unit = "Fraction"
		}
		seen := map[string]bool{}
		var perKeys []string
		for p.match(lexer.PER) {
			dimTok, err := p.consume(lexer.IDENTIFIER, "expected a dimension word after 'per'")
			if err != nil {
				return nil, err
			}
			if seen[dimTok.Value] {
				return nil, newParseError(
					fmt.Sprintf("duplicate 'per %s' in unit phrase [E0700]", dimTok.Value),
					dimTok.Line, dimTok.Column)
			}
			seen[dimTok.Value] = true
			perKeys = append(perKeys, dimTok.Value)
		}
		return &ast.RateLiteral{Value: value, Unit: unit, PerKeys: perKeys, Range: tokRange(tok)}, nil
	}

	if unit == "" {
		return &ast.NumberLiteral{Value: value, Range: tokRange(tok)}, nil
	}
	return &ast.QuantityLiteral{Value: value, Unit: unit, Range: tokRange(tok)}, nil
}

func (p *Parser) parseArrayExpr() (ast.Expr, error) {
	start := p.advance() // '['
	var elems []ast.Expr
	for !p.check(lexer.RBRACKET) && !p.isAtEnd() {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if _, err := p.consume(lexer.RBRACKET, "expected ']' to close array literal"); err != nil {
		return nil, err
	}
	return &ast.ArrayExpr{Elements: elems, Range: rangeBetween(&start, p.previous())}, nil
}

// parseDistExpr parses `Normal(mean: expr, stddev: expr)` and friends.
func (p *Parser) parseDistExpr() (ast.Expr, error) {
	kindTok, err := p.consume(lexer.DIST, "expected a distribution name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.LPAREN, "expected '(' after distribution name"); err != nil {
		return nil, err
	}
	params := map[string]ast.Expr{}
	positional := 0
	positionalNames := map[int]string{
		0: "a", 1: "b",
	}
	for !p.check(lexer.RPAREN) && !p.isAtEnd() {
		if p.check(lexer.IDENTIFIER) && p.peekAhead(1).Type == lexer.COLON {
			keyTok := p.advance()
			p.advance() // ':'
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			params[keyTok.Value] = val
		} else {
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			name, ok := positionalNames[positional]
			if !ok {
				name = fmt.Sprintf("arg%d", positional)
			}
			params[name] = val
			positional++
		}
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if _, err := p.consume(lexer.RPAREN, "expected ')' to close distribution arguments"); err != nil {
		return nil, err
	}
	return &ast.DistExpr{Kind: kindTok.Value, Params: params, Range: tokRange(kindTok)}, nil
}

// parseIdentifierOrCall disambiguates a bare identifier from a function call.
func (p *Parser) parseIdentifierOrCall() (ast.Expr, error) {
	tok := p.advance()
	if p.check(lexer.LPAREN) {
		p.advance()
		var args []ast.Expr
		for !p.check(lexer.RPAREN) && !p.isAtEnd() {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(lexer.COMMA) {
				break
			}
		}
		if _, err := p.consume(lexer.RPAREN, "expected ')' after call arguments"); err != nil {
			return nil, err
		}
		return &ast.Call{Callee: tok.Value, Args: args, Range: tokRange(tok)}, nil
	}
	return &ast.Identifier{Name: tok.Value, Range: tokRange(tok)}, nil
}

// --- Token navigation helpers ---

func (p *Parser) peek() lexer.Token {
	if p.isAtEnd() {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

func (p *Parser) peekAhead(n int) lexer.Token {
	pos := p.current + n
	if pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[pos]
}

func (p *Parser) previous() lexer.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.current >= len(p.tokens) || p.tokens[p.current].Type == lexer.EOF
}

func (p *Parser) check(t lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(t lexer.TokenType, message string) (lexer.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.errorAt(p.peek(), message)
}

func (p *Parser) error(message string) error {
	return p.errorAt(p.peek(), message)
}

func (p *Parser) errorAt(tok lexer.Token, message string) error {
	return newParseError(message, tok.Line, tok.Column)
}

func (p *Parser) enterDepth() error {
	p.depth++
	if p.depth > p.maxDepth {
		return &SecurityError{
			Message: fmt.Sprintf("expression nesting depth exceeds security limit: %d levels (max %d)", p.depth, p.maxDepth),
			Limit:   "MaxNestingDepth",
			Actual:  p.depth,
		}
	}
	return nil
}

func (p *Parser) exitDepth() {
	p.depth--
}

func tokRange(tok lexer.Token) *ast.Range {
	pos := ast.Position{Line: tok.Line, Column: tok.Column}
	return &ast.Range{Start: pos, End: pos}
}

func rangeBetween(start, end any) *ast.Range {
	var s, e ast.Position
	switch v := start.(type) {
	case *ast.Range:
		if v != nil {
			s = v.Start
		}
	case *lexer.Token:
		s = ast.Position{Line: v.Line, Column: v.Column}
	case lexer.Token:
		s = ast.Position{Line: v.Line, Column: v.Column}
	}
	switch v := end.(type) {
	case *ast.Range:
		if v != nil {
			e = v.End
		}
	case *lexer.Token:
		e = ast.Position{Line: v.Line, Column: v.Column}
	case lexer.Token:
		e = ast.Position{Line: v.Line, Column: v.Column}
	}
	return &ast.Range{Start: s, End: e}
}
