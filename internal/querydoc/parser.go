package querydoc

import (
	"strconv"
	"strings"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/procedure"
	"github.com/roach88/pathway/internal/value"
)

// Parser parses query text. The zero value is not usable; use NewParser.
//
// Thread-safety: a Parser holds no per-parse state and may be shared.
type Parser struct {
	procs *procedure.Registry
}

// NewParser returns a parser that decides which calls are aggregates by
// consulting procs.
func NewParser(procs *procedure.Registry) *Parser {
	return &Parser{procs: procs}
}

var defaultParser = NewParser(procedure.Builtins())

// Parse parses query with the built-in procedure registry.
func Parse(query string) (*ast.Statement, *ast.SemanticState, error) {
	return defaultParser.Parse(query)
}

// Parse parses and analyzes query.
func (p *Parser) Parse(query string) (*ast.Statement, *ast.SemanticState, error) {
	stmt, err := ParseStatement(query)
	if err != nil {
		return nil, nil, err
	}
	state, err := ast.Analyze(stmt, p.procs.IsAggregating)
	if err != nil {
		return nil, nil, err
	}
	return stmt, state, nil
}

// ParseStatement parses query without semantic analysis.
func ParseStatement(query string) (*ast.Statement, error) {
	toks, err := tokenize(query)
	if err != nil {
		return nil, err
	}
	ps := &parser{toks: toks}
	return ps.statement()
}

// ParseExpr parses a standalone expression such as "n.age > 30".
func ParseExpr(text string) (ast.Expr, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	ps := &parser{toks: toks}
	e, err := ps.expr()
	if err != nil {
		return nil, err
	}
	if !ps.at(tokEOF) {
		return nil, ps.unexpected("end of expression")
	}
	return e, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) at(kind tokenKind) bool { return p.peek().kind == kind }

// accept consumes the next token when it is the symbol or keyword text.
func (p *parser) accept(text string) bool {
	if p.peek().is(text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if p.accept(text) {
		return nil
	}
	return p.unexpected(strconv.Quote(text))
}

func (p *parser) unexpected(want string) *ParseError {
	t := p.peek()
	return errorAt(t.pos, "expected %s, got %s", want, t)
}

func (p *parser) identifier(what string) (string, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return "", p.unexpected(what)
	}
	p.pos++
	return t.text, nil
}

func (p *parser) statement() (*ast.Statement, error) {
	stmt := &ast.Statement{}
	for !p.at(tokEOF) {
		t := p.peek()
		var (
			c   ast.Clause
			err error
		)
		switch {
		case t.is("MATCH"):
			p.pos++
			c, err = p.match()
		case t.is("CREATE"):
			p.pos++
			c, err = p.create()
		case t.is("RETURN"):
			p.pos++
			c, err = p.ret()
		default:
			return nil, p.unexpected("MATCH, CREATE or RETURN")
		}
		if err != nil {
			return nil, err
		}
		stmt.Clauses = append(stmt.Clauses, c)
		p.accept(";")
	}
	if len(stmt.Clauses) == 0 {
		return nil, p.unexpected("a clause")
	}
	return stmt, nil
}

func (p *parser) match() (*ast.Match, error) {
	pat, err := p.pattern()
	if err != nil {
		return nil, err
	}
	m := &ast.Match{Pattern: pat}
	if p.accept("WHERE") {
		if m.Where, err = p.expr(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (p *parser) create() (*ast.Create, error) {
	pat, err := p.pattern()
	if err != nil {
		return nil, err
	}
	return &ast.Create{Pattern: pat}, nil
}

func (p *parser) ret() (*ast.Return, error) {
	r := &ast.Return{Distinct: p.accept("DISTINCT")}
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		item := ast.ReturnItem{Expr: e}
		if p.accept("AS") {
			if item.Alias, err = p.identifier("column alias"); err != nil {
				return nil, err
			}
		}
		r.Items = append(r.Items, item)
		if !p.accept(",") {
			break
		}
	}
	if p.accept("ORDER") {
		if err := p.expect("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			s := ast.SortItem{Expr: e}
			switch {
			case p.accept("DESC"), p.accept("DESCENDING"):
				s.Descending = true
			case p.accept("ASC"), p.accept("ASCENDING"):
			}
			r.OrderBy = append(r.OrderBy, s)
			if !p.accept(",") {
				break
			}
		}
	}
	var err error
	if p.accept("SKIP") {
		if r.Skip, err = p.expr(); err != nil {
			return nil, err
		}
	}
	if p.accept("LIMIT") {
		if r.Limit, err = p.expr(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (p *parser) pattern() (ast.Pattern, error) {
	var pat ast.Pattern
	for {
		part, err := p.patternPart()
		if err != nil {
			return ast.Pattern{}, err
		}
		pat.Parts = append(pat.Parts, part)
		if !p.accept(",") {
			return pat, nil
		}
	}
}

func (p *parser) patternPart() (ast.PatternPart, error) {
	var part ast.PatternPart
	n, err := p.nodePattern()
	if err != nil {
		return part, err
	}
	part.Nodes = append(part.Nodes, n)
	for p.peek().is("-") || (p.peek().is("<") && p.peekAt(1).is("-")) {
		r, err := p.relPattern()
		if err != nil {
			return part, err
		}
		n, err := p.nodePattern()
		if err != nil {
			return part, err
		}
		part.Rels = append(part.Rels, r)
		part.Nodes = append(part.Nodes, n)
	}
	return part, nil
}

func (p *parser) nodePattern() (ast.NodePattern, error) {
	var n ast.NodePattern
	if err := p.expect("("); err != nil {
		return n, err
	}
	if p.at(tokIdent) {
		n.Variable = p.next().text
	}
	for p.accept(":") {
		label, err := p.identifier("label")
		if err != nil {
			return n, err
		}
		n.Labels = append(n.Labels, label)
	}
	if p.peek().is("{") {
		props, err := p.mapEntries()
		if err != nil {
			return n, err
		}
		n.Properties = props
	}
	return n, p.expect(")")
}

func (p *parser) relPattern() (ast.RelPattern, error) {
	var r ast.RelPattern
	incoming := p.accept("<")
	if err := p.expect("-"); err != nil {
		return r, err
	}
	if p.accept("[") {
		if p.at(tokIdent) {
			r.Variable = p.next().text
		}
		if p.accept(":") {
			for {
				typ, err := p.identifier("relationship type")
				if err != nil {
					return r, err
				}
				r.Types = append(r.Types, typ)
				if !p.accept("|") {
					break
				}
				p.accept(":")
			}
		}
		if p.accept("*") {
			rng, err := p.hopRange()
			if err != nil {
				return r, err
			}
			r.Length = rng
		}
		if p.peek().is("{") {
			props, err := p.mapEntries()
			if err != nil {
				return r, err
			}
			r.Properties = props
		}
		if err := p.expect("]"); err != nil {
			return r, err
		}
	}
	if err := p.expect("-"); err != nil {
		return r, err
	}
	outgoing := p.accept(">")
	switch {
	case incoming && outgoing:
		r.Direction = graph.Both
	case incoming:
		r.Direction = graph.Incoming
	case outgoing:
		r.Direction = graph.Outgoing
	default:
		r.Direction = graph.Both
	}
	return r, nil
}

// hopRange parses what follows "*": "", "n", "n..", "..m" or "n..m".
func (p *parser) hopRange() (*ast.Range, error) {
	rng := &ast.Range{}
	if p.at(tokInteger) {
		n, err := p.integer()
		if err != nil {
			return nil, err
		}
		rng.Lower = &n
		if !p.peek().is("..") {
			upper := n
			rng.Upper = &upper
			return rng, nil
		}
	}
	if p.accept("..") && p.at(tokInteger) {
		n, err := p.integer()
		if err != nil {
			return nil, err
		}
		rng.Upper = &n
	}
	return rng, nil
}

func (p *parser) integer() (int, error) {
	t := p.next()
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, errorAt(t.pos, "integer %s out of range", t.text)
	}
	return n, nil
}

func (p *parser) mapEntries() (map[string]ast.Expr, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	entries := map[string]ast.Expr{}
	if p.accept("}") {
		return entries, nil
	}
	for {
		keyTok := p.peek()
		var key string
		switch keyTok.kind {
		case tokIdent, tokString:
			key = p.next().text
		default:
			return nil, p.unexpected("map key")
		}
		if _, dup := entries[key]; dup {
			return nil, errorAt(keyTok.pos, "duplicate map key %s", key)
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		entries[key] = e
		if !p.accept(",") {
			break
		}
	}
	return entries, p.expect("}")
}

// Expression grammar, loosest binding first:
//
//	OR, XOR, AND, NOT, comparison/predicates, + -, * / %, unary -, postfix . and :
func (p *parser) expr() (ast.Expr, error) { return p.binaryLevel(0) }

var binaryLevels = [][]ast.BinaryOp{
	{ast.OpOr},
	{ast.OpXor},
	{ast.OpAnd},
}

func (p *parser) binaryLevel(level int) (ast.Expr, error) {
	if level == len(binaryLevels) {
		return p.not()
	}
	left, err := p.binaryLevel(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp(binaryLevels[level])
		if !ok {
			return left, nil
		}
		right, err := p.binaryLevel(level + 1)
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) acceptOp(ops []ast.BinaryOp) (ast.BinaryOp, bool) {
	for _, op := range ops {
		if p.accept(string(op)) {
			return op, true
		}
	}
	return "", false
}

func (p *parser) not() (ast.Expr, error) {
	if p.accept("NOT") {
		e, err := p.not()
		if err != nil {
			return nil, err
		}
		return ast.Not{Expr: e}, nil
	}
	return p.comparison()
}

var comparisonOps = []ast.BinaryOp{ast.OpNe, ast.OpLe, ast.OpGe, ast.OpEq, ast.OpLt, ast.OpGt}

func (p *parser) comparison() (ast.Expr, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch t := p.peek(); {
		case t.is("IS"):
			p.pos++
			negated := p.accept("NOT")
			if err := p.expect("NULL"); err != nil {
				return nil, err
			}
			left = ast.IsNull{Expr: left, Negated: negated}
			continue
		case t.is("IN"):
			p.pos++
			op = ast.OpIn
		case t.is("CONTAINS"):
			p.pos++
			op = ast.OpContains
		case t.is("STARTS"), t.is("ENDS"):
			p.pos++
			if err := p.expect("WITH"); err != nil {
				return nil, err
			}
			op = ast.OpStartsWith
			if t.is("ENDS") {
				op = ast.OpEndsWith
			}
		default:
			var ok bool
			if op, ok = p.acceptOp(comparisonOps); !ok {
				return left, nil
			}
		}
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) additive() (ast.Expr, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp([]ast.BinaryOp{ast.OpAdd, ast.OpSub})
		if !ok {
			return left, nil
		}
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) multiplicative() (ast.Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp([]ast.BinaryOp{ast.OpMul, ast.OpDiv, ast.OpMod})
		if !ok {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) unary() (ast.Expr, error) {
	if p.accept("-") {
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		// Fold negative literals so "-1" stays a constant.
		if lit, ok := e.(ast.Literal); ok {
			if n, ok := value.AsNumber(lit.Value); ok {
				return ast.Literal{Value: value.Negate(n)}, nil
			}
		}
		return ast.Negate{Expr: e}, nil
	}
	if p.accept("+") {
		return p.unary()
	}
	return p.postfix()
}

func (p *parser) postfix() (ast.Expr, error) {
	e, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("."):
			key, err := p.identifier("property name")
			if err != nil {
				return nil, err
			}
			e = ast.Property{Subject: e, Key: key}
		case p.peek().is(":") && p.peekAt(1).kind == tokIdent:
			h := ast.HasLabels{Subject: e}
			for p.accept(":") {
				label, err := p.identifier("label")
				if err != nil {
					return nil, err
				}
				h.Labels = append(h.Labels, label)
			}
			e = h
		default:
			return e, nil
		}
	}
}

func (p *parser) atom() (ast.Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokInteger:
		p.pos++
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, errorAt(t.pos, "integer %s out of range", t.text)
		}
		return ast.Literal{Value: value.Integer(n)}, nil
	case tokFloat:
		p.pos++
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, errorAt(t.pos, "invalid float %s", t.text)
		}
		return ast.Literal{Value: value.Float(f)}, nil
	case tokString:
		p.pos++
		return ast.Literal{Value: value.String(t.text)}, nil
	case tokParam:
		p.pos++
		return ast.Parameter{Name: t.text}, nil
	case tokIdent:
		return p.identAtom()
	}
	switch {
	case t.is("("):
		p.pos++
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		return e, p.expect(")")
	case t.is("["):
		p.pos++
		var l ast.ListLiteral
		if p.accept("]") {
			return l, nil
		}
		for {
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			l.Items = append(l.Items, e)
			if !p.accept(",") {
				break
			}
		}
		return l, p.expect("]")
	case t.is("{"):
		entries, err := p.mapEntries()
		if err != nil {
			return nil, err
		}
		return ast.MapLiteral{Entries: entries}, nil
	}
	return nil, p.unexpected("an expression")
}

func (p *parser) identAtom() (ast.Expr, error) {
	t := p.next()
	switch strings.ToUpper(t.text) {
	case "TRUE":
		return ast.Literal{Value: value.Boolean(true)}, nil
	case "FALSE":
		return ast.Literal{Value: value.Boolean(false)}, nil
	case "NULL":
		return ast.Literal{Value: value.Null{}}, nil
	}
	if !p.accept("(") {
		return ast.Variable{Name: t.text}, nil
	}
	if strings.EqualFold(t.text, "count") && p.peek().is("*") {
		p.pos++
		return ast.CountStar{}, p.expect(")")
	}
	call := ast.FunctionCall{Name: t.text, Distinct: p.accept("DISTINCT")}
	if p.accept(")") {
		return call, nil
	}
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, e)
		if !p.accept(",") {
			break
		}
	}
	return call, p.expect(")")
}
