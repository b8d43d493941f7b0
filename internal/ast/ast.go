package ast

import (
	"strconv"
	"strings"

	"github.com/roach88/pathway/internal/graph"
)

// Statement is a parsed query.
type Statement struct {
	Clauses []Clause
}

// Return returns the final RETURN clause, or nil when the statement has
// none.
func (s *Statement) Return() *Return {
	if len(s.Clauses) == 0 {
		return nil
	}
	if r, ok := s.Clauses[len(s.Clauses)-1].(*Return); ok {
		return r
	}
	return nil
}

// String renders the statement in query syntax, one clause per line.
func (s *Statement) String() string {
	lines := make([]string, len(s.Clauses))
	for i, c := range s.Clauses {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}

// Clause is one top-level clause. Sealed: only types in this package
// implement it.
type Clause interface {
	String() string
	clauseNode()
}

// Match binds pattern variables for every match of Pattern that satisfies
// Where (nil = no predicate).
type Match struct {
	Pattern Pattern
	Where   Expr
}

// Create adds the elements of Pattern to the graph once per input row.
// Variables already bound by an earlier clause are reused, not recreated.
type Create struct {
	Pattern Pattern
}

// Return projects the final result.
type Return struct {
	Distinct bool
	Items    []ReturnItem
	OrderBy  []SortItem
	Skip     Expr // nil = no skip
	Limit    Expr // nil = no limit
}

func (*Match) clauseNode()  {}
func (*Create) clauseNode() {}
func (*Return) clauseNode() {}

func (m *Match) String() string {
	s := "MATCH " + m.Pattern.String()
	if m.Where != nil {
		s += " WHERE " + m.Where.String()
	}
	return s
}

func (c *Create) String() string {
	return "CREATE " + c.Pattern.String()
}

func (r *Return) String() string {
	var b strings.Builder
	b.WriteString("RETURN ")
	if r.Distinct {
		b.WriteString("DISTINCT ")
	}
	items := make([]string, len(r.Items))
	for i, it := range r.Items {
		items[i] = it.String()
	}
	b.WriteString(strings.Join(items, ", "))
	if len(r.OrderBy) > 0 {
		keys := make([]string, len(r.OrderBy))
		for i, k := range r.OrderBy {
			keys[i] = k.String()
		}
		b.WriteString(" ORDER BY " + strings.Join(keys, ", "))
	}
	if r.Skip != nil {
		b.WriteString(" SKIP " + r.Skip.String())
	}
	if r.Limit != nil {
		b.WriteString(" LIMIT " + r.Limit.String())
	}
	return b.String()
}

// ReturnItem is one projected column.
type ReturnItem struct {
	Expr  Expr
	Alias string
}

// Name is the output column name: the alias, or the expression text.
func (i ReturnItem) Name() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.Expr.String()
}

func (i ReturnItem) String() string {
	if i.Alias != "" && i.Alias != i.Expr.String() {
		return i.Expr.String() + " AS " + i.Alias
	}
	return i.Expr.String()
}

// SortItem is one ORDER BY key.
type SortItem struct {
	Expr       Expr
	Descending bool
}

func (s SortItem) String() string {
	if s.Descending {
		return s.Expr.String() + " DESC"
	}
	return s.Expr.String()
}

// Pattern is a comma-separated list of path patterns.
type Pattern struct {
	Parts []PatternPart
}

func (p Pattern) String() string {
	parts := make([]string, len(p.Parts))
	for i, part := range p.Parts {
		parts[i] = part.String()
	}
	return strings.Join(parts, ", ")
}

// PatternPart is one chain (n0)-[r0]-(n1)-[r1]-(n2)...
// len(Nodes) == len(Rels)+1 always holds.
type PatternPart struct {
	Nodes []NodePattern
	Rels  []RelPattern
}

func (p PatternPart) String() string {
	var b strings.Builder
	for i, n := range p.Nodes {
		b.WriteString(n.String())
		if i < len(p.Rels) {
			b.WriteString(p.Rels[i].String())
		}
	}
	return b.String()
}

// NodePattern is "(var:Label {key: expr})". Every field is optional.
type NodePattern struct {
	Variable   string
	Labels     []string
	Properties map[string]Expr
}

func (n NodePattern) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(n.Variable)
	for _, l := range n.Labels {
		b.WriteString(":" + l)
	}
	if len(n.Properties) > 0 {
		if b.Len() > 1 {
			b.WriteString(" ")
		}
		b.WriteString(renderProps(n.Properties))
	}
	b.WriteString(")")
	return b.String()
}

// RelPattern is "-[var:TYPE|OTHER *lo..hi {key: expr}]->". Length is nil
// for a single hop.
type RelPattern struct {
	Variable   string
	Types      []string
	Properties map[string]Expr
	Direction  graph.Direction
	Length     *Range
}

// Range is a variable-length hop bound. A nil side is open.
type Range struct {
	Lower *int
	Upper *int
}

func (r Range) String() string {
	s := "*"
	if r.Lower != nil {
		s += strconv.Itoa(*r.Lower)
	}
	if r.Lower != nil && r.Upper != nil && *r.Lower == *r.Upper {
		return s
	}
	if r.Upper != nil || r.Lower != nil {
		s += ".."
	}
	if r.Upper != nil {
		s += strconv.Itoa(*r.Upper)
	}
	return s
}

func (r RelPattern) String() string {
	var b strings.Builder
	b.WriteString(r.Variable)
	if len(r.Types) > 0 {
		b.WriteString(":" + strings.Join(r.Types, "|"))
	}
	if r.Length != nil {
		b.WriteString(r.Length.String())
	}
	if len(r.Properties) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(renderProps(r.Properties))
	}
	inner := ""
	if b.Len() > 0 {
		inner = "[" + b.String() + "]"
	}
	switch r.Direction {
	case graph.Incoming:
		return "<-" + inner + "-"
	case graph.Both:
		return "-" + inner + "-"
	default:
		return "-" + inner + "->"
	}
}

func renderProps(props map[string]Expr) string {
	keys := sortedKeys(props)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + props[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
