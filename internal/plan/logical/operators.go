package logical

import (
	"slices"
	"strings"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/plan"
)

// Operator is a node of the logical plan. Sealed: only types in this
// package implement it. Operators are immutable once planned.
type Operator interface {
	// Inputs returns the child operators, left to right.
	Inputs() []Operator

	// Solved reports the semantic work this operator and its inputs have
	// already done.
	Solved() Solved

	// String is the one-line description used in plan renderings.
	String() string

	operatorNode() // Marker method - seals interface to this package
}

// Solved records what a sub-plan has satisfied.
type Solved struct {
	// Fields are the bound variables and columns, in binding order.
	Fields []string

	// Predicates are the keys (expression text) of enforced predicates.
	Predicates []string

	// Patterns are the keys of matched pattern pieces.
	Patterns []string
}

// Binds reports whether name is a bound field.
func (s Solved) Binds(name string) bool { return slices.Contains(s.Fields, name) }

// HasPredicate reports whether the predicate with key is enforced.
func (s Solved) HasPredicate(key string) bool { return slices.Contains(s.Predicates, key) }

// HasPattern reports whether the pattern piece with key is matched.
func (s Solved) HasPattern(key string) bool { return slices.Contains(s.Patterns, key) }

func (s Solved) clone() Solved {
	return Solved{
		Fields:     slices.Clone(s.Fields),
		Predicates: slices.Clone(s.Predicates),
		Patterns:   slices.Clone(s.Patterns),
	}
}

func (s Solved) withFields(names ...string) Solved {
	out := s.clone()
	for _, n := range names {
		if n != "" && !out.Binds(n) {
			out.Fields = append(out.Fields, n)
		}
	}
	return out
}

func (s Solved) withPredicates(keys ...string) Solved {
	for _, k := range keys {
		if !s.HasPredicate(k) {
			s.Predicates = append(s.Predicates, k)
		}
	}
	return s
}

func (s Solved) withPattern(key string) Solved {
	if !s.HasPattern(key) {
		s.Patterns = append(s.Patterns, key)
	}
	return s
}

// union merges two independent sub-plans.
func (s Solved) union(o Solved) Solved {
	out := s.withFields(o.Fields...)
	out = out.withPredicates(o.Predicates...)
	for _, p := range o.Patterns {
		out = out.withPattern(p)
	}
	return out
}

// InlinePredicates returns the predicate keys a node pattern's labels and
// property map enforce, e.g. "a:Person" and "a.name = $name".
func InlinePredicates(n ast.NodePattern) []string {
	exprs := inlineExprs(n)
	keys := make([]string, 0, len(exprs)+1)
	for _, e := range exprs {
		keys = append(keys, e.String())
	}
	if len(n.Labels) > 1 {
		keys = append(keys, ast.HasLabels{Subject: ast.Variable{Name: n.Variable}, Labels: n.Labels}.String())
	}
	return keys
}

// inlineExprs spells out a node pattern's labels and properties as one
// predicate each.
func inlineExprs(n ast.NodePattern) []ast.Expr {
	if n.Variable == "" {
		return nil
	}
	subject := ast.Variable{Name: n.Variable}
	var out []ast.Expr
	for _, l := range n.Labels {
		out = append(out, ast.HasLabels{Subject: subject, Labels: []string{l}})
	}
	for _, k := range sortedKeys(n.Properties) {
		out = append(out, ast.Binary{
			Op:    ast.OpEq,
			Left:  ast.Property{Subject: subject, Key: k},
			Right: n.Properties[k],
		})
	}
	return out
}

func propertyPredicates(variable string, props map[string]ast.Expr) []string {
	if variable == "" {
		return nil
	}
	keys := make([]string, 0, len(props))
	for _, k := range sortedKeys(props) {
		eq := ast.Binary{
			Op:    ast.OpEq,
			Left:  ast.Property{Subject: ast.Variable{Name: variable}, Key: k},
			Right: props[k],
		}
		keys = append(keys, eq.String())
	}
	return keys
}

func sortedKeys(m map[string]ast.Expr) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Start produces exactly one empty row. It is the input of statements
// that begin with RETURN or CREATE.
type Start struct{}

// PatternScan matches a pattern against the whole graph: a single node
// when Rel is nil, otherwise one hop (Rel.Length == nil) or one
// variable-length hop from Start to End.
//
// Semantics:
//
//	MATCH (a:Person)                 → PatternScan{Start: (a:Person)}
//	MATCH (a)-[r:KNOWS]->(b)         → PatternScan{Start: (a), Rel: [r:KNOWS], End: (b)}
//	MATCH (a)-[p:KNOWS*1..2]->(b)    → PatternScan{..., Rel: [p:KNOWS*1..2]}
//
// Labels and inline properties of every element are enforced by the scan.
// When Start and End name the same variable only closed paths match.
type PatternScan struct {
	Start ast.NodePattern
	Rel   *ast.RelPattern
	End   *ast.NodePattern
}

// Filter keeps the rows for which Predicate is true.
type Filter struct {
	Input     Operator
	Predicate ast.Expr
}

// Expand follows one hop from the bound node From for every input row,
// binding Rel.Variable and To.Variable. When ToBound is set To.Variable is
// already bound and the hop must land on that node.
//
// Unique lists relationship variables bound earlier in the same MATCH;
// the new relationship must differ from all of them.
type Expand struct {
	Input   Operator
	From    string
	Rel     ast.RelPattern
	To      ast.NodePattern
	ToBound bool
	Unique  []string
}

// VarExpand is Expand over a variable-length hop (Rel.Length != nil). The
// relationship variable binds the list of traversed relationships.
type VarExpand struct {
	Input   Operator
	From    string
	Rel     ast.RelPattern
	To      ast.NodePattern
	ToBound bool
	Unique  []string
}

// CartesianProduct pairs every row of Left with every row of Right.
type CartesianProduct struct {
	Left  Operator
	Right Operator
}

// Project evaluates Items per row and binds each under its column name,
// keeping the input fields.
type Project struct {
	Input Operator
	Items []ast.ReturnItem
}

// Aggregate groups rows by Grouping and evaluates Aggregates per group.
// Its output holds only the grouping and aggregate columns.
type Aggregate struct {
	Input      Operator
	Grouping   []ast.ReturnItem
	Aggregates []ast.ReturnItem
}

// Select narrows rows to Columns, in that order.
type Select struct {
	Input   Operator
	Columns []string
}

// Distinct drops rows equal to an earlier row.
type Distinct struct {
	Input Operator
}

// OrderBy sorts rows by Items; ties keep input order.
type OrderBy struct {
	Input Operator
	Items []ast.SortItem
}

// Skip drops the first Count rows.
type Skip struct {
	Input Operator
	Count ast.Expr
}

// Limit keeps the first Count rows.
type Limit struct {
	Input Operator
	Count ast.Expr
}

// Create adds the elements of Pattern once per input row. Variables bound
// by Input are reused as relationship endpoints.
type Create struct {
	Input   Operator
	Pattern ast.Pattern
}

func (*Start) operatorNode()            {}
func (*PatternScan) operatorNode()      {}
func (*Filter) operatorNode()           {}
func (*Expand) operatorNode()           {}
func (*VarExpand) operatorNode()        {}
func (*CartesianProduct) operatorNode() {}
func (*Project) operatorNode()          {}
func (*Aggregate) operatorNode()        {}
func (*Select) operatorNode()           {}
func (*Distinct) operatorNode()         {}
func (*OrderBy) operatorNode()          {}
func (*Skip) operatorNode()             {}
func (*Limit) operatorNode()            {}
func (*Create) operatorNode()           {}

func (*Start) Inputs() []Operator              { return nil }
func (*PatternScan) Inputs() []Operator        { return nil }
func (o *Filter) Inputs() []Operator           { return []Operator{o.Input} }
func (o *Expand) Inputs() []Operator           { return []Operator{o.Input} }
func (o *VarExpand) Inputs() []Operator        { return []Operator{o.Input} }
func (o *CartesianProduct) Inputs() []Operator { return []Operator{o.Left, o.Right} }
func (o *Project) Inputs() []Operator          { return []Operator{o.Input} }
func (o *Aggregate) Inputs() []Operator        { return []Operator{o.Input} }
func (o *Select) Inputs() []Operator           { return []Operator{o.Input} }
func (o *Distinct) Inputs() []Operator         { return []Operator{o.Input} }
func (o *OrderBy) Inputs() []Operator          { return []Operator{o.Input} }
func (o *Skip) Inputs() []Operator             { return []Operator{o.Input} }
func (o *Limit) Inputs() []Operator            { return []Operator{o.Input} }
func (o *Create) Inputs() []Operator           { return []Operator{o.Input} }

func (*Start) Solved() Solved { return Solved{} }

func (o *PatternScan) Solved() Solved {
	s := Solved{}.withFields(o.Start.Variable)
	s = s.withPredicates(InlinePredicates(o.Start)...)
	if o.Rel != nil {
		s = s.withFields(o.Rel.Variable, o.End.Variable)
		if o.Rel.Length == nil {
			s = s.withPredicates(propertyPredicates(o.Rel.Variable, o.Rel.Properties)...)
		}
		s = s.withPredicates(InlinePredicates(*o.End)...)
	}
	return s.withPattern(o.pattern().String())
}

func (o *PatternScan) pattern() ast.PatternPart {
	part := ast.PatternPart{Nodes: []ast.NodePattern{o.Start}}
	if o.Rel != nil {
		part.Rels = []ast.RelPattern{*o.Rel}
		part.Nodes = append(part.Nodes, *o.End)
	}
	return part
}

func (o *Filter) Solved() Solved {
	return o.Input.Solved().clone().withPredicates(o.Predicate.String())
}

func expandSolved(in Solved, from string, rel ast.RelPattern, to ast.NodePattern) Solved {
	s := in.withFields(rel.Variable, to.Variable)
	if rel.Length == nil {
		s = s.withPredicates(propertyPredicates(rel.Variable, rel.Properties)...)
	}
	s = s.withPredicates(InlinePredicates(to)...)
	return s.withPattern(hopString(from, rel, to))
}

func hopString(from string, rel ast.RelPattern, to ast.NodePattern) string {
	return ast.PatternPart{
		Nodes: []ast.NodePattern{{Variable: from}, to},
		Rels:  []ast.RelPattern{rel},
	}.String()
}

func (o *Expand) Solved() Solved {
	return expandSolved(o.Input.Solved(), o.From, o.Rel, o.To)
}

func (o *VarExpand) Solved() Solved {
	return expandSolved(o.Input.Solved(), o.From, o.Rel, o.To)
}

func (o *CartesianProduct) Solved() Solved {
	return o.Left.Solved().union(o.Right.Solved())
}

func (o *Project) Solved() Solved {
	names := make([]string, len(o.Items))
	for i, it := range o.Items {
		names[i] = it.Name()
	}
	return o.Input.Solved().withFields(names...)
}

func (o *Aggregate) Solved() Solved {
	in := o.Input.Solved()
	s := Solved{Predicates: slices.Clone(in.Predicates), Patterns: slices.Clone(in.Patterns)}
	for _, it := range o.Grouping {
		s = s.withFields(it.Name())
	}
	for _, it := range o.Aggregates {
		s = s.withFields(it.Name())
	}
	return s
}

func (o *Select) Solved() Solved {
	s := o.Input.Solved().clone()
	s.Fields = slices.Clone(o.Columns)
	return s
}

func (o *Distinct) Solved() Solved { return o.Input.Solved() }
func (o *OrderBy) Solved() Solved  { return o.Input.Solved() }
func (o *Skip) Solved() Solved     { return o.Input.Solved() }
func (o *Limit) Solved() Solved    { return o.Input.Solved() }

func (o *Create) Solved() Solved {
	s := o.Input.Solved()
	for _, part := range o.Pattern.Parts {
		for _, n := range part.Nodes {
			s = s.withFields(n.Variable)
		}
		for _, r := range part.Rels {
			s = s.withFields(r.Variable)
		}
	}
	return s
}

func (*Start) String() string { return "Start" }

func (o *PatternScan) String() string { return "PatternScan(" + o.pattern().String() + ")" }

func (o *Filter) String() string { return "Filter(" + o.Predicate.String() + ")" }

func (o *Expand) String() string {
	name := "Expand"
	if o.ToBound {
		name = "ExpandInto"
	}
	return name + "(" + hopString(o.From, o.Rel, o.To) + ")"
}

func (o *VarExpand) String() string {
	name := "VarExpand"
	if o.ToBound {
		name = "VarExpandInto"
	}
	return name + "(" + hopString(o.From, o.Rel, o.To) + ")"
}

func (*CartesianProduct) String() string { return "CartesianProduct" }

func (o *Project) String() string { return "Project(" + joinItems(o.Items) + ")" }

func (o *Aggregate) String() string {
	return "Aggregate(keys: [" + joinItems(o.Grouping) + "], aggregates: [" + joinItems(o.Aggregates) + "])"
}

func (o *Select) String() string { return "Select(" + strings.Join(o.Columns, ", ") + ")" }

func (*Distinct) String() string { return "Distinct" }

func (o *OrderBy) String() string {
	keys := make([]string, len(o.Items))
	for i, it := range o.Items {
		keys[i] = it.String()
	}
	return "OrderBy(" + strings.Join(keys, ", ") + ")"
}

func (o *Skip) String() string   { return "Skip(" + o.Count.String() + ")" }
func (o *Limit) String() string  { return "Limit(" + o.Count.String() + ")" }
func (o *Create) String() string { return "Create(" + o.Pattern.String() + ")" }

func joinItems(items []ast.ReturnItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, ", ")
}

// Tree renders op and its inputs.
func Tree(op Operator) plan.Tree {
	return plan.Build(op, Operator.String, Operator.Inputs)
}
