package logical

import (
	"fmt"
	"slices"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/procedure"
)

// AnonymousPrefix starts the names the planner gives to unnamed pattern
// elements. It cannot appear in a parsed identifier.
const AnonymousPrefix = "#anon"

// Planner builds logical plans.
//
// Thread-safety: safe for concurrent use; each Plan call keeps its own
// state.
type Planner struct {
	procs *procedure.Registry
}

// NewPlanner returns a planner that classifies function calls with procs.
func NewPlanner(procs *procedure.Registry) *Planner {
	return &Planner{procs: procs}
}

var defaultPlanner = NewPlanner(procedure.Builtins())

// Plan plans stmt with the built-in procedure registry.
func Plan(stmt *ast.Statement, state *ast.SemanticState) (Operator, error) {
	return defaultPlanner.Plan(stmt, state)
}

// Plan builds the logical plan for stmt. A nil state is derived with
// ast.Analyze.
func (p *Planner) Plan(stmt *ast.Statement, state *ast.SemanticState) (Operator, error) {
	if stmt == nil {
		return nil, &PlanError{Code: ErrCodeInvalidStatement, Message: "nil statement"}
	}
	if state == nil {
		var err error
		if state, err = ast.Analyze(stmt, p.procs.IsAggregating); err != nil {
			return nil, &PlanError{Code: ErrCodeInvalidStatement, Message: "analysis failed", Err: err}
		}
	}
	b := &builder{procs: p.procs, state: state}
	var op Operator = &Start{}
	for _, c := range stmt.Clauses {
		var err error
		switch cl := c.(type) {
		case *ast.Match:
			op, err = b.match(op, cl)
		case *ast.Create:
			op = &Create{Input: op, Pattern: b.nameAll(cl.Pattern)}
		case *ast.Return:
			op, err = b.ret(op, cl)
		default:
			err = unsupported("clause %T", c)
		}
		if err != nil {
			return nil, err
		}
	}
	return op, nil
}

// builder holds the per-statement planning state.
type builder struct {
	procs *procedure.Registry
	state *ast.SemanticState
	anon  int
}

func (b *builder) fresh() string {
	name := fmt.Sprintf("%s%d", AnonymousPrefix, b.anon)
	b.anon++
	return name
}

// nameAll copies pattern, naming every anonymous node and relationship.
func (b *builder) nameAll(pattern ast.Pattern) ast.Pattern {
	out := ast.Pattern{Parts: make([]ast.PatternPart, len(pattern.Parts))}
	for i, part := range pattern.Parts {
		np := ast.PatternPart{
			Nodes: slices.Clone(part.Nodes),
			Rels:  slices.Clone(part.Rels),
		}
		for j := range np.Nodes {
			if np.Nodes[j].Variable == "" {
				np.Nodes[j].Variable = b.fresh()
			}
		}
		for j := range np.Rels {
			if np.Rels[j].Variable == "" {
				np.Rels[j].Variable = b.fresh()
			}
		}
		out.Parts[i] = np
	}
	return out
}

// matchState tracks one MATCH clause while its parts are planned.
type matchState struct {
	pending []ast.Expr // WHERE conjuncts not yet placed
	rels    []string   // relationship variables bound by this MATCH
}

func (b *builder) match(input Operator, m *ast.Match) (Operator, error) {
	ms := &matchState{pending: ast.Conjuncts(m.Where)}
	op := input
	for _, part := range b.nameAll(m.Pattern).Parts {
		var err error
		if op, err = b.part(op, part, ms); err != nil {
			return nil, err
		}
	}
	// Conjuncts without variables, e.g. "$flag = true", land here.
	for _, pred := range ms.pending {
		if !op.Solved().HasPredicate(pred.String()) {
			op = &Filter{Input: op, Predicate: pred}
		}
	}
	return op, nil
}

// place wraps op in a Filter for every pending conjunct whose variables
// op binds. Conjuncts op already enforces are dropped.
func (ms *matchState) place(op Operator) Operator {
	solved := op.Solved()
	var rest []ast.Expr
	for _, pred := range ms.pending {
		vars := ast.Variables(pred)
		ready := len(vars) > 0
		for _, v := range vars {
			if !solved.Binds(v) {
				ready = false
				break
			}
		}
		if !ready {
			rest = append(rest, pred)
			continue
		}
		if !solved.HasPredicate(pred.String()) {
			op = &Filter{Input: op, Predicate: pred}
			solved = op.Solved()
		}
	}
	ms.pending = rest
	return op
}

func (b *builder) part(input Operator, part ast.PatternPart, ms *matchState) (Operator, error) {
	bound := input.Solved()
	anchor := slices.IndexFunc(part.Nodes, func(n ast.NodePattern) bool { return bound.Binds(n.Variable) })

	op := input
	right := anchor
	if anchor < 0 {
		// A scan sees no input row, so properties that depend on bound
		// variables become ordinary filters.
		start, deps := splitNode(part.Nodes[0])
		scan := &PatternScan{Start: start}
		right = 0
		if len(part.Rels) > 0 {
			rel, relDeps := splitProps(part.Rels[0].Variable, part.Rels[0].Properties)
			if len(relDeps) > 0 && part.Rels[0].Length != nil {
				return nil, unsupported("variable-length relationship %s with properties that depend on other variables", part.Rels[0])
			}
			end, endDeps := splitNode(part.Nodes[1])
			r := part.Rels[0]
			r.Properties = rel
			scan.Rel, scan.End = &r, &end
			deps = append(append(deps, relDeps...), endDeps...)
			ms.rels = append(ms.rels, r.Variable)
			right = 1
		}
		ms.pending = append(deps, ms.pending...)
		// Filters that only need the scan's variables go directly on it.
		var scanned Operator = ms.place(scan)
		if _, isStart := input.(*Start); isStart {
			op = scanned
		} else {
			op = &CartesianProduct{Left: input, Right: scanned}
		}
		op = ms.place(op)
		anchor = 0
	} else {
		op = ms.place(constrain(op, part.Nodes[anchor]))
	}

	for i := right; i < len(part.Rels); i++ {
		op = b.expand(op, part.Nodes[i].Variable, part.Rels[i], part.Nodes[i+1], ms)
	}
	for i := anchor - 1; i >= 0; i-- {
		rel := part.Rels[i]
		rel.Direction = reverse(rel.Direction)
		op = b.expand(op, part.Nodes[i+1].Variable, rel, part.Nodes[i], ms)
	}
	return op, nil
}

// constrain enforces the labels and properties a pattern repeats for an
// already bound node, e.g. the second (a:Admin) in MATCH (a) MATCH (a:Admin).
func constrain(op Operator, n ast.NodePattern) Operator {
	solved := op.Solved()
	for _, pred := range inlineExprs(n) {
		if !solved.HasPredicate(pred.String()) {
			op = &Filter{Input: op, Predicate: pred}
			solved = op.Solved()
		}
	}
	return op
}

func (b *builder) expand(input Operator, from string, rel ast.RelPattern, to ast.NodePattern, ms *matchState) Operator {
	toBound := input.Solved().Binds(to.Variable)
	unique := slices.Clone(ms.rels)
	ms.rels = append(ms.rels, rel.Variable)
	var op Operator
	if rel.Length != nil {
		op = &VarExpand{Input: input, From: from, Rel: rel, To: to, ToBound: toBound, Unique: unique}
	} else {
		op = &Expand{Input: input, From: from, Rel: rel, To: to, ToBound: toBound, Unique: unique}
	}
	return ms.place(op)
}

func splitNode(n ast.NodePattern) (ast.NodePattern, []ast.Expr) {
	var deps []ast.Expr
	n.Properties, deps = splitProps(n.Variable, n.Properties)
	return n, deps
}

// splitProps separates properties whose values reference variables and
// returns them as equality predicates.
func splitProps(variable string, props map[string]ast.Expr) (map[string]ast.Expr, []ast.Expr) {
	var deps []ast.Expr
	var constant map[string]ast.Expr
	for _, k := range sortedKeys(props) {
		e := props[k]
		if len(ast.Variables(e)) == 0 {
			if constant == nil {
				constant = make(map[string]ast.Expr, len(props))
			}
			constant[k] = e
			continue
		}
		deps = append(deps, ast.Binary{
			Op:    ast.OpEq,
			Left:  ast.Property{Subject: ast.Variable{Name: variable}, Key: k},
			Right: e,
		})
	}
	return constant, deps
}

func reverse(d graph.Direction) graph.Direction {
	switch d {
	case graph.Outgoing:
		return graph.Incoming
	case graph.Incoming:
		return graph.Outgoing
	default:
		return d
	}
}

func (b *builder) isAggregateCall(e ast.Expr) bool {
	switch c := e.(type) {
	case ast.CountStar:
		return true
	case ast.FunctionCall:
		return b.procs.IsAggregating(c.Name)
	}
	return false
}

func (b *builder) ret(input Operator, r *ast.Return) (Operator, error) {
	columns := b.state.Columns
	if len(columns) != len(r.Items) {
		columns = make([]string, len(r.Items))
		for i, it := range r.Items {
			columns[i] = it.Name()
		}
	}

	var op Operator
	aggregating := slices.ContainsFunc(r.Items, func(it ast.ReturnItem) bool {
		return ast.ContainsAggregate(it.Expr, b.procs.IsAggregating)
	})
	if aggregating {
		agg := &Aggregate{Input: input}
		for _, it := range r.Items {
			switch {
			case b.isAggregateCall(it.Expr):
				if call, ok := it.Expr.(ast.FunctionCall); ok {
					for _, arg := range call.Args {
						if ast.ContainsAggregate(arg, b.procs.IsAggregating) {
							return nil, unsupported("nested aggregate in %s", it.Expr)
						}
					}
				}
				agg.Aggregates = append(agg.Aggregates, it)
			case ast.ContainsAggregate(it.Expr, b.procs.IsAggregating):
				return nil, unsupported("aggregate inside expression %s; return the aggregate as its own column", it.Expr)
			default:
				agg.Grouping = append(agg.Grouping, it)
			}
		}
		op = agg
	} else {
		op = &Project{Input: input, Items: r.Items}
	}

	if r.Distinct {
		op = &Distinct{Input: &Select{Input: op, Columns: columns}}
	}
	if len(r.OrderBy) > 0 {
		op = &OrderBy{Input: op, Items: r.OrderBy}
	}
	if r.Skip != nil {
		op = &Skip{Input: op, Count: r.Skip}
	}
	if r.Limit != nil {
		op = &Limit{Input: op, Count: r.Limit}
	}
	return &Select{Input: op, Columns: columns}, nil
}
