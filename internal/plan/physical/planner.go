package physical

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/pipe"
	"github.com/roach88/pathway/internal/plan/logical"
	"github.com/roach88/pathway/internal/procedure"
	"github.com/roach88/pathway/internal/value"
)

// Context is what physical planning may consult: the kinds of the supplied
// parameters and the procedures calls resolve against.
type Context struct {
	Params     map[string]value.Kind
	Procedures *procedure.Registry
}

// NewContext records the kinds of params. A nil registry means the
// built-ins.
func NewContext(params map[string]value.Value, procs *procedure.Registry) *Context {
	if procs == nil {
		procs = procedure.Builtins()
	}
	kinds := make(map[string]value.Kind, len(params))
	for name, v := range params {
		kinds[name] = value.KindOf(v)
	}
	return &Context{Params: kinds, Procedures: procs}
}

// ParamKinds returns a copy of the parameter kinds.
func (c *Context) ParamKinds() map[string]value.Kind {
	return maps.Clone(c.Params)
}

// Plan builds the pipe tree for op.
func Plan(ctx *Context, op logical.Operator) (pipe.Pipe, error) {
	if ctx == nil {
		ctx = NewContext(nil, nil)
	}
	return ctx.plan(op)
}

func (c *Context) plan(op logical.Operator) (pipe.Pipe, error) {
	if op == nil {
		return nil, &UnsupportedPlanError{Operator: "<nil>", Reason: "no operator"}
	}
	if err := c.checkOperator(op); err != nil {
		return nil, err
	}

	inputs := op.Inputs()
	children := make([]pipe.Pipe, len(inputs))
	for i, in := range inputs {
		child, err := c.plan(in)
		if err != nil {
			return nil, err
		}
		children[i] = child
	}

	switch o := op.(type) {
	case *logical.Start:
		return pipe.NewStart(), nil
	case *logical.PatternScan:
		if o.Rel != nil && o.End == nil {
			return nil, &UnsupportedPlanError{Operator: "PatternScan", Reason: "relationship scan without an end node"}
		}
		return pipe.NewPatternScan(o.Start, o.Rel, o.End), nil
	case *logical.Filter:
		return pipe.NewFilter(children[0], o.Predicate), nil
	case *logical.Expand:
		if o.Rel.Length != nil {
			return nil, &UnsupportedPlanError{Operator: o.String(), Reason: "single-hop expand with a hop range"}
		}
		return pipe.NewExpand(children[0], hop(o.From, o.Rel, o.To, o.ToBound, o.Unique)), nil
	case *logical.VarExpand:
		if o.Rel.Length == nil {
			return nil, &UnsupportedPlanError{Operator: o.String(), Reason: "variable-length expand without a hop range"}
		}
		return pipe.NewVarExpand(children[0], hop(o.From, o.Rel, o.To, o.ToBound, o.Unique)), nil
	case *logical.CartesianProduct:
		return pipe.NewCartesianProduct(children[0], children[1]), nil
	case *logical.Project:
		return pipe.NewProject(children[0], o.Items), nil
	case *logical.Aggregate:
		return pipe.NewAggregate(children[0], o.Grouping, o.Aggregates), nil
	case *logical.Select:
		return pipe.NewSelect(children[0], o.Columns), nil
	case *logical.Distinct:
		return pipe.NewDistinct(children[0]), nil
	case *logical.OrderBy:
		return pipe.NewOrderBy(children[0], o.Items), nil
	case *logical.Skip:
		return pipe.NewSkip(children[0], o.Count), nil
	case *logical.Limit:
		return pipe.NewLimit(children[0], o.Count), nil
	case *logical.Create:
		return pipe.NewCreate(children[0], o.Pattern), nil
	default:
		return nil, &UnsupportedPlanError{Operator: op.String(), Reason: fmt.Sprintf("no pipe for %T", op)}
	}
}

func hop(from string, rel ast.RelPattern, to ast.NodePattern, toBound bool, unique []string) pipe.Hop {
	return pipe.Hop{From: from, Rel: rel, To: to, ToBound: toBound, Unique: unique}
}

// checkOperator validates every expression op carries.
func (c *Context) checkOperator(op logical.Operator) error {
	for _, e := range expressions(op) {
		if err := c.checkExpr(e); err != nil {
			return err
		}
	}
	switch o := op.(type) {
	case *logical.Skip:
		return c.checkCount("SKIP", o.Count)
	case *logical.Limit:
		return c.checkCount("LIMIT", o.Count)
	}
	return nil
}

func (c *Context) checkExpr(e ast.Expr) error {
	var err error
	ast.Walk(e, func(sub ast.Expr) bool {
		if err != nil {
			return false
		}
		switch x := sub.(type) {
		case ast.Parameter:
			if _, ok := c.Params[x.Name]; !ok {
				err = &PlanError{
					Code:    ErrCodeMissingParameter,
					Message: fmt.Sprintf("parameter $%s is referenced but not supplied", x.Name),
				}
			}
		case ast.FunctionCall:
			if callErr := c.Procedures.CheckArity(x.Name, len(x.Args)); callErr != nil {
				err = &PlanError{Code: ErrCodeInvalidCall, Message: x.String(), Err: callErr}
			}
		}
		return err == nil
	})
	return err
}

func (c *Context) checkCount(clause string, e ast.Expr) error {
	p, ok := e.(ast.Parameter)
	if !ok {
		return nil
	}
	if kind := c.Params[p.Name]; kind != value.KindInteger {
		return &PlanError{
			Code:    ErrCodeParameterType,
			Message: fmt.Sprintf("%s parameter $%s is %s, need INTEGER", clause, p.Name, kind),
		}
	}
	return nil
}

// expressions lists the expressions an operator evaluates.
func expressions(op logical.Operator) []ast.Expr {
	var out []ast.Expr
	addProps := func(props map[string]ast.Expr) {
		for _, k := range slices.Sorted(maps.Keys(props)) {
			out = append(out, props[k])
		}
	}
	addNode := func(n ast.NodePattern) { addProps(n.Properties) }
	addRel := func(r ast.RelPattern) { addProps(r.Properties) }
	addItems := func(items []ast.ReturnItem) {
		for _, it := range items {
			out = append(out, it.Expr)
		}
	}
	addPattern := func(p ast.Pattern) {
		for _, part := range p.Parts {
			for _, n := range part.Nodes {
				addNode(n)
			}
			for _, r := range part.Rels {
				addRel(r)
			}
		}
	}

	switch o := op.(type) {
	case *logical.PatternScan:
		addNode(o.Start)
		if o.Rel != nil {
			addRel(*o.Rel)
		}
		if o.End != nil {
			addNode(*o.End)
		}
	case *logical.Filter:
		out = append(out, o.Predicate)
	case *logical.Expand:
		addRel(o.Rel)
		addNode(o.To)
	case *logical.VarExpand:
		addRel(o.Rel)
		addNode(o.To)
	case *logical.Project:
		addItems(o.Items)
	case *logical.Aggregate:
		addItems(o.Grouping)
		for _, it := range o.Aggregates {
			if call, ok := it.Expr.(ast.FunctionCall); ok {
				out = append(out, call)
			}
		}
	case *logical.OrderBy:
		for _, it := range o.Items {
			out = append(out, it.Expr)
		}
	case *logical.Skip:
		out = append(out, o.Count)
	case *logical.Limit:
		out = append(out, o.Count)
	case *logical.Create:
		addPattern(o.Pattern)
	}
	return out
}
