package pipe

import (
	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/procedure"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/value"
)

// Aggregate groups its input by the Grouping items and evaluates every
// Aggregates item once per group. Groups are emitted in the order their
// first row arrived. Without grouping items the output is exactly one row,
// even for an empty input.
//
// Every Aggregates item is a call of a registered aggregate or count(*).
type Aggregate struct {
	Input      Pipe
	Grouping   []ast.ReturnItem
	Aggregates []ast.ReturnItem
}

// NewAggregate returns an Aggregate reading input.
func NewAggregate(input Pipe, grouping, aggregates []ast.ReturnItem) *Aggregate {
	return &Aggregate{Input: input, Grouping: grouping, Aggregates: aggregates}
}

func (a *Aggregate) Columns() []string {
	var cols []string
	for _, it := range a.Grouping {
		cols = appendColumns(cols, it.Name())
	}
	for _, it := range a.Aggregates {
		cols = appendColumns(cols, it.Name())
	}
	return cols
}

func (a *Aggregate) Children() []Pipe { return []Pipe{a.Input} }

func (a *Aggregate) String() string {
	return "Aggregate(keys: [" + joinItems(a.Grouping) + "], aggregates: [" + joinItems(a.Aggregates) + "])"
}

func (a *Aggregate) WithChildren(children ...Pipe) Pipe {
	mustArity("Aggregate", children, 1)
	return &Aggregate{Input: children[0], Grouping: a.Grouping, Aggregates: a.Aggregates}
}

type group struct {
	keys []value.Value
	accs []*procedure.Accumulator
}

func (a *Aggregate) newGroup(rt *Runtime, keys []value.Value) (*group, error) {
	g := &group{keys: keys, accs: make([]*procedure.Accumulator, len(a.Aggregates))}
	for i, it := range a.Aggregates {
		name, distinct := "count", false
		if call, ok := it.Expr.(ast.FunctionCall); ok {
			name, distinct = call.Name, call.Distinct
		}
		acc, err := rt.Procedures.NewAccumulator(name, distinct)
		if err != nil {
			return nil, err
		}
		g.accs[i] = acc
	}
	return g, nil
}

func (a *Aggregate) collect(rt *Runtime, g *group, rec Record) error {
	for i, it := range a.Aggregates {
		var args []value.Value
		switch call := it.Expr.(type) {
		case ast.CountStar:
			args = []value.Value{value.Boolean(true)}
		case ast.FunctionCall:
			args = make([]value.Value, len(call.Args))
			for j, arg := range call.Args {
				v, err := Eval(rt, rec, arg)
				if err != nil {
					return err
				}
				args[j] = v
			}
		default:
			return typeError(it.Expr.String(), "not an aggregate call")
		}
		if err := g.accs[i].Collect(args); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregate) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.Defer(func() seq.Seq[Record] {
		var order []*group
		groups := make(map[string]*group)
		for rec, err := range a.Input.Execute(rt) {
			if err != nil {
				return seq.Fail[Record](err)
			}
			keys := make([]value.Value, len(a.Grouping))
			for i, it := range a.Grouping {
				v, err := Eval(rt, rec, it.Expr)
				if err != nil {
					return seq.Fail[Record](err)
				}
				keys[i] = v
			}
			k, err := value.GroupKey(keys...)
			if err != nil {
				return seq.Fail[Record](err)
			}
			g, ok := groups[k]
			if !ok {
				if g, err = a.newGroup(rt, keys); err != nil {
					return seq.Fail[Record](err)
				}
				groups[k] = g
				order = append(order, g)
			}
			if err := a.collect(rt, g, rec); err != nil {
				return seq.Fail[Record](err)
			}
		}
		if len(order) == 0 && len(a.Grouping) == 0 {
			g, err := a.newGroup(rt, nil)
			if err != nil {
				return seq.Fail[Record](err)
			}
			order = append(order, g)
		}

		fields := a.Columns()
		out := make([]Record, len(order))
		for i, g := range order {
			values := make([]value.Value, 0, len(fields))
			values = append(values, g.keys...)
			for _, acc := range g.accs {
				values = append(values, acc.Value())
			}
			out[i] = Record{fields: fields, values: values}
		}
		return seq.FromSlice(out)
	})
}
