package pipe

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/value"
)

// Filter keeps the rows whose predicate evaluates to true.
type Filter struct {
	Input     Pipe
	Predicate ast.Expr
}

// NewFilter returns a Filter reading input.
func NewFilter(input Pipe, predicate ast.Expr) *Filter {
	return &Filter{Input: input, Predicate: predicate}
}

func (f *Filter) Columns() []string { return f.Input.Columns() }
func (f *Filter) Children() []Pipe  { return []Pipe{f.Input} }
func (f *Filter) String() string    { return "Filter(" + f.Predicate.String() + ")" }

func (f *Filter) WithChildren(children ...Pipe) Pipe {
	mustArity("Filter", children, 1)
	return &Filter{Input: children[0], Predicate: f.Predicate}
}

func (f *Filter) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.Filter(f.Input.Execute(rt), func(rec Record) (bool, error) {
		v, err := Eval(rt, rec, f.Predicate)
		if err != nil {
			return false, err
		}
		return Truth(v), nil
	})
}

// Project binds every item under its column name. All items see the input
// record, not each other's results.
type Project struct {
	Input Pipe
	Items []ast.ReturnItem
}

// NewProject returns a Project reading input.
func NewProject(input Pipe, items []ast.ReturnItem) *Project {
	return &Project{Input: input, Items: items}
}

func (p *Project) Columns() []string {
	cols := p.Input.Columns()
	for _, it := range p.Items {
		cols = appendColumns(cols, it.Name())
	}
	return cols
}

func (p *Project) Children() []Pipe { return []Pipe{p.Input} }
func (p *Project) String() string   { return "Project(" + joinItems(p.Items) + ")" }

func (p *Project) WithChildren(children ...Pipe) Pipe {
	mustArity("Project", children, 1)
	return &Project{Input: children[0], Items: p.Items}
}

func (p *Project) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.Map(p.Input.Execute(rt), func(rec Record) (Record, error) {
		out := rec
		for _, it := range p.Items {
			v, err := Eval(rt, rec, it.Expr)
			if err != nil {
				return Record{}, err
			}
			out = out.With(it.Name(), v)
		}
		return out, nil
	})
}

// Select narrows rows to the listed columns, in order.
type Select struct {
	Input  Pipe
	Fields []string
}

// NewSelect returns a Select reading input.
func NewSelect(input Pipe, fields []string) *Select {
	return &Select{Input: input, Fields: fields}
}

func (s *Select) Columns() []string { return slices.Clone(s.Fields) }
func (s *Select) Children() []Pipe  { return []Pipe{s.Input} }
func (s *Select) String() string    { return "Select(" + strings.Join(s.Fields, ", ") + ")" }

func (s *Select) WithChildren(children ...Pipe) Pipe {
	mustArity("Select", children, 1)
	return &Select{Input: children[0], Fields: s.Fields}
}

func (s *Select) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.Map(s.Input.Execute(rt), func(rec Record) (Record, error) {
		return rec.Select(s.Fields), nil
	})
}

// Distinct drops rows equal to an earlier row. Rows are keyed by value,
// so 1 and 1.0 are the same row.
type Distinct struct {
	Input Pipe
}

// NewDistinct returns a Distinct reading input.
func NewDistinct(input Pipe) *Distinct { return &Distinct{Input: input} }

func (d *Distinct) Columns() []string { return d.Input.Columns() }
func (d *Distinct) Children() []Pipe  { return []Pipe{d.Input} }
func (*Distinct) String() string      { return "Distinct" }

func (d *Distinct) WithChildren(children ...Pipe) Pipe {
	mustArity("Distinct", children, 1)
	return &Distinct{Input: children[0]}
}

func (d *Distinct) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.Defer(func() seq.Seq[Record] {
		seen := make(map[string]struct{})
		return seq.Filter(d.Input.Execute(rt), func(rec Record) (bool, error) {
			k, err := value.GroupKey(rec.values...)
			if err != nil {
				return false, err
			}
			if _, dup := seen[k]; dup {
				return false, nil
			}
			seen[k] = struct{}{}
			return true, nil
		})
	})
}

// OrderBy sorts its whole input. The sort is stable, so ties keep input
// order.
type OrderBy struct {
	Input Pipe
	Items []ast.SortItem
}

// NewOrderBy returns an OrderBy reading input.
func NewOrderBy(input Pipe, items []ast.SortItem) *OrderBy {
	return &OrderBy{Input: input, Items: items}
}

func (o *OrderBy) Columns() []string { return o.Input.Columns() }
func (o *OrderBy) Children() []Pipe  { return []Pipe{o.Input} }

func (o *OrderBy) String() string {
	keys := make([]string, len(o.Items))
	for i, it := range o.Items {
		keys[i] = it.String()
	}
	return "OrderBy(" + strings.Join(keys, ", ") + ")"
}

func (o *OrderBy) WithChildren(children ...Pipe) Pipe {
	mustArity("OrderBy", children, 1)
	return &OrderBy{Input: children[0], Items: o.Items}
}

type sortRow struct {
	rec  Record
	keys []value.Value
}

func (o *OrderBy) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.Defer(func() seq.Seq[Record] {
		var rows []sortRow
		for rec, err := range o.Input.Execute(rt) {
			if err != nil {
				return seq.Fail[Record](err)
			}
			keys := make([]value.Value, len(o.Items))
			for i, it := range o.Items {
				v, err := Eval(rt, rec, it.Expr)
				if err != nil {
					return seq.Fail[Record](err)
				}
				keys[i] = v
			}
			rows = append(rows, sortRow{rec: rec, keys: keys})
		}
		slices.SortStableFunc(rows, func(a, b sortRow) int {
			for i, it := range o.Items {
				c := value.OrderCompare(a.keys[i], b.keys[i])
				if it.Descending {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
		out := make([]Record, len(rows))
		for i, r := range rows {
			out[i] = r.rec
		}
		return seq.FromSlice(out)
	})
}

// Skip drops the first Count rows.
type Skip struct {
	Input Pipe
	Count ast.Expr
}

// NewSkip returns a Skip reading input.
func NewSkip(input Pipe, count ast.Expr) *Skip { return &Skip{Input: input, Count: count} }

func (s *Skip) Columns() []string { return s.Input.Columns() }
func (s *Skip) Children() []Pipe  { return []Pipe{s.Input} }
func (s *Skip) String() string    { return "Skip(" + s.Count.String() + ")" }

func (s *Skip) WithChildren(children ...Pipe) Pipe {
	mustArity("Skip", children, 1)
	return &Skip{Input: children[0], Count: s.Count}
}

func (s *Skip) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.Defer(func() seq.Seq[Record] {
		n, err := evalCount(rt, "SKIP", s.Count)
		if err != nil {
			return seq.Fail[Record](err)
		}
		return seq.Drop(s.Input.Execute(rt), n)
	})
}

// Limit keeps the first Count rows and stops pulling from its input after
// that.
type Limit struct {
	Input Pipe
	Count ast.Expr
}

// NewLimit returns a Limit reading input.
func NewLimit(input Pipe, count ast.Expr) *Limit { return &Limit{Input: input, Count: count} }

func (l *Limit) Columns() []string { return l.Input.Columns() }
func (l *Limit) Children() []Pipe  { return []Pipe{l.Input} }
func (l *Limit) String() string    { return "Limit(" + l.Count.String() + ")" }

func (l *Limit) WithChildren(children ...Pipe) Pipe {
	mustArity("Limit", children, 1)
	return &Limit{Input: children[0], Count: l.Count}
}

func (l *Limit) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.Defer(func() seq.Seq[Record] {
		n, err := evalCount(rt, "LIMIT", l.Count)
		if err != nil {
			return seq.Fail[Record](err)
		}
		return seq.Take(l.Input.Execute(rt), n)
	})
}

func evalCount(rt *Runtime, clause string, e ast.Expr) (int, error) {
	v, err := Eval(rt, Record{}, e)
	if err != nil {
		return 0, err
	}
	n, ok := v.(value.Integer)
	if !ok || n < 0 {
		return 0, &RuntimeError{
			Code:    ErrCodeInvalidArgument,
			Message: fmt.Sprintf("%s needs a non-negative integer, got %s", clause, value.Literal(v)),
			Expr:    e.String(),
		}
	}
	return int(n), nil
}

// CartesianProduct pairs every row of Left with every row of Right. Right
// is re-executed for each left row.
type CartesianProduct struct {
	Left  Pipe
	Right Pipe
}

// NewCartesianProduct returns the product of left and right.
func NewCartesianProduct(left, right Pipe) *CartesianProduct {
	return &CartesianProduct{Left: left, Right: right}
}

func (c *CartesianProduct) Columns() []string {
	return appendColumns(c.Left.Columns(), c.Right.Columns()...)
}

func (c *CartesianProduct) Children() []Pipe { return []Pipe{c.Left, c.Right} }
func (*CartesianProduct) String() string     { return "CartesianProduct" }

func (c *CartesianProduct) WithChildren(children ...Pipe) Pipe {
	mustArity("CartesianProduct", children, 2)
	return &CartesianProduct{Left: children[0], Right: children[1]}
}

func (c *CartesianProduct) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.FlatMap(c.Left.Execute(rt), func(left Record) seq.Seq[Record] {
		return seq.Map(c.Right.Execute(rt), func(right Record) (Record, error) {
			return left.Merge(right), nil
		})
	})
}

func joinItems(items []ast.ReturnItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, ", ")
}
