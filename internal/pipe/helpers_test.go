package pipe_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/pipe"
	"github.com/roach88/pathway/internal/procedure"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/value"
)

func newRuntime(g graph.Graph, params map[string]value.Value) *pipe.Runtime {
	return pipe.NewRuntime(context.Background(), pipe.NewCatalog("default", g), procedure.Builtins(), params)
}

func run(t *testing.T, p pipe.Pipe, rt *pipe.Runtime) []pipe.Record {
	t.Helper()
	recs, err := seq.Collect(p.Execute(rt))
	require.NoError(t, err)
	return recs
}

// names reads the name property of field in every record. Lists of nodes
// are not expected here.
func names(t *testing.T, recs []pipe.Record, field string) []string {
	t.Helper()
	out := make([]string, len(recs))
	for i, rec := range recs {
		v, ok := rec.Get(field)
		require.True(t, ok, "record %s has no field %s", rec, field)
		n, ok := v.(value.Node)
		require.True(t, ok, "%s is not a node: %v", field, v)
		out[i] = string(n.Properties["name"].(value.String))
	}
	return out
}

func node(variable string, labels ...string) ast.NodePattern {
	return ast.NodePattern{Variable: variable, Labels: labels}
}

func prop(variable, key string) ast.Property {
	return ast.Property{Subject: ast.Variable{Name: variable}, Key: key}
}

func lit(v value.Value) ast.Literal { return ast.Literal{Value: v} }

func eq(left, right ast.Expr) ast.Binary {
	return ast.Binary{Op: ast.OpEq, Left: left, Right: right}
}

func intPtr(i int) *int { return &i }

// countingPipe emits n empty-ish records and counts how many were pulled.
type countingPipe struct {
	n      int
	pulled *int
}

func (c *countingPipe) Execute(*pipe.Runtime) seq.Seq[pipe.Record] {
	return func(yield func(pipe.Record, error) bool) {
		for i := 0; i < c.n; i++ {
			*c.pulled++
			rec := pipe.NewRecord([]string{"i"}, []value.Value{value.Integer(i)})
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (c *countingPipe) Columns() []string                  { return []string{"i"} }
func (c *countingPipe) Children() []pipe.Pipe              { return nil }
func (c *countingPipe) WithChildren(...pipe.Pipe) pipe.Pipe { return c }
func (c *countingPipe) String() string                     { return "Counting" }

// rows returns a pipe emitting the given values under field.
func rows(field string, vs ...value.Value) pipe.Pipe {
	return &valuesPipe{field: field, values: vs}
}

type valuesPipe struct {
	field  string
	values []value.Value
}

func (v *valuesPipe) Execute(*pipe.Runtime) seq.Seq[pipe.Record] {
	recs := make([]pipe.Record, len(v.values))
	for i, x := range v.values {
		recs[i] = pipe.NewRecord([]string{v.field}, []value.Value{x})
	}
	return seq.FromSlice(recs)
}

func (v *valuesPipe) Columns() []string                  { return []string{v.field} }
func (v *valuesPipe) Children() []pipe.Pipe              { return nil }
func (v *valuesPipe) WithChildren(...pipe.Pipe) pipe.Pipe { return v }
func (v *valuesPipe) String() string                     { return "Values(" + v.field + ")" }
