package pipe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/pipe"
	"github.com/roach88/pathway/internal/procedure"
	"github.com/roach88/pathway/internal/querydoc"
	"github.com/roach88/pathway/internal/testutil"
	"github.com/roach88/pathway/internal/value"
)

func evalText(t *testing.T, rt *pipe.Runtime, rec pipe.Record, text string) (value.Value, error) {
	t.Helper()
	e, err := querydoc.ParseExpr(text)
	require.NoError(t, err)
	return pipe.Eval(rt, rec, e)
}

func TestEvalTable(t *testing.T) {
	g, created := testutil.Social(t)
	rt := newRuntime(g, map[string]value.Value{"name": value.String("Alice"), "n": value.Null{}})
	alice := created.Nodes[0]
	rec := pipe.NewRecord(
		[]string{"a", "r", "m"},
		[]value.Value{alice, created.Relationships[0], value.Map{"k": value.Integer(1)}},
	)

	tests := []struct {
		expr string
		want value.Value
	}{
		{"true AND null", value.Null{}},
		{"false AND null", value.Boolean(false)},
		{"null AND false", value.Boolean(false)},
		{"true OR null", value.Boolean(true)},
		{"null OR false", value.Null{}},
		{"true XOR null", value.Null{}},
		{"true XOR false", value.Boolean(true)},
		{"NOT null", value.Null{}},
		{"NOT false", value.Boolean(true)},
		{"1 = 1.0", value.Boolean(true)},
		{"null = null", value.Null{}},
		{"1 <> 2", value.Boolean(true)},
		{"1 < 'a'", value.Null{}},
		{"'a' < 'b'", value.Boolean(true)},
		{"[1, null] = [1, 2]", value.Null{}},
		{"[1, null] = [2, 2]", value.Boolean(false)},
		{"1 + 2 * 3", value.Integer(7)},
		{"7 % 3", value.Integer(1)},
		{"1 + 0.5", value.Float(1.5)},
		{"'a' + 1", value.String("a1")},
		{"[1] + 2", value.List{value.Integer(1), value.Integer(2)}},
		{"null + 1", value.Null{}},
		{"-a.age", value.Integer(-30)},
		{"2 IN [1, 2]", value.Boolean(true)},
		{"3 IN [1, null]", value.Null{}},
		{"3 IN [1, 2]", value.Boolean(false)},
		{"'Alice' STARTS WITH 'Al'", value.Boolean(true)},
		{"'Alice' ENDS WITH 'ce'", value.Boolean(true)},
		{"'Alice' CONTAINS 'z'", value.Boolean(false)},
		{"null CONTAINS 'z'", value.Null{}},
		{"a.name", value.String("Alice")},
		{"a.missing", value.Null{}},
		{"r.since", value.Integer(2020)},
		{"m.k", value.Integer(1)},
		{"$n.k", value.Null{}},
		{"a.name = $name", value.Boolean(true)},
		{"a:Person", value.Boolean(true)},
		{"a:Person:Admin", value.Boolean(false)},
		{"a.missing IS NULL", value.Boolean(true)},
		{"a.name IS NOT NULL", value.Boolean(true)},
		{"toUpper(a.name)", value.String("ALICE")},
		{"size([1, 2, 3])", value.Integer(3)},
		{"{x: 1 + 1}", value.Map{"x": value.Integer(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalText(t, rt, rec, tt.expr)
			require.NoError(t, err)
			assert.True(t, value.Equal(tt.want, got), "want %s, got %s", value.Literal(tt.want), value.Literal(got))
			assert.Equal(t, value.KindOf(tt.want), value.KindOf(got))
		})
	}
}

func TestEvalErrors(t *testing.T) {
	g, _ := testutil.AliceBob(t)
	rt := newRuntime(g, nil)
	rec := pipe.NewRecord([]string{"x"}, []value.Value{value.Integer(1)})

	tests := []struct {
		expr  string
		check func(error) bool
	}{
		{"y", pipe.IsUnboundVariable},
		{"$missing", pipe.IsMissingParameter},
		{"x.name", pipe.IsTypeMismatch},
		{"x AND true", pipe.IsTypeMismatch},
		{"'a' - 1", pipe.IsTypeMismatch},
		{"x IN 3", pipe.IsTypeMismatch},
		{"x:Person", pipe.IsTypeMismatch},
		{"count(x)", pipe.IsTypeMismatch},
		{"toUpper(x)", procedure.IsArgumentTypeError},
		{"toUpper(x, x)", procedure.IsArityError},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := evalText(t, rt, rec, tt.expr)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	g, _ := testutil.AliceBob(t)
	_, err := evalText(t, newRuntime(g, nil), pipe.Record{}, "1 / 0")
	require.Error(t, err)

	var re *pipe.RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, pipe.ErrCodeArithmetic, re.Code)
	assert.Equal(t, "1 / 0", re.Expr)
}

func TestEvalShortCircuits(t *testing.T) {
	g, _ := testutil.AliceBob(t)
	rt := newRuntime(g, nil)

	// The right operand is never read, so the unbound variable is fine.
	v, err := evalText(t, rt, pipe.Record{}, "false AND nope")
	require.NoError(t, err)
	assert.Equal(t, value.Boolean(false), v)

	v, err = evalText(t, rt, pipe.Record{}, "true OR nope")
	require.NoError(t, err)
	assert.Equal(t, value.Boolean(true), v)
}

func TestEvalReadsProjectedColumns(t *testing.T) {
	g, _ := testutil.AliceBob(t)
	rt := newRuntime(g, nil)
	rec := pipe.NewRecord([]string{"a.name", "count(*)"}, []value.Value{value.String("Bob"), value.Integer(2)})

	v, err := pipe.Eval(rt, rec, prop("a", "name"))
	require.NoError(t, err)
	assert.Equal(t, value.String("Bob"), v)

	v, err = pipe.Eval(rt, rec, ast.CountStar{})
	require.NoError(t, err)
	assert.Equal(t, value.Integer(2), v)
}

func TestTruth(t *testing.T) {
	assert.True(t, pipe.Truth(value.Boolean(true)))
	assert.False(t, pipe.Truth(value.Boolean(false)))
	assert.False(t, pipe.Truth(value.Null{}))
	assert.False(t, pipe.Truth(value.Integer(1)))
}
