package optimize_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/pipe"
	"github.com/roach88/pathway/internal/plan/logical"
	"github.com/roach88/pathway/internal/plan/optimize"
	"github.com/roach88/pathway/internal/plan/physical"
	"github.com/roach88/pathway/internal/procedure"
	"github.com/roach88/pathway/internal/querydoc"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/testutil"
	"github.com/roach88/pathway/internal/value"
)

func physicalPlan(t *testing.T, query string) pipe.Pipe {
	t.Helper()
	stmt, state, err := querydoc.Parse(query)
	require.NoError(t, err)
	op, err := logical.Plan(stmt, state)
	require.NoError(t, err)
	p, err := physical.Plan(nil, op)
	require.NoError(t, err)
	return p
}

func TestFuseScanFilters(t *testing.T) {
	p := physicalPlan(t, `MATCH (p:Person)-[:KNOWS]->(q:Person) WHERE p.name = "Alice" AND q.age > 20 RETURN p, q`)
	require.Equal(t, 2, countKind[*pipe.Filter](p))

	optimized := optimize.Optimize(p)
	assert.Equal(t, 0, countKind[*pipe.Filter](optimized))
	require.Equal(t, 1, countKind[*pipe.FilteringScan](optimized))
	assert.Equal(t, 0, countKind[*pipe.PatternScan](optimized))

	expected := "Select(p, q)\n" +
		"└─ Project(p, q)\n" +
		"   └─ FilteringScan((p:Person)-[#anon0:KNOWS]->(q:Person) WHERE (p.name = \"Alice\") AND (q.age > 20))"
	assert.Equal(t, expected, pipe.Tree(optimized).String())
}

func TestFiltersAboveExpandStay(t *testing.T) {
	p := physicalPlan(t, `MATCH (a:Person)-[:KNOWS]->(b)-[:KNOWS]->(c) WHERE c.age > a.age RETURN c`)
	optimized := optimize.Optimize(p)
	assert.Equal(t, countKind[*pipe.Filter](p), countKind[*pipe.Filter](optimized))
}

func TestCollapseSelects(t *testing.T) {
	scan := pipe.NewPatternScan(ast.NodePattern{Variable: "a"}, nil, nil)
	inner := pipe.NewSelect(pipe.NewProject(scan, []ast.ReturnItem{{Expr: ast.Literal{Value: value.Integer(1)}, Alias: "one"}}), []string{"a", "one"})

	collapsed := optimize.Optimize(pipe.NewSelect(inner, []string{"one"}))
	assert.Equal(t, 1, countKind[*pipe.Select](collapsed))
	assert.Equal(t, []string{"one"}, collapsed.Columns())

	// The inner select drops "a", so the outer one must keep reading null.
	narrow := pipe.NewSelect(pipe.NewSelect(scan, nil), []string{"a"})
	assert.Equal(t, 2, countKind[*pipe.Select](optimize.Optimize(narrow)))
}

func TestOptimizationPreservesRows(t *testing.T) {
	g, _ := testutil.Social(t)
	queries := []string{
		`MATCH (p:Person) WHERE p.age >= 30 RETURN p.name AS name ORDER BY name`,
		`MATCH (p:Person)-[r]->(q) WHERE type(r) = "KNOWS" AND q.age < 30 RETURN p.name, q.name`,
		`MATCH (a)-[:KNOWS*1..2]->(b) WHERE b.name <> "Bob" RETURN DISTINCT b.name AS name`,
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			p := physicalPlan(t, q)
			rt := pipe.NewRuntime(context.Background(), pipe.NewCatalog("default", g), procedure.Builtins(), nil)

			want, err := seq.Collect(p.Execute(rt))
			require.NoError(t, err)
			got, err := seq.Collect(optimize.Optimize(p).Execute(rt))
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.NotEmpty(t, got)
		})
	}
}

func TestWithRules(t *testing.T) {
	p := physicalPlan(t, `MATCH (p:Person) WHERE p.age > 1 RETURN p`)
	o := optimize.New(optimize.WithRules(optimize.CollapseSelects{}))
	assert.Equal(t, pipe.Tree(p).String(), pipe.Tree(o.Optimize(p)).String())
}

func countKind[T pipe.Pipe](p pipe.Pipe) int {
	n := 0
	if _, ok := p.(T); ok {
		n++
	}
	for _, c := range p.Children() {
		n += countKind[T](c)
	}
	return n
}
