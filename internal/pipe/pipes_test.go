package pipe_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/pipe"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/testutil"
	"github.com/roach88/pathway/internal/value"
)

func knows(variable string, dir graph.Direction) ast.RelPattern {
	return ast.RelPattern{Variable: variable, Types: []string{"KNOWS"}, Direction: dir}
}

func TestPatternScanNodes(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, nil)

	scan := pipe.NewPatternScan(node("p", "Person"), nil, nil)
	recs := run(t, scan, rt)
	assert.ElementsMatch(t, []string{"Alice", "Bob", "Carol"}, names(t, recs, "p"))
	assert.Equal(t, []string{"p"}, scan.Columns())
	assert.Equal(t, "PatternScan((p:Person))", scan.String())
}

func TestPatternScanHop(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, nil)

	rel := knows("r", graph.Outgoing)
	end := node("q", "Person")
	start := node("p", "Person")
	start.Properties = map[string]ast.Expr{"name": lit(value.String("Alice"))}

	scan := pipe.NewPatternScan(start, &rel, &end)
	recs := run(t, scan, rt)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"Bob"}, names(t, recs, "q"))
	assert.Equal(t, []string{"p", "r", "q"}, recs[0].Fields())

	r, _ := recs[0].Get("r")
	assert.Equal(t, graph.ID("id5"), r.(value.Relationship).ID)
}

func TestPatternScanNullPropertyMatchesNothing(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, map[string]value.Value{"name": value.Null{}})

	start := node("p", "Person")
	start.Properties = map[string]ast.Expr{"name": ast.Parameter{Name: "name"}}
	assert.Empty(t, run(t, pipe.NewPatternScan(start, nil, nil), rt))
}

func TestPatternScanIncomingAndBoth(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, nil)

	in := knows("r", graph.Incoming)
	end := node("q")
	recs := run(t, pipe.NewPatternScan(node("p"), &in, &end), rt)
	assert.ElementsMatch(t, []string{"Bob", "Carol"}, names(t, recs, "p"))

	both := knows("r", graph.Both)
	recs = run(t, pipe.NewPatternScan(node("p"), &both, &end), rt)
	assert.Len(t, recs, 4)
}

func TestPatternScanVariableLength(t *testing.T) {
	g, _ := testutil.Chain(t, 3)
	rt := newRuntime(g, nil)

	rel := ast.RelPattern{Variable: "r", Types: []string{"NEXT"}, Length: &ast.Range{Lower: intPtr(1), Upper: intPtr(2)}}
	end := node("b")
	start := node("a", "Stop")
	start.Properties = map[string]ast.Expr{"name": lit(value.String("A"))}

	recs := run(t, pipe.NewPatternScan(start, &rel, &end), rt)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"B", "C"}, names(t, recs, "b"))

	hops, _ := recs[1].Get("r")
	require.IsType(t, value.List{}, hops)
	assert.Len(t, hops.(value.List), 2)
}

func TestPatternScanRangeEdgeCases(t *testing.T) {
	g, _ := testutil.Chain(t, 3)
	rt := newRuntime(g, nil)
	end := node("b")

	for _, bounds := range []ast.Range{
		{Lower: intPtr(5), Upper: intPtr(3)},
		{Lower: intPtr(2000)},
	} {
		rel := ast.RelPattern{Variable: "r", Length: &bounds}
		assert.Empty(t, run(t, pipe.NewPatternScan(node("a"), &rel, &end), rt), bounds.String())
	}

	rel := ast.RelPattern{Variable: "r", Types: []string{"NOPE"}, Length: &ast.Range{}}
	assert.Empty(t, run(t, pipe.NewPatternScan(node("a"), &rel, &end), rt))
}

func TestPatternScanClosedPath(t *testing.T) {
	g := testutil.NewGraph()
	_, err := g.CreateElements(context.Background(),
		[]graph.NodeSpec{{Labels: []string{"N"}}, {Labels: []string{"N"}}},
		[]graph.RelationshipSpec{
			{Type: "SELF", Start: graph.SpecNode(0), End: graph.SpecNode(0)},
			{Type: "SELF", Start: graph.SpecNode(0), End: graph.SpecNode(1)},
		})
	require.NoError(t, err)

	rel := ast.RelPattern{Variable: "r", Types: []string{"SELF"}}
	end := node("a")
	recs := run(t, pipe.NewPatternScan(node("a"), &rel, &end), newRuntime(g, nil))
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"a", "r"}, recs[0].Fields())
}

func TestFilteringScan(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, nil)

	scan := pipe.NewFilteringScan(pipe.NewPatternScan(node("p", "Person"), nil, nil),
		ast.Binary{Op: ast.OpGe, Left: prop("p", "age"), Right: lit(value.Integer(30))},
		ast.Binary{Op: ast.OpStartsWith, Left: prop("p", "name"), Right: lit(value.String("A"))},
	)
	recs := run(t, scan, rt)
	assert.Equal(t, []string{"Alice"}, names(t, recs, "p"))
	assert.Equal(t, `FilteringScan((p:Person) WHERE (p.age >= 30) AND (p.name STARTS WITH "A"))`, scan.String())
}

func TestExpandUniqueness(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, nil)

	start := node("a")
	start.Properties = map[string]ast.Expr{"name": lit(value.String("Alice"))}
	first := knows("r1", graph.Both)
	mid := node("b")
	scan := pipe.NewPatternScan(start, &first, &mid)

	expand := pipe.NewExpand(scan, pipe.Hop{
		From:   "b",
		Rel:    knows("r2", graph.Both),
		To:     node("c"),
		Unique: []string{"r1"},
	})
	recs := run(t, expand, rt)
	assert.Equal(t, []string{"Carol"}, names(t, recs, "c"))
	assert.Equal(t, []string{"a", "r1", "b", "r2", "c"}, expand.Columns())
	assert.Equal(t, "Expand((b)-[r2:KNOWS]-(c))", expand.String())

	loose := pipe.NewExpand(scan, pipe.Hop{From: "b", Rel: knows("r2", graph.Both), To: node("c")})
	assert.ElementsMatch(t, []string{"Alice", "Carol"}, names(t, run(t, loose, rt), "c"))
}

func TestExpandInto(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, nil)

	// Alice and Carol, both bound; only the LIKES edge joins them directly.
	a := node("a")
	a.Properties = map[string]ast.Expr{"name": lit(value.String("Alice"))}
	c := node("c")
	c.Properties = map[string]ast.Expr{"name": lit(value.String("Carol"))}
	product := pipe.NewCartesianProduct(pipe.NewPatternScan(a, nil, nil), pipe.NewPatternScan(c, nil, nil))

	into := pipe.NewExpand(product, pipe.Hop{
		From:    "a",
		Rel:     ast.RelPattern{Variable: "r", Direction: graph.Outgoing},
		To:      node("c"),
		ToBound: true,
	})
	recs := run(t, into, rt)
	require.Len(t, recs, 1)
	r, _ := recs[0].Get("r")
	assert.Equal(t, "LIKES", r.(value.Relationship).RelType)
	assert.Equal(t, "ExpandInto((a)-[r]->(c))", into.String())
}

func TestExpandPropertiesReadTheRow(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, nil)

	to := node("b")
	to.Properties = map[string]ast.Expr{"age": ast.Binary{Op: ast.OpSub, Left: prop("a", "age"), Right: lit(value.Integer(5))}}
	expand := pipe.NewExpand(pipe.NewPatternScan(node("a", "Person"), nil, nil), pipe.Hop{
		From: "a",
		Rel:  knows("r", graph.Outgoing),
		To:   to,
	})
	recs := run(t, expand, rt)
	assert.Equal(t, []string{"Alice"}, names(t, recs, "a"))
	assert.Equal(t, []string{"Bob"}, names(t, recs, "b"))
}

func TestVarExpand(t *testing.T) {
	g, _ := testutil.Chain(t, 3)
	rt := newRuntime(g, nil)

	a := node("a")
	a.Properties = map[string]ast.Expr{"name": lit(value.String("A"))}
	expand := pipe.NewVarExpand(pipe.NewPatternScan(a, nil, nil), pipe.Hop{
		From: "a",
		Rel:  ast.RelPattern{Variable: "p", Types: []string{"NEXT"}, Length: &ast.Range{Lower: intPtr(1), Upper: intPtr(2)}},
		To:   node("b"),
	})
	recs := run(t, expand, rt)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"B", "C"}, names(t, recs, "b"))
	assert.Equal(t, "VarExpand((a)-[p:NEXT*1..2]->(b))", expand.String())

	zero := pipe.NewVarExpand(pipe.NewPatternScan(a, nil, nil), pipe.Hop{
		From: "a",
		Rel:  ast.RelPattern{Variable: "p", Length: &ast.Range{Lower: intPtr(0), Upper: intPtr(0)}},
		To:   node("b"),
	})
	recs = run(t, zero, rt)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"A"}, names(t, recs, "b"))
	hops, _ := recs[0].Get("p")
	assert.Equal(t, value.List{}, hops)
}

func TestFilterProjectSelect(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, nil)

	var p pipe.Pipe = pipe.NewPatternScan(node("p", "Person"), nil, nil)
	p = pipe.NewFilter(p, ast.Binary{Op: ast.OpLt, Left: prop("p", "age"), Right: lit(value.Integer(30))})
	p = pipe.NewProject(p, []ast.ReturnItem{
		{Expr: prop("p", "name"), Alias: "name"},
		{Expr: ast.Binary{Op: ast.OpAdd, Left: prop("p", "age"), Right: lit(value.Integer(1))}},
	})
	p = pipe.NewSelect(p, []string{"name", "p.age + 1"})

	recs := run(t, p, rt)
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]any{"name": "Bob", "p.age + 1": int64(26)}, recs[0].Native())
	assert.Equal(t, []string{"name", "p.age + 1"}, p.Columns())
}

func TestFilterDropsNullPredicates(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, nil)

	filter := pipe.NewFilter(pipe.NewPatternScan(node("n"), nil, nil),
		ast.Binary{Op: ast.OpGt, Left: prop("n", "age"), Right: lit(value.Integer(0))})
	assert.ElementsMatch(t, []string{"Alice", "Bob", "Carol"}, names(t, run(t, filter, rt), "n"))
}

func TestAggregate(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, nil)

	rel := ast.RelPattern{Variable: "r", Direction: graph.Outgoing}
	end := node("b")
	scan := pipe.NewPatternScan(node("a", "Person"), &rel, &end)
	agg := pipe.NewAggregate(scan,
		[]ast.ReturnItem{{Expr: prop("a", "name"), Alias: "name"}},
		[]ast.ReturnItem{
			{Expr: ast.CountStar{}},
			{Expr: ast.FunctionCall{Name: "collect", Args: []ast.Expr{ast.Variable{Name: "b"}}}, Alias: "friends"},
		})
	recs := run(t, agg, rt)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"name", "count(*)", "friends"}, agg.Columns())

	counts := map[string]int64{}
	for _, rec := range recs {
		n, _ := rec.Get("name")
		c, _ := rec.Get("count(*)")
		counts[string(n.(value.String))] = int64(c.(value.Integer))
	}
	assert.Equal(t, map[string]int64{"Alice": 3, "Bob": 1}, counts)
}

func TestAggregateEmptyInput(t *testing.T) {
	g := testutil.NewGraph()
	rt := newRuntime(g, nil)
	scan := pipe.NewPatternScan(node("n"), nil, nil)

	global := pipe.NewAggregate(scan, nil, []ast.ReturnItem{
		{Expr: ast.CountStar{}},
		{Expr: ast.FunctionCall{Name: "sum", Args: []ast.Expr{prop("n", "x")}}},
		{Expr: ast.FunctionCall{Name: "avg", Args: []ast.Expr{prop("n", "x")}}},
		{Expr: ast.FunctionCall{Name: "collect", Args: []ast.Expr{ast.Variable{Name: "n"}}}},
	})
	recs := run(t, global, rt)
	require.Len(t, recs, 1)
	assert.Equal(t, []value.Value{value.Integer(0), value.Integer(0), value.Null{}, value.List{}}, recs[0].Values())

	grouped := pipe.NewAggregate(scan, []ast.ReturnItem{{Expr: ast.Variable{Name: "n"}}}, []ast.ReturnItem{{Expr: ast.CountStar{}}})
	assert.Empty(t, run(t, grouped, rt))
}

func TestAggregateDistinct(t *testing.T) {
	g := testutil.NewGraph()
	rt := newRuntime(g, nil)
	input := rows("x", value.Integer(1), value.Float(1), value.Integer(2), value.Null{})

	agg := pipe.NewAggregate(input, nil, []ast.ReturnItem{
		{Expr: ast.FunctionCall{Name: "count", Args: []ast.Expr{ast.Variable{Name: "x"}}, Distinct: true}, Alias: "n"},
		{Expr: ast.FunctionCall{Name: "count", Args: []ast.Expr{ast.Variable{Name: "x"}}}, Alias: "all"},
	})
	recs := run(t, agg, rt)
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]any{"n": int64(2), "all": int64(3)}, recs[0].Native())
}

func TestDistinct(t *testing.T) {
	rt := newRuntime(testutil.NewGraph(), nil)
	d := pipe.NewDistinct(rows("x", value.Integer(1), value.Float(1), value.String("1"), value.Null{}, value.Null{}))

	recs := run(t, d, rt)
	got := make([]value.Value, len(recs))
	for i, r := range recs {
		got[i], _ = r.Get("x")
	}
	assert.Equal(t, []value.Value{value.Integer(1), value.String("1"), value.Null{}}, got)

	// A second execution starts with a fresh seen set.
	assert.Len(t, run(t, d, rt), 3)
}

func TestOrderBy(t *testing.T) {
	rt := newRuntime(testutil.NewGraph(), nil)
	input := rows("x", value.Integer(3), value.Null{}, value.Float(1.5), value.Integer(1), value.String("a"))

	values := func(p pipe.Pipe) []value.Value {
		recs := run(t, p, rt)
		out := make([]value.Value, len(recs))
		for i, r := range recs {
			out[i], _ = r.Get("x")
		}
		return out
	}

	asc := pipe.NewOrderBy(input, []ast.SortItem{{Expr: ast.Variable{Name: "x"}}})
	assert.Equal(t, []value.Value{value.String("a"), value.Integer(1), value.Float(1.5), value.Integer(3), value.Null{}}, values(asc))

	desc := pipe.NewOrderBy(input, []ast.SortItem{{Expr: ast.Variable{Name: "x"}, Descending: true}})
	assert.Equal(t, []value.Value{value.Null{}, value.Integer(3), value.Float(1.5), value.Integer(1), value.String("a")}, values(desc))
	assert.Equal(t, "OrderBy(x DESC)", desc.String())
}

func TestOrderByIsStable(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, nil)

	// Alice (30) and Carol (30.0) tie; scan order decides.
	scan := pipe.NewPatternScan(node("p", "Person"), nil, nil)
	scanned := names(t, run(t, scan, rt), "p")
	sorted := names(t, run(t, pipe.NewOrderBy(scan, []ast.SortItem{{Expr: prop("p", "age"), Descending: true}}), rt), "p")

	var tied []string
	for _, n := range scanned {
		if n != "Bob" {
			tied = append(tied, n)
		}
	}
	assert.Equal(t, append(tied, "Bob"), sorted)
}

func TestSkipLimit(t *testing.T) {
	rt := newRuntime(testutil.NewGraph(), map[string]value.Value{"n": value.Integer(2), "bad": value.String("x")})
	input := rows("x", value.Integer(1), value.Integer(2), value.Integer(3), value.Integer(4))

	recs := run(t, pipe.NewLimit(pipe.NewSkip(input, lit(value.Integer(1))), ast.Parameter{Name: "n"}), rt)
	require.Len(t, recs, 2)
	first, _ := recs[0].Get("x")
	assert.Equal(t, value.Integer(2), first)

	assert.Empty(t, run(t, pipe.NewLimit(input, lit(value.Integer(0))), rt))
	assert.Empty(t, run(t, pipe.NewSkip(input, lit(value.Integer(10))), rt))

	for _, count := range []ast.Expr{lit(value.Integer(-1)), ast.Parameter{Name: "bad"}} {
		_, err := seq.Collect(pipe.NewLimit(input, count).Execute(rt))
		var re *pipe.RuntimeError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, pipe.ErrCodeInvalidArgument, re.Code)
	}
}

func TestLimitStopsPulling(t *testing.T) {
	rt := newRuntime(testutil.NewGraph(), nil)
	pulled := 0
	src := &countingPipe{n: 100, pulled: &pulled}

	recs := run(t, pipe.NewLimit(src, lit(value.Integer(3))), rt)
	assert.Len(t, recs, 3)
	assert.Equal(t, 3, pulled)
}

func TestPipesAreLazy(t *testing.T) {
	rt := newRuntime(testutil.NewGraph(), nil)
	pulled := 0
	src := &countingPipe{n: 5, pulled: &pulled}

	s := pipe.NewFilter(src, lit(value.Boolean(true))).Execute(rt)
	assert.Equal(t, 0, pulled)

	_, ok, err := seq.First(s)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, pulled)
}

func TestCartesianProduct(t *testing.T) {
	rt := newRuntime(testutil.NewGraph(), nil)
	p := pipe.NewCartesianProduct(
		rows("x", value.Integer(1), value.Integer(2)),
		rows("y", value.String("a"), value.String("b"), value.String("c")),
	)
	recs := run(t, p, rt)
	require.Len(t, recs, 6)
	assert.Equal(t, []string{"x", "y"}, p.Columns())
	assert.Equal(t, map[string]any{"x": int64(2), "y": "a"}, recs[3].Native())
}

func TestCreate(t *testing.T) {
	g, created := testutil.AliceBob(t)
	rt := newRuntime(g, nil)

	bob := node("b")
	bob.Properties = map[string]ast.Expr{"name": lit(value.String("Bob"))}
	dan := node("d", "Person")
	dan.Properties = map[string]ast.Expr{
		"name":  lit(value.String("Dan")),
		"email": lit(value.Null{}),
	}
	pattern := ast.Pattern{Parts: []ast.PatternPart{
		{
			Nodes: []ast.NodePattern{dan, node("b")},
			Rels:  []ast.RelPattern{{Variable: "r", Types: []string{"KNOWS"}, Direction: graph.Incoming}},
		},
		{
			Nodes: []ast.NodePattern{node("d"), node("e", "Pet")},
			Rels:  []ast.RelPattern{{Variable: "s", Types: []string{"OWNS"}, Direction: graph.Outgoing}},
		},
	}}
	create := pipe.NewCreate(pipe.NewPatternScan(bob, nil, nil), pattern)
	assert.Equal(t, []string{"b", "d", "r", "s", "e"}, create.Columns())

	recs := run(t, create, rt)
	require.Len(t, recs, 1)
	assert.Equal(t, pipe.Stats{NodesCreated: 2, RelationshipsCreated: 2}, *rt.Stats)

	d, _ := recs[0].Get("d")
	dn := d.(value.Node)
	assert.Equal(t, value.Map{"name": value.String("Dan")}, dn.Properties)

	r, _ := recs[0].Get("r")
	rel := r.(value.Relationship)
	assert.Equal(t, created.Nodes[1].ID, rel.StartID)
	assert.Equal(t, dn.ID, rel.EndID)

	s, _ := recs[0].Get("s")
	assert.Equal(t, dn.ID, s.(value.Relationship).StartID)

	pets := run(t, pipe.NewPatternScan(node("p", "Pet"), nil, nil), rt)
	assert.Len(t, pets, 1)
}

func TestCreateFromStart(t *testing.T) {
	g := testutil.NewGraph()
	rt := newRuntime(g, nil)

	pattern := ast.Pattern{Parts: []ast.PatternPart{{Nodes: []ast.NodePattern{node("n", "Thing")}}}}
	create := pipe.NewCreate(pipe.NewStart(), pattern)

	recs := run(t, create, rt)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, rt.Stats.NodesCreated)

	// Every execution creates again.
	run(t, create, rt)
	assert.Len(t, run(t, pipe.NewPatternScan(node("n", "Thing"), nil, nil), rt), 2)
}

func TestExecuteIsRestartable(t *testing.T) {
	g, _ := testutil.Social(t)
	rt := newRuntime(g, nil)

	rel := knows("r", graph.Outgoing)
	end := node("q")
	p := pipe.NewOrderBy(pipe.NewPatternScan(node("p"), &rel, &end), []ast.SortItem{{Expr: prop("q", "name")}})
	s := p.Execute(rt)

	first, err := seq.Collect(s)
	require.NoError(t, err)
	second, err := seq.Collect(s)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScanStopsOnCanceledContext(t *testing.T) {
	g, _ := testutil.Social(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rt := newRuntime(g, nil)
	rt.Ctx = ctx

	_, err := seq.Collect(pipe.NewPatternScan(node("p"), nil, nil).Execute(rt))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTreeAndTransform(t *testing.T) {
	var p pipe.Pipe = pipe.NewPatternScan(node("p", "Person"), nil, nil)
	p = pipe.NewFilter(p, eq(prop("p", "name"), lit(value.String("Alice"))))
	p = pipe.NewSelect(p, []string{"p"})

	assert.Equal(t, "Select(p)\n└─ Filter(p.name = \"Alice\")\n   └─ PatternScan((p:Person))", pipe.Tree(p).String())

	renamed := pipe.Transform(p, func(q pipe.Pipe) pipe.Pipe {
		if s, ok := q.(*pipe.Select); ok {
			return pipe.NewSelect(s.Input, []string{"p", "p"})
		}
		return q
	})
	assert.Equal(t, "Select(p, p)", renamed.String())
	assert.Equal(t, "Select(p)", p.String())

	assert.Panics(t, func() { p.WithChildren() })
}
