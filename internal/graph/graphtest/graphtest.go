// Package graphtest is a conformance suite for graph.Graph backends.
//
// A backend test calls Run with a constructor for an empty graph:
//
//	func TestConformance(t *testing.T) {
//	    graphtest.Run(t, func(t *testing.T) graph.Graph {
//	        return memgraph.New()
//	    })
//	}
package graphtest

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/value"
)

// Factory returns a new, empty graph. It may register cleanup on t.
type Factory func(t *testing.T) graph.Graph

// Run executes every conformance test against graphs built by newGraph.
func Run(t *testing.T, newGraph Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, g graph.Graph)
	}{
		{"CreateAndLookup", testCreateAndLookup},
		{"CreateResolvesSpecRefs", testCreateResolvesSpecRefs},
		{"CreateRejectsBadRefs", testCreateRejectsBadRefs},
		{"CreateElementsContinuation", testCreateElementsContinuation},
		{"ScansAreRestartable", testScansAreRestartable},
		{"EmptyFiltersMatchAll", testEmptyFiltersMatchAll},
		{"FilterNodes", testFilterNodes},
		{"IndexesDoNotChangeResults", testIndexesDoNotChangeResults},
		{"DirectionSymmetry", testDirectionSymmetry},
		{"SelfLoopOncePerDirection", testSelfLoopOncePerDirection},
		{"PathsMatchesGlobally", testPathsMatchesGlobally},
		{"PathsWithRangeBounds", testPathsWithRangeBounds},
		{"PathsWithRangeChain", testPathsWithRangeChain},
		{"PathsWithRangeInvariant", testPathsWithRangeInvariant},
		{"ExpandRange", testExpandRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newGraph(t))
		})
	}
}

func ptr(i int) *int { return &i }

func collect[T any](t *testing.T, s seq.Seq[T]) []T {
	t.Helper()
	out, err := seq.Collect(s)
	require.NoError(t, err)
	return out
}

// chain creates A-[r1]->B-[r2]->C and returns the created elements.
func chain(t *testing.T, g graph.Graph) graph.Created {
	t.Helper()
	created, err := g.CreateElements(context.Background(),
		[]graph.NodeSpec{
			{Labels: []string{"Stop"}, Properties: value.Map{"name": value.String("A")}},
			{Labels: []string{"Stop"}, Properties: value.Map{"name": value.String("B")}},
			{Labels: []string{"Stop"}, Properties: value.Map{"name": value.String("C")}},
		},
		[]graph.RelationshipSpec{
			{Type: "NEXT", Start: graph.SpecNode(0), End: graph.SpecNode(1)},
			{Type: "NEXT", Start: graph.SpecNode(1), End: graph.SpecNode(2)},
		})
	require.NoError(t, err)
	return created
}

// social creates Alice-[:KNOWS]->Bob, Bob-[:KNOWS]->Carol and
// Alice-[:LIKES]->Carol.
func social(t *testing.T, g graph.Graph) graph.Created {
	t.Helper()
	created, err := g.CreateElements(context.Background(),
		[]graph.NodeSpec{
			{Labels: []string{"Person"}, Properties: value.Map{"name": value.String("Alice"), "age": value.Integer(30)}},
			{Labels: []string{"Person"}, Properties: value.Map{"name": value.String("Bob"), "age": value.Integer(25)}},
			{Labels: []string{"Person", "Admin"}, Properties: value.Map{"name": value.String("Carol"), "age": value.Float(30)}},
			{Labels: []string{"City"}, Properties: value.Map{"name": value.String("Paris")}},
		},
		[]graph.RelationshipSpec{
			{Type: "KNOWS", Start: graph.SpecNode(0), End: graph.SpecNode(1), Properties: value.Map{"since": value.Integer(2020)}},
			{Type: "KNOWS", Start: graph.SpecNode(1), End: graph.SpecNode(2)},
			{Type: "LIKES", Start: graph.SpecNode(0), End: graph.SpecNode(2)},
		})
	require.NoError(t, err)
	return created
}

func nodeIDs(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = string(n.ID)
	}
	sort.Strings(out)
	return out
}

func tripleKeys(ts []graph.PathTriple) []string {
	out := make([]string, len(ts))
	for i, tr := range ts {
		out[i] = tr.String()
	}
	sort.Strings(out)
	return out
}

func testCreateAndLookup(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	created := social(t, g)
	require.Len(t, created.Nodes, 4)
	require.Len(t, created.Relationships, 3)

	alice := created.Nodes[0]
	n, ok, err := g.Node(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, alice.ID, n.ID)
	assert.Equal(t, []string{"Person"}, n.Labels)
	assert.Equal(t, value.String("Alice"), n.Properties["name"])

	knows := created.Relationships[0]
	r, ok, err := g.Relationship(ctx, knows.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "KNOWS", r.RelType)
	assert.Equal(t, alice.ID, r.StartID)
	assert.Equal(t, created.Nodes[1].ID, r.EndID)
	assert.Equal(t, value.Integer(2020), r.Properties["since"])

	_, ok, err = g.Node(ctx, "no-such-node")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = g.Relationship(ctx, "no-such-rel")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testCreateResolvesSpecRefs(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	first, err := g.CreateElements(ctx, []graph.NodeSpec{{Labels: []string{"Hub"}}}, nil)
	require.NoError(t, err)
	hub := first.Nodes[0].ID

	second, err := g.CreateElements(ctx,
		[]graph.NodeSpec{{Labels: []string{"Leaf"}}},
		[]graph.RelationshipSpec{
			{Type: "LINK", Start: graph.ExistingNode(hub), End: graph.SpecNode(0)},
		})
	require.NoError(t, err)
	require.Len(t, second.Relationships, 1)
	assert.Equal(t, hub, second.Relationships[0].StartID)
	assert.Equal(t, second.Nodes[0].ID, second.Relationships[0].EndID)
}

func testCreateRejectsBadRefs(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	_, err := g.CreateElements(ctx,
		[]graph.NodeSpec{{}},
		[]graph.RelationshipSpec{{Type: "X", Start: graph.SpecNode(0), End: graph.SpecNode(3)}})
	require.Error(t, err)

	_, err = g.CreateElements(ctx,
		[]graph.NodeSpec{{}},
		[]graph.RelationshipSpec{{Type: "X", Start: graph.SpecNode(0), End: graph.ExistingNode("missing")}})
	require.Error(t, err)

	nodes := collect(t, g.Nodes(ctx))
	assert.Empty(t, nodes, "a rejected batch must not create anything")
}

func testCreateElementsContinuation(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	count, err := graph.CreateElements(ctx, g,
		[]graph.NodeSpec{{}, {}},
		[]graph.RelationshipSpec{{Type: "T", Start: graph.SpecNode(0), End: graph.SpecNode(1)}},
		func(c graph.Created) (int, error) {
			return len(c.Nodes) + len(c.Relationships), nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func testScansAreRestartable(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	social(t, g)

	nodes := g.Nodes(ctx)
	first := collect(t, nodes)
	second := collect(t, nodes)
	assert.Len(t, first, 4)
	assert.Equal(t, nodeIDs(first), nodeIDs(second))

	rels := g.Relationships(ctx)
	assert.Len(t, collect(t, rels), 3)
	assert.Len(t, collect(t, rels), 3)
	for _, tr := range collect(t, rels) {
		assert.False(t, tr.Reversed, "Relationships yields canonical triples")
		assert.Equal(t, tr.Rel.StartID, tr.Start.ID)
		assert.Equal(t, tr.Rel.EndID, tr.End.ID)
	}
}

func testEmptyFiltersMatchAll(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	social(t, g)

	for _, n := range collect(t, g.Nodes(ctx)) {
		assert.True(t, graph.NodeFilter{}.Matches(n))
	}
	for _, tr := range collect(t, g.Relationships(ctx)) {
		assert.True(t, graph.RelationshipFilter{}.Matches(tr.Rel))
	}
	assert.Len(t, collect(t, graph.FilterNodes(ctx, g, graph.NodeFilter{})), 4)
}

func testFilterNodes(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	created := social(t, g)
	alice, bob, carol := created.Nodes[0], created.Nodes[1], created.Nodes[2]

	tests := []struct {
		name   string
		filter graph.NodeFilter
		want   []graph.Node
	}{
		{"label", graph.NodeFilter{Labels: []string{"Person"}}, []graph.Node{alice, bob, carol}},
		{"two labels", graph.NodeFilter{Labels: []string{"Person", "Admin"}}, []graph.Node{carol}},
		{"property", graph.NodeFilter{Properties: value.Map{"name": value.String("Bob")}}, []graph.Node{bob}},
		{"numeric equality across kinds", graph.NodeFilter{
			Labels:     []string{"Person"},
			Properties: value.Map{"age": value.Integer(30)},
		}, []graph.Node{alice, carol}},
		{"no match", graph.NodeFilter{Labels: []string{"Robot"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, graph.FilterNodes(ctx, g, tt.filter))
			assert.Equal(t, nodeIDs(tt.want), nodeIDs(got))
		})
	}
}

func testIndexesDoNotChangeResults(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	social(t, g)
	filter := graph.NodeFilter{Labels: []string{"Person"}, Properties: value.Map{"age": value.Integer(30)}}

	before := nodeIDs(collect(t, graph.FilterNodes(ctx, g, filter)))

	idx := graph.Index{Label: "Person", Property: "age"}
	require.NoError(t, g.CreateIndex(ctx, idx))
	require.NoError(t, g.CreateIndex(ctx, idx), "creating an existing index is a no-op")

	indexes, err := g.Indexes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []graph.Index{idx}, indexes)

	after := nodeIDs(collect(t, graph.FilterNodes(ctx, g, filter)))
	assert.Equal(t, before, after)

	_, err = g.CreateElements(ctx, []graph.NodeSpec{
		{Labels: []string{"Person"}, Properties: value.Map{"age": value.Float(30)}},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, collect(t, graph.FilterNodes(ctx, g, filter)), len(before)+1, "index tracks new nodes")
}

func testDirectionSymmetry(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	created := social(t, g)
	alice, bob := created.Nodes[0], created.Nodes[1]
	knows := created.Relationships[0]

	out := collect(t, g.Expand(ctx, alice.ID, graph.Outgoing))
	var found *graph.PathTriple
	for i := range out {
		if out[i].Rel.ID == knows.ID {
			found = &out[i]
		}
		assert.Equal(t, alice.ID, out[i].Start.ID)
		assert.False(t, out[i].Reversed)
	}
	require.NotNil(t, found, "expand(A, OUTGOING) contains r")

	in := collect(t, g.Expand(ctx, bob.ID, graph.Incoming))
	assert.Contains(t, in, found.Revert(), "expand(B, INCOMING) contains r reverted")
	for _, tr := range in {
		assert.Equal(t, bob.ID, tr.Start.ID)
		assert.True(t, tr.Reversed)
	}

	for _, n := range created.Nodes {
		both := collect(t, g.Expand(ctx, n.ID, graph.Both))
		union := append(collect(t, g.Expand(ctx, n.ID, graph.Outgoing)), collect(t, g.Expand(ctx, n.ID, graph.Incoming))...)
		assert.Equal(t, tripleKeys(union), tripleKeys(both), "BOTH is the union for %s", n.ID)
	}
}

func testSelfLoopOncePerDirection(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	created, err := g.CreateElements(ctx,
		[]graph.NodeSpec{{Labels: []string{"Loop"}}},
		[]graph.RelationshipSpec{{Type: "SELF", Start: graph.SpecNode(0), End: graph.SpecNode(0)}})
	require.NoError(t, err)
	id := created.Nodes[0].ID

	assert.Len(t, collect(t, g.Expand(ctx, id, graph.Outgoing)), 1)
	assert.Len(t, collect(t, g.Expand(ctx, id, graph.Incoming)), 1)

	both := collect(t, g.Expand(ctx, id, graph.Both))
	require.Len(t, both, 2)
	assert.NotEqual(t, both[0].Reversed, both[1].Reversed)

	all := graph.NodeFilter{}
	anyRel := graph.RelationshipFilter{}
	assert.Len(t, collect(t, graph.Paths(ctx, g, all, anyRel, all, graph.Outgoing)), 1)
	assert.Len(t, collect(t, graph.Paths(ctx, g, all, anyRel, all, graph.Both)), 2, "bulk matching follows the same rule")
}

func testPathsMatchesGlobally(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	created := social(t, g)
	alice, bob, carol := created.Nodes[0], created.Nodes[1], created.Nodes[2]
	person := graph.NodeFilter{Labels: []string{"Person"}}
	knows := graph.RelationshipFilter{Types: []string{"KNOWS"}}

	out := collect(t, graph.Paths(ctx, g, person, knows, person, graph.Outgoing))
	assert.Equal(t, sortedStrings([]string{
		"(" + string(alice.ID) + ")-[" + string(created.Relationships[0].ID) + "]->(" + string(bob.ID) + ")",
		"(" + string(bob.ID) + ")-[" + string(created.Relationships[1].ID) + "]->(" + string(carol.ID) + ")",
	}), tripleKeys(out))

	in := collect(t, graph.Paths(ctx, g, graph.NodeFilter{Properties: value.Map{"name": value.String("Carol")}}, graph.RelationshipFilter{}, person, graph.Incoming))
	require.Len(t, in, 2)
	for _, tr := range in {
		assert.Equal(t, carol.ID, tr.Start.ID)
		assert.True(t, tr.Reversed)
	}

	both := collect(t, graph.Paths(ctx, g, person, knows, person, graph.Both))
	assert.Len(t, both, 4)
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}

func testPathsWithRangeBounds(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	all := graph.NodeFilter{}
	anyRel := graph.RelationshipFilter{}

	_, err := g.CreateElements(ctx, []graph.NodeSpec{{}, {}}, nil)
	require.NoError(t, err)
	assert.Empty(t, collect(t, graph.PathsWithRange(ctx, g, all, anyRel, all, graph.Outgoing, nil, nil)),
		"no relationships means no paths")

	chain(t, g)
	tests := []struct {
		name         string
		lower, upper *int
	}{
		{"lower above upper", ptr(5), ptr(3)},
		{"lower above ceiling", ptr(2000), nil},
		{"negative lower", ptr(-1), ptr(2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, collect(t, graph.PathsWithRange(ctx, g, all, anyRel, all, graph.Outgoing, tt.lower, tt.upper)))
		})
	}

	t.Run("upper clamped to ceiling", func(t *testing.T) {
		got := collect(t, graph.PathsWithRange(ctx, g, all, anyRel, all, graph.Outgoing, nil, ptr(5000)))
		assert.Len(t, got, 3)
	})

	t.Run("lower zero yields zero-length paths", func(t *testing.T) {
		stop := graph.NodeFilter{Labels: []string{"Stop"}}
		got := collect(t, graph.PathsWithRange(ctx, g, stop, anyRel, stop, graph.Outgoing, ptr(0), ptr(0)))
		require.Len(t, got, 3)
		for _, p := range got {
			assert.Equal(t, 0, p.Length())
			assert.Len(t, p.Nodes, 1)
		}
	})
}

func testPathsWithRangeChain(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	created := chain(t, g)
	a, b, c := created.Nodes[0], created.Nodes[1], created.Nodes[2]
	r1, r2 := created.Relationships[0], created.Relationships[1]
	startA := graph.NodeFilter{Properties: value.Map{"name": value.String("A")}}

	got := collect(t, graph.PathsWithRange(ctx, g, startA, graph.RelationshipFilter{}, graph.NodeFilter{}, graph.Outgoing, ptr(1), ptr(2)))
	require.Len(t, got, 2)

	assert.Equal(t, []graph.ID{a.ID, b.ID}, pathNodeIDs(got[0]))
	assert.Equal(t, []graph.ID{r1.ID}, pathRelIDs(got[0]))
	assert.Equal(t, []graph.ID{a.ID, b.ID, c.ID}, pathNodeIDs(got[1]))
	assert.Equal(t, []graph.ID{r1.ID, r2.ID}, pathRelIDs(got[1]))

	exact := collect(t, graph.PathsWithRange(ctx, g, startA, graph.RelationshipFilter{}, graph.NodeFilter{}, graph.Outgoing, ptr(2), ptr(2)))
	require.Len(t, exact, 1)
	assert.Equal(t, 2, exact[0].Length())

	endFilter := graph.NodeFilter{Properties: value.Map{"name": value.String("C")}}
	filtered := collect(t, graph.PathsWithRange(ctx, g, startA, graph.RelationshipFilter{}, endFilter, graph.Outgoing, ptr(1), ptr(2)))
	assert.Empty(t, filtered, "A->B fails the end filter, so nothing reaches C")
}

func testPathsWithRangeInvariant(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	social(t, g)
	chain(t, g)
	all := graph.NodeFilter{}

	for _, dir := range []graph.Direction{graph.Outgoing, graph.Incoming, graph.Both} {
		t.Run(dir.String(), func(t *testing.T) {
			paths := collect(t, graph.PathsWithRange(ctx, g, all, graph.RelationshipFilter{}, all, dir, ptr(1), ptr(3)))
			require.NotEmpty(t, paths)
			for _, p := range paths {
				k := p.Length()
				require.Len(t, p.Nodes, k+1)
				require.Len(t, p.Relationships, k)
				for i, r := range p.Relationships {
					forward := r.StartID == p.Nodes[i].ID && r.EndID == p.Nodes[i+1].ID
					backward := r.EndID == p.Nodes[i].ID && r.StartID == p.Nodes[i+1].ID
					switch dir {
					case graph.Outgoing:
						assert.True(t, forward, "hop %d of %s", i, p)
					case graph.Incoming:
						assert.True(t, backward, "hop %d of %s", i, p)
					default:
						assert.True(t, forward || backward, "hop %d of %s", i, p)
					}
				}
			}
		})
	}
}

func testExpandRange(t *testing.T, g graph.Graph) {
	ctx := context.Background()
	created := chain(t, g)
	a, c := created.Nodes[0], created.Nodes[2]

	got := collect(t, graph.ExpandRange(ctx, g, a.ID, graph.RelationshipFilter{}, graph.NodeFilter{}, graph.Outgoing, ptr(0), nil))
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Length())
	assert.Equal(t, 1, got[1].Length())
	assert.Equal(t, 2, got[2].Length())

	back := collect(t, graph.ExpandRange(ctx, g, c.ID, graph.RelationshipFilter{Types: []string{"NEXT"}}, graph.NodeFilter{}, graph.Incoming, ptr(2), ptr(2)))
	require.Len(t, back, 1)
	assert.Equal(t, []graph.ID{c.ID, created.Nodes[1].ID, a.ID}, pathNodeIDs(back[0]))

	assert.Empty(t, collect(t, graph.ExpandRange(ctx, g, a.ID, graph.RelationshipFilter{}, graph.NodeFilter{}, graph.Outgoing, ptr(3), ptr(1))))
}

func pathNodeIDs(p graph.Path) []graph.ID {
	out := make([]graph.ID, len(p.Nodes))
	for i, n := range p.Nodes {
		out[i] = n.ID
	}
	return out
}

func pathRelIDs(p graph.Path) []graph.ID {
	out := make([]graph.ID, len(p.Relationships))
	for i, r := range p.Relationships {
		out[i] = r.ID
	}
	return out
}
