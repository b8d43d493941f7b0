package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/graph/memgraph"
	"github.com/roach88/pathway/internal/value"
)

// NewGraph returns an empty in-memory graph whose elements are named id1,
// id2, ... in creation order.
func NewGraph() *memgraph.Graph {
	return memgraph.New(memgraph.WithIDGenerator(NewDeterministicIDs("id")))
}

// AliceBob returns the two-person graph
//
//	(Alice:Person)-[:KNOWS]->(Bob:Person)
//
// with IDs id1 (Alice), id2 (Bob) and id3 (the relationship).
func AliceBob(t testing.TB) (*memgraph.Graph, graph.Created) {
	t.Helper()
	g := NewGraph()
	created, err := g.CreateElements(context.Background(),
		[]graph.NodeSpec{
			{Labels: []string{"Person"}, Properties: value.Map{"name": value.String("Alice")}},
			{Labels: []string{"Person"}, Properties: value.Map{"name": value.String("Bob")}},
		},
		[]graph.RelationshipSpec{
			{Type: "KNOWS", Start: graph.SpecNode(0), End: graph.SpecNode(1)},
		})
	require.NoError(t, err)
	return g, created
}

// Social returns a small social network:
//
//	Alice(30) -[:KNOWS {since: 2020}]-> Bob(25) -[:KNOWS]-> Carol(30.0, Admin)
//	Alice -[:LIKES]-> Carol
//	Alice -[:LIVES_IN]-> Paris:City
//
// Nodes are id1..id4 in the order above; relationships follow.
func Social(t testing.TB) (*memgraph.Graph, graph.Created) {
	t.Helper()
	g := NewGraph()
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
			{Type: "LIVES_IN", Start: graph.SpecNode(0), End: graph.SpecNode(3)},
		})
	require.NoError(t, err)
	return g, created
}

// Chain returns n Stop nodes named A, B, C, ... joined by NEXT
// relationships in order.
func Chain(t testing.TB, n int) (*memgraph.Graph, graph.Created) {
	t.Helper()
	require.True(t, n > 0 && n <= 26, "chain length must be 1..26")
	g := NewGraph()
	nodes := make([]graph.NodeSpec, n)
	for i := range nodes {
		nodes[i] = graph.NodeSpec{
			Labels:     []string{"Stop"},
			Properties: value.Map{"name": value.String(fmt.Sprintf("%c", 'A'+i)), "pos": value.Integer(i)},
		}
	}
	rels := make([]graph.RelationshipSpec, n-1)
	for i := range rels {
		rels[i] = graph.RelationshipSpec{Type: "NEXT", Start: graph.SpecNode(i), End: graph.SpecNode(i + 1)}
	}
	created, err := g.CreateElements(context.Background(), nodes, rels)
	require.NoError(t, err)
	return g, created
}
