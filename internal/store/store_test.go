package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/graph/graphtest"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/value"
)

func TestConformance(t *testing.T) {
	graphtest.Run(t, func(t *testing.T) graph.Graph {
		return createTestStore(t)
	})
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.pragma(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	for range 3 {
		s, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.db")
	day := value.NewDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	s, err := Open(path, WithIDGenerator(graph.NewSequentialGenerator("n")))
	require.NoError(t, err)
	created, err := s.CreateElements(ctx,
		[]graph.NodeSpec{
			{Labels: []string{"Person", "Person", "Admin"}, Properties: value.Map{
				"name":   value.String("Carol"),
				"age":    value.Float(30),
				"born":   day,
				"nicks":  value.List{value.String("C"), value.Integer(3)},
				"active": value.Boolean(true),
			}},
			{},
		},
		[]graph.RelationshipSpec{
			{Type: "KNOWS", Start: graph.SpecNode(0), End: graph.SpecNode(1), Properties: value.Map{"since": value.Integer(2020)}},
		})
	require.NoError(t, err)
	require.NoError(t, s.CreateIndex(ctx, graph.Index{Label: "Person", Property: "name"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	carol, ok, err := s.Node(ctx, created.Nodes[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created.Nodes[0], carol)
	assert.Equal(t, []string{"Person", "Admin"}, carol.Labels, "labels are deduplicated in order")
	assert.Equal(t, value.Float(30), carol.Properties["age"], "float kind survives")
	assert.Equal(t, day, carol.Properties["born"])

	empty, ok, err := s.Node(ctx, created.Nodes[1].ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, empty.Labels)
	assert.Empty(t, empty.Properties)

	rel, ok, err := s.Relationship(ctx, created.Relationships[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created.Relationships[0], rel)

	indexes, err := s.Indexes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []graph.Index{{Label: "Person", Property: "name"}}, indexes)

	nodes, rels, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, rels)
}

func TestCreateIndexBackfills(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.CreateElements(ctx, []graph.NodeSpec{
		{Labels: []string{"Person"}, Properties: value.Map{"age": value.Integer(30)}},
		{Labels: []string{"Person"}, Properties: value.Map{"age": value.Float(30)}},
		{Labels: []string{"Person"}, Properties: value.Map{"age": value.List{value.Integer(30)}}},
		{Labels: []string{"Robot"}, Properties: value.Map{"age": value.Integer(30)}},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateIndex(ctx, graph.Index{Label: "Person", Property: "age"}))

	var entries int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM index_entries`).Scan(&entries))
	assert.Equal(t, 2, entries, "lists are not indexed and other labels are skipped")

	query, args, err := s.candidateQuery(ctx, graph.NodeFilter{
		Labels:     []string{"Person"},
		Properties: value.Map{"age": value.Integer(30)},
	})
	require.NoError(t, err)
	assert.Contains(t, query, "index_entries")
	assert.Len(t, args, 3)

	got, err := seq.Collect(s.FilterNodes(ctx, graph.NodeFilter{
		Labels:     []string{"Person"},
		Properties: value.Map{"age": value.Integer(30)},
	}))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCreateIndexRejectsIncompleteDeclaration(t *testing.T) {
	s := createTestStore(t)
	err := s.CreateIndex(context.Background(), graph.Index{Label: "Person"})
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestCandidateQueryFallsBackToLabels(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	query, args, err := s.candidateQuery(ctx, graph.NodeFilter{
		Labels:     []string{"Person"},
		Properties: value.Map{"age": value.Integer(30)},
	})
	require.NoError(t, err)
	assert.Contains(t, query, "node_labels")
	assert.Equal(t, []any{"Person"}, args)

	query, args, err = s.candidateQuery(ctx, graph.NodeFilter{})
	require.NoError(t, err)
	assert.NotContains(t, query, "node_labels")
	assert.Empty(t, args)
}

func TestWriteDuringScan(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	_, err := s.CreateElements(ctx, []graph.NodeSpec{{Labels: []string{"A"}}, {Labels: []string{"A"}}}, nil)
	require.NoError(t, err)

	for n, err := range s.Nodes(ctx) {
		require.NoError(t, err)
		_, err := s.CreateElements(ctx,
			[]graph.NodeSpec{{Labels: []string{"B"}}},
			[]graph.RelationshipSpec{{Type: "LINK", Start: graph.ExistingNode(n.ID), End: graph.SpecNode(0)}})
		require.NoError(t, err)
	}

	nodes, rels, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, nodes, "the scan is a snapshot taken when iteration starts")
	assert.Equal(t, 2, rels)
}

func TestScanStopsOnCanceledContext(t *testing.T) {
	s := createTestStore(t)
	_, err := s.CreateElements(context.Background(), []graph.NodeSpec{{}, {}}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = seq.Collect(s.Nodes(ctx))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "sqlite:"+path, s.String())
}
