// Package memgraph is a map-backed, in-memory graph.Graph.
//
// It keeps insertion order for every scan so that results and plan output
// are reproducible, maintains a label index and any declared property
// indexes, and answers filtered node scans through them.
package memgraph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/value"
)

// ErrInvalidSpec is returned when a creation spec is malformed.
var ErrInvalidSpec = errors.New("invalid element spec")

// Graph is an in-memory graph. The zero value is not usable; call New.
//
// Thread-safety: reads and writes are guarded by an RWMutex. A scan
// snapshots the element list when iteration starts.
type Graph struct {
	mu   sync.RWMutex
	ids  graph.IDGenerator
	name string

	nodes     map[graph.ID]graph.Node
	rels      map[graph.ID]graph.Relationship
	nodeOrder []graph.ID
	relOrder  []graph.ID

	nodesByLabel map[string][]graph.ID
	outgoing     map[graph.ID][]graph.ID
	incoming     map[graph.ID][]graph.ID

	indexes   []graph.Index
	propIndex map[graph.Index]map[string][]graph.ID
}

// Option configures a Graph.
type Option func(*Graph)

// WithIDGenerator sets the generator used for created elements.
// Default is graph.UUIDv7Generator.
func WithIDGenerator(gen graph.IDGenerator) Option {
	return func(g *Graph) {
		g.ids = gen
	}
}

// WithName labels the graph in String output.
func WithName(name string) Option {
	return func(g *Graph) {
		g.name = name
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		ids:          graph.UUIDv7Generator{},
		name:         "memgraph",
		nodes:        make(map[graph.ID]graph.Node),
		rels:         make(map[graph.ID]graph.Relationship),
		nodesByLabel: make(map[string][]graph.ID),
		outgoing:     make(map[graph.ID][]graph.ID),
		incoming:     make(map[graph.ID][]graph.ID),
		propIndex:    make(map[graph.Index]map[string][]graph.ID),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// String returns the graph name.
func (g *Graph) String() string {
	return g.name
}

// Node implements graph.Graph.
func (g *Graph) Node(_ context.Context, id graph.ID) (graph.Node, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	return n, ok, nil
}

// Relationship implements graph.Graph.
func (g *Graph) Relationship(_ context.Context, id graph.ID) (graph.Relationship, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.rels[id]
	return r, ok, nil
}

// Nodes implements graph.Graph.
func (g *Graph) Nodes(ctx context.Context) seq.Seq[graph.Node] {
	return seq.Defer(func() seq.Seq[graph.Node] {
		g.mu.RLock()
		defer g.mu.RUnlock()
		return g.nodeSnapshot(ctx, g.nodeOrder)
	})
}

// Relationships implements graph.Graph.
func (g *Graph) Relationships(ctx context.Context) seq.Seq[graph.PathTriple] {
	return seq.Defer(func() seq.Seq[graph.PathTriple] {
		g.mu.RLock()
		defer g.mu.RUnlock()
		return g.tripleSnapshot(ctx, g.relOrder, false)
	})
}

// Expand implements graph.Graph. For Both, outgoing triples come first.
func (g *Graph) Expand(ctx context.Context, id graph.ID, dir graph.Direction) seq.Seq[graph.PathTriple] {
	return seq.Defer(func() seq.Seq[graph.PathTriple] {
		g.mu.RLock()
		defer g.mu.RUnlock()

		switch dir {
		case graph.Outgoing:
			return g.tripleSnapshot(ctx, g.outgoing[id], false)
		case graph.Incoming:
			return g.tripleSnapshot(ctx, g.incoming[id], true)
		default:
			return seq.Concat(
				g.tripleSnapshot(ctx, g.outgoing[id], false),
				g.tripleSnapshot(ctx, g.incoming[id], true),
			)
		}
	})
}

// FilterNodes implements graph.NodeFilterScanner. A declared property index
// is preferred, then the label index, then a full scan.
func (g *Graph) FilterNodes(ctx context.Context, f graph.NodeFilter) seq.Seq[graph.Node] {
	return seq.Defer(func() seq.Seq[graph.Node] {
		g.mu.RLock()
		defer g.mu.RUnlock()

		candidates := g.candidates(f)
		return seq.Filter(g.nodeSnapshot(ctx, candidates), func(n graph.Node) (bool, error) {
			return f.Matches(n), nil
		})
	})
}

// candidates must be called with mu held.
func (g *Graph) candidates(f graph.NodeFilter) []graph.ID {
	for _, label := range f.Labels {
		for prop, v := range f.Properties {
			bucket, ok := g.propIndex[graph.Index{Label: label, Property: prop}]
			if !ok {
				continue
			}
			key, ok := graph.IndexKey(v)
			if !ok {
				continue
			}
			return bucket[key]
		}
	}
	if len(f.Labels) > 0 {
		return g.nodesByLabel[f.Labels[0]]
	}
	return g.nodeOrder
}

// nodeSnapshot copies the nodes for ids; must be called with mu held.
func (g *Graph) nodeSnapshot(ctx context.Context, ids []graph.ID) seq.Seq[graph.Node] {
	out := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.nodes[id])
	}
	return withContext(ctx, seq.FromSlice(out))
}

// tripleSnapshot resolves relationship ids into triples; must be called with
// mu held.
func (g *Graph) tripleSnapshot(ctx context.Context, ids []graph.ID, reversed bool) seq.Seq[graph.PathTriple] {
	out := make([]graph.PathTriple, 0, len(ids))
	for _, id := range ids {
		r := g.rels[id]
		t := graph.PathTriple{Start: g.nodes[r.StartID], Rel: r, End: g.nodes[r.EndID]}
		if reversed {
			t = t.Revert()
		}
		out = append(out, t)
	}
	return withContext(ctx, seq.FromSlice(out))
}

// withContext stops a scan with ctx.Err() once the context is done.
func withContext[T any](ctx context.Context, s seq.Seq[T]) seq.Seq[T] {
	return func(yield func(T, error) bool) {
		for item, err := range s {
			if cerr := ctx.Err(); cerr != nil {
				var zero T
				yield(zero, cerr)
				return
			}
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}

// CreateIndex implements graph.Graph.
func (g *Graph) CreateIndex(_ context.Context, idx graph.Index) error {
	if idx.Label == "" || idx.Property == "" {
		return fmt.Errorf("%w: index needs a label and a property", ErrInvalidSpec)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.propIndex[idx]; exists {
		return nil
	}
	bucket := make(map[string][]graph.ID)
	for _, id := range g.nodesByLabel[idx.Label] {
		if v, ok := g.nodes[id].Properties[idx.Property]; ok {
			if key, ok := graph.IndexKey(v); ok {
				bucket[key] = append(bucket[key], id)
			}
		}
	}
	g.propIndex[idx] = bucket
	g.indexes = append(g.indexes, idx)
	return nil
}

// Indexes implements graph.Graph.
func (g *Graph) Indexes(_ context.Context) ([]graph.Index, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return slices.Clone(g.indexes), nil
}

// CreateElements implements graph.Graph. The batch is validated up front so
// a malformed spec leaves the graph untouched.
func (g *Graph) CreateElements(_ context.Context, nodes []graph.NodeSpec, rels []graph.RelationshipSpec) (graph.Created, error) {
	if err := graph.ValidateSpecs(nodes, rels); err != nil {
		return graph.Created{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	nodeIDs := make([]graph.ID, len(nodes))
	for i := range nodes {
		nodeIDs[i] = g.ids.NewID()
	}
	for i, spec := range rels {
		for _, ref := range []graph.NodeRef{spec.Start, spec.End} {
			id, _ := ref.Resolve(nodeIDs)
			if _, exists := g.nodes[id]; !exists && !slices.Contains(nodeIDs, id) {
				return graph.Created{}, fmt.Errorf("relationship %d: node %s: %w", i, id, graph.ErrNotFound)
			}
		}
	}

	created := graph.Created{
		Nodes:         make([]graph.Node, 0, len(nodes)),
		Relationships: make([]graph.Relationship, 0, len(rels)),
	}
	for i, spec := range nodes {
		n := graph.Node{
			ID:         nodeIDs[i],
			Labels:     dedupe(spec.Labels),
			Properties: copyProps(spec.Properties),
		}
		g.insertNode(n)
		created.Nodes = append(created.Nodes, n)
	}
	for _, spec := range rels {
		start, _ := spec.Start.Resolve(nodeIDs)
		end, _ := spec.End.Resolve(nodeIDs)
		r := graph.Relationship{
			ID:         g.ids.NewID(),
			StartID:    start,
			EndID:      end,
			RelType:    spec.Type,
			Properties: copyProps(spec.Properties),
		}
		g.insertRelationship(r)
		created.Relationships = append(created.Relationships, r)
	}
	return created, nil
}

// insertNode must be called with mu held.
func (g *Graph) insertNode(n graph.Node) {
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	for _, label := range n.Labels {
		g.nodesByLabel[label] = append(g.nodesByLabel[label], n.ID)
	}
	for idx, bucket := range g.propIndex {
		if !n.HasLabel(idx.Label) {
			continue
		}
		if v, ok := n.Properties[idx.Property]; ok {
			if key, ok := graph.IndexKey(v); ok {
				bucket[key] = append(bucket[key], n.ID)
			}
		}
	}
}

// insertRelationship must be called with mu held.
func (g *Graph) insertRelationship(r graph.Relationship) {
	g.rels[r.ID] = r
	g.relOrder = append(g.relOrder, r.ID)
	g.outgoing[r.StartID] = append(g.outgoing[r.StartID], r.ID)
	g.incoming[r.EndID] = append(g.incoming[r.EndID], r.ID)
}

func dedupe(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

func copyProps(props value.Map) value.Map {
	out := make(value.Map, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

var (
	_ graph.Graph             = (*Graph)(nil)
	_ graph.NodeFilterScanner = (*Graph)(nil)
)
