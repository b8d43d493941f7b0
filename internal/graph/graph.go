//go:generate mockgen -destination=mockgraph/mock_graph.go -package=mockgraph github.com/roach88/pathway/internal/graph Graph

package graph

import (
	"context"
	"errors"

	"github.com/roach88/pathway/internal/seq"
)

// ErrNotFound is returned by backends when an endpoint referenced during
// creation does not exist.
var ErrNotFound = errors.New("graph element not found")

// Graph is the contract every backend implements.
//
// Scans are lazy and restartable. Mutations (CreateElements, CreateIndex)
// must be serialized by the caller; no backend guarantees consistency for a
// scan that runs concurrently with a mutation.
type Graph interface {
	// Node looks up a node by ID. ok is false when it does not exist.
	Node(ctx context.Context, id ID) (n Node, ok bool, err error)

	// Relationship looks up a relationship by ID.
	Relationship(ctx context.Context, id ID) (r Relationship, ok bool, err error)

	// Nodes scans every node in unspecified order.
	Nodes(ctx context.Context) seq.Seq[Node]

	// Relationships scans every relationship as a canonical, non-reversed
	// triple.
	Relationships(ctx context.Context) seq.Seq[PathTriple]

	// Expand returns the one-hop triples around id following dir.
	Expand(ctx context.Context, id ID, dir Direction) seq.Seq[PathTriple]

	// CreateIndex registers a node property index. Creating an index that
	// already exists is a no-op.
	CreateIndex(ctx context.Context, idx Index) error

	// Indexes lists registered indexes.
	Indexes(ctx context.Context) ([]Index, error)

	// CreateElements creates nodes then relationships. Relationship
	// endpoints given as SpecNode refer to the IDs assigned in this call.
	CreateElements(ctx context.Context, nodes []NodeSpec, rels []RelationshipSpec) (Created, error)
}

// NodeFilterScanner is implemented by backends that can answer filtered node
// scans faster than a full scan, typically through a label or property
// index.
type NodeFilterScanner interface {
	FilterNodes(ctx context.Context, f NodeFilter) seq.Seq[Node]
}
