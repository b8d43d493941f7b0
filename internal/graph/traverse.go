package graph

import (
	"context"
	"fmt"

	"github.com/roach88/pathway/internal/seq"
)

// MaxHops is the hard ceiling on variable-length traversal. It bounds the
// search even when a query leaves the upper bound open.
const MaxHops = 1000

// ResolveBounds applies the variable-length defaults: a missing lower bound
// is 1, a missing upper bound is MaxHops, and an upper bound above MaxHops is
// clamped. ok is false when no hop count can satisfy the bounds (negative or
// above-ceiling lower bound, or lower > upper); callers yield nothing in
// that case.
func ResolveBounds(lower, upper *int) (lo, hi int, ok bool) {
	lo, hi = 1, MaxHops
	if lower != nil {
		lo = *lower
	}
	if upper != nil {
		hi = min(*upper, MaxHops)
	}
	if lo < 0 || lo > MaxHops || lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// FilterNodes scans the nodes matching f, using the backend's
// NodeFilterScanner when it has one.
func FilterNodes(ctx context.Context, g Graph, f NodeFilter) seq.Seq[Node] {
	if s, ok := g.(NodeFilterScanner); ok {
		return s.FilterNodes(ctx, f)
	}
	if f.IsEmpty() {
		return g.Nodes(ctx)
	}
	return seq.Filter(g.Nodes(ctx), func(n Node) (bool, error) {
		return f.Matches(n), nil
	})
}

// ExpandFiltered is Expand restricted to hops whose relationship matches rel
// and whose far endpoint matches end.
func ExpandFiltered(ctx context.Context, g Graph, id ID, rel RelationshipFilter, end NodeFilter, dir Direction) seq.Seq[PathTriple] {
	return seq.Filter(g.Expand(ctx, id, dir), func(t PathTriple) (bool, error) {
		return rel.Matches(t.Rel) && end.Matches(t.End), nil
	})
}

// Orient applies the direction rule to a stream of canonical triples.
func Orient(triples seq.Seq[PathTriple], dir Direction) seq.Seq[PathTriple] {
	switch dir {
	case Incoming:
		return seq.Map(triples, func(t PathTriple) (PathTriple, error) {
			return t.Revert(), nil
		})
	case Both:
		return seq.FlatMap(triples, func(t PathTriple) seq.Seq[PathTriple] {
			return seq.Of(t, t.Revert())
		})
	default:
		return triples
	}
}

// Paths matches one hop anywhere in the graph: every relationship is
// oriented by dir, then the start, relationship and end filters must all
// match.
func Paths(ctx context.Context, g Graph, start NodeFilter, rel RelationshipFilter, end NodeFilter, dir Direction) seq.Seq[PathTriple] {
	return seq.Filter(Orient(g.Relationships(ctx), dir), func(t PathTriple) (bool, error) {
		return start.Matches(t.Start) && rel.Matches(t.Rel) && end.Matches(t.End), nil
	})
}

// PathsWithRange enumerates every path whose hop count lies within the
// resolved bounds (see ResolveBounds).
//
// Length-1 paths come from Paths. Each further level extends every path of
// the previous level by one hop at its end node; rel and end filter the new
// hop only, start applies to the first node only. Paths of every length in
// range are emitted, shortest first. A lower bound of zero also emits the
// zero-length path of every node matching both start and end.
//
// There is no cycle detection: on cyclic graphs the result grows with the
// upper bound, which MaxHops caps.
func PathsWithRange(ctx context.Context, g Graph, start NodeFilter, rel RelationshipFilter, end NodeFilter, dir Direction, lower, upper *int) seq.Seq[Path] {
	lo, hi, ok := ResolveBounds(lower, upper)
	if !ok {
		return seq.Empty[Path]()
	}
	return func(yield func(Path, error) bool) {
		if lo == 0 {
			for n, err := range FilterNodes(ctx, g, start) {
				if err != nil {
					yield(Path{}, err)
					return
				}
				if end.Matches(n) && !yield(NewPath(n), nil) {
					return
				}
			}
		}
		first := seq.Map(Paths(ctx, g, start, rel, end, dir), func(t PathTriple) (Path, error) {
			return PathOf(t), nil
		})
		extendLevels(ctx, g, first, lo, hi, rel, end, dir, yield)
	}
}

// ExpandRange is PathsWithRange anchored at a single node: every emitted
// path starts at id.
func ExpandRange(ctx context.Context, g Graph, id ID, rel RelationshipFilter, end NodeFilter, dir Direction, lower, upper *int) seq.Seq[Path] {
	lo, hi, ok := ResolveBounds(lower, upper)
	if !ok {
		return seq.Empty[Path]()
	}
	return func(yield func(Path, error) bool) {
		if lo == 0 {
			n, found, err := g.Node(ctx, id)
			if err != nil {
				yield(Path{}, err)
				return
			}
			if found && end.Matches(n) && !yield(NewPath(n), nil) {
				return
			}
		}
		first := seq.Map(ExpandFiltered(ctx, g, id, rel, end, dir), func(t PathTriple) (Path, error) {
			return PathOf(t), nil
		})
		extendLevels(ctx, g, first, lo, hi, rel, end, dir, yield)
	}
}

// extendLevels drives levels 1..hi. The frontier of the current level is
// materialized so the next level can extend it; levels below lo are built
// but not emitted.
func extendLevels(ctx context.Context, g Graph, first seq.Seq[Path], lo, hi int, rel RelationshipFilter, end NodeFilter, dir Direction, yield func(Path, error) bool) {
	if hi < 1 {
		return
	}
	var frontier []Path
	for p, err := range first {
		if err != nil {
			yield(Path{}, err)
			return
		}
		if lo <= 1 && !yield(p, nil) {
			return
		}
		if hi > 1 {
			frontier = append(frontier, p)
		}
	}

	for level := 2; level <= hi && len(frontier) > 0; level++ {
		if err := ctx.Err(); err != nil {
			yield(Path{}, err)
			return
		}
		var next []Path
		for _, p := range frontier {
			for t, err := range ExpandFiltered(ctx, g, p.End().ID, rel, end, dir) {
				if err != nil {
					yield(Path{}, err)
					return
				}
				extended := p.Extend(t)
				if level >= lo && !yield(extended, nil) {
					return
				}
				if level < hi {
					next = append(next, extended)
				}
			}
		}
		frontier = next
	}
}

// CreateElements creates nodes and relationships in g and hands the result
// to onCreated, returning whatever it returns.
func CreateElements[T any](ctx context.Context, g Graph, nodes []NodeSpec, rels []RelationshipSpec, onCreated func(Created) (T, error)) (T, error) {
	created, err := g.CreateElements(ctx, nodes, rels)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("create elements: %w", err)
	}
	return onCreated(created)
}
