package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/seq"
)

const nodeColumns = `n.id, n.labels, n.properties`

// tripleSelect joins both endpoints so a triple is one row.
const tripleSelect = `
	SELECT r.id, r.type, r.properties,
	       s.id, s.labels, s.properties,
	       e.id, e.labels, e.properties
	FROM relationships r
	JOIN nodes s ON s.id = r.start_id
	JOIN nodes e ON e.id = r.end_id`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Node implements graph.Graph.
func (s *Store) Node(ctx context.Context, id graph.ID) (graph.Node, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes n WHERE n.id = ?`, string(id))
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return graph.Node{}, false, nil
	}
	if err != nil {
		return graph.Node{}, false, err
	}
	return n, true, nil
}

// Relationship implements graph.Graph.
func (s *Store) Relationship(ctx context.Context, id graph.ID) (graph.Relationship, bool, error) {
	row := s.db.QueryRowContext(ctx, tripleSelect+` WHERE r.id = ?`, string(id))
	t, err := scanTriple(row)
	if errors.Is(err, sql.ErrNoRows) {
		return graph.Relationship{}, false, nil
	}
	if err != nil {
		return graph.Relationship{}, false, err
	}
	return t.Rel, true, nil
}

// Nodes implements graph.Graph.
func (s *Store) Nodes(ctx context.Context) seq.Seq[graph.Node] {
	return s.nodeScan(ctx, `SELECT `+nodeColumns+` FROM nodes n ORDER BY n.seq`)
}

// Relationships implements graph.Graph.
func (s *Store) Relationships(ctx context.Context) seq.Seq[graph.PathTriple] {
	return s.tripleScan(ctx, false, tripleSelect+` ORDER BY r.seq`)
}

// Expand implements graph.Graph. For Both, outgoing triples come first.
func (s *Store) Expand(ctx context.Context, id graph.ID, dir graph.Direction) seq.Seq[graph.PathTriple] {
	out := s.tripleScan(ctx, false, tripleSelect+` WHERE r.start_id = ? ORDER BY r.seq`, string(id))
	in := s.tripleScan(ctx, true, tripleSelect+` WHERE r.end_id = ? ORDER BY r.seq`, string(id))
	switch dir {
	case graph.Outgoing:
		return out
	case graph.Incoming:
		return in
	default:
		return seq.Concat(out, in)
	}
}

// FilterNodes implements graph.NodeFilterScanner. A declared property index
// is preferred, then the label index, then a full scan. The filter is
// always re-applied to the candidates.
func (s *Store) FilterNodes(ctx context.Context, f graph.NodeFilter) seq.Seq[graph.Node] {
	return seq.Defer(func() seq.Seq[graph.Node] {
		query, args, err := s.candidateQuery(ctx, f)
		if err != nil {
			return seq.Fail[graph.Node](err)
		}
		nodes, err := s.queryNodes(ctx, query, args...)
		if err != nil {
			return seq.Fail[graph.Node](err)
		}
		return seq.Filter(withContext(ctx, seq.FromSlice(nodes)), func(n graph.Node) (bool, error) {
			return f.Matches(n), nil
		})
	})
}

// candidateQuery picks the narrowest candidate set for f.
func (s *Store) candidateQuery(ctx context.Context, f graph.NodeFilter) (string, []any, error) {
	for _, label := range f.Labels {
		for _, prop := range f.Properties.SortedKeys() {
			key, ok := graph.IndexKey(f.Properties[prop])
			if !ok {
				continue
			}
			indexed, err := s.hasIndex(ctx, graph.Index{Label: label, Property: prop})
			if err != nil {
				return "", nil, err
			}
			if indexed {
				return `SELECT ` + nodeColumns + ` FROM index_entries x
					JOIN nodes n ON n.id = x.node_id
					WHERE x.label = ? AND x.property = ? AND x.key = ?
					ORDER BY n.seq`, []any{label, prop, key}, nil
			}
		}
	}
	if len(f.Labels) > 0 {
		return `SELECT ` + nodeColumns + ` FROM node_labels l
			JOIN nodes n ON n.id = l.node_id
			WHERE l.label = ?
			ORDER BY n.seq`, []any{f.Labels[0]}, nil
	}
	return `SELECT ` + nodeColumns + ` FROM nodes n ORDER BY n.seq`, nil, nil
}

func (s *Store) hasIndex(ctx context.Context, idx graph.Index) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM property_indexes WHERE label = ? AND property = ?
	`, idx.Label, idx.Property).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup index %s: %w", idx, err)
	}
	return n > 0, nil
}

// Indexes implements graph.Graph. Indexes are listed in creation order.
func (s *Store) Indexes(ctx context.Context) ([]graph.Index, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT label, property FROM property_indexes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	defer rows.Close()

	indexes := []graph.Index{}
	for rows.Next() {
		var idx graph.Index
		if err := rows.Scan(&idx.Label, &idx.Property); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexes: %w", err)
	}
	return indexes, nil
}

// nodeScan runs query when iteration starts.
func (s *Store) nodeScan(ctx context.Context, query string, args ...any) seq.Seq[graph.Node] {
	return seq.Defer(func() seq.Seq[graph.Node] {
		nodes, err := s.queryNodes(ctx, query, args...)
		if err != nil {
			return seq.Fail[graph.Node](err)
		}
		return withContext(ctx, seq.FromSlice(nodes))
	})
}

// tripleScan runs query when iteration starts; reversed triples are
// reverted before they are yielded.
func (s *Store) tripleScan(ctx context.Context, reversed bool, query string, args ...any) seq.Seq[graph.PathTriple] {
	return seq.Defer(func() seq.Seq[graph.PathTriple] {
		triples, err := s.queryTriples(ctx, query, args...)
		if err != nil {
			return seq.Fail[graph.PathTriple](err)
		}
		if reversed {
			for i := range triples {
				triples[i] = triples[i].Revert()
			}
		}
		return withContext(ctx, seq.FromSlice(triples))
	})
}

// queryNodes materializes every row before returning.
func (s *Store) queryNodes(ctx context.Context, query string, args ...any) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []graph.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

// queryTriples materializes every row before returning.
func (s *Store) queryTriples(ctx context.Context, query string, args ...any) ([]graph.PathTriple, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()

	triples := []graph.PathTriple{}
	for rows.Next() {
		t, err := scanTriple(rows)
		if err != nil {
			return nil, err
		}
		triples = append(triples, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}
	return triples, nil
}

func scanNode(row rowScanner) (graph.Node, error) {
	var id, labels, props string
	if err := row.Scan(&id, &labels, &props); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return graph.Node{}, err
		}
		return graph.Node{}, fmt.Errorf("scan node: %w", err)
	}
	return decodeNode(id, labels, props)
}

func scanTriple(row rowScanner) (graph.PathTriple, error) {
	var (
		relID, relType, relProps string
		startID, startLabels     string
		startProps               string
		endID, endLabels         string
		endProps                 string
	)
	err := row.Scan(&relID, &relType, &relProps,
		&startID, &startLabels, &startProps,
		&endID, &endLabels, &endProps)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return graph.PathTriple{}, err
		}
		return graph.PathTriple{}, fmt.Errorf("scan relationship: %w", err)
	}

	start, err := decodeNode(startID, startLabels, startProps)
	if err != nil {
		return graph.PathTriple{}, err
	}
	end, err := decodeNode(endID, endLabels, endProps)
	if err != nil {
		return graph.PathTriple{}, err
	}
	props, err := unmarshalProps(relProps)
	if err != nil {
		return graph.PathTriple{}, fmt.Errorf("relationship %s: %w", relID, err)
	}
	return graph.PathTriple{
		Start: start,
		Rel: graph.Relationship{
			ID:         graph.ID(relID),
			StartID:    start.ID,
			EndID:      end.ID,
			RelType:    relType,
			Properties: props,
		},
		End: end,
	}, nil
}

func decodeNode(id, labels, props string) (graph.Node, error) {
	ls, err := unmarshalLabels(labels)
	if err != nil {
		return graph.Node{}, fmt.Errorf("node %s: %w", id, err)
	}
	ps, err := unmarshalProps(props)
	if err != nil {
		return graph.Node{}, fmt.Errorf("node %s: %w", id, err)
	}
	return graph.Node{ID: graph.ID(id), Labels: ls, Properties: ps}, nil
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
