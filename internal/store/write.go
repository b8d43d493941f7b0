package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/value"
)

// CreateElements implements graph.Graph. The batch runs in one transaction:
// a malformed spec or a missing endpoint leaves the database untouched.
//
// Node IDs are drawn before relationship IDs, in spec order.
func (s *Store) CreateElements(ctx context.Context, nodes []graph.NodeSpec, rels []graph.RelationshipSpec) (graph.Created, error) {
	if err := graph.ValidateSpecs(nodes, rels); err != nil {
		return graph.Created{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return graph.Created{}, fmt.Errorf("create elements: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	nodeIDs := make([]graph.ID, len(nodes))
	for i := range nodes {
		nodeIDs[i] = s.ids.NewID()
	}
	for i, spec := range rels {
		for _, ref := range []graph.NodeRef{spec.Start, spec.End} {
			id, _ := ref.Resolve(nodeIDs)
			if slices.Contains(nodeIDs, id) {
				continue
			}
			exists, err := nodeExists(ctx, tx, id)
			if err != nil {
				return graph.Created{}, err
			}
			if !exists {
				return graph.Created{}, fmt.Errorf("relationship %d: node %s: %w", i, id, graph.ErrNotFound)
			}
		}
	}

	indexes, err := listIndexes(ctx, tx)
	if err != nil {
		return graph.Created{}, err
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
		if err := insertNode(ctx, tx, n, indexes); err != nil {
			return graph.Created{}, err
		}
		created.Nodes = append(created.Nodes, n)
	}
	for _, spec := range rels {
		start, _ := spec.Start.Resolve(nodeIDs)
		end, _ := spec.End.Resolve(nodeIDs)
		r := graph.Relationship{
			ID:         s.ids.NewID(),
			StartID:    start,
			EndID:      end,
			RelType:    spec.Type,
			Properties: copyProps(spec.Properties),
		}
		if err := insertRelationship(ctx, tx, r); err != nil {
			return graph.Created{}, err
		}
		created.Relationships = append(created.Relationships, r)
	}

	if err := tx.Commit(); err != nil {
		return graph.Created{}, fmt.Errorf("create elements: commit: %w", err)
	}
	return created, nil
}

// CreateIndex implements graph.Graph. A new index is backfilled from the
// nodes already carrying its label.
func (s *Store) CreateIndex(ctx context.Context, idx graph.Index) error {
	if idx.Label == "" || idx.Property == "" {
		return fmt.Errorf("%w: index needs a label and a property", ErrInvalidSpec)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create index: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO property_indexes (label, property)
		VALUES (?, ?)
		ON CONFLICT(label, property) DO NOTHING
	`, idx.Label, idx.Property)
	if err != nil {
		return fmt.Errorf("create index %s: %w", idx, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create index %s: %w", idx, err)
	}
	if affected == 0 {
		return nil // already exists
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM node_labels l
		JOIN nodes n ON n.id = l.node_id
		WHERE l.label = ?
		ORDER BY n.seq
	`, idx.Label)
	if err != nil {
		return fmt.Errorf("create index %s: scan label: %w", idx, err)
	}
	var labeled []graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			rows.Close()
			return err
		}
		labeled = append(labeled, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("create index %s: %w", idx, err)
	}

	for _, n := range labeled {
		if err := insertIndexEntry(ctx, tx, idx, n); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create index %s: commit: %w", idx, err)
	}
	return nil
}

func insertNode(ctx context.Context, tx *sql.Tx, n graph.Node, indexes []graph.Index) error {
	labels, err := marshalLabels(n.Labels)
	if err != nil {
		return fmt.Errorf("insert node %s: %w", n.ID, err)
	}
	props, err := marshalProps(n.Properties)
	if err != nil {
		return fmt.Errorf("insert node %s: %w", n.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO nodes (id, labels, properties) VALUES (?, ?, ?)
	`, string(n.ID), labels, props); err != nil {
		return fmt.Errorf("insert node %s: %w", n.ID, err)
	}

	for _, label := range n.Labels {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO node_labels (node_id, label) VALUES (?, ?)
		`, string(n.ID), label); err != nil {
			return fmt.Errorf("insert node %s label %s: %w", n.ID, label, err)
		}
	}

	for _, idx := range indexes {
		if n.HasLabel(idx.Label) {
			if err := insertIndexEntry(ctx, tx, idx, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// insertIndexEntry adds n to idx when it carries an indexable value.
func insertIndexEntry(ctx context.Context, tx *sql.Tx, idx graph.Index, n graph.Node) error {
	v, ok := n.Properties[idx.Property]
	if !ok {
		return nil
	}
	key, ok := graph.IndexKey(v)
	if !ok {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO index_entries (label, property, key, node_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, idx.Label, idx.Property, key, string(n.ID))
	if err != nil {
		return fmt.Errorf("index node %s in %s: %w", n.ID, idx, err)
	}
	return nil
}

func insertRelationship(ctx context.Context, tx *sql.Tx, r graph.Relationship) error {
	props, err := marshalProps(r.Properties)
	if err != nil {
		return fmt.Errorf("insert relationship %s: %w", r.ID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO relationships (id, start_id, end_id, type, properties)
		VALUES (?, ?, ?, ?, ?)
	`, string(r.ID), string(r.StartID), string(r.EndID), r.RelType, props)
	if err != nil {
		return fmt.Errorf("insert relationship %s: %w", r.ID, err)
	}
	return nil
}

func nodeExists(ctx context.Context, tx *sql.Tx, id graph.ID) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes WHERE id = ?`, string(id)).Scan(&n); err != nil {
		return false, fmt.Errorf("lookup node %s: %w", id, err)
	}
	return n > 0, nil
}

func listIndexes(ctx context.Context, tx *sql.Tx) ([]graph.Index, error) {
	rows, err := tx.QueryContext(ctx, `SELECT label, property FROM property_indexes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []graph.Index
	for rows.Next() {
		var idx graph.Index
		if err := rows.Scan(&idx.Label, &idx.Property); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
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
