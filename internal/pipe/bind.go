package pipe

import (
	"slices"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/value"
)

// nodeFilter evaluates a node pattern's labels and properties against rec.
// ok is false when a property evaluates to null: nothing can match it.
func nodeFilter(rt *Runtime, rec Record, n ast.NodePattern) (f graph.NodeFilter, ok bool, err error) {
	props, ok, err := evalProps(rt, rec, n.Properties)
	if err != nil || !ok {
		return graph.NodeFilter{}, ok, err
	}
	return graph.NodeFilter{Labels: n.Labels, Properties: props}, true, nil
}

func relFilter(rt *Runtime, rec Record, r ast.RelPattern) (f graph.RelationshipFilter, ok bool, err error) {
	props, ok, err := evalProps(rt, rec, r.Properties)
	if err != nil || !ok {
		return graph.RelationshipFilter{}, ok, err
	}
	return graph.RelationshipFilter{Types: r.Types, Properties: props}, true, nil
}

func evalProps(rt *Runtime, rec Record, props map[string]ast.Expr) (value.Map, bool, error) {
	if len(props) == 0 {
		return nil, true, nil
	}
	m, err := evalMap(rt, rec, props)
	if err != nil {
		return nil, false, err
	}
	for _, v := range m {
		if isNull(v) {
			return nil, false, nil
		}
	}
	return m, true, nil
}

// appendColumns adds the non-empty names to cols, skipping duplicates.
func appendColumns(cols []string, names ...string) []string {
	out := slices.Clone(cols)
	for _, n := range names {
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

// bind sets name to v when name is not empty.
func bind(rec Record, name string, v value.Value) Record {
	if name == "" {
		return rec
	}
	return rec.With(name, v)
}

// relationshipList converts the hops of a path to the list a
// variable-length relationship variable binds.
func relationshipList(p graph.Path) value.List {
	out := make(value.List, len(p.Relationships))
	for i, r := range p.Relationships {
		out[i] = r
	}
	return out
}

// guard stops a scan between records once the context is done.
func guard[T any](rt *Runtime, s seq.Seq[T]) seq.Seq[T] {
	return seq.Map(s, func(item T) (T, error) {
		if err := rt.Ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		return item, nil
	})
}
