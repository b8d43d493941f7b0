package pipe

import (
	"fmt"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/value"
)

// Hop describes one expansion step shared by Expand and VarExpand.
type Hop struct {
	// From is the bound node variable the hop starts at.
	From string

	// Rel is the relationship pattern to follow.
	Rel ast.RelPattern

	// To is the far node pattern. Its properties may read fields of the
	// input record.
	To ast.NodePattern

	// ToBound is set when To.Variable is already bound; the hop must land
	// on that node.
	ToBound bool

	// Unique lists relationship variables the new relationships must differ
	// from.
	Unique []string
}

func (h Hop) String() string {
	return ast.PatternPart{
		Nodes: []ast.NodePattern{{Variable: h.From}, h.To},
		Rels:  []ast.RelPattern{h.Rel},
	}.String()
}

// setup resolves the per-row pieces of a hop. ok is false when the row
// cannot expand at all: a null start node or a null property value.
func (h Hop) setup(rt *Runtime, rec Record) (from graph.Node, rel graph.RelationshipFilter, end graph.NodeFilter, ok bool, err error) {
	v, found := rec.Get(h.From)
	if !found {
		return from, rel, end, false, &RuntimeError{
			Code:    ErrCodeUnboundVariable,
			Message: fmt.Sprintf("variable %s is not bound", h.From),
			Expr:    h.String(),
		}
	}
	switch n := v.(type) {
	case value.Null:
		return from, rel, end, false, nil
	case value.Node:
		from = n
	default:
		return from, rel, end, false, typeError(h.String(), "expand needs a node, %s is %s", h.From, value.KindOf(v))
	}
	rel, relOK, err := relFilter(rt, rec, h.Rel)
	if err != nil {
		return from, rel, end, false, err
	}
	end, endOK, err := nodeFilter(rt, rec, h.To)
	if err != nil {
		return from, rel, end, false, err
	}
	return from, rel, end, relOK && endOK, nil
}

// used collects the IDs of relationships bound under the Unique variables.
func (h Hop) used(rec Record) map[value.ID]struct{} {
	if len(h.Unique) == 0 {
		return nil
	}
	ids := make(map[value.ID]struct{})
	for _, name := range h.Unique {
		v, _ := rec.Get(name)
		switch r := v.(type) {
		case value.Relationship:
			ids[r.ID] = struct{}{}
		case value.List:
			for _, elem := range r {
				if rel, ok := elem.(value.Relationship); ok {
					ids[rel.ID] = struct{}{}
				}
			}
		}
	}
	return ids
}

// lands reports whether n is the node To must land on.
func (h Hop) lands(rec Record, n graph.Node) bool {
	if !h.ToBound {
		return true
	}
	v, _ := rec.Get(h.To.Variable)
	bound, ok := v.(value.Node)
	return ok && bound.ID == n.ID
}

// Expand follows one hop from a bound node for every input row.
type Expand struct {
	Input Pipe
	Hop
}

// NewExpand returns an Expand reading input.
func NewExpand(input Pipe, hop Hop) *Expand {
	return &Expand{Input: input, Hop: hop}
}

func (e *Expand) Columns() []string {
	return appendColumns(e.Input.Columns(), e.Rel.Variable, e.To.Variable)
}

func (e *Expand) Children() []Pipe { return []Pipe{e.Input} }

func (e *Expand) WithChildren(children ...Pipe) Pipe {
	mustArity("Expand", children, 1)
	return &Expand{Input: children[0], Hop: e.Hop}
}

func (e *Expand) String() string {
	if e.ToBound {
		return "ExpandInto(" + e.Hop.String() + ")"
	}
	return "Expand(" + e.Hop.String() + ")"
}

func (e *Expand) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.FlatMap(e.Input.Execute(rt), func(rec Record) seq.Seq[Record] {
		from, rel, end, ok, err := e.setup(rt, rec)
		if err != nil {
			return seq.Fail[Record](err)
		}
		if !ok {
			return seq.Empty[Record]()
		}
		used := e.used(rec)
		hops := seq.Filter(graph.ExpandFiltered(rt.Ctx, rt.Graph(), from.ID, rel, end, e.Rel.Direction), func(t graph.PathTriple) (bool, error) {
			if _, dup := used[t.Rel.ID]; dup {
				return false, nil
			}
			return e.lands(rec, t.End), nil
		})
		return seq.Map(hops, func(t graph.PathTriple) (Record, error) {
			return bind(bind(rec, e.Rel.Variable, t.Rel), e.To.Variable, t.End), nil
		})
	})
}

// VarExpand follows a variable-length hop from a bound node for every input
// row. The relationship variable binds the list of traversed relationships.
type VarExpand struct {
	Input Pipe
	Hop
}

// NewVarExpand returns a VarExpand reading input. hop.Rel.Length must be
// set.
func NewVarExpand(input Pipe, hop Hop) *VarExpand {
	return &VarExpand{Input: input, Hop: hop}
}

func (e *VarExpand) Columns() []string {
	return appendColumns(e.Input.Columns(), e.Rel.Variable, e.To.Variable)
}

func (e *VarExpand) Children() []Pipe { return []Pipe{e.Input} }

func (e *VarExpand) WithChildren(children ...Pipe) Pipe {
	mustArity("VarExpand", children, 1)
	return &VarExpand{Input: children[0], Hop: e.Hop}
}

func (e *VarExpand) String() string {
	if e.ToBound {
		return "VarExpandInto(" + e.Hop.String() + ")"
	}
	return "VarExpand(" + e.Hop.String() + ")"
}

func (e *VarExpand) Execute(rt *Runtime) seq.Seq[Record] {
	var lower, upper *int
	if e.Rel.Length != nil {
		lower, upper = e.Rel.Length.Lower, e.Rel.Length.Upper
	}
	return seq.FlatMap(e.Input.Execute(rt), func(rec Record) seq.Seq[Record] {
		from, rel, end, ok, err := e.setup(rt, rec)
		if err != nil {
			return seq.Fail[Record](err)
		}
		if !ok {
			return seq.Empty[Record]()
		}
		used := e.used(rec)
		paths := seq.Filter(graph.ExpandRange(rt.Ctx, rt.Graph(), from.ID, rel, end, e.Rel.Direction, lower, upper), func(p graph.Path) (bool, error) {
			for _, r := range p.Relationships {
				if _, dup := used[r.ID]; dup {
					return false, nil
				}
			}
			return e.lands(rec, p.End()), nil
		})
		return seq.Map(paths, func(p graph.Path) (Record, error) {
			return bind(bind(rec, e.Rel.Variable, relationshipList(p)), e.To.Variable, p.End()), nil
		})
	})
}
