package graph

import (
	"fmt"
	"strings"

	"github.com/roach88/pathway/internal/value"
)

// Graph elements are value variants so they can flow through records
// unchanged.
type (
	ID           = value.ID
	Node         = value.Node
	Relationship = value.Relationship
)

// Direction selects which relationships an expansion follows.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Both
)

// String returns the upper-case direction name.
func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "OUTGOING"
	case Incoming:
		return "INCOMING"
	case Both:
		return "BOTH"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection resolves "out", "in", "both" and the upper-case names.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "out", "outgoing", "":
		return Outgoing, nil
	case "in", "incoming":
		return Incoming, nil
	case "both", "any":
		return Both, nil
	}
	return Outgoing, fmt.Errorf("unknown direction %q", s)
}

// PathTriple is one hop: Start and End in traversal order and the
// relationship joining them. Reversed is set when the traversal runs against
// the relationship's stored direction, i.e. Start is Rel's end node.
type PathTriple struct {
	Start    Node
	Rel      Relationship
	End      Node
	Reversed bool
}

// Revert swaps the endpoints and flips Reversed. The relationship itself is
// not touched.
func (t PathTriple) Revert() PathTriple {
	return PathTriple{Start: t.End, Rel: t.Rel, End: t.Start, Reversed: !t.Reversed}
}

// String renders the hop as (a)-[r]->(b) or (a)<-[r]-(b).
func (t PathTriple) String() string {
	if t.Reversed {
		return fmt.Sprintf("(%s)<-[%s]-(%s)", t.Start.ID, t.Rel.ID, t.End.ID)
	}
	return fmt.Sprintf("(%s)-[%s]->(%s)", t.Start.ID, t.Rel.ID, t.End.ID)
}

// Path is an alternating walk. len(Nodes) == len(Relationships)+1 always
// holds; Relationships[i] joins Nodes[i] and Nodes[i+1].
type Path struct {
	Nodes         []Node
	Relationships []Relationship
}

// NewPath returns the zero-length path at n.
func NewPath(n Node) Path {
	return Path{Nodes: []Node{n}}
}

// PathOf returns the one-hop path of t.
func PathOf(t PathTriple) Path {
	return Path{Nodes: []Node{t.Start, t.End}, Relationships: []Relationship{t.Rel}}
}

// Length is the hop count.
func (p Path) Length() int {
	return len(p.Relationships)
}

// Start returns the first node.
func (p Path) Start() Node {
	return p.Nodes[0]
}

// End returns the last node, the anchor for further extension.
func (p Path) End() Node {
	return p.Nodes[len(p.Nodes)-1]
}

// Extend returns a copy of p with t appended. t.Start must be p.End().
func (p Path) Extend(t PathTriple) Path {
	nodes := make([]Node, len(p.Nodes), len(p.Nodes)+1)
	copy(nodes, p.Nodes)
	rels := make([]Relationship, len(p.Relationships), len(p.Relationships)+1)
	copy(rels, p.Relationships)
	return Path{
		Nodes:         append(nodes, t.End),
		Relationships: append(rels, t.Rel),
	}
}

// Value converts the path to a list alternating nodes and relationships.
func (p Path) Value() value.List {
	out := make(value.List, 0, len(p.Nodes)+len(p.Relationships))
	for i, n := range p.Nodes {
		out = append(out, n)
		if i < len(p.Relationships) {
			out = append(out, p.Relationships[i])
		}
	}
	return out
}

// String renders the walk as (a)-[r1]-(b)-[r2]-(c).
func (p Path) String() string {
	var b strings.Builder
	for i, n := range p.Nodes {
		b.WriteString("(" + string(n.ID) + ")")
		if i < len(p.Relationships) {
			b.WriteString("-[" + string(p.Relationships[i].ID) + "]-")
		}
	}
	return b.String()
}

// Index declares a node property index. Index use is an optimization hint;
// results never depend on which indexes exist.
type Index struct {
	Label    string
	Property string
}

// String returns "Label(property)".
func (i Index) String() string {
	return i.Label + "(" + i.Property + ")"
}

// IndexKey returns the bucket key of v in a property index. Numbers are
// widened to float so that Integer(1) and Float(1) share a bucket, as they
// do under value.Equal. Lists, maps and null are not indexable.
func IndexKey(v value.Value) (string, bool) {
	switch val := v.(type) {
	case nil, value.Null, value.List, value.Map:
		return "", false
	case value.Number:
		v = value.Float(value.Float64(val))
	}
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// NodeSpec describes a node to create.
type NodeSpec struct {
	Labels     []string
	Properties value.Map
}

// NodeRef names a relationship endpoint: either an existing node or a node
// created by the same CreateElements call.
type NodeRef struct {
	id   ID
	spec int
}

// ExistingNode refers to a node already in the graph.
func ExistingNode(id ID) NodeRef {
	return NodeRef{id: id, spec: -1}
}

// SpecNode refers to nodes[i] of the same CreateElements call.
func SpecNode(i int) NodeRef {
	return NodeRef{spec: i}
}

// Resolve returns the identifier the reference points at, given the IDs
// assigned to the co-occurring node specs.
func (r NodeRef) Resolve(created []ID) (ID, error) {
	if r.spec < 0 {
		return r.id, nil
	}
	if r.spec >= len(created) {
		return "", fmt.Errorf("node spec %d out of range (%d nodes in batch)", r.spec, len(created))
	}
	return created[r.spec], nil
}

// String returns the ID or "#i" for spec references.
func (r NodeRef) String() string {
	if r.spec < 0 {
		return string(r.id)
	}
	return fmt.Sprintf("#%d", r.spec)
}

// RelationshipSpec describes a relationship to create.
type RelationshipSpec struct {
	Type       string
	Start      NodeRef
	End        NodeRef
	Properties value.Map
}

// Created reports what a CreateElements call produced, in spec order.
type Created struct {
	Nodes         []Node
	Relationships []Relationship
}

// ValidateSpecs checks that every spec reference points inside nodes.
// Backends call it before writing anything.
func ValidateSpecs(nodes []NodeSpec, rels []RelationshipSpec) error {
	placeholder := make([]ID, len(nodes))
	for i, r := range rels {
		if _, err := r.Start.Resolve(placeholder); err != nil {
			return fmt.Errorf("relationship %d start: %w", i, err)
		}
		if _, err := r.End.Resolve(placeholder); err != nil {
			return fmt.Errorf("relationship %d end: %w", i, err)
		}
	}
	return nil
}
