package pipe

import (
	"fmt"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/value"
)

// Create adds the elements of Pattern to the graph once per input row and
// binds the new elements. Node variables the input already binds are used
// as relationship endpoints instead of being created again. Properties
// that evaluate to null are not stored.
type Create struct {
	Input   Pipe
	Pattern ast.Pattern
}

// NewCreate returns a Create reading input.
func NewCreate(input Pipe, pattern ast.Pattern) *Create {
	return &Create{Input: input, Pattern: pattern}
}

func (c *Create) Columns() []string {
	cols := c.Input.Columns()
	for _, part := range c.Pattern.Parts {
		for i, n := range part.Nodes {
			cols = appendColumns(cols, n.Variable)
			if i < len(part.Rels) {
				cols = appendColumns(cols, part.Rels[i].Variable)
			}
		}
	}
	return cols
}

func (c *Create) Children() []Pipe { return []Pipe{c.Input} }
func (c *Create) String() string   { return "Create(" + c.Pattern.String() + ")" }

func (c *Create) WithChildren(children ...Pipe) Pipe {
	mustArity("Create", children, 1)
	return &Create{Input: children[0], Pattern: c.Pattern}
}

// batch is the CreateElements input for one row.
type batch struct {
	nodes    []graph.NodeSpec
	nodeVars []string
	rels     []graph.RelationshipSpec
	relVars  []string
	specs    map[string]int
}

func (c *Create) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.Map(c.Input.Execute(rt), func(rec Record) (Record, error) {
		b, err := c.batch(rt, rec)
		if err != nil {
			return Record{}, err
		}
		return graph.CreateElements(rt.Ctx, rt.Graph(), b.nodes, b.rels, func(created graph.Created) (Record, error) {
			out := rec
			for i, n := range created.Nodes {
				out = bind(out, b.nodeVars[i], n)
			}
			for i, r := range created.Relationships {
				out = bind(out, b.relVars[i], r)
			}
			rt.Stats.NodesCreated += len(created.Nodes)
			rt.Stats.RelationshipsCreated += len(created.Relationships)
			return out, nil
		})
	})
}

func (c *Create) batch(rt *Runtime, rec Record) (*batch, error) {
	b := &batch{specs: make(map[string]int)}
	for _, part := range c.Pattern.Parts {
		refs := make([]graph.NodeRef, len(part.Nodes))
		for i, n := range part.Nodes {
			ref, err := b.node(rt, rec, n)
			if err != nil {
				return nil, err
			}
			refs[i] = ref
		}
		for i, r := range part.Rels {
			props, err := storedProps(rt, rec, r.Properties)
			if err != nil {
				return nil, err
			}
			start, end := refs[i], refs[i+1]
			if r.Direction == graph.Incoming {
				start, end = end, start
			}
			var relType string
			if len(r.Types) > 0 {
				relType = r.Types[0]
			}
			b.rels = append(b.rels, graph.RelationshipSpec{Type: relType, Start: start, End: end, Properties: props})
			b.relVars = append(b.relVars, r.Variable)
		}
	}
	return b, nil
}

// node resolves one node pattern to an endpoint reference, adding a node
// spec when the variable is neither bound by the row nor created earlier
// in the same pattern.
func (b *batch) node(rt *Runtime, rec Record, n ast.NodePattern) (graph.NodeRef, error) {
	if n.Variable != "" {
		if v, ok := rec.Get(n.Variable); ok {
			node, isNode := v.(value.Node)
			if !isNode {
				return graph.NodeRef{}, typeError(n.String(), "cannot create a relationship to %s, it is %s", n.Variable, value.KindOf(v))
			}
			return graph.ExistingNode(node.ID), nil
		}
		if i, ok := b.specs[n.Variable]; ok {
			return graph.SpecNode(i), nil
		}
	}
	props, err := storedProps(rt, rec, n.Properties)
	if err != nil {
		return graph.NodeRef{}, err
	}
	i := len(b.nodes)
	b.nodes = append(b.nodes, graph.NodeSpec{Labels: n.Labels, Properties: props})
	b.nodeVars = append(b.nodeVars, n.Variable)
	if n.Variable != "" {
		b.specs[n.Variable] = i
	}
	return graph.SpecNode(i), nil
}

func storedProps(rt *Runtime, rec Record, props map[string]ast.Expr) (value.Map, error) {
	m, err := evalMap(rt, rec, props)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	for k, v := range m {
		if isNull(v) {
			delete(m, k)
		}
	}
	return m, nil
}
