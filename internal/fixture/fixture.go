package fixture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/value"
)

// Fixture is a parsed graph definition.
type Fixture struct {
	Name          string
	Description   string
	Nodes         []NodeDef
	Relationships []RelationshipDef
	Indexes       []graph.Index
}

// NodeDef declares one node under a fixture-local key.
type NodeDef struct {
	Key        string
	Labels     []string
	Properties value.Map
}

// RelationshipDef connects two node keys.
type RelationshipDef struct {
	Type       string
	From       string
	To         string
	Properties value.Map
}

// Error reports an invalid fixture. Line is zero when the position is
// unknown.
type Error struct {
	Path    string
	Line    int
	Column  int
	Field   string
	Message string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d:%d", e.Line, e.Column)
		}
		b.WriteString(": ")
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Load reads the fixture at path, choosing the format by extension.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var f *Fixture
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		f, err = ParseCUE(data, path)
	case ".yaml", ".yml":
		f, err = ParseYAML(data)
	default:
		return nil, &Error{Path: path, Message: "unknown fixture format (want .cue, .yaml or .yml)"}
	}
	if err != nil {
		if fe, ok := err.(*Error); ok && fe.Path == "" {
			fe.Path = path
		}
		return nil, err
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// Validate checks that node keys are unique and that every relationship
// endpoint names a declared key.
func (f *Fixture) Validate() error {
	seen := make(map[string]bool, len(f.Nodes))
	for i, n := range f.Nodes {
		if n.Key == "" {
			return &Error{Field: fmt.Sprintf("nodes[%d].key", i), Message: "key is required"}
		}
		if seen[n.Key] {
			return &Error{Field: fmt.Sprintf("nodes[%d].key", i), Message: fmt.Sprintf("duplicate node key %q", n.Key)}
		}
		seen[n.Key] = true
	}
	for i, r := range f.Relationships {
		if r.Type == "" {
			return &Error{Field: fmt.Sprintf("relationships[%d].type", i), Message: "type is required"}
		}
		if !seen[r.From] {
			return &Error{Field: fmt.Sprintf("relationships[%d].from", i), Message: fmt.Sprintf("unknown node key %q", r.From)}
		}
		if !seen[r.To] {
			return &Error{Field: fmt.Sprintf("relationships[%d].to", i), Message: fmt.Sprintf("unknown node key %q", r.To)}
		}
	}
	for i, idx := range f.Indexes {
		if idx.Label == "" || idx.Property == "" {
			return &Error{Field: fmt.Sprintf("indexes[%d]", i), Message: "index needs a label and a property"}
		}
	}
	return nil
}

// Loaded maps fixture keys to the elements Apply created.
type Loaded struct {
	Created graph.Created
	Nodes   map[string]graph.Node
}

// Apply creates the fixture's indexes and then all of its elements in one
// CreateElements call.
func Apply(ctx context.Context, g graph.Graph, f *Fixture) (*Loaded, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	for _, idx := range f.Indexes {
		if err := g.CreateIndex(ctx, idx); err != nil {
			return nil, fmt.Errorf("create index %s: %w", idx, err)
		}
	}

	position := make(map[string]int, len(f.Nodes))
	nodes := make([]graph.NodeSpec, len(f.Nodes))
	for i, n := range f.Nodes {
		position[n.Key] = i
		nodes[i] = graph.NodeSpec{Labels: n.Labels, Properties: n.Properties}
	}
	rels := make([]graph.RelationshipSpec, len(f.Relationships))
	for i, r := range f.Relationships {
		rels[i] = graph.RelationshipSpec{
			Type:       r.Type,
			Start:      graph.SpecNode(position[r.From]),
			End:        graph.SpecNode(position[r.To]),
			Properties: r.Properties,
		}
	}

	return graph.CreateElements(ctx, g, nodes, rels, func(c graph.Created) (*Loaded, error) {
		loaded := &Loaded{Created: c, Nodes: make(map[string]graph.Node, len(c.Nodes))}
		for i, n := range c.Nodes {
			loaded.Nodes[f.Nodes[i].Key] = n
		}
		return loaded, nil
	})
}

// LoadInto reads the fixture at path and applies it to g.
func LoadInto(ctx context.Context, g graph.Graph, path string) (*Fixture, *Loaded, error) {
	f, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	loaded, err := Apply(ctx, g, f)
	if err != nil {
		return nil, nil, fmt.Errorf("apply fixture %s: %w", f.Name, err)
	}
	return f, loaded, nil
}
