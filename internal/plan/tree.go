// Package plan holds what the logical and physical plan packages share:
// the operator tree shape used for rendering and JSON output.
//
// Trees render one operator per line, children drawn below their parent:
//
//	Select(friend)
//	└─ Project(b.name AS friend)
//	   └─ Filter(a.name = "Alice")
//	      └─ PatternScan((a:Person)-[r:KNOWS]->(b:Person))
package plan

import "strings"

// Tree is a rendered operator with its inputs.
type Tree struct {
	Operator string `json:"operator"`
	Children []Tree `json:"children,omitempty"`
}

// Build converts any operator tree into a Tree, using describe for the
// operator line and children for its inputs.
func Build[T any](root T, describe func(T) string, children func(T) []T) Tree {
	t := Tree{Operator: describe(root)}
	for _, c := range children(root) {
		t.Children = append(t.Children, Build(c, describe, children))
	}
	return t
}

// String renders the tree with box-drawing branches.
func (t Tree) String() string {
	var b strings.Builder
	b.WriteString(t.Operator)
	b.WriteString("\n")
	t.writeChildren(&b, "")
	return strings.TrimSuffix(b.String(), "\n")
}

func (t Tree) writeChildren(b *strings.Builder, prefix string) {
	for i, c := range t.Children {
		last := i == len(t.Children)-1
		branch, indent := "├─ ", "│  "
		if last {
			branch, indent = "└─ ", "   "
		}
		b.WriteString(prefix)
		b.WriteString(branch)
		b.WriteString(c.Operator)
		b.WriteString("\n")
		c.writeChildren(b, prefix+indent)
	}
}

// Count returns the number of operators in the tree, root included.
func (t Tree) Count() int {
	n := 1
	for _, c := range t.Children {
		n += c.Count()
	}
	return n
}

// Operators lists operator lines depth-first, parents first.
func (t Tree) Operators() []string {
	out := []string{t.Operator}
	for _, c := range t.Children {
		out = append(out, c.Operators()...)
	}
	return out
}
