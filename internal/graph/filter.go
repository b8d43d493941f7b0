package graph

import (
	"strings"

	"github.com/roach88/pathway/internal/value"
)

// NodeFilter matches nodes carrying every label in Labels and an equal value
// for every entry of Properties. The zero NodeFilter matches every node.
type NodeFilter struct {
	Labels     []string
	Properties value.Map
}

// Matches reports whether n satisfies the filter.
func (f NodeFilter) Matches(n Node) bool {
	for _, l := range f.Labels {
		if !n.HasLabel(l) {
			return false
		}
	}
	return propertiesMatch(f.Properties, n.Properties)
}

// IsEmpty reports whether the filter matches everything.
func (f NodeFilter) IsEmpty() bool {
	return len(f.Labels) == 0 && len(f.Properties) == 0
}

// String renders the filter in pattern syntax, e.g. ":Person {name: "Alice"}".
func (f NodeFilter) String() string {
	return renderFilter(f.Labels, ":", f.Properties)
}

// RelationshipFilter matches relationships whose type is any of Types and
// whose properties agree with Properties. An empty Types matches every
// relationship, including untyped ones.
type RelationshipFilter struct {
	Types      []string
	Properties value.Map
}

// Matches reports whether r satisfies the filter.
func (f RelationshipFilter) Matches(r Relationship) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if r.RelType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return propertiesMatch(f.Properties, r.Properties)
}

// IsEmpty reports whether the filter matches everything.
func (f RelationshipFilter) IsEmpty() bool {
	return len(f.Types) == 0 && len(f.Properties) == 0
}

// String renders the filter in pattern syntax, e.g. ":KNOWS|LIKES".
func (f RelationshipFilter) String() string {
	if len(f.Types) == 0 {
		return renderFilter(nil, "", f.Properties)
	}
	return renderFilter([]string{strings.Join(f.Types, "|")}, ":", f.Properties)
}

func propertiesMatch(want, have value.Map) bool {
	for k, v := range want {
		got, ok := have[k]
		if !ok || !value.Equal(v, got) {
			return false
		}
	}
	return true
}

func renderFilter(names []string, sep string, props value.Map) string {
	var b strings.Builder
	for _, n := range names {
		b.WriteString(sep)
		b.WriteString(n)
	}
	if len(props) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(props.String())
	}
	return b.String()
}
