package value

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Value is a sealed interface representing a runtime value.
// Only Null, Integer, Float, String, Boolean, List, Map, Date, DateTime,
// Node and Relationship implement it.
type Value interface {
	// Kind returns the type tag of the value.
	Kind() Kind

	// String returns a human-readable rendering used by plans and tables.
	String() string

	value() // Sealed - only these types implement it
}

// Null is the absent value.
type Null struct{}

// Integer is a 64-bit signed integer.
type Integer int64

// Float is a 64-bit IEEE-754 floating point number.
type Float float64

// String is a text value.
type String string

// Boolean is a boolean value.
type Boolean bool

// List is an ordered sequence of values.
type List []Value

// Map is a mapping from string keys to values. Key order is irrelevant;
// use SortedKeys for deterministic iteration.
type Map map[string]Value

// Date is a calendar date stored as milliseconds since the Unix epoch (UTC
// midnight of the day).
type Date int64

// DateTime is an instant stored as milliseconds since the Unix epoch.
type DateTime int64

// ID is an opaque, comparable identifier of a graph element.
type ID string

// Node is a graph node. Nodes are owned by the graph backend; the engine only
// holds copies and never mutates them.
type Node struct {
	ID         ID
	Labels     []string
	Properties Map
}

// Relationship is a directed, typed edge between two nodes. RelType may be
// empty when the backend does not type its relationships.
type Relationship struct {
	ID         ID
	StartID    ID
	EndID      ID
	RelType    string
	Properties Map
}

func (Null) value()         {}
func (Integer) value()      {}
func (Float) value()        {}
func (String) value()       {}
func (Boolean) value()      {}
func (List) value()         {}
func (Map) value()          {}
func (Date) value()         {}
func (DateTime) value()     {}
func (Node) value()         {}
func (Relationship) value() {}

func (Null) Kind() Kind         { return KindNull }
func (Integer) Kind() Kind      { return KindInteger }
func (Float) Kind() Kind        { return KindFloat }
func (String) Kind() Kind       { return KindString }
func (Boolean) Kind() Kind      { return KindBoolean }
func (List) Kind() Kind         { return KindList }
func (Map) Kind() Kind          { return KindMap }
func (Date) Kind() Kind         { return KindDate }
func (DateTime) Kind() Kind     { return KindDateTime }
func (Node) Kind() Kind         { return KindNode }
func (Relationship) Kind() Kind { return KindRelationship }

func (Null) String() string      { return "null" }
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }
func (s String) String() string  { return string(s) }

func (f Float) String() string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}

func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, elem := range l {
		parts[i] = literal(elem)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (m Map) String() string {
	keys := m.SortedKeys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + literal(m[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

func (d DateTime) String() string {
	return d.Time().Format("2006-01-02T15:04:05.000Z")
}

func (n Node) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(string(n.ID))
	for _, l := range n.Labels {
		b.WriteString(":")
		b.WriteString(l)
	}
	if len(n.Properties) > 0 {
		b.WriteString(" ")
		b.WriteString(n.Properties.String())
	}
	b.WriteString(")")
	return b.String()
}

func (r Relationship) String() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(r.ID))
	if r.RelType != "" {
		b.WriteString(":")
		b.WriteString(r.RelType)
	}
	if len(r.Properties) > 0 {
		b.WriteString(" ")
		b.WriteString(r.Properties.String())
	}
	b.WriteString("]")
	return b.String()
}

// literal renders nested values, quoting strings so that lists and maps
// stay unambiguous.
func literal(v Value) string {
	if s, ok := v.(String); ok {
		return strconv.Quote(string(s))
	}
	if v == nil {
		return "null"
	}
	return v.String()
}

// Literal renders v the way it would be written in a query: strings are
// quoted, every other kind uses its String form.
func Literal(v Value) string {
	return literal(v)
}

// Time returns the date as a UTC time.Time.
func (d Date) Time() time.Time {
	return time.UnixMilli(int64(d)).UTC()
}

// Time returns the instant as a UTC time.Time.
func (d DateTime) Time() time.Time {
	return time.UnixMilli(int64(d)).UTC()
}

// NewDate truncates t to its UTC calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).UnixMilli())
}

// NewDateTime converts t to milliseconds since the epoch.
func NewDateTime(t time.Time) DateTime {
	return DateTime(t.UnixMilli())
}

// SortedKeys returns the map keys in lexicographic order.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Property returns the named node property.
func (n Node) Property(name string) (Value, bool) {
	v, ok := n.Properties[name]
	return v, ok
}

// HasLabel reports whether the node carries label.
func (n Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Property returns the named relationship property.
func (r Relationship) Property(name string) (Value, bool) {
	v, ok := r.Properties[name]
	return v, ok
}

// Other returns the endpoint of r that is not id. For self-loops it returns id.
func (r Relationship) Other(id ID) ID {
	if r.StartID == id {
		return r.EndID
	}
	return r.StartID
}
