package pipe

import (
	"slices"
	"strings"

	"github.com/roach88/pathway/internal/value"
)

// Record is an ordered tuple of named values. Records are immutable;
// With and Select return copies.
type Record struct {
	fields []string
	values []value.Value
}

// NewRecord pairs fields with values. It panics when the lengths differ.
func NewRecord(fields []string, values []value.Value) Record {
	if len(fields) != len(values) {
		panic("pipe: record fields and values differ in length")
	}
	return Record{fields: slices.Clone(fields), values: slices.Clone(values)}
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Fields returns the field names in order.
func (r Record) Fields() []string { return slices.Clone(r.fields) }

// Values returns the values in field order.
func (r Record) Values() []value.Value { return slices.Clone(r.values) }

// Get returns the value bound to name.
func (r Record) Get(name string) (value.Value, bool) {
	i := slices.Index(r.fields, name)
	if i < 0 {
		return nil, false
	}
	return r.values[i], true
}

// With returns a copy with name bound to v, replacing an existing binding
// in place or appending a new field.
func (r Record) With(name string, v value.Value) Record {
	out := Record{fields: slices.Clone(r.fields), values: slices.Clone(r.values)}
	if i := slices.Index(out.fields, name); i >= 0 {
		out.values[i] = v
		return out
	}
	out.fields = append(out.fields, name)
	out.values = append(out.values, v)
	return out
}

// Select returns the named fields in the given order. Missing fields are
// null.
func (r Record) Select(names []string) Record {
	out := Record{fields: slices.Clone(names), values: make([]value.Value, len(names))}
	for i, n := range names {
		if v, ok := r.Get(n); ok {
			out.values[i] = v
		} else {
			out.values[i] = value.Null{}
		}
	}
	return out
}

// Merge appends the fields of o that r does not already carry.
func (r Record) Merge(o Record) Record {
	out := Record{fields: slices.Clone(r.fields), values: slices.Clone(r.values)}
	for i, f := range o.fields {
		if !slices.Contains(out.fields, f) {
			out.fields = append(out.fields, f)
			out.values = append(out.values, o.values[i])
		}
	}
	return out
}

// Native converts the record into a map of native Go values.
func (r Record) Native() map[string]any {
	out := make(map[string]any, len(r.fields))
	for i, f := range r.fields {
		out[f] = value.Native(r.values[i])
	}
	return out
}

// String renders "{a: 1, b: "x"}" in field order.
func (r Record) String() string {
	parts := make([]string, len(r.fields))
	for i, f := range r.fields {
		parts[i] = f + ": " + value.Literal(r.values[i])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
