package fixture

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/value"
)

//go:embed schema.cue
var schemaCUE string

// ParseCUE compiles a CUE fixture, unifies it with the #Graph schema and
// converts it. filename is used for error positions only.
func ParseCUE(data []byte, filename string) (*Fixture, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile fixture schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	graphDef := schema.LookupPath(cue.ParsePath("#Graph"))
	unified := graphDef.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	f, err := compileGraph(unified)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func compileGraph(v cue.Value) (*Fixture, error) {
	f := &Fixture{}
	var err error

	if f.Name, err = optionalString(v, "name"); err != nil {
		return nil, err
	}
	if f.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}

	err = eachElement(v, "nodes", func(elem cue.Value) error {
		n, err := compileNode(elem)
		if err != nil {
			return err
		}
		f.Nodes = append(f.Nodes, n)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachElement(v, "relationships", func(elem cue.Value) error {
		r, err := compileRelationship(elem)
		if err != nil {
			return err
		}
		f.Relationships = append(f.Relationships, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachElement(v, "indexes", func(elem cue.Value) error {
		label, err := elem.LookupPath(cue.ParsePath("label")).String()
		if err != nil {
			return formatCUEError(err)
		}
		prop, err := elem.LookupPath(cue.ParsePath("property")).String()
		if err != nil {
			return formatCUEError(err)
		}
		f.Indexes = append(f.Indexes, graph.Index{Label: label, Property: prop})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func compileNode(v cue.Value) (NodeDef, error) {
	key, err := v.LookupPath(cue.ParsePath("key")).String()
	if err != nil {
		return NodeDef{}, formatCUEError(err)
	}
	n := NodeDef{Key: key}

	err = eachElement(v, "labels", func(elem cue.Value) error {
		label, err := elem.String()
		if err != nil {
			return formatCUEError(err)
		}
		n.Labels = append(n.Labels, label)
		return nil
	})
	if err != nil {
		return NodeDef{}, err
	}

	n.Properties, err = compileProperties(v)
	if err != nil {
		return NodeDef{}, err
	}
	return n, nil
}

func compileRelationship(v cue.Value) (RelationshipDef, error) {
	var r RelationshipDef
	fields := []struct {
		name string
		dst  *string
	}{
		{"type", &r.Type},
		{"from", &r.From},
		{"to", &r.To},
	}
	for _, fld := range fields {
		s, err := v.LookupPath(cue.ParsePath(fld.name)).String()
		if err != nil {
			return RelationshipDef{}, formatCUEError(err)
		}
		*fld.dst = s
	}

	props, err := compileProperties(v)
	if err != nil {
		return RelationshipDef{}, err
	}
	r.Properties = props
	return r, nil
}

// compileProperties converts the optional properties struct. Null
// properties are dropped: an absent property already reads as null.
func compileProperties(v cue.Value) (value.Map, error) {
	props := value.Map{}
	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return props, nil
	}
	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		pv, err := toValue(iter.Value())
		if err != nil {
			return nil, err
		}
		if _, isNull := pv.(value.Null); isNull {
			continue
		}
		props[iter.Label()] = pv
	}
	return props, nil
}

// toValue converts a concrete CUE value. CUE keeps int and float apart, so
// 30 becomes Integer and 30.0 becomes Float.
func toValue(v cue.Value) (value.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return value.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Boolean(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Integer(i), nil
	case cue.FloatKind:
		fl, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Float(fl), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.String(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := value.List{}
		for iter.Next() {
			elem, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := value.Map{}
		for iter.Next() {
			elem, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Label()] = elem
		}
		return out, nil
	default:
		return nil, positioned(v.Pos(), "properties", fmt.Sprintf("unsupported value kind %s", v.Kind()))
	}
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// eachElement calls fn for every element of the optional list field.
func eachElement(v cue.Value, field string, fn func(cue.Value) error) error {
	lv := v.LookupPath(cue.ParsePath(field))
	if !lv.Exists() {
		return nil
	}
	iter, err := lv.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func positioned(pos token.Pos, field, msg string) *Error {
	e := &Error{Field: field, Message: msg}
	if pos.IsValid() {
		e.Path = pos.Filename()
		e.Line = pos.Line()
		e.Column = pos.Column()
	}
	return e
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Field: "cue", Message: err.Error()}
	}

	// Return first error with position info
	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return positioned(positions[0], "cue", first.Error())
	}
	return &Error{Field: "cue", Message: first.Error()}
}
