package procedure

import (
	"strings"

	"github.com/roach88/pathway/internal/value"
)

// Param is one named, typed input or output.
type Param struct {
	Name string
	Type value.Kind
}

// String renders "name :: KIND".
func (p Param) String() string {
	return p.Name + " :: " + p.Type.String()
}

// Signature declares a callable's inputs and outputs.
type Signature struct {
	Name    string
	Inputs  []Param
	Outputs []Param
}

// CallString renders the input part, e.g. "add(a :: INTEGER, b :: INTEGER)".
func (s Signature) CallString() string {
	return s.Name + "(" + joinParams(s.Inputs) + ")"
}

// String renders the full signature including outputs.
func (s Signature) String() string {
	return s.CallString() + " :: (" + joinParams(s.Outputs) + ")"
}

func joinParams(ps []Param) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// Validate checks args against the declared inputs: count first, then each
// argument's kind in order.
func (s Signature) Validate(args []value.Value) error {
	if len(args) != len(s.Inputs) {
		return newArityError(s, len(args))
	}
	for i, p := range s.Inputs {
		if !value.Conforms(p.Type, args[i]) {
			return newTypeError(s, p, describe(args[i]))
		}
	}
	return nil
}

// describe renders an actual argument for error messages: its literal and
// its kind.
func describe(v value.Value) string {
	return value.Literal(v) + " (" + value.KindOf(v).String() + ")"
}

// Procedure is a callable producing one value per declared output.
type Procedure interface {
	Signature() Signature

	// Call runs the body. Arguments have already been validated.
	Call(args []value.Value) ([]value.Value, error)
}

// Aggregating is a callable that folds many rows into one value.
type Aggregating interface {
	Signature() Signature

	// New returns a fresh accumulator for one aggregation scope.
	New() Aggregator
}

// Aggregator accumulates values for one group.
type Aggregator interface {
	// Collect adds one input value.
	Collect(v value.Value) error

	// Value returns the aggregate. It is called once, after the last
	// Collect.
	Value() value.Value
}

// Function adapts a single-output Go function into a Procedure.
type Function struct {
	sig Signature
	fn  func(args []value.Value) (value.Value, error)
}

// NewFunction declares a function with the given inputs and one output
// named "result".
func NewFunction(name string, inputs []Param, output value.Kind, fn func(args []value.Value) (value.Value, error)) *Function {
	return &Function{
		sig: Signature{Name: name, Inputs: inputs, Outputs: []Param{{Name: "result", Type: output}}},
		fn:  fn,
	}
}

// Signature implements Procedure.
func (f *Function) Signature() Signature {
	return f.sig
}

// Call implements Procedure.
func (f *Function) Call(args []value.Value) ([]value.Value, error) {
	v, err := f.fn(args)
	if err != nil {
		return nil, err
	}
	return []value.Value{v}, nil
}

// Aggregate adapts an accumulator constructor into an Aggregating callable
// with the single input "values" of kind ANY.
type Aggregate struct {
	sig     Signature
	factory func() Aggregator
}

// NewAggregate declares an aggregate returning output.
func NewAggregate(name string, output value.Kind, factory func() Aggregator) *Aggregate {
	return &Aggregate{
		sig: Signature{
			Name:    name,
			Inputs:  []Param{{Name: "values", Type: value.KindAny}},
			Outputs: []Param{{Name: name, Type: output}},
		},
		factory: factory,
	}
}

// Signature implements Aggregating.
func (a *Aggregate) Signature() Signature {
	return a.sig
}

// New implements Aggregating.
func (a *Aggregate) New() Aggregator {
	return a.factory()
}
