package pipe

import (
	"fmt"

	"github.com/roach88/pathway/internal/plan"
	"github.com/roach88/pathway/internal/seq"
)

// Pipe is one node of a physical plan.
//
// Thread-safety: pipes are immutable once built. Execute may be called any
// number of times, and every call returns an independent sequence.
type Pipe interface {
	// Execute returns the lazy record sequence of this pipe. Nothing runs
	// until the sequence is iterated.
	Execute(rt *Runtime) seq.Seq[Record]

	// Columns lists the fields every emitted record carries, in order.
	Columns() []string

	// Children returns the input pipes.
	Children() []Pipe

	// WithChildren returns a copy of the pipe reading from children. It
	// panics when the count does not match Children.
	WithChildren(children ...Pipe) Pipe

	// String renders the operator, e.g. "Filter(a.age > 30)".
	String() string
}

// Tree renders p and its inputs.
func Tree(p Pipe) plan.Tree {
	return plan.Build(p, Pipe.String, Pipe.Children)
}

// Transform rebuilds p bottom-up, replacing every pipe with fn's result.
func Transform(p Pipe, fn func(Pipe) Pipe) Pipe {
	children := p.Children()
	if len(children) > 0 {
		rebuilt := make([]Pipe, len(children))
		for i, c := range children {
			rebuilt[i] = Transform(c, fn)
		}
		p = p.WithChildren(rebuilt...)
	}
	return fn(p)
}

func mustArity(name string, children []Pipe, n int) {
	if len(children) != n {
		panic(fmt.Sprintf("pipe: %s takes %d children, got %d", name, n, len(children)))
	}
}

// Start emits one empty record.
type Start struct{}

// NewStart returns the Start pipe.
func NewStart() *Start { return &Start{} }

func (*Start) Execute(*Runtime) seq.Seq[Record] { return seq.Of(Record{}) }
func (*Start) Columns() []string              { return nil }
func (*Start) Children() []Pipe               { return nil }
func (*Start) String() string                 { return "Start" }

func (s *Start) WithChildren(children ...Pipe) Pipe {
	mustArity("Start", children, 0)
	return s
}
