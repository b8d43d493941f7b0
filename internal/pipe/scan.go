package pipe

import (
	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/seq"
)

// PatternScan matches a single node, one hop or one variable-length hop
// against the whole graph.
type PatternScan struct {
	Start ast.NodePattern
	Rel   *ast.RelPattern
	End   *ast.NodePattern
}

// NewPatternScan returns a scan of start, or of start-rel-end when rel is
// not nil.
func NewPatternScan(start ast.NodePattern, rel *ast.RelPattern, end *ast.NodePattern) *PatternScan {
	return &PatternScan{Start: start, Rel: rel, End: end}
}

// Pattern returns the scanned pattern.
func (s *PatternScan) Pattern() ast.PatternPart {
	part := ast.PatternPart{Nodes: []ast.NodePattern{s.Start}}
	if s.Rel != nil {
		part.Rels = []ast.RelPattern{*s.Rel}
		part.Nodes = append(part.Nodes, *s.End)
	}
	return part
}

func (s *PatternScan) Columns() []string {
	if s.Rel == nil {
		return appendColumns(nil, s.Start.Variable)
	}
	return appendColumns(nil, s.Start.Variable, s.Rel.Variable, s.End.Variable)
}

func (*PatternScan) Children() []Pipe { return nil }

func (s *PatternScan) WithChildren(children ...Pipe) Pipe {
	mustArity("PatternScan", children, 0)
	return s
}

func (s *PatternScan) String() string { return "PatternScan(" + s.Pattern().String() + ")" }

func (s *PatternScan) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.Defer(func() seq.Seq[Record] {
		start, ok, err := nodeFilter(rt, Record{}, s.Start)
		if err != nil {
			return seq.Fail[Record](err)
		}
		if !ok {
			return seq.Empty[Record]()
		}
		if s.Rel == nil {
			nodes := guard(rt, graph.FilterNodes(rt.Ctx, rt.Graph(), start))
			return seq.Map(nodes, func(n graph.Node) (Record, error) {
				return bind(Record{}, s.Start.Variable, n), nil
			})
		}

		rel, ok, err := relFilter(rt, Record{}, *s.Rel)
		if err != nil {
			return seq.Fail[Record](err)
		}
		end, endOK, err := nodeFilter(rt, Record{}, *s.End)
		if err != nil {
			return seq.Fail[Record](err)
		}
		if !ok || !endOK {
			return seq.Empty[Record]()
		}
		closed := s.Start.Variable != "" && s.Start.Variable == s.End.Variable

		if s.Rel.Length == nil {
			triples := guard(rt, graph.Paths(rt.Ctx, rt.Graph(), start, rel, end, s.Rel.Direction))
			if closed {
				triples = seq.Filter(triples, func(t graph.PathTriple) (bool, error) {
					return t.Start.ID == t.End.ID, nil
				})
			}
			return seq.Map(triples, func(t graph.PathTriple) (Record, error) {
				rec := bind(Record{}, s.Start.Variable, t.Start)
				rec = bind(rec, s.Rel.Variable, t.Rel)
				return bind(rec, s.End.Variable, t.End), nil
			})
		}

		paths := guard(rt, graph.PathsWithRange(rt.Ctx, rt.Graph(), start, rel, end, s.Rel.Direction, s.Rel.Length.Lower, s.Rel.Length.Upper))
		if closed {
			paths = seq.Filter(paths, func(p graph.Path) (bool, error) {
				return p.Start().ID == p.End().ID, nil
			})
		}
		return seq.Map(paths, func(p graph.Path) (Record, error) {
			rec := bind(Record{}, s.Start.Variable, p.Start())
			rec = bind(rec, s.Rel.Variable, relationshipList(p))
			return bind(rec, s.End.Variable, p.End()), nil
		})
	})
}

// FilteringScan is a PatternScan with predicates fused into it. Rows are
// checked as the scan produces them, so no intermediate Filter pipes run.
type FilteringScan struct {
	Scan       *PatternScan
	Predicates []ast.Expr
}

// NewFilteringScan fuses predicates into scan.
func NewFilteringScan(scan *PatternScan, predicates ...ast.Expr) *FilteringScan {
	return &FilteringScan{Scan: scan, Predicates: predicates}
}

func (s *FilteringScan) Columns() []string { return s.Scan.Columns() }
func (*FilteringScan) Children() []Pipe    { return nil }

func (s *FilteringScan) WithChildren(children ...Pipe) Pipe {
	mustArity("FilteringScan", children, 0)
	return s
}

func (s *FilteringScan) String() string {
	if len(s.Predicates) == 0 {
		return "FilteringScan(" + s.Scan.Pattern().String() + ")"
	}
	return "FilteringScan(" + s.Scan.Pattern().String() + " WHERE " + ast.And(s.Predicates...).String() + ")"
}

func (s *FilteringScan) Execute(rt *Runtime) seq.Seq[Record] {
	return seq.Filter(s.Scan.Execute(rt), func(rec Record) (bool, error) {
		for _, p := range s.Predicates {
			v, err := Eval(rt, rec, p)
			if err != nil {
				return false, err
			}
			if !Truth(v) {
				return false, nil
			}
		}
		return true, nil
	})
}
