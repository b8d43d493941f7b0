package ast

import (
	"fmt"
	"slices"

	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/value"
)

// VarKind is what a pattern variable is bound to.
type VarKind int

const (
	VarNode VarKind = iota
	VarRelationship
	VarRelationshipList
)

func (k VarKind) String() string {
	switch k {
	case VarNode:
		return "node"
	case VarRelationship:
		return "relationship"
	case VarRelationshipList:
		return "relationship list"
	default:
		return fmt.Sprintf("VarKind(%d)", int(k))
	}
}

// SemanticState is the symbol information a parser derives from a
// Statement. The planners treat it as read-only.
type SemanticState struct {
	// Variables maps every pattern variable to its kind.
	Variables map[string]VarKind

	// Parameters lists the referenced parameter names, sorted.
	Parameters []string

	// Columns lists the result column names in order; empty without RETURN.
	Columns []string
}

// SemanticError reports a statement that parses but cannot be planned.
type SemanticError struct {
	// Clause is the zero-based index of the offending clause.
	Clause int

	Message string
}

// Error implements the error interface.
func (e *SemanticError) Error() string {
	return fmt.Sprintf("semantic error in clause %d: %s", e.Clause+1, e.Message)
}

// Analyze checks stmt and derives its SemanticState. isAggregate decides
// which function names are aggregates.
func Analyze(stmt *Statement, isAggregate func(name string) bool) (*SemanticState, error) {
	a := &analyzer{
		state:       &SemanticState{Variables: make(map[string]VarKind)},
		isAggregate: isAggregate,
	}
	if stmt == nil || len(stmt.Clauses) == 0 {
		return nil, &SemanticError{Message: "empty statement"}
	}
	for i, c := range stmt.Clauses {
		a.clause = i
		last := i == len(stmt.Clauses)-1
		var err error
		switch cl := c.(type) {
		case *Match:
			if last {
				return nil, a.errorf("a statement cannot end with MATCH; add RETURN")
			}
			err = a.match(cl)
		case *Create:
			err = a.create(cl)
		case *Return:
			if !last {
				return nil, a.errorf("RETURN must be the last clause")
			}
			err = a.ret(cl)
		default:
			err = a.errorf("unsupported clause %T", c)
		}
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(a.state.Parameters)
	return a.state, nil
}

type analyzer struct {
	state       *SemanticState
	isAggregate func(string) bool
	clause      int
}

func (a *analyzer) errorf(format string, args ...any) error {
	return &SemanticError{Clause: a.clause, Message: fmt.Sprintf(format, args...)}
}

func (a *analyzer) bind(name string, kind VarKind) error {
	if name == "" {
		return nil
	}
	if existing, ok := a.state.Variables[name]; ok && existing != kind {
		return a.errorf("variable %s is already bound as a %s, cannot rebind as a %s", name, existing, kind)
	}
	a.state.Variables[name] = kind
	return nil
}

// expr checks that e only references bound variables and records its
// parameters.
func (a *analyzer) expr(e Expr, allowAggregates bool, extra ...string) error {
	for _, v := range Variables(e) {
		if _, ok := a.state.Variables[v]; !ok && !slices.Contains(extra, v) {
			return a.errorf("variable %s is not defined", v)
		}
	}
	for _, p := range Parameters(e) {
		if !slices.Contains(a.state.Parameters, p) {
			a.state.Parameters = append(a.state.Parameters, p)
		}
	}
	if !allowAggregates && ContainsAggregate(e, a.isAggregate) {
		return a.errorf("aggregate functions are not allowed in %s", e)
	}
	return nil
}

func (a *analyzer) props(props map[string]Expr) error {
	for _, k := range sortedKeys(props) {
		if err := a.expr(props[k], false); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) pattern(p Pattern) error {
	if len(p.Parts) == 0 {
		return a.errorf("empty pattern")
	}
	for _, part := range p.Parts {
		if len(part.Nodes) == 0 || len(part.Nodes) != len(part.Rels)+1 {
			return a.errorf("malformed pattern %s", part)
		}
		for _, n := range part.Nodes {
			if err := a.props(n.Properties); err != nil {
				return err
			}
		}
		for _, r := range part.Rels {
			if err := a.props(r.Properties); err != nil {
				return err
			}
			if r.Length != nil {
				for _, b := range []*int{r.Length.Lower, r.Length.Upper} {
					if b != nil && *b < 0 {
						return a.errorf("negative hop bound in %s", r)
					}
				}
			}
		}
	}
	return nil
}

func (a *analyzer) match(m *Match) error {
	if err := a.pattern(m.Pattern); err != nil {
		return err
	}
	seenRels := map[string]bool{}
	for _, part := range m.Pattern.Parts {
		for _, n := range part.Nodes {
			if err := a.bind(n.Variable, VarNode); err != nil {
				return err
			}
		}
		for _, r := range part.Rels {
			if r.Variable == "" {
				continue
			}
			if seenRels[r.Variable] {
				return a.errorf("relationship variable %s is used twice in one pattern", r.Variable)
			}
			if _, bound := a.state.Variables[r.Variable]; bound {
				return a.errorf("relationship variable %s is already bound", r.Variable)
			}
			seenRels[r.Variable] = true
			kind := VarRelationship
			if r.Length != nil {
				kind = VarRelationshipList
			}
			if err := a.bind(r.Variable, kind); err != nil {
				return err
			}
		}
	}
	if m.Where != nil {
		return a.expr(m.Where, false)
	}
	return nil
}

func (a *analyzer) create(c *Create) error {
	if err := a.pattern(c.Pattern); err != nil {
		return err
	}
	for _, part := range c.Pattern.Parts {
		for _, n := range part.Nodes {
			if _, bound := a.state.Variables[n.Variable]; bound && n.Variable != "" {
				if len(n.Labels) > 0 || len(n.Properties) > 0 {
					return a.errorf("variable %s is already bound; CREATE cannot add labels or properties to it", n.Variable)
				}
				continue
			}
			if err := a.bind(n.Variable, VarNode); err != nil {
				return err
			}
		}
		for _, r := range part.Rels {
			if len(r.Types) != 1 {
				return a.errorf("CREATE needs exactly one relationship type in %s", r)
			}
			if r.Direction == graph.Both {
				return a.errorf("CREATE needs a directed relationship in %s", r)
			}
			if r.Length != nil {
				return a.errorf("CREATE cannot use variable-length relationships")
			}
			if _, bound := a.state.Variables[r.Variable]; bound && r.Variable != "" {
				return a.errorf("relationship variable %s is already bound", r.Variable)
			}
			if err := a.bind(r.Variable, VarRelationship); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *analyzer) ret(r *Return) error {
	if len(r.Items) == 0 {
		return a.errorf("RETURN needs at least one item")
	}
	aggregating := false
	for _, it := range r.Items {
		if err := a.expr(it.Expr, true); err != nil {
			return err
		}
		if ContainsAggregate(it.Expr, a.isAggregate) {
			aggregating = true
		}
		name := it.Name()
		if slices.Contains(a.state.Columns, name) {
			return a.errorf("duplicate column name %s", name)
		}
		a.state.Columns = append(a.state.Columns, name)
	}
	for _, s := range r.OrderBy {
		// ORDER BY sees the projected columns; pattern variables stay
		// visible only when rows are neither grouped nor deduplicated.
		if r.Distinct || aggregating {
			if err := a.orderByProjected(s.Expr); err != nil {
				return err
			}
			continue
		}
		if err := a.expr(s.Expr, false, a.state.Columns...); err != nil {
			return err
		}
	}
	for _, bound := range []Expr{r.Skip, r.Limit} {
		if bound == nil {
			continue
		}
		switch b := bound.(type) {
		case Parameter:
			if err := a.expr(b, false); err != nil {
				return err
			}
		case Literal:
			n, ok := b.Value.(value.Integer)
			if !ok || n < 0 {
				return a.errorf("SKIP and LIMIT need a non-negative integer, got %s", b)
			}
		default:
			return a.errorf("SKIP and LIMIT need a literal or parameter, got %s", b)
		}
	}
	return nil
}

func (a *analyzer) orderByProjected(e Expr) error {
	if slices.Contains(a.state.Columns, e.String()) {
		return nil
	}
	for _, v := range Variables(e) {
		if !slices.Contains(a.state.Columns, v) {
			return a.errorf("ORDER BY after DISTINCT or aggregation can only use returned columns, %s is not one", v)
		}
	}
	return a.expr(e, false, a.state.Columns...)
}
