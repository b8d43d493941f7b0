package ast

import (
	"slices"
	"strings"

	"github.com/roach88/pathway/internal/value"
)

// Expr is an expression. Sealed: only types in this package implement it.
type Expr interface {
	String() string
	exprNode()
}

// Literal is a constant value.
type Literal struct {
	Value value.Value
}

// Parameter is a named query parameter, "$name".
type Parameter struct {
	Name string
}

// Variable references a bound pattern variable or projected column.
type Variable struct {
	Name string
}

// Property is "subject.key".
type Property struct {
	Subject Expr
	Key     string
}

// BinaryOp is an infix operator.
type BinaryOp string

const (
	OpEq         BinaryOp = "="
	OpNe         BinaryOp = "<>"
	OpLt         BinaryOp = "<"
	OpLe         BinaryOp = "<="
	OpGt         BinaryOp = ">"
	OpGe         BinaryOp = ">="
	OpAnd        BinaryOp = "AND"
	OpOr         BinaryOp = "OR"
	OpXor        BinaryOp = "XOR"
	OpAdd        BinaryOp = "+"
	OpSub        BinaryOp = "-"
	OpMul        BinaryOp = "*"
	OpDiv        BinaryOp = "/"
	OpMod        BinaryOp = "%"
	OpIn         BinaryOp = "IN"
	OpStartsWith BinaryOp = "STARTS WITH"
	OpEndsWith   BinaryOp = "ENDS WITH"
	OpContains   BinaryOp = "CONTAINS"
)

// IsComparison reports whether op compares its operands.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// IsLogical reports whether op is AND, OR or XOR.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr || op == OpXor
}

// IsArithmetic reports whether op is + - * / %.
func (op BinaryOp) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return true
	}
	return false
}

// Binary is "left op right".
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Not is logical negation.
type Not struct {
	Expr Expr
}

// Negate is unary minus.
type Negate struct {
	Expr Expr
}

// IsNull is "expr IS NULL", or "expr IS NOT NULL" when Negated.
type IsNull struct {
	Expr    Expr
	Negated bool
}

// FunctionCall invokes a registered function or aggregate.
type FunctionCall struct {
	Name     string
	Args     []Expr
	Distinct bool
}

// CountStar is "count(*)".
type CountStar struct{}

// ListLiteral is "[a, b, c]".
type ListLiteral struct {
	Items []Expr
}

// MapLiteral is "{k: v}".
type MapLiteral struct {
	Entries map[string]Expr
}

// HasLabels is "subject:Label:Other".
type HasLabels struct {
	Subject Expr
	Labels  []string
}

func (Literal) exprNode()      {}
func (Parameter) exprNode()    {}
func (Variable) exprNode()     {}
func (Property) exprNode()     {}
func (Binary) exprNode()       {}
func (Not) exprNode()          {}
func (Negate) exprNode()       {}
func (IsNull) exprNode()       {}
func (FunctionCall) exprNode() {}
func (CountStar) exprNode()    {}
func (ListLiteral) exprNode()  {}
func (MapLiteral) exprNode()   {}
func (HasLabels) exprNode()    {}

func (e Literal) String() string   { return value.Literal(e.Value) }
func (e Parameter) String() string { return "$" + e.Name }
func (e Variable) String() string  { return e.Name }
func (e Property) String() string  { return operand(e.Subject) + "." + e.Key }
func (CountStar) String() string   { return "count(*)" }

func (e Binary) String() string {
	return operand(e.Left) + " " + string(e.Op) + " " + operand(e.Right)
}

func (e Not) String() string    { return "NOT " + operand(e.Expr) }
func (e Negate) String() string { return "-" + operand(e.Expr) }

func (e IsNull) String() string {
	if e.Negated {
		return operand(e.Expr) + " IS NOT NULL"
	}
	return operand(e.Expr) + " IS NULL"
}

func (e FunctionCall) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	prefix := ""
	if e.Distinct {
		prefix = "DISTINCT "
	}
	return e.Name + "(" + prefix + strings.Join(args, ", ") + ")"
}

func (e ListLiteral) String() string {
	items := make([]string, len(e.Items))
	for i, it := range e.Items {
		items[i] = it.String()
	}
	return "[" + strings.Join(items, ", ") + "]"
}

func (e MapLiteral) String() string {
	return renderProps(e.Entries)
}

func (e HasLabels) String() string {
	return operand(e.Subject) + ":" + strings.Join(e.Labels, ":")
}

// operand parenthesizes compound sub-expressions.
func operand(e Expr) string {
	switch e.(type) {
	case Binary, Not, Negate, IsNull:
		return "(" + e.String() + ")"
	}
	return e.String()
}

// Walk calls fn for e and every sub-expression, parents first. Returning
// false from fn skips the children of that node.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case Property:
		Walk(n.Subject, fn)
	case Binary:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case Not:
		Walk(n.Expr, fn)
	case Negate:
		Walk(n.Expr, fn)
	case IsNull:
		Walk(n.Expr, fn)
	case FunctionCall:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case ListLiteral:
		for _, it := range n.Items {
			Walk(it, fn)
		}
	case MapLiteral:
		for _, k := range sortedKeys(n.Entries) {
			Walk(n.Entries[k], fn)
		}
	case HasLabels:
		Walk(n.Subject, fn)
	}
}

// Variables returns the distinct variable names e references, in first
// occurrence order.
func Variables(e Expr) []string {
	var out []string
	Walk(e, func(n Expr) bool {
		if v, ok := n.(Variable); ok && !slices.Contains(out, v.Name) {
			out = append(out, v.Name)
		}
		return true
	})
	return out
}

// Parameters returns the distinct parameter names e references.
func Parameters(e Expr) []string {
	var out []string
	Walk(e, func(n Expr) bool {
		if p, ok := n.(Parameter); ok && !slices.Contains(out, p.Name) {
			out = append(out, p.Name)
		}
		return true
	})
	return out
}

// ContainsAggregate reports whether e calls an aggregate, as decided by
// isAggregate, or count(*).
func ContainsAggregate(e Expr, isAggregate func(name string) bool) bool {
	found := false
	Walk(e, func(n Expr) bool {
		switch c := n.(type) {
		case CountStar:
			found = true
		case FunctionCall:
			if isAggregate(c.Name) {
				found = true
			}
		}
		return !found
	})
	return found
}

// Conjuncts splits a chain of ANDs into its operands. A nil expression has
// no conjuncts.
func Conjuncts(e Expr) []Expr {
	if e == nil {
		return nil
	}
	if b, ok := e.(Binary); ok && b.Op == OpAnd {
		return append(Conjuncts(b.Left), Conjuncts(b.Right)...)
	}
	return []Expr{e}
}

// And joins predicates with AND. It returns nil for no predicates.
func And(preds ...Expr) Expr {
	var out Expr
	for _, p := range preds {
		if out == nil {
			out = p
			continue
		}
		out = Binary{Op: OpAnd, Left: out, Right: p}
	}
	return out
}

func sortedKeys(m map[string]Expr) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
