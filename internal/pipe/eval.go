package pipe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/value"
)

// Eval evaluates e against rec.
//
// Variables resolve to record fields. An expression that is not a variable
// but whose rendering names a field (a projected "a.name" or "count(*)")
// resolves to that field, which is how ORDER BY reads projected and
// aggregated columns.
func Eval(rt *Runtime, rec Record, e ast.Expr) (value.Value, error) {
	switch x := e.(type) {
	case ast.Literal:
		if x.Value == nil {
			return value.Null{}, nil
		}
		return x.Value, nil
	case ast.Parameter:
		return rt.Param(x.Name)
	case ast.Variable:
		if v, ok := rec.Get(x.Name); ok {
			return v, nil
		}
		return nil, &RuntimeError{
			Code:    ErrCodeUnboundVariable,
			Message: fmt.Sprintf("variable %s is not bound", x.Name),
			Expr:    e.String(),
		}
	}
	if v, ok := rec.Get(e.String()); ok {
		return v, nil
	}

	switch x := e.(type) {
	case ast.Property:
		subject, err := Eval(rt, rec, x.Subject)
		if err != nil {
			return nil, err
		}
		return property(subject, x)
	case ast.Binary:
		return evalBinary(rt, rec, x)
	case ast.Not:
		v, err := Eval(rt, rec, x.Expr)
		if err != nil {
			return nil, err
		}
		b, known, err := truthValue(v, x)
		if err != nil || !known {
			return value.Null{}, err
		}
		return value.Boolean(!b), nil
	case ast.Negate:
		v, err := Eval(rt, rec, x.Expr)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(value.Null); ok {
			return v, nil
		}
		n, ok := value.AsNumber(v)
		if !ok {
			return nil, typeError(x.String(), "cannot negate %s", value.KindOf(v))
		}
		return value.Negate(n), nil
	case ast.IsNull:
		v, err := Eval(rt, rec, x.Expr)
		if err != nil {
			return nil, err
		}
		_, null := v.(value.Null)
		return value.Boolean(null != x.Negated), nil
	case ast.HasLabels:
		subject, err := Eval(rt, rec, x.Subject)
		if err != nil {
			return nil, err
		}
		switch n := subject.(type) {
		case value.Null:
			return n, nil
		case value.Node:
			for _, l := range x.Labels {
				if !n.HasLabel(l) {
					return value.Boolean(false), nil
				}
			}
			return value.Boolean(true), nil
		}
		return nil, typeError(x.String(), "label check needs a node, got %s", value.KindOf(subject))
	case ast.ListLiteral:
		out := make(value.List, len(x.Items))
		for i, item := range x.Items {
			v, err := Eval(rt, rec, item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case ast.MapLiteral:
		return evalMap(rt, rec, x.Entries)
	case ast.FunctionCall:
		if rt.Procedures.IsAggregating(x.Name) {
			return nil, typeError(x.String(), "aggregate %s used outside an aggregation", x.Name)
		}
		args := make([]value.Value, len(x.Args))
		for i, a := range x.Args {
			v, err := Eval(rt, rec, a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		out, err := rt.Procedures.CallFunction(x.Name, args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", x.String(), err)
		}
		return out, nil
	case ast.CountStar:
		return nil, typeError(x.String(), "count(*) used outside an aggregation")
	}
	return nil, typeError(e.String(), "unsupported expression %T", e)
}

// Truth reports whether v is the boolean true. Null and false both fail a
// predicate.
func Truth(v value.Value) bool {
	b, ok := v.(value.Boolean)
	return ok && bool(b)
}

func evalMap(rt *Runtime, rec Record, entries map[string]ast.Expr) (value.Map, error) {
	out := make(value.Map, len(entries))
	for k, e := range entries {
		v, err := Eval(rt, rec, e)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func property(subject value.Value, x ast.Property) (value.Value, error) {
	var (
		v  value.Value
		ok bool
	)
	switch s := subject.(type) {
	case value.Null:
		return s, nil
	case value.Node:
		v, ok = s.Property(x.Key)
	case value.Relationship:
		v, ok = s.Property(x.Key)
	case value.Map:
		v, ok = s[x.Key]
	default:
		return nil, typeError(x.String(), "cannot read property %s of %s", x.Key, value.KindOf(subject))
	}
	if !ok || v == nil {
		return value.Null{}, nil
	}
	return v, nil
}

// truthValue reads v as a three-valued boolean. known is false for null.
func truthValue(v value.Value, e ast.Expr) (b, known bool, err error) {
	switch x := v.(type) {
	case value.Null:
		return false, false, nil
	case value.Boolean:
		return bool(x), true, nil
	}
	return false, false, typeError(e.String(), "expected a boolean, got %s", value.KindOf(v))
}

func evalBinary(rt *Runtime, rec Record, x ast.Binary) (value.Value, error) {
	left, err := Eval(rt, rec, x.Left)
	if err != nil {
		return nil, err
	}
	if x.Op.IsLogical() {
		return evalLogical(rt, rec, x, left)
	}
	right, err := Eval(rt, rec, x.Right)
	if err != nil {
		return nil, err
	}
	switch {
	case x.Op.IsComparison():
		return compare(x.Op, left, right), nil
	case x.Op.IsArithmetic():
		return arithmetic(x, left, right)
	}
	switch x.Op {
	case ast.OpIn:
		return in(x, left, right)
	case ast.OpStartsWith, ast.OpEndsWith, ast.OpContains:
		return stringPredicate(x, left, right)
	}
	return nil, typeError(x.String(), "unknown operator %s", x.Op)
}

// evalLogical applies the Kleene tables. AND and OR skip the right operand
// when the left one decides the result.
func evalLogical(rt *Runtime, rec Record, x ast.Binary, left value.Value) (value.Value, error) {
	lb, lknown, err := truthValue(left, x.Left)
	if err != nil {
		return nil, err
	}
	if lknown && x.Op == ast.OpAnd && !lb {
		return value.Boolean(false), nil
	}
	if lknown && x.Op == ast.OpOr && lb {
		return value.Boolean(true), nil
	}
	right, err := Eval(rt, rec, x.Right)
	if err != nil {
		return nil, err
	}
	rb, rknown, err := truthValue(right, x.Right)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case ast.OpAnd:
		if rknown && !rb {
			return value.Boolean(false), nil
		}
		if lknown && rknown {
			return value.Boolean(true), nil
		}
	case ast.OpOr:
		if rknown && rb {
			return value.Boolean(true), nil
		}
		if lknown && rknown {
			return value.Boolean(false), nil
		}
	case ast.OpXor:
		if lknown && rknown {
			return value.Boolean(lb != rb), nil
		}
	}
	return value.Null{}, nil
}

func isNull(v value.Value) bool {
	_, ok := v.(value.Null)
	return ok || v == nil
}

func compare(op ast.BinaryOp, left, right value.Value) value.Value {
	if isNull(left) || isNull(right) {
		return value.Null{}
	}
	switch op {
	case ast.OpEq:
		return equals(left, right)
	case ast.OpNe:
		eq := equals(left, right)
		if b, ok := eq.(value.Boolean); ok {
			return !b
		}
		return eq
	}
	c, ok := value.Compare(left, right)
	if !ok {
		return value.Null{}
	}
	switch op {
	case ast.OpLt:
		return value.Boolean(c < 0)
	case ast.OpLe:
		return value.Boolean(c <= 0)
	case ast.OpGt:
		return value.Boolean(c > 0)
	default:
		return value.Boolean(c >= 0)
	}
}

// equals is query-level equality: numbers compare numerically across
// Integer and Float, and a null anywhere inside a list makes the result
// unknown unless another element already differs.
func equals(left, right value.Value) value.Value {
	if isNull(left) || isNull(right) {
		return value.Null{}
	}
	_, lnum := value.AsNumber(left)
	_, rnum := value.AsNumber(right)
	if lnum && rnum {
		c, _ := value.Compare(left, right)
		return value.Boolean(c == 0)
	}
	ll, lok := left.(value.List)
	rl, rok := right.(value.List)
	if lok && rok {
		if len(ll) != len(rl) {
			return value.Boolean(false)
		}
		unknown := false
		for i := range ll {
			switch eq := equals(ll[i], rl[i]).(type) {
			case value.Boolean:
				if !eq {
					return eq
				}
			default:
				unknown = true
			}
		}
		if unknown {
			return value.Null{}
		}
		return value.Boolean(true)
	}
	return value.Boolean(value.Equal(left, right))
}

func arithmetic(x ast.Binary, left, right value.Value) (value.Value, error) {
	if isNull(left) || isNull(right) {
		return value.Null{}, nil
	}
	if x.Op == ast.OpAdd {
		if out, ok := concat(left, right); ok {
			return out, nil
		}
	}
	ln, lok := value.AsNumber(left)
	rn, rok := value.AsNumber(right)
	if !lok || !rok {
		return nil, typeError(x.String(), "cannot apply %s to %s and %s", x.Op, value.KindOf(left), value.KindOf(right))
	}
	var (
		out value.Number
		err error
	)
	switch x.Op {
	case ast.OpAdd:
		out = value.Add(ln, rn)
	case ast.OpSub:
		out = value.Subtract(ln, rn)
	case ast.OpMul:
		out = value.Multiply(ln, rn)
	case ast.OpDiv:
		out, err = value.Divide(ln, rn)
	case ast.OpMod:
		out, err = value.Modulo(ln, rn)
	}
	if err != nil {
		if errors.Is(err, value.ErrDivisionByZero) {
			return nil, &RuntimeError{Code: ErrCodeArithmetic, Message: err.Error(), Expr: x.String(), Err: err}
		}
		return nil, err
	}
	return out, nil
}

// concat handles the non-numeric forms of +: string concatenation and list
// concatenation or append.
func concat(left, right value.Value) (value.Value, bool) {
	if ls, ok := left.(value.String); ok {
		if rs, ok := right.(value.String); ok {
			return ls + rs, true
		}
		if rn, ok := value.AsNumber(right); ok {
			return ls + value.String(rn.String()), true
		}
	}
	if rs, ok := right.(value.String); ok {
		if ln, ok := value.AsNumber(left); ok {
			return value.String(ln.String()) + rs, true
		}
	}
	if ll, ok := left.(value.List); ok {
		out := append(value.List{}, ll...)
		if rl, ok := right.(value.List); ok {
			return append(out, rl...), true
		}
		return append(out, right), true
	}
	if rl, ok := right.(value.List); ok {
		return append(value.List{left}, rl...), true
	}
	return nil, false
}

func in(x ast.Binary, left, right value.Value) (value.Value, error) {
	if isNull(right) {
		return value.Null{}, nil
	}
	list, ok := right.(value.List)
	if !ok {
		return nil, typeError(x.String(), "IN needs a list, got %s", value.KindOf(right))
	}
	unknown := false
	for _, elem := range list {
		switch eq := equals(left, elem).(type) {
		case value.Boolean:
			if eq {
				return value.Boolean(true), nil
			}
		default:
			unknown = true
		}
	}
	if unknown {
		return value.Null{}, nil
	}
	return value.Boolean(false), nil
}

func stringPredicate(x ast.Binary, left, right value.Value) (value.Value, error) {
	ls, lok := left.(value.String)
	rs, rok := right.(value.String)
	if !lok || !rok {
		if isNull(left) || isNull(right) {
			return value.Null{}, nil
		}
		return nil, typeError(x.String(), "%s needs strings, got %s and %s", x.Op, value.KindOf(left), value.KindOf(right))
	}
	switch x.Op {
	case ast.OpStartsWith:
		return value.Boolean(strings.HasPrefix(string(ls), string(rs))), nil
	case ast.OpEndsWith:
		return value.Boolean(strings.HasSuffix(string(ls), string(rs))), nil
	default:
		return value.Boolean(strings.Contains(string(ls), string(rs))), nil
	}
}
