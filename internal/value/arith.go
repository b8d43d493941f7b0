package value

import (
	"errors"
	"math"
)

// ErrDivisionByZero is returned by integer division and modulo by zero.
var ErrDivisionByZero = errors.New("division by zero")

// Number is the numeric subset of Value: Integer and Float.
//
// Arithmetic is only defined between Numbers. Callers type-check operands
// (v.(value.Number)) before invoking it, so arithmetic between non-numeric
// variants cannot be expressed.
type Number interface {
	Value
	float() float64
	number()
}

func (Integer) number() {}
func (Float) number()   {}

func (i Integer) float() float64 { return float64(i) }
func (f Float) float() float64   { return float64(f) }

// AsNumber returns v as a Number if it is an Integer or Float.
func AsNumber(v Value) (Number, bool) {
	n, ok := v.(Number)
	return n, ok
}

// Float64 returns the numeric value of n widened to float64.
func Float64(n Number) float64 {
	return n.float()
}

// bothIntegers reports whether the operands stay in integer arithmetic.
func bothIntegers(a, b Number) (Integer, Integer, bool) {
	ai, aok := a.(Integer)
	bi, bok := b.(Integer)
	return ai, bi, aok && bok
}

// Add returns a+b. Integer+Integer is an Integer; any Float operand widens
// the result to Float.
func Add(a, b Number) Number {
	if ai, bi, ok := bothIntegers(a, b); ok {
		return ai + bi
	}
	return Float(a.float() + b.float())
}

// Subtract returns a-b with the same widening rule as Add.
func Subtract(a, b Number) Number {
	if ai, bi, ok := bothIntegers(a, b); ok {
		return ai - bi
	}
	return Float(a.float() - b.float())
}

// Multiply returns a*b with the same widening rule as Add.
func Multiply(a, b Number) Number {
	if ai, bi, ok := bothIntegers(a, b); ok {
		return ai * bi
	}
	return Float(a.float() * b.float())
}

// Divide returns a/b. Integer division truncates toward zero and fails on a
// zero divisor; Float division follows IEEE-754.
func Divide(a, b Number) (Number, error) {
	if ai, bi, ok := bothIntegers(a, b); ok {
		if bi == 0 {
			return nil, ErrDivisionByZero
		}
		return ai / bi, nil
	}
	return Float(a.float() / b.float()), nil
}

// Modulo returns the remainder of a/b with the sign of a.
func Modulo(a, b Number) (Number, error) {
	if ai, bi, ok := bothIntegers(a, b); ok {
		if bi == 0 {
			return nil, ErrDivisionByZero
		}
		return ai % bi, nil
	}
	return Float(math.Mod(a.float(), b.float())), nil
}

// Negate returns -n.
func Negate(n Number) Number {
	if i, ok := n.(Integer); ok {
		return -i
	}
	return Float(-n.float())
}
