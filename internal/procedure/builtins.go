package procedure

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/pathway/internal/value"
)

func param(name string, kind value.Kind) []Param {
	return []Param{{Name: name, Type: kind}}
}

// nullable wraps a one-argument body so that a Null argument yields Null.
func nullable(fn func(v value.Value) (value.Value, error)) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		if value.KindOf(args[0]) == value.KindNull {
			return value.Null{}, nil
		}
		return fn(args[0])
	}
}

func builtinFunctions() []Procedure {
	var idFn, keysFn *Function
	idFn = NewFunction("id", param("entity", value.KindAny), value.KindString, nullable(func(v value.Value) (value.Value, error) {
		switch e := v.(type) {
		case value.Node:
			return value.String(e.ID), nil
		case value.Relationship:
			return value.String(e.ID), nil
		}
		return nil, newTypeError(idFn.sig, idFn.sig.Inputs[0], describe(v))
	}))
	keysFn = NewFunction("keys", param("entity", value.KindAny), value.KindList, nullable(func(v value.Value) (value.Value, error) {
		var props value.Map
		switch e := v.(type) {
		case value.Node:
			props = e.Properties
		case value.Relationship:
			props = e.Properties
		case value.Map:
			props = e
		default:
			return nil, newTypeError(keysFn.sig, keysFn.sig.Inputs[0], describe(v))
		}
		out := value.List{}
		for _, k := range props.SortedKeys() {
			out = append(out, value.String(k))
		}
		return out, nil
	}))

	var sizeFn *Function
	sizeFn = NewFunction("size", param("value", value.KindAny), value.KindInteger, nullable(func(v value.Value) (value.Value, error) {
		switch e := v.(type) {
		case value.List:
			return value.Integer(len(e)), nil
		case value.String:
			return value.Integer(utf8.RuneCountInString(string(e))), nil
		case value.Map:
			return value.Integer(len(e)), nil
		}
		return nil, newTypeError(sizeFn.sig, sizeFn.sig.Inputs[0], describe(v))
	}))

	var toStringFn *Function
	toStringFn = NewFunction("toString", param("value", value.KindAny), value.KindString, nullable(func(v value.Value) (value.Value, error) {
		switch v.(type) {
		case value.String, value.Integer, value.Float, value.Boolean, value.Date, value.DateTime:
			return value.String(v.String()), nil
		}
		return nil, newTypeError(toStringFn.sig, toStringFn.sig.Inputs[0], describe(v))
	}))

	return []Procedure{
		idFn,
		keysFn,
		sizeFn,
		toStringFn,
		NewFunction("labels", param("node", value.KindNode), value.KindList, nullable(func(v value.Value) (value.Value, error) {
			n := v.(value.Node)
			out := make(value.List, len(n.Labels))
			for i, l := range n.Labels {
				out[i] = value.String(l)
			}
			return out, nil
		})),
		NewFunction("type", param("relationship", value.KindRelationship), value.KindString, nullable(func(v value.Value) (value.Value, error) {
			return value.String(v.(value.Relationship).RelType), nil
		})),
		NewFunction("toUpper", param("s", value.KindString), value.KindString, nullable(func(v value.Value) (value.Value, error) {
			return value.String(strings.ToUpper(string(v.(value.String)))), nil
		})),
		NewFunction("toLower", param("s", value.KindString), value.KindString, nullable(func(v value.Value) (value.Value, error) {
			return value.String(strings.ToLower(string(v.(value.String)))), nil
		})),
		NewFunction("toInteger", param("value", value.KindAny), value.KindInteger, nullable(toInteger)),
		NewFunction("toFloat", param("value", value.KindAny), value.KindFloat, nullable(toFloat)),
		NewFunction("abs", param("n", value.KindNumber), value.KindNumber, nullable(func(v value.Value) (value.Value, error) {
			switch n := v.(type) {
			case value.Integer:
				if n < 0 {
					return -n, nil
				}
				return n, nil
			case value.Float:
				return value.Float(math.Abs(float64(n))), nil
			}
			return value.Null{}, nil
		})),
	}
}

// toInteger converts numbers and numeric strings. Unparseable input yields
// Null rather than an error.
func toInteger(v value.Value) (value.Value, error) {
	switch n := v.(type) {
	case value.Integer:
		return n, nil
	case value.Float:
		return value.Integer(int64(n)), nil
	case value.Boolean:
		if n {
			return value.Integer(1), nil
		}
		return value.Integer(0), nil
	case value.String:
		s := strings.TrimSpace(string(n))
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return value.Integer(i), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return value.Integer(int64(f)), nil
		}
	}
	return value.Null{}, nil
}

// toFloat converts numbers and numeric strings. Unparseable input yields
// Null.
func toFloat(v value.Value) (value.Value, error) {
	switch n := v.(type) {
	case value.Integer:
		return value.Float(n), nil
	case value.Float:
		return n, nil
	case value.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64); err == nil {
			return value.Float(f), nil
		}
	}
	return value.Null{}, nil
}

func builtinAggregates() []Aggregating {
	return []Aggregating{
		NewAggregate("count", value.KindInteger, func() Aggregator { return &countAgg{} }),
		NewAggregate("sum", value.KindNumber, func() Aggregator { return &sumAgg{name: "sum"} }),
		NewAggregate("avg", value.KindFloat, func() Aggregator { return &avgAgg{sum: sumAgg{name: "avg"}} }),
		NewAggregate("min", value.KindAny, func() Aggregator { return &extremeAgg{keep: -1} }),
		NewAggregate("max", value.KindAny, func() Aggregator { return &extremeAgg{keep: 1} }),
		NewAggregate("collect", value.KindList, func() Aggregator { return &collectAgg{out: value.List{}} }),
	}
}

func isNull(v value.Value) bool {
	return value.KindOf(v) == value.KindNull
}

// countAgg counts non-null values.
type countAgg struct {
	n int64
}

func (a *countAgg) Collect(v value.Value) error {
	if !isNull(v) {
		a.n++
	}
	return nil
}

func (a *countAgg) Value() value.Value {
	return value.Integer(a.n)
}

// sumAgg stays Integer until a Float arrives.
type sumAgg struct {
	name  string
	total value.Number
	count int64
}

func (a *sumAgg) Collect(v value.Value) error {
	if isNull(v) {
		return nil
	}
	n, ok := value.AsNumber(v)
	if !ok {
		return &Error{
			Code:      ErrCodeWrongArgumentType,
			Procedure: a.name,
			Param:     "values",
			Message:   a.name + ": parameter values expects NUMBER, got " + describe(v),
		}
	}
	if a.total == nil {
		a.total = value.Integer(0)
	}
	a.total = value.Add(a.total, n)
	a.count++
	return nil
}

func (a *sumAgg) Value() value.Value {
	if a.total == nil {
		return value.Integer(0)
	}
	return a.total
}

type avgAgg struct {
	sum sumAgg
}

func (a *avgAgg) Collect(v value.Value) error {
	return a.sum.Collect(v)
}

func (a *avgAgg) Value() value.Value {
	if a.sum.count == 0 {
		return value.Null{}
	}
	return value.Float(value.Float64(a.sum.total) / float64(a.sum.count))
}

// extremeAgg keeps the smallest (keep=-1) or largest (keep=1) non-null value
// under the ORDER BY ordering.
type extremeAgg struct {
	keep int
	best value.Value
}

func (a *extremeAgg) Collect(v value.Value) error {
	if isNull(v) {
		return nil
	}
	if a.best == nil || value.OrderCompare(v, a.best)*a.keep > 0 {
		a.best = v
	}
	return nil
}

func (a *extremeAgg) Value() value.Value {
	if a.best == nil {
		return value.Null{}
	}
	return a.best
}

// collectAgg gathers non-null values in input order.
type collectAgg struct {
	out value.List
}

func (a *collectAgg) Collect(v value.Value) error {
	if !isNull(v) {
		a.out = append(a.out, v)
	}
	return nil
}

func (a *collectAgg) Value() value.Value {
	return a.out
}
