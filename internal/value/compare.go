package value

import (
	"cmp"
	"strings"
)

// Equal reports structural equivalence of two values.
//
// Unlike query-level equality, Equal is two-valued: Null equals Null. It is
// used for grouping, DISTINCT and property filters. Integer and Float
// compare numerically, so Integer(1) equals Float(1); two Integers compare
// exactly. Lists and maps compare element-wise; nodes and relationships
// compare by identity. Kind checks belong to Conforms.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	if an, ok := a.(Number); ok {
		bn, ok := b.(Number)
		return ok && an.float() == bn.float() && sameIntegerness(an, bn)
	}
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Boolean:
		bv, ok := b.(Boolean)
		return ok && av == bv
	case Date:
		bv, ok := b.(Date)
		return ok && av == bv
	case DateTime:
		bv, ok := b.(DateTime)
		return ok && av == bv
	case Node:
		bv, ok := b.(Node)
		return ok && av.ID == bv.ID
	case Relationship:
		bv, ok := b.(Relationship)
		return ok && av.ID == bv.ID
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// sameIntegerness keeps Equal exact for large integers that collide once
// widened to float64.
func sameIntegerness(a, b Number) bool {
	ai, aok := a.(Integer)
	bi, bok := b.(Integer)
	if aok && bok {
		return ai == bi
	}
	return true
}

// Compare orders two values of comparable kinds. It returns ok=false when the
// kinds cannot be ordered against each other (including any Null operand),
// which query evaluation maps to a Null result.
func Compare(a, b Value) (int, bool) {
	if an, ok := a.(Number); ok {
		bn, ok := b.(Number)
		if !ok {
			return 0, false
		}
		if ai, bi, ints := bothIntegers(an, bn); ints {
			return cmp.Compare(ai, bi), true
		}
		return cmp.Compare(an.float(), bn.float()), true
	}
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		return strings.Compare(string(av), string(bv)), ok
	case Boolean:
		bv, ok := b.(Boolean)
		return cmp.Compare(boolRank(av), boolRank(bv)), ok
	case Date:
		bv, ok := b.(Date)
		return cmp.Compare(av, bv), ok
	case DateTime:
		bv, ok := b.(DateTime)
		return cmp.Compare(av, bv), ok
	case List:
		bv, ok := b.(List)
		if !ok {
			return 0, false
		}
		for i := 0; i < len(av) && i < len(bv); i++ {
			c, ok := Compare(av[i], bv[i])
			if !ok {
				return 0, false
			}
			if c != 0 {
				return c, true
			}
		}
		return cmp.Compare(len(av), len(bv)), true
	default:
		return 0, false
	}
}

func boolRank(b Boolean) int {
	if b {
		return 1
	}
	return 0
}

// orderRank groups kinds for the total ORDER BY order. Nulls sort last.
var orderRank = map[Kind]int{
	KindMap:          0,
	KindNode:         1,
	KindRelationship: 2,
	KindList:         3,
	KindDateTime:     4,
	KindDate:         5,
	KindString:       6,
	KindBoolean:      7,
	KindInteger:      8,
	KindFloat:        8,
	KindNull:         9,
}

// OrderCompare is a total order over all values used by ORDER BY: values of
// different kind groups are ordered by group, values within a group by
// Compare, and nodes/relationships by identifier.
func OrderCompare(a, b Value) int {
	ka, kb := KindOf(a), KindOf(b)
	if r := cmp.Compare(orderRank[ka], orderRank[kb]); r != 0 {
		return r
	}
	if c, ok := Compare(a, b); ok {
		return c
	}
	switch av := a.(type) {
	case Node:
		return strings.Compare(string(av.ID), string(b.(Node).ID))
	case Relationship:
		return strings.Compare(string(av.ID), string(b.(Relationship).ID))
	case Map:
		return strings.Compare(av.String(), b.(Map).String())
	case List:
		return strings.Compare(av.String(), b.(List).String())
	}
	return 0
}
