package value

import "strings"

// Kind is the type tag of a Value. Declared procedure signatures also use
// Kind, which is why the pseudo-kinds KindAny and KindNumber exist: no value
// reports them, they only appear in declarations.
type Kind int

const (
	KindAny Kind = iota
	KindNull
	KindInteger
	KindFloat
	KindNumber
	KindString
	KindBoolean
	KindList
	KindMap
	KindDate
	KindDateTime
	KindNode
	KindRelationship
)

var kindNames = map[Kind]string{
	KindAny:          "ANY",
	KindNull:         "NULL",
	KindInteger:      "INTEGER",
	KindFloat:        "FLOAT",
	KindNumber:       "NUMBER",
	KindString:       "STRING",
	KindBoolean:      "BOOLEAN",
	KindList:         "LIST",
	KindMap:          "MAP",
	KindDate:         "DATE",
	KindDateTime:     "DATETIME",
	KindNode:         "NODE",
	KindRelationship: "RELATIONSHIP",
}

// String returns the upper-case name of the kind, e.g. "INTEGER".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseKind resolves a kind name regardless of case.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return k, true
		}
	}
	return KindAny, false
}

// KindOf returns the kind of v. A nil interface reports KindNull.
func KindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}
	return v.Kind()
}

// Conforms reports whether v may be passed where declared is expected.
//
// Null conforms to every declared kind, KindAny accepts every value and
// KindNumber accepts both Integer and Float. Every other declaration
// compares the type tag exactly.
func Conforms(declared Kind, v Value) bool {
	actual := KindOf(v)
	switch {
	case actual == KindNull:
		return true
	case declared == KindAny:
		return true
	case declared == KindNumber:
		return actual == KindInteger || actual == KindFloat
	default:
		return declared == actual
	}
}
