package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"null", Null{}, "null"},
		{"nil", nil, "null"},
		{"string", String("hello"), `"hello"`},
		{"int", Integer(42), "42"},
		{"min int64", Integer(math.MinInt64), "-9223372036854775808"},
		{"whole float", Float(1), "1.0"},
		{"fraction", Float(0.25), "0.25"},
		{"exponent", Float(1e21), "1e+21"},
		{"nan", Float(math.NaN()), `{"$float":"NaN"}`},
		{"bool", Boolean(true), "true"},
		{"empty list", List{}, "[]"},
		{"empty map", Map{}, "{}"},
		{"date", Date(86400000), `{"$date":86400000}`},
		{"datetime", DateTime(5), `{"$datetime":5}`},
		{"node", Node{ID: "n1", Labels: []string{"A"}}, `{"$node":"n1"}`},
		{"relationship", Relationship{ID: "r1"}, `{"$rel":"r1"}`},
		{"no html escaping", String("<a&b>"), `"<a&b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	m := Map{
		"zebra": Integer(1),
		"alpha": Map{"b": Integer(1), "a": Integer(2)},
		"beta":  List{Integer(3)},
	}

	result, err := MarshalCanonical(m)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":2,"b":1},"beta":[3],"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 sorts before U+10000 in UTF-8 but after its surrogate pair in UTF-16.
	m := Map{
		"\uE000":     Integer(1),
		"\U00010000": Integer(2),
	}

	result, err := MarshalCanonical(m)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	composed, err := MarshalCanonical(String("\u00e9"))
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(String("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical(String("a\u2028b"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(result))
}

func TestHashDistinguishesIntegerAndFloat(t *testing.T) {
	hi, err := Hash(DomainRow, Integer(1))
	require.NoError(t, err)
	hf, err := Hash(DomainRow, Float(1))
	require.NoError(t, err)
	assert.NotEqual(t, hi, hf)
}

func TestHashDomainSeparation(t *testing.T) {
	a, err := Hash(DomainRow, String("x"))
	require.NoError(t, err)
	b, err := Hash(DomainPlan, String("x"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}

func TestHashDeterministic(t *testing.T) {
	m1 := Map{"a": Integer(1), "b": List{String("x")}}
	m2 := Map{"b": List{String("x")}, "a": Integer(1)}

	h1, err := Hash(DomainRow, m1)
	require.NoError(t, err)
	h2, err := Hash(DomainRow, m2)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestGroupKeyUnifiesWholeFloats(t *testing.T) {
	a, err := GroupKey(Integer(2), List{Float(3)})
	require.NoError(t, err)
	b, err := GroupKey(Float(2), List{Integer(3)})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := GroupKey(Float(2.5))
	require.NoError(t, err)
	d, err := GroupKey(Integer(2))
	require.NoError(t, err)
	assert.NotEqual(t, c, d)
}
