package value

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiftPrimitives(t *testing.T) {
	instant := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		native any
		want   Value
	}{
		{"nil", nil, Null{}},
		{"bool", true, Boolean(true)},
		{"string", "x", String("x")},
		{"int", 42, Integer(42)},
		{"int8", int8(-3), Integer(-3)},
		{"uint16", uint16(9), Integer(9)},
		{"uint64 in range", uint64(math.MaxInt64), Integer(math.MaxInt64)},
		{"float32", float32(0.5), Float(0.5)},
		{"float64", 2.25, Float(2.25)},
		{"time", instant, DateTime(instant.UnixMilli())},
		{"big int", big.NewInt(-12), Integer(-12)},
		{"nil pointer", (*int)(nil), Null{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lift(tt.native)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiftCollections(t *testing.T) {
	got, err := Lift(map[string]any{
		"name": "Alice",
		"tags": []string{"a", "b"},
		"nested": map[string]int{
			"x": 1,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Map{
		"name":   String("Alice"),
		"tags":   List{String("a"), String("b")},
		"nested": Map{"x": Integer(1)},
	}, got)

	got, err = Lift([]any{1, "two", nil, []any{3.5}})
	require.NoError(t, err)
	assert.Equal(t, List{Integer(1), String("two"), Null{}, List{Float(3.5)}}, got)

	got, err = Lift([2]int{4, 5})
	require.NoError(t, err)
	assert.Equal(t, List{Integer(4), Integer(5)}, got)
}

func TestLiftIsIdempotent(t *testing.T) {
	values := []Value{
		Null{},
		Integer(1),
		Float(1.5),
		String("s"),
		Boolean(true),
		List{Integer(1), Map{"a": Null{}}},
		Map{"k": List{}},
		Date(86_400_000),
		DateTime(1),
		Node{ID: "n", Labels: []string{"L"}},
		Relationship{ID: "r", StartID: "a", EndID: "b", RelType: "T"},
	}

	for _, v := range values {
		t.Run(KindOf(v).String(), func(t *testing.T) {
			once, err := Lift(v)
			require.NoError(t, err)
			assert.Equal(t, v, once)

			twice, err := Lift(once)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		})
	}
}

func TestLiftInvalid(t *testing.T) {
	tests := []struct {
		name     string
		native   any
		wantPath string
	}{
		{"bytes", []byte("raw"), ""},
		{"uint64 overflow", uint64(math.MaxUint64), ""},
		{"big int overflow", new(big.Int).Lsh(big.NewInt(1), 80), ""},
		{"struct", struct{ A int }{1}, ""},
		{"channel in list", []any{1, make(chan int)}, "[1]"},
		{"func in map", map[string]any{"cb": func() {}}, "cb"},
		{"int keyed map", map[int]string{1: "a"}, ""},
		{"deep path", map[string]any{"a": []any{map[string]any{"b": complex(1, 2)}}}, "a[0].b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lift(tt.native)
			require.Error(t, err)
			assert.True(t, IsInvalidValue(err))

			var ive *InvalidValueError
			require.ErrorAs(t, err, &ive)
			assert.Equal(t, tt.wantPath, ive.Path)
		})
	}
}

func TestMustLiftPanics(t *testing.T) {
	assert.Panics(t, func() { MustLift(struct{}{}) })
	assert.Equal(t, Integer(1), MustLift(1))
}

func TestLiftDriverValues(t *testing.T) {
	node := dbtype.Node{
		Id:        1,
		ElementId: "4:1",
		Labels:    []string{"Customer"},
		Props:     map[string]any{"name": "Customer", "since": int64(2019)},
	}
	got, err := Lift(node)
	require.NoError(t, err)
	assert.Equal(t, Node{
		ID:         "4:1",
		Labels:     []string{"Customer"},
		Properties: Map{"name": String("Customer"), "since": Integer(2019)},
	}, got)

	rel := dbtype.Relationship{
		Id:      7,
		StartId: 1,
		EndId:   2,
		Type:    "HAS_EMAIL",
		Props:   map[string]any{},
	}
	got, err = Lift(rel)
	require.NoError(t, err)
	assert.Equal(t, Relationship{
		ID:         "7",
		StartID:    "1",
		EndID:      "2",
		RelType:    "HAS_EMAIL",
		Properties: Map{},
	}, got)

	day := time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)
	got, err = Lift(dbtype.Date(day))
	require.NoError(t, err)
	assert.Equal(t, NewDate(day), got)

	local := time.Date(2023, 12, 25, 8, 30, 0, 0, time.FixedZone("X", 3600))
	got, err = Lift(dbtype.LocalDateTime(local))
	require.NoError(t, err)
	assert.Equal(t, NewDateTime(time.Date(2023, 12, 25, 8, 30, 0, 0, time.UTC)), got)
}

func TestNative(t *testing.T) {
	day := time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)
	n := Node{ID: "n"}

	assert.Nil(t, Native(Null{}))
	assert.Equal(t, int64(3), Native(Integer(3)))
	assert.Equal(t, 0.5, Native(Float(0.5)))
	assert.Equal(t, "s", Native(String("s")))
	assert.Equal(t, true, Native(Boolean(true)))
	assert.Equal(t, []any{int64(1), nil}, Native(List{Integer(1), Null{}}))
	assert.Equal(t, map[string]any{"a": "b"}, Native(Map{"a": String("b")}))
	assert.Equal(t, day, Native(NewDate(day)))
	assert.Equal(t, n, Native(n))
}
