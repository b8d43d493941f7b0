package pipe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/pathway/internal/pipe"
	"github.com/roach88/pathway/internal/value"
)

func TestRecordWithAndSelect(t *testing.T) {
	rec := pipe.NewRecord([]string{"a", "b"}, []value.Value{value.Integer(1), value.String("x")})

	replaced := rec.With("a", value.Integer(2))
	appended := rec.With("c", value.Boolean(true))

	assert.Equal(t, `{a: 1, b: "x"}`, rec.String())
	assert.Equal(t, `{a: 2, b: "x"}`, replaced.String())
	assert.Equal(t, `{a: 1, b: "x", c: true}`, appended.String())

	sel := appended.Select([]string{"c", "missing", "a"})
	assert.Equal(t, []string{"c", "missing", "a"}, sel.Fields())
	assert.Equal(t, []value.Value{value.Boolean(true), value.Null{}, value.Integer(1)}, sel.Values())
}

func TestRecordMerge(t *testing.T) {
	left := pipe.NewRecord([]string{"a", "b"}, []value.Value{value.Integer(1), value.Integer(2)})
	right := pipe.NewRecord([]string{"b", "c"}, []value.Value{value.Integer(20), value.Integer(3)})

	merged := left.Merge(right)
	assert.Equal(t, `{a: 1, b: 2, c: 3}`, merged.String())
	assert.Equal(t, 3, merged.Len())
}

func TestRecordNative(t *testing.T) {
	rec := pipe.NewRecord([]string{"n", "l"}, []value.Value{value.Null{}, value.List{value.Integer(1)}})
	assert.Equal(t, map[string]any{"n": nil, "l": []any{int64(1)}}, rec.Native())

	_, ok := rec.Get("zzz")
	assert.False(t, ok)
}

func TestNewRecordPanicsOnMismatch(t *testing.T) {
	assert.Panics(t, func() { pipe.NewRecord([]string{"a"}, nil) })
}

func TestCatalog(t *testing.T) {
	catalog := newRuntime(nil, nil).Catalog
	assert.Equal(t, "default", catalog.DefaultName())

	catalog.Add("other", nil)
	assert.Equal(t, []string{"default", "other"}, catalog.Names())
	_, ok := catalog.Graph("other")
	assert.True(t, ok)
	_, ok = catalog.Graph("missing")
	assert.False(t, ok)
}
