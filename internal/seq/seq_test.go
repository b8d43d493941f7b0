package seq

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestCollect(t *testing.T) {
	got, err := Collect(Of(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	got, err = Collect(Empty[int]())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRestartable(t *testing.T) {
	calls := 0
	s := Defer(func() Seq[int] {
		calls++
		return Of(calls)
	})
	assert.Equal(t, 0, calls, "nothing runs before iteration")

	first, err := Collect(s)
	require.NoError(t, err)
	second, err := Collect(s)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, first)
	assert.Equal(t, []int{2}, second)
}

func TestMapFilter(t *testing.T) {
	s := Map(Filter(Of(1, 2, 3, 4), func(n int) (bool, error) {
		return n%2 == 0, nil
	}), func(n int) (string, error) {
		return strconv.Itoa(n * 10), nil
	})

	got, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"20", "40"}, got)
}

func TestMapErrorStops(t *testing.T) {
	seen := 0
	s := Map(Of(1, 2, 3), func(n int) (int, error) {
		seen++
		if n == 2 {
			return 0, errBoom
		}
		return n, nil
	})

	got, err := Collect(s)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []int{1}, got)
	assert.Equal(t, 2, seen)
}

func TestFlatMap(t *testing.T) {
	s := FlatMap(Of(1, 2), func(n int) Seq[int] {
		return Of(n, n*100)
	})
	got, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 100, 2, 200}, got)
}

func TestConcat(t *testing.T) {
	got, err := Collect(Concat(Of(1), Empty[int](), Of(2, 3)))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	got, err = Collect(Concat(Of(1), Fail[int](errBoom), Of(2)))
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []int{1}, got)
}

func TestTakeIsLazy(t *testing.T) {
	produced := 0
	src := Seq[int](func(yield func(int, error) bool) {
		for i := 0; ; i++ {
			produced++
			if !yield(i, nil) {
				return
			}
		}
	})

	got, err := Collect(Take(src, 3))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)
	assert.Equal(t, 3, produced)

	got, err = Collect(Take(src, 0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDrop(t *testing.T) {
	got, err := Collect(Drop(Of(1, 2, 3), 2))
	require.NoError(t, err)
	assert.Equal(t, []int{3}, got)

	got, err = Collect(Drop(Of(1), 5))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFirst(t *testing.T) {
	v, ok, err := First(Of("a", "b"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok, err = First(Empty[string]())
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = First(Fail[string](errBoom))
	assert.ErrorIs(t, err, errBoom)
}
