// Package seq provides lazy, restartable sequences.
//
// A Seq is a push iterator compatible with range-over-func:
//
//	for v, err := range s {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
//
// Nothing runs until the sequence is ranged over, and every range re-runs the
// producer from the start. An error is always the last element a sequence
// yields.
package seq

// Seq is a lazy sequence of T whose production may fail.
type Seq[T any] func(yield func(T, error) bool)

// Empty returns a sequence with no elements.
func Empty[T any]() Seq[T] {
	return func(func(T, error) bool) {}
}

// Of returns a sequence over the given elements.
func Of[T any](items ...T) Seq[T] {
	return FromSlice(items)
}

// FromSlice returns a sequence over items. The slice is read at iteration
// time, not copied.
func FromSlice[T any](items []T) Seq[T] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Fail returns a sequence that yields err and stops.
func Fail[T any](err error) Seq[T] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

// Defer builds the sequence on every iteration. Use it when constructing the
// sequence itself performs work that must not happen before consumption.
func Defer[T any](build func() Seq[T]) Seq[T] {
	return func(yield func(T, error) bool) {
		build()(yield)
	}
}

// Map applies fn to every element.
func Map[T, U any](s Seq[T], fn func(T) (U, error)) Seq[U] {
	return func(yield func(U, error) bool) {
		var zero U
		for item, err := range s {
			if err != nil {
				yield(zero, err)
				return
			}
			out, err := fn(item)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(out, nil) {
				return
			}
		}
	}
}

// Filter keeps the elements for which keep returns true.
func Filter[T any](s Seq[T], keep func(T) (bool, error)) Seq[T] {
	return func(yield func(T, error) bool) {
		var zero T
		for item, err := range s {
			if err != nil {
				yield(zero, err)
				return
			}
			ok, err := keep(item)
			if err != nil {
				yield(zero, err)
				return
			}
			if ok && !yield(item, nil) {
				return
			}
		}
	}
}

// FlatMap replaces every element with the sequence fn returns for it.
func FlatMap[T, U any](s Seq[T], fn func(T) Seq[U]) Seq[U] {
	return func(yield func(U, error) bool) {
		var zero U
		for item, err := range s {
			if err != nil {
				yield(zero, err)
				return
			}
			for out, err := range fn(item) {
				if err != nil {
					yield(zero, err)
					return
				}
				if !yield(out, nil) {
					return
				}
			}
		}
	}
}

// Concat yields the elements of every sequence in order.
func Concat[T any](seqs ...Seq[T]) Seq[T] {
	return func(yield func(T, error) bool) {
		for _, s := range seqs {
			stopped := false
			for item, err := range s {
				if !yield(item, err) || err != nil {
					stopped = true
					break
				}
			}
			if stopped {
				return
			}
		}
	}
}

// Take yields at most n elements. The source is not advanced past the n-th.
func Take[T any](s Seq[T], n int) Seq[T] {
	return func(yield func(T, error) bool) {
		if n <= 0 {
			return
		}
		taken := 0
		for item, err := range s {
			if !yield(item, err) || err != nil {
				return
			}
			taken++
			if taken == n {
				return
			}
		}
	}
}

// Drop skips the first n elements.
func Drop[T any](s Seq[T], n int) Seq[T] {
	return func(yield func(T, error) bool) {
		skipped := 0
		for item, err := range s {
			if err == nil && skipped < n {
				skipped++
				continue
			}
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}

// Collect drains s into a slice, stopping at the first error.
func Collect[T any](s Seq[T]) ([]T, error) {
	var out []T
	for item, err := range s {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}

// First returns the first element of s, or ok=false when s is empty.
func First[T any](s Seq[T]) (T, bool, error) {
	for item, err := range s {
		if err != nil {
			var zero T
			return zero, false, err
		}
		return item, true, nil
	}
	var zero T
	return zero, false, nil
}
