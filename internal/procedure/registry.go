package procedure

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/pathway/internal/value"
)

// Registry maps names to callables. Lookups are case-insensitive.
//
// Thread-safety: safe for concurrent use. Registration normally happens once
// at startup.
type Registry struct {
	mu         sync.RWMutex
	procedures map[string]Procedure
	aggregates map[string]Aggregating
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		procedures: make(map[string]Procedure),
		aggregates: make(map[string]Aggregating),
	}
}

// Builtins returns a registry holding every built-in function and
// aggregate.
func Builtins() *Registry {
	r := NewRegistry()
	for _, p := range builtinFunctions() {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	for _, a := range builtinAggregates() {
		if err := r.RegisterAggregating(a); err != nil {
			panic(err)
		}
	}
	return r
}

func key(name string) string {
	return strings.ToLower(name)
}

// Register adds a procedure. A name may be registered once across
// procedures and aggregates.
func (r *Registry) Register(p Procedure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Signature().Name
	if err := r.checkFree(name); err != nil {
		return err
	}
	r.procedures[key(name)] = p
	return nil
}

// RegisterAggregating adds an aggregate.
func (r *Registry) RegisterAggregating(a Aggregating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := a.Signature().Name
	if err := r.checkFree(name); err != nil {
		return err
	}
	r.aggregates[key(name)] = a
	return nil
}

// checkFree must be called with mu held.
func (r *Registry) checkFree(name string) error {
	k := key(name)
	_, isProc := r.procedures[k]
	_, isAgg := r.aggregates[k]
	if isProc || isAgg {
		return &Error{
			Code:      ErrCodeDuplicateProcedure,
			Procedure: name,
			Message:   fmt.Sprintf("%q is already registered", name),
		}
	}
	return nil
}

// Lookup returns the procedure registered under name.
func (r *Registry) Lookup(name string) (Procedure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.procedures[key(name)]
	return p, ok
}

// LookupAggregating returns the aggregate registered under name.
func (r *Registry) LookupAggregating(name string) (Aggregating, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.aggregates[key(name)]
	return a, ok
}

// IsAggregating reports whether name is a registered aggregate.
func (r *Registry) IsAggregating(name string) bool {
	_, ok := r.LookupAggregating(name)
	return ok
}

// Signature returns the declared signature of any registered callable.
func (r *Registry) Signature(name string) (Signature, error) {
	if p, ok := r.Lookup(name); ok {
		return p.Signature(), nil
	}
	if a, ok := r.LookupAggregating(name); ok {
		return a.Signature(), nil
	}
	return Signature{}, newUnknownError(name)
}

// Names lists every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.procedures)+len(r.aggregates))
	for _, p := range r.procedures {
		names = append(names, p.Signature().Name)
	}
	for _, a := range r.aggregates {
		names = append(names, a.Signature().Name)
	}
	slices.Sort(names)
	return names
}

// CheckArity validates an argument count without running anything. The
// planner uses it to reject malformed calls before execution.
func (r *Registry) CheckArity(name string, n int) error {
	sig, err := r.Signature(name)
	if err != nil {
		return err
	}
	if n != len(sig.Inputs) {
		return newArityError(sig, n)
	}
	return nil
}

// Call validates args against the procedure's signature and runs it.
func (r *Registry) Call(name string, args []value.Value) ([]value.Value, error) {
	p, ok := r.Lookup(name)
	if !ok {
		return nil, newUnknownError(name)
	}
	if err := p.Signature().Validate(args); err != nil {
		return nil, err
	}
	return p.Call(args)
}

// CallFunction is Call for single-output procedures.
func (r *Registry) CallFunction(name string, args []value.Value) (value.Value, error) {
	out, err := r.Call(name, args)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return value.Null{}, nil
	}
	return out[0], nil
}

// NewAccumulator returns a validating accumulator for the named aggregate.
// With distinct set, repeated input values are collected once.
func (r *Registry) NewAccumulator(name string, distinct bool) (*Accumulator, error) {
	a, ok := r.LookupAggregating(name)
	if !ok {
		return nil, newUnknownError(name)
	}
	acc := &Accumulator{sig: a.Signature(), inner: a.New()}
	if distinct {
		acc.seen = make(map[string]struct{})
	}
	return acc, nil
}

// Accumulator validates every Collect call against the aggregate's
// signature before handing the value to the underlying Aggregator.
type Accumulator struct {
	sig   Signature
	inner Aggregator
	seen  map[string]struct{}
}

// Collect validates args and accumulates args[0].
func (a *Accumulator) Collect(args []value.Value) error {
	if err := a.sig.Validate(args); err != nil {
		return err
	}
	v := args[0]
	if a.seen != nil {
		k, err := value.GroupKey(v)
		if err != nil {
			return fmt.Errorf("%s: %w", a.sig.Name, err)
		}
		if _, dup := a.seen[k]; dup {
			return nil
		}
		a.seen[k] = struct{}{}
	}
	return a.inner.Collect(v)
}

// Value returns the aggregate result.
func (a *Accumulator) Value() value.Value {
	return a.inner.Value()
}
