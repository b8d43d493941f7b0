// Package optimize rewrites physical plans without changing their results.
//
// Rules run bottom-up over the pipe tree until none of them applies:
//
//   - FuseScanFilters folds every Filter stacked directly over a scan into
//     one FilteringScan, so rows are checked as the scan produces them.
//   - CollapseSelects replaces Select over Select with the outer Select
//     reading the inner input, when the inner one keeps every field the
//     outer one needs.
//
// Optimization is optional: the unoptimized plan returns the same rows.
package optimize

import (
	"log/slog"
	"slices"

	"github.com/roach88/pathway/internal/pipe"
)

// maxPasses bounds the fixpoint loop. Every rule shrinks the tree, so real
// plans settle in one or two passes.
const maxPasses = 16

// Rule is one local rewrite.
type Rule interface {
	// Name identifies the rule in logs.
	Name() string

	// Apply returns the rewritten pipe and true, or p and false when the
	// rule does not match.
	Apply(p pipe.Pipe) (pipe.Pipe, bool)
}

// DefaultRules returns the built-in rules in application order.
func DefaultRules() []Rule {
	return []Rule{FuseScanFilters{}, CollapseSelects{}}
}

// Optimizer applies a fixed rule set.
//
// Thread-safety: an Optimizer holds no mutable state and is safe for
// concurrent use.
type Optimizer struct {
	rules  []Rule
	logger *slog.Logger
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithRules replaces the default rules.
func WithRules(rules ...Rule) Option {
	return func(o *Optimizer) {
		o.rules = rules
	}
}

// WithLogger sets the logger rule applications are reported to at Debug.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Optimizer) {
		o.logger = logger
	}
}

// New returns an optimizer with the default rules.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{rules: DefaultRules(), logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize rewrites p with the default rules.
func Optimize(p pipe.Pipe) pipe.Pipe {
	return New().Optimize(p)
}

// Optimize rewrites p until no rule applies.
func (o *Optimizer) Optimize(p pipe.Pipe) pipe.Pipe {
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		p = pipe.Transform(p, func(q pipe.Pipe) pipe.Pipe {
			for _, r := range o.rules {
				if rewritten, ok := r.Apply(q); ok {
					o.logger.Debug("optimizer rule applied", "rule", r.Name(), "pipe", rewritten.String())
					q = rewritten
					changed = true
				}
			}
			return q
		})
		if !changed {
			break
		}
	}
	return p
}

// FuseScanFilters merges a Filter over a PatternScan or FilteringScan into
// a FilteringScan. Predicates keep their evaluation order, innermost first.
type FuseScanFilters struct{}

func (FuseScanFilters) Name() string { return "fuse-scan-filters" }

func (FuseScanFilters) Apply(p pipe.Pipe) (pipe.Pipe, bool) {
	f, ok := p.(*pipe.Filter)
	if !ok {
		return p, false
	}
	switch in := f.Input.(type) {
	case *pipe.PatternScan:
		return pipe.NewFilteringScan(in, f.Predicate), true
	case *pipe.FilteringScan:
		preds := append(slices.Clone(in.Predicates), f.Predicate)
		return pipe.NewFilteringScan(in.Scan, preds...), true
	}
	return p, false
}

// CollapseSelects removes a Select whose only consumer is another Select.
type CollapseSelects struct{}

func (CollapseSelects) Name() string { return "collapse-selects" }

func (CollapseSelects) Apply(p pipe.Pipe) (pipe.Pipe, bool) {
	outer, ok := p.(*pipe.Select)
	if !ok {
		return p, false
	}
	inner, ok := outer.Input.(*pipe.Select)
	if !ok {
		return p, false
	}
	for _, f := range outer.Fields {
		if !slices.Contains(inner.Fields, f) {
			return p, false
		}
	}
	return pipe.NewSelect(inner.Input, outer.Fields), true
}
