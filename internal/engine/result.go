package engine

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/roach88/pathway/internal/pipe"
	"github.com/roach88/pathway/internal/plan/logical"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/value"
)

// Result is the lazy output of one Run.
//
// An uncached result streams its records once. Reads resume where the
// previous one stopped, so a caller may take a prefix and later read or
// Cache the rest. Cache returns a result bound to the materialized records
// that can be read any number of times.
type Result struct {
	id      string
	logger  *slog.Logger
	plan    *Plan
	ec      *ExecutionContext
	rt      *pipe.Runtime
	maxRows int

	next   func() (pipe.Record, error, bool) // running pipeline, nil until first read
	stop   func()
	quota  *rowQuota
	done   bool
	cached []pipe.Record // non-nil on results returned by Cache
}

func (e *Engine) newResult(ctx context.Context, id string, logger *slog.Logger, p *Plan, ec *ExecutionContext) *Result {
	return &Result{
		id:      id,
		logger:  logger,
		plan:    p,
		ec:      ec,
		rt:      pipe.NewRuntime(ctx, e.catalog, e.procs, ec.Params),
		maxRows: e.maxRows,
		quota:   newRowQuota(id, e.maxRows),
	}
}

// QueryID returns the ID this run is logged under.
func (r *Result) QueryID() string { return r.id }

// Plan returns the compiled plan.
func (r *Result) Plan() *Plan { return r.plan }

// Columns returns the result column names in order.
func (r *Result) Columns() []string {
	return r.plan.Physical.Columns()
}

// Records returns the records not read yet. Once an uncached result is
// exhausted, further reads yield ErrResultConsumed.
func (r *Result) Records() seq.Seq[pipe.Record] {
	return func(yield func(pipe.Record, error) bool) {
		if r.cached != nil {
			seq.FromSlice(r.cached)(yield)
			return
		}
		if r.done {
			yield(pipe.Record{}, ErrResultConsumed)
			return
		}
		r.remaining()(yield)
	}
}

// remaining pulls from the running pipeline, starting it on first use.
// An exhausted result yields nothing.
func (r *Result) remaining() seq.Seq[pipe.Record] {
	return func(yield func(pipe.Record, error) bool) {
		if r.done {
			return
		}
		if r.next == nil {
			r.next, r.stop = iter.Pull2(iter.Seq2[pipe.Record, error](r.execute()))
		}
		for {
			rec, err, ok := r.next()
			if !ok {
				r.finish()
				return
			}
			if err != nil {
				r.finish()
				yield(pipe.Record{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// execute runs the physical plan under the row quota.
func (r *Result) execute() seq.Seq[pipe.Record] {
	return func(yield func(pipe.Record, error) bool) {
		r.plan.Physical.Execute(r.rt)(func(rec pipe.Record, err error) bool {
			if err != nil {
				executionErrors.Inc()
				r.logger.Warn("execution failed", "error", err)
				return yield(pipe.Record{}, err)
			}
			if err := r.quota.check(); err != nil {
				executionErrors.Inc()
				r.logger.Warn("row quota exceeded", "limit", r.maxRows)
				yield(pipe.Record{}, err)
				return false
			}
			rowsEmitted.Inc()
			return yield(rec, nil)
		})
	}
}

func (r *Result) finish() {
	r.done = true
	if r.stop != nil {
		r.stop()
	}
}

// Close abandons the records not read yet. Cached results need no Close.
func (r *Result) Close() {
	if r.cached == nil {
		r.finish()
	}
}

// Rows collects the remaining records as native maps keyed by column.
func (r *Result) Rows() ([]map[string]any, error) {
	recs, err := seq.Collect(r.Records())
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, len(recs))
	for i, rec := range recs {
		rows[i] = rec.Native()
	}
	return rows, nil
}

// Cache materializes the remaining records and returns a new result bound
// to them. r is exhausted afterwards. Cache on a cached result returns the
// result itself.
func (r *Result) Cache() (*Result, error) {
	if r.cached != nil {
		return r, nil
	}
	recs, err := seq.Collect(r.remaining())
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []pipe.Record{}
	}
	return &Result{
		id:      r.id,
		logger:  r.logger,
		plan:    r.plan,
		ec:      r.ec,
		rt:      r.rt,
		maxRows: r.maxRows,
		quota:   r.quota,
		done:    true,
		cached:  recs,
	}, nil
}

// Consume drains the remaining records, running any CREATE they contain,
// and returns the statistics.
func (r *Result) Consume() (pipe.Stats, error) {
	if r.cached == nil {
		for _, err := range r.remaining() {
			if err != nil {
				return r.Stats(), err
			}
		}
	}
	return r.Stats(), nil
}

// Stats returns the mutation counters accumulated so far.
func (r *Result) Stats() pipe.Stats {
	return *r.rt.Stats
}

// Show writes up to n records as an aligned table; n <= 0 writes all of
// them. A cached result is left intact and the footer reports the total.
// An uncached result only reads the rows it prints; when it stops at n the
// total is unknown and the footer says so.
func (r *Result) Show(w io.Writer, n int) error {
	var rows []pipe.Record
	total := -1
	if r.cached != nil {
		rows, total = r.cached, len(r.cached)
		if n > 0 && len(rows) > n {
			rows = rows[:n]
		}
	} else {
		recs := r.Records()
		if n > 0 {
			recs = seq.Take(recs, n)
		}
		var err error
		if rows, err = seq.Collect(recs); err != nil {
			return err
		}
		if n <= 0 || len(rows) < n {
			total = len(rows)
		}
	}

	cols := r.Columns()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, rec := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			v, _ := rec.Get(c)
			cells[i] = value.Literal(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if total < 0 {
		_, err := fmt.Fprintf(w, "(first %d rows)\n", len(rows))
		return err
	}
	_, err := fmt.Fprintf(w, "(%d of %d rows)\n", len(rows), total)
	return err
}

// AST renders the statement the result was planned from.
func (r *Result) AST() string {
	if r.plan.Statement == nil {
		return ""
	}
	return r.plan.Statement.String()
}

// LogicalPlan renders the logical operator tree.
func (r *Result) LogicalPlan() string {
	return logical.Tree(r.plan.Logical).String()
}

// PhysicalPlan renders the pipe tree that runs.
func (r *Result) PhysicalPlan() string {
	return pipe.Tree(r.plan.Physical).String()
}
