package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/pathway/internal/ast"
	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/pipe"
	"github.com/roach88/pathway/internal/plan/logical"
	"github.com/roach88/pathway/internal/plan/optimize"
	"github.com/roach88/pathway/internal/plan/physical"
	"github.com/roach88/pathway/internal/procedure"
	"github.com/roach88/pathway/internal/querydoc"
	"github.com/roach88/pathway/internal/value"
)

// DefaultGraphName is the catalog name of the graph passed to New.
const DefaultGraphName = "default"

// DefaultPlanCacheSize is the number of compiled plans kept by default.
const DefaultPlanCacheSize = 128

// Engine compiles and runs queries against a graph catalog.
//
// Thread-safety model:
//   - Compile() and Run(): safe from any goroutine
//   - Result: must be consumed by one goroutine
//   - Graph mutation (CREATE): callers serialize it; the engine does not
//
// INVARIANTS:
//   - Compiled plans are never mutated after they enter the cache
//   - A cached plan is only reused for parameters of the same kinds
type Engine struct {
	catalog   *pipe.Catalog
	procs     *procedure.Registry
	parser    *querydoc.Parser
	planner   *logical.Planner
	optimizer *optimize.Optimizer
	optimize  bool
	logger    *slog.Logger
	ids       QueryIDGenerator

	maxRows   int // Maximum rows per result; 0 means unlimited
	cacheSize int
	cache     *lru.Cache[string, *Plan] // nil when caching is disabled
}

// Option configures an Engine.
type Option func(*Engine)

// WithOptimizer toggles the physical plan optimizer. Default: enabled.
func WithOptimizer(enabled bool) Option {
	return func(e *Engine) {
		e.optimize = enabled
	}
}

// WithLogger sets the logger for compile stages and failures.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPlanCacheSize sets how many compiled plans are kept.
//
// Default: 128 plans (DefaultPlanCacheSize)
// Use WithPlanCacheSize(0) to compile every query from scratch.
func WithPlanCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithProcedures replaces the built-in procedure registry.
func WithProcedures(procs *procedure.Registry) Option {
	return func(e *Engine) {
		if procs != nil {
			e.procs = procs
		}
	}
}

// WithGraph adds a named graph to the catalog. The graph passed to New
// stays the default.
func WithGraph(name string, g graph.Graph) Option {
	return func(e *Engine) {
		e.catalog.Add(name, g)
	}
}

// WithMaxRows caps the rows a single result may produce. Iteration fails
// with *RowsExceededError past the cap. Default: unlimited.
func WithMaxRows(n int) Option {
	return func(e *Engine) {
		e.maxRows = n
	}
}

// WithQueryIDGenerator sets the generator naming each Run in logs.
// Default: UUIDv7Generator.
func WithQueryIDGenerator(gen QueryIDGenerator) Option {
	return func(e *Engine) {
		if gen != nil {
			e.ids = gen
		}
	}
}

// New creates an Engine whose default graph is g.
func New(g graph.Graph, opts ...Option) (*Engine, error) {
	e := &Engine{
		catalog:   pipe.NewCatalog(DefaultGraphName, g),
		procs:     procedure.Builtins(),
		optimize:  true,
		logger:    slog.Default(),
		ids:       UUIDv7Generator{},
		cacheSize: DefaultPlanCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.parser = querydoc.NewParser(e.procs)
	e.planner = logical.NewPlanner(e.procs)
	e.optimizer = optimize.New(optimize.WithLogger(e.logger))

	if e.cacheSize > 0 {
		cache, err := lru.New[string, *Plan](e.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create plan cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Catalog returns the engine's graph catalog.
func (e *Engine) Catalog() *pipe.Catalog {
	return e.catalog
}

// Plan is a compiled query. Plans are immutable and shared between runs.
type Plan struct {
	Query     string // Query text; empty for plans built by RunStatement
	Statement *ast.Statement
	State     *ast.SemanticState
	Logical   logical.Operator
	Physical  pipe.Pipe
}

// ExecutionContext is everything one Run needs besides the graph: the
// planning context, the analyzed statement and the resolved parameters.
type ExecutionContext struct {
	Planning  *physical.Context
	Statement *ast.Statement
	State     *ast.SemanticState
	Params    map[string]value.Value
}

func (e *Engine) newExecutionContext(stmt *ast.Statement, state *ast.SemanticState, params map[string]value.Value) *ExecutionContext {
	if params == nil {
		params = map[string]value.Value{}
	}
	return &ExecutionContext{
		Planning:  physical.NewContext(params, e.procs),
		Statement: stmt,
		State:     state,
		Params:    params,
	}
}

// Compile parses and plans query without running it. Parse errors are
// returned unmodified.
func (e *Engine) Compile(query string, params map[string]value.Value) (*Plan, error) {
	p, _, err := e.compile(e.logger, query, params)
	return p, err
}

func (e *Engine) compile(logger *slog.Logger, query string, params map[string]value.Value) (*Plan, *ExecutionContext, error) {
	start := time.Now()

	var key string
	if e.cache != nil {
		k, err := e.cacheKey(query, params)
		if err != nil {
			return nil, nil, err
		}
		key = k
		if p, ok := e.cache.Get(key); ok {
			planCacheHits.Inc()
			logger.Debug("plan cache hit", "key", key[:12])
			return p, e.newExecutionContext(p.Statement, p.State, params), nil
		}
		planCacheMisses.Inc()
	}

	stmt, state, err := e.parser.Parse(query)
	if err != nil {
		queriesTotal.WithLabelValues("parse_error").Inc()
		logger.Warn("parse failed", "error", err)
		return nil, nil, err
	}
	logger.Debug("parsed", "clauses", len(stmt.Clauses), "columns", state.Columns)

	ec := e.newExecutionContext(stmt, state, params)
	p, err := e.plan(logger, ec)
	if err != nil {
		return nil, nil, err
	}
	p.Query = query
	compileDuration.Observe(time.Since(start).Seconds())

	if e.cache != nil {
		e.cache.Add(key, p)
	}
	return p, ec, nil
}

// plan runs the logical planner, the physical planner and the optimizer.
func (e *Engine) plan(logger *slog.Logger, ec *ExecutionContext) (*Plan, error) {
	op, err := e.planner.Plan(ec.Statement, ec.State)
	if err != nil {
		queriesTotal.WithLabelValues("plan_error").Inc()
		logger.Warn("logical planning failed", "error", err)
		return nil, err
	}
	logger.Debug("logical plan built", "operators", logical.Tree(op).Count())

	p, err := physical.Plan(ec.Planning, op)
	if err != nil {
		queriesTotal.WithLabelValues("plan_error").Inc()
		logger.Warn("physical planning failed", "error", err)
		return nil, err
	}
	if e.optimize {
		p = e.optimizer.Optimize(p)
	}
	logger.Debug("physical plan built", "pipes", pipe.Tree(p).Count(), "optimized", e.optimize)

	return &Plan{
		Statement: ec.Statement,
		State:     ec.State,
		Logical:   op,
		Physical:  p,
	}, nil
}

// cacheKey hashes the query text, the parameter kinds and the optimizer
// setting.
func (e *Engine) cacheKey(query string, params map[string]value.Value) (string, error) {
	kinds := make(value.Map, len(params))
	for name, v := range params {
		kinds[name] = value.String(value.KindOf(v).String())
	}
	key, err := value.Hash(value.DomainPlan, value.String(query), kinds, value.Boolean(e.optimize))
	if err != nil {
		return "", fmt.Errorf("plan cache key: %w", err)
	}
	return key, nil
}

// Run compiles query and returns its lazy result. Nothing is read from
// the graph until the result is iterated.
func (e *Engine) Run(ctx context.Context, query string, params map[string]value.Value) (*Result, error) {
	id := e.ids.Generate()
	logger := e.logger.With("query_id", id)

	p, ec, err := e.compile(logger, query, params)
	if err != nil {
		return nil, err
	}
	queriesTotal.WithLabelValues("ok").Inc()
	return e.newResult(ctx, id, logger, p, ec), nil
}

// RunStatement plans an already parsed statement. A nil state is derived
// by semantic analysis. Statements bypass the plan cache.
func (e *Engine) RunStatement(ctx context.Context, stmt *ast.Statement, state *ast.SemanticState, params map[string]value.Value) (*Result, error) {
	id := e.ids.Generate()
	logger := e.logger.With("query_id", id)

	if state == nil && stmt != nil {
		var err error
		if state, err = ast.Analyze(stmt, e.procs.IsAggregating); err != nil {
			queriesTotal.WithLabelValues("plan_error").Inc()
			logger.Warn("analysis failed", "error", err)
			return nil, &logical.PlanError{Code: logical.ErrCodeInvalidStatement, Message: "analysis failed", Err: err}
		}
	}

	ec := e.newExecutionContext(stmt, state, params)
	p, err := e.plan(logger, ec)
	if err != nil {
		return nil, err
	}
	queriesTotal.WithLabelValues("ok").Inc()
	return e.newResult(ctx, id, logger, p, ec), nil
}

// LiftParams converts native parameter values with value.Lift.
func LiftParams(native map[string]any) (map[string]value.Value, error) {
	params := make(map[string]value.Value, len(native))
	for name, v := range native {
		lifted, err := value.Lift(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		params[name] = lifted
	}
	return params, nil
}
