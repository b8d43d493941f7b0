package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/pathway/internal/engine"
	"github.com/roach88/pathway/internal/fixture"
	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/graph/memgraph"
	"github.com/roach88/pathway/internal/seq"
	"github.com/roach88/pathway/internal/store"
)

// Harness executes the steps of one scenario against one graph.
type Harness struct {
	graph    graph.Graph
	engines  map[bool]*engine.Engine // keyed by optimizer setting
	queryIDs engine.QueryIDGenerator
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs on a fresh graph for isolation. Step failures are
// reported in the Result; the returned error is reserved for failures to
// set the scenario up (backend, fixture).
//
// Execution flow:
// 1. Open a fresh graph for the scenario's backend
// 2. Load the fixture, if any
// 3. Run each step through the engine and check its expectations
// 4. Evaluate final-state assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	g, cleanup, err := openGraph(scenario)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if scenario.Fixture != "" {
		if _, _, err := fixture.LoadInto(ctx, g, scenario.Fixture); err != nil {
			return nil, fmt.Errorf("failed to load fixture: %w", err)
		}
	}

	h := &Harness{
		graph:    g,
		engines:  make(map[bool]*engine.Engine, 2),
		queryIDs: engine.NewFixedGenerator(scenario.Name),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	for _, step := range scenario.Steps {
		sr, errs, err := h.executeStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Name, err)
		}
		result.Steps = append(result.Steps, sr)
		for _, e := range errs {
			result.AddError(e.Error())
		}
	}

	for _, msg := range EvaluateAssertions(ctx, g, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// openGraph creates the scenario's backend with sequential element IDs.
func openGraph(scenario *Scenario) (graph.Graph, func(), error) {
	ids := graph.NewSequentialGenerator("n")
	switch scenario.Backend {
	case "", BackendMemory:
		g := memgraph.New(memgraph.WithIDGenerator(ids), memgraph.WithName(scenario.Name))
		return g, func() {}, nil
	case BackendSQLite:
		dir, err := os.MkdirTemp("", "pathway-harness-*")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
		st, err := store.Open(filepath.Join(dir, "graph.db"), store.WithIDGenerator(ids))
		if err != nil {
			os.RemoveAll(dir)
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return st, func() {
			st.Close()
			os.RemoveAll(dir)
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", scenario.Backend)
	}
}

// engineFor returns the engine for the given optimizer setting, building it
// on first use. Both engines share the graph.
func (h *Harness) engineFor(optimize bool) (*engine.Engine, error) {
	if eng, ok := h.engines[optimize]; ok {
		return eng, nil
	}
	eng, err := engine.New(h.graph,
		engine.WithOptimizer(optimize),
		engine.WithLogger(h.logger),
		engine.WithQueryIDGenerator(h.queryIDs),
	)
	if err != nil {
		return nil, err
	}
	h.engines[optimize] = eng
	return eng, nil
}

// executeStep runs one step. Expectation failures are returned as errs;
// err is only set when the engine itself could not be built.
func (h *Harness) executeStep(ctx context.Context, step Step) (sr StepResult, errs []error, err error) {
	sr = StepResult{Name: step.Name, Query: step.Query}

	eng, err := h.engineFor(step.optimize())
	if err != nil {
		return sr, nil, err
	}

	params, err := engine.LiftParams(step.Params)
	if err != nil {
		return sr, nil, fmt.Errorf("lift params: %w", err)
	}

	res, runErr := eng.Run(ctx, step.Query, params)
	if runErr == nil {
		res, runErr = res.Cache()
	}
	if runErr != nil {
		sr.Err = runErr
		return sr, checkError(step, runErr), nil
	}

	if step.Expect.Error != "" {
		errs = append(errs, &AssertionError{
			Type:     "error",
			Step:     step.Name,
			Expected: fmt.Sprintf("error containing %q", step.Expect.Error),
			Actual:   "success",
		})
	}

	sr.Columns = res.Columns()
	sr.Plan = res.PhysicalPlan()
	sr.Stats = res.Stats()
	if sr.Rows, err = seq.Collect(res.Records()); err != nil {
		return sr, nil, fmt.Errorf("read cached records: %w", err)
	}
	var table bytes.Buffer
	if err := res.Show(&table, 0); err != nil {
		return sr, nil, fmt.Errorf("render table: %w", err)
	}
	sr.Table = table.String()

	h.logger.Info("step completed",
		"step", step.Name,
		"rows", len(sr.Rows),
		"nodes_created", sr.Stats.NodesCreated,
	)

	return sr, append(errs, checkStep(step, sr)...), nil
}

func checkError(step Step, err error) []error {
	switch {
	case step.Expect.Error == "":
		return []error{&AssertionError{Type: "error", Step: step.Name, Expected: "success", Actual: err.Error()}}
	case !strings.Contains(err.Error(), step.Expect.Error):
		return []error{&AssertionError{
			Type:     "error",
			Step:     step.Name,
			Expected: fmt.Sprintf("error containing %q", step.Expect.Error),
			Actual:   err.Error(),
		}}
	}
	return nil
}
