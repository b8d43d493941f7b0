package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pathway/internal/engine"
	"github.com/roach88/pathway/internal/fixture"
	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/graph/memgraph"
	"github.com/roach88/pathway/internal/plan/logical"
	"github.com/roach88/pathway/internal/plan/physical"
	"github.com/roach88/pathway/internal/querydoc"
	"github.com/roach88/pathway/internal/store"
)

// GraphOptions selects the graph a command runs against.
type GraphOptions struct {
	Fixture  string // --graph: CUE or YAML fixture
	Database string // --db: SQLite database
}

func (o *GraphOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Fixture, "graph", "", "graph fixture to load (.cue, .yaml)")
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite graph database")
}

// openGraph opens the selected graph: the database when --db is set, an
// empty in-memory graph otherwise, with the fixture loaded into it when
// --graph is set. The returned close function is never nil.
func openGraph(ctx context.Context, o GraphOptions, logger *slog.Logger) (graph.Graph, func(), error) {
	var (
		g       graph.Graph
		closeFn = func() {}
	)

	if o.Database != "" {
		logger.Debug("opening database", "path", o.Database)
		st, err := store.Open(o.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		g = st
		closeFn = func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}
	} else {
		g = memgraph.New(memgraph.WithName("cli"))
	}

	if o.Fixture != "" {
		if _, err := os.Stat(o.Fixture); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("fixture not found: %s", o.Fixture)
		}
		f, loaded, err := fixture.LoadInto(ctx, g, o.Fixture)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.Info("fixture loaded",
			"fixture", f.Name,
			"nodes", len(loaded.Created.Nodes),
			"relationships", len(loaded.Created.Relationships),
			"graph", fmt.Sprint(g),
		)
	}

	return g, closeFn, nil
}

// classifyQueryError maps an engine error to an exit code and error code.
func classifyQueryError(err error) (int, string) {
	var (
		logicalErr  *logical.PlanError
		physicalErr *physical.PlanError
	)
	switch {
	case querydoc.IsParseError(err):
		return ExitFailure, ErrCodeParse
	case errors.As(err, &logicalErr), errors.As(err, &physicalErr), physical.IsUnsupportedPlan(err):
		return ExitFailure, ErrCodePlan
	case engine.IsRowsExceededError(err):
		return ExitFailure, ErrCodeMaxRows
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ExitCommandError, ErrCodeGeneric
	default:
		return ExitFailure, ErrCodeExecution
	}
}
