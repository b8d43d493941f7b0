package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pathway/internal/fixture"
	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Database string
}

// LoadOutput is the JSON payload of the load command.
type LoadOutput struct {
	Fixture       string `json:"fixture"`
	Database      string `json:"database"`
	NodesCreated  int    `json:"nodes_created"`
	RelsCreated   int    `json:"relationships_created"`
	Indexes       int    `json:"indexes"`
	Nodes         int    `json:"nodes"`
	Relationships int    `json:"relationships"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <fixture>",
		Short: "Load a graph fixture into a SQLite database",
		Long: `Load a CUE or YAML graph fixture into a SQLite database, creating the
database if it doesn't exist. The fixture is written in one transaction:
either every element is created or none is.

Examples:
  pathway load --db ./graph.db ./social.cue
  pathway load --db ./graph.db ./social.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLoad(opts *LoadOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := opts.logger(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("fixture not found: %s", path), nil)
	}

	fx, err := fixture.Load(path)
	if err == nil {
		err = fx.Validate()
	}
	if err != nil {
		return f.fail(ExitFailure, ErrCodeFixture, "invalid fixture", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeGraph, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	loaded, err := fixture.Apply(ctx, st, fx)
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) || errors.Is(err, store.ErrInvalidSpec) {
			return f.fail(ExitFailure, ErrCodeFixture, "fixture does not fit the database", err)
		}
		return f.fail(ExitCommandError, ErrCodeGraph, "failed to load fixture", err)
	}

	nodes, rels, err := st.Counts(ctx)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeGraph, "failed to count elements", err)
	}
	logger.Info("fixture loaded", "fixture", fx.Name, "db", opts.Database, "nodes", nodes, "relationships", rels)

	out := LoadOutput{
		Fixture:       fx.Name,
		Database:      opts.Database,
		NodesCreated:  len(loaded.Created.Nodes),
		RelsCreated:   len(loaded.Created.Relationships),
		Indexes:       len(fx.Indexes),
		Nodes:         nodes,
		Relationships: rels,
	}
	if f.JSON() {
		return f.Success(out)
	}
	return f.Success(fmt.Sprintf("Loaded %s: %d nodes, %d relationships (%d indexes)\nDatabase %s now holds %d nodes, %d relationships",
		out.Fixture, out.NodesCreated, out.RelsCreated, out.Indexes, out.Database, out.Nodes, out.Relationships))
}
