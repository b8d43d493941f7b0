package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pathway/internal/engine"
	"github.com/roach88/pathway/internal/querydoc"
	"github.com/roach88/pathway/internal/value"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	GraphOptions

	File       string   // --file: YAML query document
	Params     []string // --param name=value, repeatable
	Limit      int      // rows shown in text output; 0 shows all
	MaxRows    int      // abort after this many rows; 0 is unlimited
	NoOptimize bool
}

// QueryOutput is the JSON payload of the query command.
type QueryOutput struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Stats   StatsOutput      `json:"stats"`
}

// StatsOutput reports mutation counters.
type StatsOutput struct {
	NodesCreated         int `json:"nodes_created"`
	RelationshipsCreated int `json:"relationships_created"`
}

// querySource is what a command runs: raw text, or a parsed document.
type querySource struct {
	text string
	doc  *querydoc.Document
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [query]",
		Short: "Run a query and print its rows",
		Long: `Run a graph pattern query and print the result table.

The query is either the single argument or a YAML query document given
with --file. Parameters given with --param override the document's.

Exit codes:
  0 - Query ran
  1 - Query failed to parse, plan or execute
  2 - Command error (missing files, bad flags, unopenable database)

Examples:
  pathway query --graph social.cue 'MATCH (p:Person) RETURN p.name AS name'
  pathway query --db graph.db --param name=Alice \
    'MATCH (p:Person {name: $name})-[:KNOWS]->(f) RETURN f.name AS friend'
  pathway query --graph social.yaml --file friends.yaml --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	opts.GraphOptions.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML query document")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "query parameter name=value (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many rows (text output)")
	cmd.Flags().IntVar(&opts.MaxRows, "max-rows", 0, "fail once a query produces more rows")
	cmd.Flags().BoolVar(&opts.NoOptimize, "no-optimize", false, "skip the plan optimizer")

	return cmd
}

// resolveQuery reads the query from args or --file and merges parameters.
func resolveQuery(f *OutputFormatter, file string, args []string, paramFlags []string) (querySource, map[string]value.Value, error) {
	switch {
	case file != "" && len(args) > 0:
		return querySource{}, nil, f.fail(ExitCommandError, ErrCodeGeneric, "give either a query argument or --file, not both", nil)
	case file == "" && len(args) == 0:
		return querySource{}, nil, f.fail(ExitCommandError, ErrCodeGeneric, "no query: pass it as an argument or with --file", nil)
	}

	flagParams, err := parseParams(paramFlags)
	if err != nil {
		return querySource{}, nil, f.fail(ExitCommandError, ErrCodeBadParam, "invalid parameter", err)
	}

	if file == "" {
		return querySource{text: args[0]}, flagParams, nil
	}

	doc, err := querydoc.LoadDocument(file)
	if err != nil {
		if querydoc.IsParseError(err) {
			return querySource{}, nil, f.fail(ExitFailure, ErrCodeParse, "failed to parse query document", err)
		}
		return querySource{}, nil, f.fail(ExitCommandError, ErrCodeNotFound, "failed to read query document", err)
	}
	return querySource{doc: doc}, mergeParams(doc.Params, flagParams), nil
}

func (s querySource) run(ctx context.Context, eng *engine.Engine, params map[string]value.Value) (*engine.Result, error) {
	if s.doc != nil {
		return eng.RunStatement(ctx, s.doc.Statement, s.doc.State, params)
	}
	return eng.Run(ctx, s.text, params)
}

func runQuery(opts *QueryOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := opts.logger(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	src, params, err := resolveQuery(f, opts.File, args, opts.Params)
	if err != nil {
		return err
	}

	g, closeGraph, err := openGraph(ctx, opts.GraphOptions, logger)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeGraph, "failed to open graph", err)
	}
	defer closeGraph()

	eng, err := engine.New(g,
		engine.WithLogger(logger),
		engine.WithOptimizer(!opts.NoOptimize),
		engine.WithMaxRows(opts.MaxRows),
	)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeGeneric, "failed to create engine", err)
	}

	res, err := src.run(ctx, eng, params)
	if err == nil {
		res, err = res.Cache()
	}
	if err != nil {
		exit, code := classifyQueryError(err)
		return f.fail(exit, code, "query failed", err)
	}

	stats := res.Stats()
	if f.JSON() {
		rows, err := res.Rows()
		if err != nil {
			return f.fail(ExitFailure, ErrCodeExecution, "query failed", err)
		}
		return f.SuccessWithID(res.QueryID(), QueryOutput{
			Columns: res.Columns(),
			Rows:    rows,
			Stats: StatsOutput{
				NodesCreated:         stats.NodesCreated,
				RelationshipsCreated: stats.RelationshipsCreated,
			},
		})
	}

	if err := res.Show(cmd.OutOrStdout(), opts.Limit); err != nil {
		return f.fail(ExitFailure, ErrCodeExecution, "failed to render rows", err)
	}
	if stats.NodesCreated > 0 || stats.RelationshipsCreated > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Created %d nodes, %d relationships\n",
			stats.NodesCreated, stats.RelationshipsCreated)
	}
	f.VerboseLog("query %s: %s", res.QueryID(), strings.Join(res.Columns(), ", "))
	return nil
}
