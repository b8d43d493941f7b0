package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pathway/internal/engine"
	"github.com/roach88/pathway/internal/graph/memgraph"
	"github.com/roach88/pathway/internal/pipe"
	"github.com/roach88/pathway/internal/plan"
	"github.com/roach88/pathway/internal/plan/logical"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	File       string
	Params     []string
	NoOptimize bool
}

// ExplainOutput is the JSON payload of the explain command.
type ExplainOutput struct {
	AST      string    `json:"ast"`
	Logical  plan.Tree `json:"logical"`
	Physical plan.Tree `json:"physical"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain [query]",
		Short: "Show how a query is planned",
		Long: `Parse and plan a query without running it, then print the statement,
the logical operator tree and the physical pipe tree.

Parameters only need the right kinds: planning checks that every
referenced parameter is supplied, never its value.

Examples:
  pathway explain 'MATCH (p:Person) WHERE p.age > 30 RETURN p.name'
  pathway explain --no-optimize --file friends.yaml
  pathway explain --param name=Alice --format json \
    'MATCH (p:Person {name: $name}) RETURN p'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML query document")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "query parameter name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.NoOptimize, "no-optimize", false, "show the plan before optimization")

	return cmd
}

func runExplain(opts *ExplainOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	src, params, err := resolveQuery(f, opts.File, args, opts.Params)
	if err != nil {
		return err
	}
	query := src.text
	if src.doc != nil {
		query = src.doc.Query
	}

	// Planning never reads the graph.
	eng, err := engine.New(memgraph.New(),
		engine.WithLogger(opts.logger(cmd)),
		engine.WithOptimizer(!opts.NoOptimize),
		engine.WithPlanCacheSize(0),
	)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeGeneric, "failed to create engine", err)
	}

	p, err := eng.Compile(query, params)
	if err != nil {
		exit, code := classifyQueryError(err)
		return f.fail(exit, code, "failed to plan query", err)
	}

	out := ExplainOutput{
		AST:      p.Statement.String(),
		Logical:  logical.Tree(p.Logical),
		Physical: pipe.Tree(p.Physical),
	}
	if f.JSON() {
		return f.Success(out)
	}
	return f.Success(renderExplain(out))
}

func renderExplain(out ExplainOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Statement:\n%s\n\n", out.AST)
	fmt.Fprintf(&b, "Logical plan (%d operators):\n%s\n\n", out.Logical.Count(), out.Logical)
	fmt.Fprintf(&b, "Physical plan (%d pipes):\n%s", out.Physical.Count(), out.Physical)
	return b.String()
}
