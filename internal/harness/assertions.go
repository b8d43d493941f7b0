package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/pipe"
	"github.com/roach88/pathway/internal/value"
)

// AssertionError is returned when a step expectation or a final-state
// assertion fails.
type AssertionError struct {
	Type     string // columns, rows, count, error, plan, stats, node_count, ...
	Step     string // empty for final-state assertions
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	if e.Step != "" {
		fmt.Fprintf(&buf, "step %s: ", e.Step)
	}
	fmt.Fprintf(&buf, "assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkStep compares what a successful step produced against its Expect
// block. An Expect.Error is handled by the caller.
func checkStep(step Step, sr StepResult) []error {
	var errs []error
	fail := func(typ, expected, actual string) {
		errs = append(errs, &AssertionError{Type: typ, Step: step.Name, Expected: expected, Actual: actual})
	}
	exp := step.Expect

	if exp.Columns != nil && !equalStrings(exp.Columns, sr.Columns) {
		fail("columns", fmt.Sprint(exp.Columns), fmt.Sprint(sr.Columns))
	}

	for _, sub := range exp.PlanContains {
		if !strings.Contains(sr.Plan, sub) {
			fail("plan", fmt.Sprintf("plan containing %q", sub), sr.Plan)
		}
	}

	if exp.Count != nil && *exp.Count != len(sr.Rows) {
		fail("count", fmt.Sprint(*exp.Count), fmt.Sprint(len(sr.Rows)))
	}

	if exp.Rows != nil {
		if err := matchRows(exp.Rows, sr.Rows, exp.Unordered); err != nil {
			fail("rows", err.Error(), renderRecords(sr.Rows))
		}
	}

	if exp.Stats != nil {
		want := pipe.Stats{NodesCreated: exp.Stats.NodesCreated, RelationshipsCreated: exp.Stats.RelationshipsCreated}
		if want != sr.Stats {
			fail("stats", fmt.Sprintf("%+v", want), fmt.Sprintf("%+v", sr.Stats))
		}
	}

	return errs
}

// matchRows checks actual records against the expected rows. The error
// message describes the first mismatch.
func matchRows(expected []map[string]any, actual []pipe.Record, unordered bool) error {
	if len(expected) != len(actual) {
		return fmt.Errorf("%d rows, got %d", len(expected), len(actual))
	}

	want := make([]value.Map, len(expected))
	for i, row := range expected {
		lifted, err := liftRow(row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		want[i] = lifted
	}

	if !unordered {
		for i := range want {
			if !matchRecord(want[i], actual[i]) {
				return fmt.Errorf("row %d to match %s", i, want[i])
			}
		}
		return nil
	}

	used := make([]bool, len(actual))
	for i, w := range want {
		found := false
		for j, rec := range actual {
			if !used[j] && matchRecord(w, rec) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("row %d (%s) to match some record", i, w)
		}
	}
	return nil
}

func liftRow(row map[string]any) (value.Map, error) {
	v, err := value.Lift(row)
	if err != nil {
		return nil, err
	}
	m, ok := v.(value.Map)
	if !ok {
		return nil, fmt.Errorf("row lifted to %s, want MAP", value.KindOf(v))
	}
	if m == nil {
		m = value.Map{}
	}
	return m, nil
}

// matchRecord reports whether every expected column is present in rec and
// matches.
func matchRecord(want value.Map, rec pipe.Record) bool {
	for col, w := range want {
		got, ok := rec.Get(col)
		if !ok || !matchValue(w, got) {
			return false
		}
	}
	return true
}

// matchValue compares an expected value with an actual one. Scalars must
// agree in kind as well as under value.Equal. An expected map matches a node
// or relationship by property subset and another map key by key; lists
// recurse element-wise.
func matchValue(want, got value.Value) bool {
	switch w := want.(type) {
	case value.Map:
		switch g := got.(type) {
		case value.Node:
			return matchProperties(w, g.Properties)
		case value.Relationship:
			return matchProperties(w, g.Properties)
		case value.Map:
			return len(w) == len(g) && matchProperties(w, g)
		}
	case value.List:
		g, ok := got.(value.List)
		if !ok || len(w) != len(g) {
			return false
		}
		for i := range w {
			if !matchValue(w[i], g[i]) {
				return false
			}
		}
		return true
	}
	// Expected rows state the kind: 30 and 30.0 are different answers.
	return value.KindOf(want) == value.KindOf(got) && value.Equal(want, got)
}

func matchProperties(want, props value.Map) bool {
	for k, w := range want {
		got, ok := props[k]
		if !ok || !matchValue(w, got) {
			return false
		}
	}
	return true
}

// EvaluateAssertions checks final-state assertions against g and returns
// one message per failure.
func EvaluateAssertions(ctx context.Context, g graph.Graph, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertNodeCount:
			err = assertNodeCount(ctx, g, a)
		case AssertRelationshipCount:
			err = assertRelationshipCount(ctx, g, a)
		default:
			err = fmt.Errorf("unknown assertion type: %s", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func assertNodeCount(ctx context.Context, g graph.Graph, a Assertion) error {
	n := 0
	for node, err := range g.Nodes(ctx) {
		if err != nil {
			return fmt.Errorf("node_count: scan nodes: %w", err)
		}
		if a.Label == "" || node.HasLabel(a.Label) {
			n++
		}
	}
	if n != a.Count {
		what := "nodes"
		if a.Label != "" {
			what = ":" + a.Label + " nodes"
		}
		return &AssertionError{
			Type:     AssertNodeCount,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d %s", n, what),
		}
	}
	return nil
}

func assertRelationshipCount(ctx context.Context, g graph.Graph, a Assertion) error {
	n := 0
	for t, err := range g.Relationships(ctx) {
		if err != nil {
			return fmt.Errorf("relationship_count: scan relationships: %w", err)
		}
		if a.RelType == "" || t.Rel.RelType == a.RelType {
			n++
		}
	}
	if n != a.Count {
		what := "relationships"
		if a.RelType != "" {
			what = ":" + a.RelType + " relationships"
		}
		return &AssertionError{
			Type:     AssertRelationshipCount,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d %s", n, what),
		}
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// renderRecords formats records one per line with sorted columns.
func renderRecords(recs []pipe.Record) string {
	if len(recs) == 0 {
		return "no rows"
	}
	lines := make([]string, len(recs))
	for i, rec := range recs {
		fields := rec.Fields()
		sort.Strings(fields)
		parts := make([]string, len(fields))
		for j, f := range fields {
			v, _ := rec.Get(f)
			parts[j] = f + ": " + value.Literal(v)
		}
		lines[i] = "{" + strings.Join(parts, ", ") + "}"
	}
	return strings.Join(lines, "\n")
}
