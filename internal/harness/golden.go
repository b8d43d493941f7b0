package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as the text stored in golden files: every
// step's query on one line, followed by its physical plan and result table,
// or by its error.
func Snapshot(scenarioName string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# scenario: %s\n", scenarioName)
	for _, s := range result.Steps {
		fmt.Fprintf(&b, "\n## step: %s\n", s.Name)
		fmt.Fprintf(&b, "query: %s\n", strings.Join(strings.Fields(s.Query), " "))
		if s.Err != nil {
			fmt.Fprintf(&b, "error: %s\n", s.Err)
			continue
		}
		fmt.Fprintf(&b, "plan:\n%s\n", s.Plan)
		fmt.Fprintf(&b, "rows:\n%s", s.Table)
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Returns an error if
// the scenario could not be set up; a snapshot mismatch fails t via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against the named golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
