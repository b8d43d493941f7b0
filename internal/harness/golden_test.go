package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_AliceFriends(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/alice_friends.yaml")
	require.NoError(t, err)

	// First run with -update to create golden file:
	//   go test ./internal/harness -run TestRunWithGolden_AliceFriends -update
	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestSnapshot(t *testing.T) {
	result := NewResult()
	result.Steps = append(result.Steps,
		StepResult{
			Name:  "ok",
			Query: "RETURN 1\n  AS one",
			Plan:  "Select(one)\n└─ Project(1 AS one)\n   └─ Start",
			Table: "one\n1\n(1 of 1 rows)\n",
		},
		StepResult{
			Name:  "boom",
			Query: "RETURN $x",
			Err:   errors.New("missing $x"),
		},
	)

	want := "# scenario: demo\n" +
		"\n## step: ok\n" +
		"query: RETURN 1 AS one\n" +
		"plan:\nSelect(one)\n└─ Project(1 AS one)\n   └─ Start\n" +
		"rows:\none\n1\n(1 of 1 rows)\n" +
		"\n## step: boom\n" +
		"query: RETURN $x\n" +
		"error: missing $x\n"
	assert.Equal(t, want, string(Snapshot("demo", result)))
}

func TestAssertGolden_ReusesResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/alice_friends.yaml")
	require.NoError(t, err)
	result, err := Run(scenario)
	require.NoError(t, err)

	AssertGolden(t, "alice_friends", result)
}
