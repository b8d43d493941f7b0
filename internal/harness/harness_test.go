package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadAndRun(t *testing.T, path string) *Result {
	t.Helper()
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	result, err := Run(scenario)
	require.NoError(t, err)
	return result
}

func TestRun_SocialQueries(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/social_queries.yaml")
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	require.Len(t, result.Steps, 6)

	people, ok := result.Step("people")
	require.True(t, ok)
	assert.Equal(t, []string{"people"}, people.Columns)
	assert.NoError(t, people.Err)

	missing, ok := result.Step("missing_parameter")
	require.True(t, ok)
	require.Error(t, missing.Err)
	assert.Empty(t, missing.Plan)
}

func TestRun_CreateOnSQLite(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/create_sqlite.yaml")
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))

	create, ok := result.Step("create_pair")
	require.True(t, ok)
	assert.Equal(t, 2, create.Stats.NodesCreated)
	assert.Equal(t, 1, create.Stats.RelationshipsCreated)
}

func TestRun_EmptyGraphWithoutFixture(t *testing.T) {
	zero := 0
	result, err := Run(&Scenario{
		Name:        "empty",
		Description: "no fixture",
		Steps: []Step{{
			Name:   "nothing",
			Query:  "MATCH (n) RETURN n",
			Expect: Expect{Count: &zero, Columns: []string{"n"}},
		}},
		Assertions: []Assertion{{Type: AssertNodeCount, Count: 0}},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestRun_ReportsFailures(t *testing.T) {
	no := false
	result, err := Run(&Scenario{
		Name:        "failing",
		Description: "every kind of expectation misses",
		Fixture:     "testdata/fixtures/social.cue",
		Steps: []Step{
			{
				Name:  "wrong_rows",
				Query: `MATCH (p:Person {name: "Bob"}) RETURN p.age AS age`,
				Expect: Expect{
					Columns: []string{"years"},
					Rows:    []map[string]any{{"age": 26}},
				},
			},
			{
				Name:     "wrong_plan",
				Query:    `MATCH (p:Person) WHERE p.age > 1 RETURN p`,
				Optimize: &no,
				Expect:   Expect{PlanContains: []string{"FilteringScan("}},
			},
			{
				Name:   "unexpected_success",
				Query:  `MATCH (p:Person) RETURN p`,
				Expect: Expect{Error: "MISSING_PARAMETER"},
			},
			{
				Name:  "unexpected_error",
				Query: `MATCH (p:Person) WHERE p.name = $who RETURN p`,
			},
			{
				Name:   "wrong_error",
				Query:  `MATCH (p:Person) WHERE p.name = $who RETURN p`,
				Expect: Expect{Error: "PARAMETER_TYPE"},
			},
			{
				Name:   "wrong_stats",
				Query:  `CREATE (:Person {name: "Zed"})`,
				Expect: Expect{Stats: &StatsExpect{NodesCreated: 2}},
			},
		},
		Assertions: []Assertion{{Type: AssertNodeCount, Label: "City", Count: 2}},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)

	all := strings.Join(result.Errors, "\n")
	for _, want := range []string{
		"step wrong_rows: assertion failed: columns",
		"step wrong_rows: assertion failed: rows",
		"step wrong_plan: assertion failed: plan",
		"step unexpected_success: assertion failed: error",
		"step unexpected_error: assertion failed: error",
		"step wrong_error: assertion failed: error",
		"step wrong_stats: assertion failed: stats",
		"assertion failed: node_count",
		"Expected: 2 :City nodes",
	} {
		assert.Contains(t, all, want)
	}
	assert.Len(t, result.Errors, 8)
}

func TestRun_SetupFailures(t *testing.T) {
	_, err := Run(&Scenario{
		Name:    "bad_fixture",
		Fixture: "testdata/fixtures/missing.cue",
		Steps:   []Step{{Name: "one", Query: "MATCH (n) RETURN n"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load fixture")

	_, err = Run(&Scenario{Name: "bad_backend", Backend: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown backend "postgres"`)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/social_queries.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, Snapshot(scenario.Name, first), Snapshot(scenario.Name, second))
}
