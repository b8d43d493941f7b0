package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/social_queries.yaml")
	require.NoError(t, err)

	assert.Equal(t, "social_queries", scenario.Name)
	assert.Equal(t, BackendMemory, scenario.Backend)
	assert.Equal(t, filepath.Join("testdata", "fixtures", "social.cue"), scenario.Fixture)
	require.Len(t, scenario.Steps, 6)
	assert.Len(t, scenario.Assertions, 2)

	param := scenario.Steps[1]
	assert.Equal(t, "reachable_from_param", param.Name)
	assert.Equal(t, "Alice", param.Params["name"])
	assert.True(t, param.Expect.Unordered)
	require.NotNil(t, param.Expect.Count)
	assert.Equal(t, 2, *param.Expect.Count)
	assert.True(t, param.optimize())

	assert.False(t, scenario.Steps[4].optimize())
	assert.Equal(t, "MISSING_PARAMETER", scenario.Steps[5].Expect.Error)
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	abs, err := filepath.Abs("testdata/fixtures")
	require.NoError(t, err)

	path := writeScenario(t, t.TempDir(), `
name: based
description: fixture resolved against an explicit base
fixture: social.cue
steps:
  - name: all
    query: MATCH (n) RETURN n
`)
	scenario, err := LoadScenarioWithBasePath(path, abs)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(abs, "social.cue"), scenario.Fixture)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_InvalidFiles(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"unknown_field.yaml", "field expects not found"},
		{"no_steps.yaml", "steps list is required"},
		{"missing_fixture.yaml", "fixture file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := LoadScenario(filepath.Join("testdata", "invalid", tt.file))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateScenario(t *testing.T) {
	count := 1
	valid := func() *Scenario {
		return &Scenario{
			Name:        "s",
			Description: "d",
			Steps:       []Step{{Name: "one", Query: "MATCH (n) RETURN n"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Scenario)
		want   string
	}{
		{"no name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"no description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"bad backend", func(s *Scenario) { s.Backend = "postgres" }, `backend "postgres"`},
		{"unnamed step", func(s *Scenario) { s.Steps[0].Name = "" }, "steps[0]: name is required"},
		{"empty query", func(s *Scenario) { s.Steps[0].Query = "" }, "steps[0]: query is required"},
		{"duplicate step", func(s *Scenario) { s.Steps = append(s.Steps, s.Steps[0]) }, `steps[1]: duplicate name "one"`},
		{"error with count", func(s *Scenario) {
			s.Steps[0].Expect = Expect{Error: "x", Count: &count}
		}, "error cannot be combined"},
		{"unordered without rows", func(s *Scenario) { s.Steps[0].Expect.Unordered = true }, "unordered requires rows"},
		{"untyped assertion", func(s *Scenario) { s.Assertions = []Assertion{{Count: 1}} }, "assertions[0]: type is required"},
		{"unknown assertion", func(s *Scenario) { s.Assertions = []Assertion{{Type: "trace_contains"}} }, `unknown type "trace_contains"`},
		{"label on relationship_count", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertRelationshipCount, Label: "Person"}}
		}, "does not take label"},
		{"negative count", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertNodeCount, Count: -1}}
		}, "count must be >= 0"},
	}

	require.NoError(t, validateScenario(valid()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := validateScenario(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
