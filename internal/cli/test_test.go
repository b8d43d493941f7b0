package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	harnessScenarios = "../harness/testdata/scenarios"
	harnessGolden    = "../harness/testdata/golden"
)

func TestTestCommandMissingArgs(t *testing.T) {
	code, _, stderr := execute(t, "test")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	code, _, stderr := execute(t, "test", "/nonexistent/scenarios")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	code, stdout, _ := execute(t, "test", t.TempDir())
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	code, stdout, _ := execute(t, "--format", "json", "test", t.TempDir())
	assert.Equal(t, ExitSuccess, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandPassing(t *testing.T) {
	code, stdout, _ := execute(t, "test", harnessScenarios, "--golden-dir", harnessGolden)
	require.Equal(t, ExitSuccess, code, stdout)

	assert.Contains(t, stdout, "✓ alice_friends\n")
	assert.Contains(t, stdout, "✓ create_sqlite\n")
	assert.Contains(t, stdout, "✓ social_queries\n")
	assert.Contains(t, stdout, "Test Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	code, stdout, _ := execute(t, "--format", "json", "test", harnessScenarios, "--golden-dir", harnessGolden, "--filter", "alice*")
	require.Equal(t, ExitSuccess, code, stdout)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, ScenarioResult{Name: "alice_friends", Pass: true, Golden: "match"}, resp.Data.Scenarios[0])
	assert.Equal(t, 1, resp.Data.Total)
}

func TestTestCommandUpdateGolden(t *testing.T) {
	goldenDir := filepath.Join(t.TempDir(), "golden")

	code, stdout, _ := execute(t, "test", harnessScenarios, "--golden-dir", goldenDir, "--filter", "social*", "--update")
	require.Equal(t, ExitSuccess, code, stdout)
	assert.Contains(t, stdout, "✓ social_queries (golden updated)")

	data, err := os.ReadFile(filepath.Join(goldenDir, "social_queries.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "## step: missing_parameter\n")

	code, stdout, _ = execute(t, "--format", "json", "test", harnessScenarios, "--golden-dir", goldenDir, "--filter", "social*")
	require.Equal(t, ExitSuccess, code, stdout)
	assert.Contains(t, stdout, `"golden": "match"`)
}

func TestTestCommandFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`
name: wrong
description: expects a row that is not there
steps:
  - name: one
    query: RETURN 1 AS one
    expect:
      rows:
        - {one: 2}
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "typo.yaml"), []byte(`
name: typo
description: misspelled field
stepz: []
`), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "stale.golden"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.yaml"), []byte(`
name: stale
description: golden file no longer matches
steps:
  - name: one
    query: RETURN 1 AS one
`), 0644))

	code, stdout, _ := execute(t, "test", dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "✗ wrong\n")
	assert.Contains(t, stdout, "step one: assertion failed: rows")
	assert.Contains(t, stdout, "✗ typo.yaml\n")
	assert.Contains(t, stdout, "failed to load scenario")
	assert.Contains(t, stdout, "✗ stale\n")
	assert.Contains(t, stdout, "snapshot does not match golden file")
	assert.Contains(t, stdout, "Test Summary: 0 passed, 3 failed, 3 total")
}

func TestFindScenarioFiles(t *testing.T) {
	files, err := findScenarioFiles(harnessScenarios, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(harnessScenarios, "alice_friends.yaml"),
		filepath.Join(harnessScenarios, "create_sqlite.yaml"),
		filepath.Join(harnessScenarios, "social_queries.yaml"),
	}, files)

	_, err = findScenarioFiles(harnessScenarios, "[")
	assert.ErrorContains(t, err, "invalid filter pattern")
}
