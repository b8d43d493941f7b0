package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const explainQuery = `MATCH (p:Person)-[:KNOWS]->(q:Person) WHERE p.name = "Alice" RETURN q.name AS friend`

func TestExplainCommand_Text(t *testing.T) {
	code, stdout, stderr := execute(t, "explain", explainQuery)
	require.Equal(t, ExitSuccess, code, stderr)

	assert.Contains(t, stdout, "Statement:\n")
	assert.Contains(t, stdout, "Logical plan (")
	assert.Contains(t, stdout, "Physical plan (3 pipes):\nSelect(friend)\n└─ Project(q.name AS friend)\n   └─ FilteringScan(")
}

func TestExplainCommand_NoOptimize(t *testing.T) {
	code, stdout, stderr := execute(t, "explain", "--no-optimize", explainQuery)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.NotContains(t, stdout, "FilteringScan(")
	assert.Contains(t, stdout, `Filter(p.name = "Alice")`)
}

func TestExplainCommand_JSON(t *testing.T) {
	code, stdout, stderr := execute(t, "--format", "json", "explain", explainQuery)
	require.Equal(t, ExitSuccess, code, stderr)

	var resp struct {
		Status string        `json:"status"`
		Data   ExplainOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data.AST)
	assert.Equal(t, "Select(friend)", resp.Data.Physical.Operator)
	assert.Equal(t, 3, resp.Data.Physical.Count())
	assert.Equal(t, "Select(friend)", resp.Data.Logical.Operator)
}

func TestExplainCommand_Document(t *testing.T) {
	code, stdout, stderr := execute(t, "explain", "--file", "testdata/friends.yaml")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Project(f.name AS friend)")
}

func TestExplainCommand_NeedsParameters(t *testing.T) {
	query := `MATCH (p:Person {name: $name}) RETURN p`

	code, _, stderr := execute(t, "explain", query)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "Error ["+ErrCodePlan+"]")
	assert.Contains(t, stderr, "MISSING_PARAMETER")

	code, _, stderr = execute(t, "explain", "--param", "name=x", query)
	assert.Equal(t, ExitSuccess, code, stderr)
}
