package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "graph.db")

	code, stdout, stderr := execute(t, "load", "--db", db, socialFixture)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "Loaded social: 4 nodes, 4 relationships (1 indexes)\n"+
		"Database "+db+" now holds 4 nodes, 4 relationships\n", stdout)

	// The loaded graph is queryable.
	code, stdout, stderr = execute(t, "query", "--db", db, `MATCH (c:City) RETURN c.name AS city`)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, `"Paris"`)

	// Loading again appends; the index already exists.
	code, stdout, stderr = execute(t, "--format", "json", "load", "--db", db, "../fixture/testdata/social.cue")
	require.Equal(t, ExitSuccess, code, stderr)

	var resp struct {
		Data LoadOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, LoadOutput{
		Fixture:       "social",
		Database:      db,
		NodesCreated:  4,
		RelsCreated:   4,
		Indexes:       1,
		Nodes:         8,
		Relationships: 8,
	}, resp.Data)
}

func TestLoadCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "graph.db")

	t.Run("missing fixture", func(t *testing.T) {
		code, _, stderr := execute(t, "load", "--db", db, "testdata/nope.yaml")
		assert.Equal(t, ExitCommandError, code)
		assert.Contains(t, stderr, "Error ["+ErrCodeNotFound+"]")
	})

	t.Run("invalid fixture leaves no database", func(t *testing.T) {
		code, _, stderr := execute(t, "load", "--db", db, "testdata/bad_fixture.yaml")
		assert.Equal(t, ExitFailure, code)
		assert.Contains(t, stderr, "Error ["+ErrCodeFixture+"]")
		assert.Contains(t, stderr, `relationships[0].to`)

		_, err := os.Stat(db)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("db is required", func(t *testing.T) {
		code, _, stderr := execute(t, "load", socialFixture)
		assert.Equal(t, ExitCommandError, code)
		assert.Contains(t, stderr, `required flag(s) "db" not set`)
	})
}
