package querydoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/value"
)

const friendsDoc = `name: friends
description: people Alice knows
query: |
  MATCH (a:Person {name: $name})-[:KNOWS]->(b)
  RETURN b.name AS friend
params:
  name: Alice
  min: 3
  tags: [x, y]
`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(friendsDoc))
	require.NoError(t, err)

	assert.Equal(t, "friends", doc.Name)
	assert.Equal(t, "people Alice knows", doc.Description)
	assert.Equal(t, []string{"friend"}, doc.State.Columns)
	assert.Equal(t, []string{"name"}, doc.State.Parameters)
	assert.Equal(t, map[string]value.Value{
		"name": value.String("Alice"),
		"min":  value.Integer(3),
		"tags": value.List{value.String("x"), value.String("y")},
	}, doc.Params)
}

func TestParseDocumentErrorPositions(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		line   int
		column int
	}{
		{
			name:   "block scalar",
			src:    "name: broken\nquery: |\n  MATCH (a)\n  RETURN a.\n",
			line:   4,
			column: 12,
		},
		{
			name:   "double quoted",
			src:    "query: \"RETURN #\"\n",
			line:   1,
			column: 16,
		},
		{
			name:   "plain",
			src:    "query: RETURN #\n",
			line:   1,
			column: 15,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.src))
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line, "line")
			assert.Equal(t, tt.column, pe.Column, "column")
		})
	}
}

func TestParseDocumentRejectsBadShapes(t *testing.T) {
	for name, src := range map[string]string{
		"empty":        "",
		"sequence":     "- a\n- b\n",
		"no query":     "name: x\n",
		"params shape": "query: RETURN 1 AS one\nparams: [1]\n",
		"bad yaml":     "query: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument([]byte(src))
			require.Error(t, err)
			assert.True(t, IsParseError(err))
		})
	}
}

func TestLoadDocumentNamesSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("query: RETURN #\n"), 0o644))

	_, err := LoadDocument(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path+":1:15:")

	_, err = LoadDocument(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.False(t, IsParseError(err))
}
