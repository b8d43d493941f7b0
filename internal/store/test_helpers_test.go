package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/pathway/internal/graph"
)

// createTestStore opens a fresh database in a temporary directory with
// deterministic IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(graph.NewSequentialGenerator("id")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
