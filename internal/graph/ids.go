package graph

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator assigns identifiers to created elements.
type IDGenerator interface {
	NewID() ID
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewID returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) NewID() ID {
	return ID(uuid.Must(uuid.NewV7()).String())
}

// SequentialGenerator returns prefix1, prefix2, ... for deterministic tests
// and golden output.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequentialGenerator creates a generator whose first ID is prefix+"1".
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	return &SequentialGenerator{prefix: prefix, next: 1}
}

// NewID returns the next identifier in sequence.
func (g *SequentialGenerator) NewID() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.prefix + strconv.Itoa(g.next)
	g.next++
	return ID(id)
}
