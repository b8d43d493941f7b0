package testutil

import (
	"strconv"
	"sync"

	"github.com/roach88/pathway/internal/graph"
)

// DeterministicIDs is a resettable graph.IDGenerator for tests.
//
// Unlike graph.SequentialGenerator, DeterministicIDs can be reset, so the
// same fixture loaded twice assigns identical identifiers and golden output
// stays stable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewDeterministicIDs creates a generator whose first ID is prefix+"1".
func NewDeterministicIDs(prefix string) *DeterministicIDs {
	return &DeterministicIDs{prefix: prefix}
}

// NewID increments the counter and returns prefix+counter.
//
// Implements graph.IDGenerator.
func (g *DeterministicIDs) NewID() graph.ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return graph.ID(g.prefix + strconv.FormatInt(g.seq, 10))
}

// Issued returns how many IDs have been handed out.
func (g *DeterministicIDs) Issued() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. After Reset, the next ID is prefix+"1".
func (g *DeterministicIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
