package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathway/internal/graph"
)

func TestDeterministicIDs_StartsAtOne(t *testing.T) {
	ids := NewDeterministicIDs("n")
	assert.Equal(t, int64(0), ids.Issued())
	assert.Equal(t, graph.ID("n1"), ids.NewID())
	assert.Equal(t, graph.ID("n2"), ids.NewID())
	assert.Equal(t, int64(2), ids.Issued())
}

func TestDeterministicIDs_Reset(t *testing.T) {
	ids := NewDeterministicIDs("n")
	ids.NewID()
	ids.NewID()

	ids.Reset()
	assert.Equal(t, int64(0), ids.Issued())
	assert.Equal(t, graph.ID("n1"), ids.NewID())
}

func TestDeterministicIDs_ThreadSafe(t *testing.T) {
	ids := NewDeterministicIDs("x")
	const goroutines = 50
	const perGoroutine = 40

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[graph.ID]bool)
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := ids.NewID()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, goroutines*perGoroutine)
	assert.Equal(t, int64(goroutines*perGoroutine), ids.Issued())
}
