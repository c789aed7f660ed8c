package match

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcturbo/internal/pkg/logx"
)

func init() {
	logx.Discard()
}

func TestEnqueuePairsInArrivalOrder(t *testing.T) {
	q := NewQueue()

	_, ok := q.Enqueue("c1")
	assert.False(t, ok)

	p, ok := q.Enqueue("c2")
	require.True(t, ok)
	assert.Equal(t, Pair{Initiator: "c1", Responder: "c2"}, p)
	assert.Zero(t, q.Len())

	_, ok = q.Enqueue("c3")
	assert.False(t, ok)

	p, ok = q.Enqueue("c4")
	require.True(t, ok)
	assert.Equal(t, Pair{Initiator: "c3", Responder: "c4"}, p)
}

func TestRejoinIsIdempotent(t *testing.T) {
	q := NewQueue()

	q.Enqueue("c1")
	_, ok := q.Enqueue("c1")
	assert.False(t, ok, "a connection never pairs with itself")
	assert.Equal(t, 1, q.Len())
}

func TestRemove(t *testing.T) {
	q := NewQueue()

	q.Enqueue("c1")
	q.Remove("c1")
	q.Remove("c1")
	assert.Zero(t, q.Len())

	_, ok := q.Enqueue("c2")
	assert.False(t, ok)
}

func TestConcurrentJoinsAllPair(t *testing.T) {
	q := NewQueue()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		seen  = map[string]int{}
		pairs int
	)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if p, ok := q.Enqueue(id); ok {
				mu.Lock()
				pairs++
				seen[p.Initiator]++
				seen[p.Responder]++
				mu.Unlock()
			}
		}(fmt.Sprintf("c%d", i))
	}
	wg.Wait()

	assert.Equal(t, 50, pairs)
	assert.Zero(t, q.Len())
	assert.Len(t, seen, 100)
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
}
