/*
Package match pairs anonymous connections first-come-first-served.
*/
package match

import (
	"sync"

	"github.com/rs/zerolog"

	"vcturbo/internal/pkg/logx"
	"vcturbo/internal/pkg/metrics"
)

// Pair is a two-party matchmaking session. Initiator is the member that waited longer.
type Pair struct {
	Initiator string
	Responder string
}

// Queue is the process-wide ordered list of waiting connection ids.
type Queue struct {
	mu      sync.Mutex
	waiting []string
	logger  zerolog.Logger
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{logger: logx.Component("matchmaking")}
}

// Enqueue moves connID to the back of the queue and, when two or more entries
// are waiting, pops the two oldest as a Pair. Pairing happens under the same lock
// as the append, so every join is checked on its own.
func (q *Queue) Enqueue(connID string) (Pair, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(connID)
	q.waiting = append(q.waiting, connID)

	if len(q.waiting) < 2 {
		metrics.MatchmakingWaiting.Set(float64(len(q.waiting)))
		return Pair{}, false
	}

	pair := Pair{Initiator: q.waiting[0], Responder: q.waiting[1]}
	q.waiting = append(q.waiting[:0], q.waiting[2:]...)

	metrics.MatchmakingWaiting.Set(float64(len(q.waiting)))
	metrics.MatchesTotal.Inc()
	q.logger.Debug().
		Str("initiator", pair.Initiator).
		Str("responder", pair.Responder).
		Msg("Connections paired.")

	return pair, true
}

// Remove drops connID from the queue if it is waiting.
func (q *Queue) Remove(connID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(connID)
	metrics.MatchmakingWaiting.Set(float64(len(q.waiting)))
}

// Len returns the number of waiting connections.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.waiting)
}

func (q *Queue) removeLocked(connID string) {
	for i, id := range q.waiting {
		if id == connID {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return
		}
	}
}
