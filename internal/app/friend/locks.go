package friend

import (
	"sync"

	"vcturbo/internal/app/store"
)

// pairLocks serializes read-then-write sequences on a single unordered pair.
// Entries are reference counted and dropped once no caller holds them.
type pairLocks struct {
	mu    sync.Mutex
	locks map[store.PairKey]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[store.PairKey]*pairLock)}
}

// lock acquires the mutex of key and returns its release function.
func (p *pairLocks) lock(key store.PairKey) func() {
	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &pairLock{}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}

func (p *pairLocks) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
