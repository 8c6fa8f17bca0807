package ledger

import (
	"sync"

	"khata/internal/core/id"
)

// keyedMutex serializes operations per obligation id. Payments on different
// obligations proceed fully in parallel; two payments on the same obligation
// can never both pass the pending-balance check against a stale read.
//
// Entries are reference-counted and removed when the last holder unlocks,
// so the map does not grow with the number of obligations ever touched.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[id.ID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[id.ID]*lockEntry)}
}

// Lock acquires the mutex for key and returns the unlock function.
func (k *keyedMutex) Lock(key id.ID) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
