package service

import (
	"sync"

	"github.com/google/uuid"
)

// TxLocks serializes ledger operations per transaction id so that two
// concurrent AddLine calls against the same open transaction cannot lose a
// totals recompute. Entries are reference-counted and removed when idle so
// the map does not grow with the number of transactions ever seen.
type TxLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*txLockEntry
}

type txLockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewTxLocks() *TxLocks {
	return &TxLocks{locks: make(map[uuid.UUID]*txLockEntry)}
}

// Lock acquires the per-transaction mutex and returns its release func.
func (l *TxLocks) Lock(id uuid.UUID) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &txLockEntry{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
