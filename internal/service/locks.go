package service

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// tableLocks serializes coordinator operations per table so concurrent
// requests cannot interleave their status recomputation. In-process
// only; the service runs as a single instance.
type tableLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTableLocks() *tableLocks {
	return &tableLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for a table and returns its release func.
func (tl *tableLocks) lock(tableID primitive.ObjectID) func() {
	key := tableID.Hex()

	tl.mu.Lock()
	m, ok := tl.locks[key]
	if !ok {
		m = &sync.Mutex{}
		tl.locks[key] = m
	}
	tl.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// lockPair acquires the mutexes of two tables for an operation that
// moves an entity between them. Locks are taken in a fixed key order so
// two movers crossing in opposite directions cannot deadlock.
func (tl *tableLocks) lockPair(a, b primitive.ObjectID) func() {
	if a == b {
		return tl.lock(a)
	}

	first, second := a, b
	if second.Hex() < first.Hex() {
		first, second = second, first
	}

	unlockFirst := tl.lock(first)
	unlockSecond := tl.lock(second)
	return func() {
		unlockSecond()
		unlockFirst()
	}
}
