package concurrency

import (
	"sort"
	"sync"
)

// LockManager handles named locks. Every mutation of a given entity
// (user balance, listing, item) goes through the lock for its key, which
// serializes per-entity operations.
type LockManager struct {
	locks sync.Map
}

// NewLockManager creates a new LockManager
func NewLockManager() *LockManager {
	return &LockManager{}
}

// GetLock returns a mutex for the given key
func (lm *LockManager) GetLock(key string) *sync.Mutex {
	lock, _ := lm.locks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// LockAll acquires the locks for all keys in sorted order and returns
// an unlock function. Sorted acquisition prevents AB/BA deadlock when
// two transfers touch the same pair of users concurrently. Duplicate
// keys are locked once.
func (lm *LockManager) LockAll(keys ...string) func() {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			sorted = append(sorted, k)
		}
	}
	sort.Strings(sorted)

	locked := make([]*sync.Mutex, 0, len(sorted))
	for _, k := range sorted {
		mu := lm.GetLock(k)
		mu.Lock()
		locked = append(locked, mu)
	}

	return func() {
		// Release in reverse acquisition order.
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}
