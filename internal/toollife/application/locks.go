package application

import "sync"

// toolLocks serializes the read-latest/append/classify/alert sequence per
// tool id. Different tools proceed in parallel; two writers for the same tool
// never interleave, which keeps cumulative totals a total order and makes the
// alert dedup check-then-create atomic.
type toolLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newToolLocks() *toolLocks {
	return &toolLocks{locks: make(map[int]*sync.Mutex)}
}

// acquire locks the mutex for toolID, creating it on first use. The returned
// func releases the lock.
func (l *toolLocks) acquire(toolID int) func() {
	l.mu.Lock()
	lock, ok := l.locks[toolID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[toolID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
