package service

import "sync"

// projectLocks hands out non-blocking per-project locks so at most one
// indexing run is in flight per project. Duplicate triggers (a user clicking
// refresh twice) fail fast instead of racing duplicate inserts.
type projectLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newProjectLocks() *projectLocks {
	return &projectLocks{held: make(map[string]struct{})}
}

// TryAcquire attempts to take the lock for projectID without blocking.
func (l *projectLocks) TryAcquire(projectID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[projectID]; ok {
		return false
	}
	l.held[projectID] = struct{}{}
	return true
}

// Release releases the lock for projectID.
func (l *projectLocks) Release(projectID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, projectID)
}
