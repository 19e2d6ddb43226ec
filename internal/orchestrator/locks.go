package orchestrator

import "sync"

// lockRegistry hands out non-blocking per-id locks. A caller that loses the
// race is told so immediately instead of queueing behind a long stage run.
type lockRegistry struct {
	mu   sync.Mutex
	held map[string]bool
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{held: make(map[string]bool)}
}

func (r *lockRegistry) tryAcquire(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held[id] {
		return false
	}
	r.held[id] = true
	return true
}

func (r *lockRegistry) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.held, id)
}
