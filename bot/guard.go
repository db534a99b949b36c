package bot

import "sync"

// Guard is the single-flight admission set: at most one running job per user
// number. Entries are process-local and intentionally not persisted; a
// restart clears them (stuck states are reconciled at startup instead).
type Guard struct {
	mu     sync.Mutex
	active map[int64]bool
}

func NewGuard() *Guard {
	return &Guard{active: make(map[int64]bool)}
}

// TryAdmit atomically reserves the job slot for a user. It returns false when
// a job is already running for that number.
func (g *Guard) TryAdmit(number int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[number] {
		return false
	}
	g.active[number] = true
	return true
}

// Release unconditionally frees the slot. Every admission must be paired with
// a Release on all exit paths, or the user is locked out until restart.
func (g *Guard) Release(number int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, number)
}

// Active reports whether a job is currently running for the number.
func (g *Guard) Active(number int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active[number]
}

// Len returns the number of users with a running job.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}
