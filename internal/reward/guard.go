package reward

import (
	"sync"
	"sync/atomic"
)

// Guard lets at most one claim run at a time. A caller that finds it held skips
// its turn instead of waiting.
type Guard struct {
	mu       sync.Mutex
	inFlight atomic.Bool
}

// TryRun runs fn if no other run is in progress and reports whether it did.
func (g *Guard) TryRun(fn func()) bool {
	if !g.mu.TryLock() {
		return false
	}
	defer g.mu.Unlock()

	g.inFlight.Store(true)
	defer g.inFlight.Store(false)

	fn()
	return true
}

func (g *Guard) InFlight() bool {
	return g.inFlight.Load()
}
