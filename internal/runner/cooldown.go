package runner

import (
	"sync"
	"time"

	"github.com/lmtray/lmtray/internal/models"
)

// Guard drops repeated triggers of the same action that arrive within the
// cooldown window of the last admitted one.
type Guard struct {
	mu     sync.Mutex
	window time.Duration
	last   map[models.Action]time.Time
	now    func() time.Time
}

// NewGuard creates a Guard with the given window.
func NewGuard(window time.Duration) *Guard {
	return &Guard{
		window: window,
		last:   make(map[models.Action]time.Time),
		now:    time.Now,
	}
}

// Admit reports whether a trigger may proceed. Rejected triggers do not
// extend the window.
func (g *Guard) Admit(a models.Action) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.last[a]; ok && now.Sub(last) < g.window {
		return false
	}
	g.last[a] = now
	return true
}
