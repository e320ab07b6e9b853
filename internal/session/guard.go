package session

import (
	"sync"
	"time"
)

// DefaultGuardTimeout bounds how long a leave confirmation stays pending.
const DefaultGuardTimeout = 30 * time.Second

// Guard intercepts attempts to leave the call view while a call is active
// and lets the user choose between staying and ending the interview.
// A confirmation that is never answered expires and counts as "stay".
type Guard struct {
	ctrl    *Controller
	timeout time.Duration

	mu      sync.Mutex
	pending string
	timer   *time.Timer
}

// NewGuard wraps ctrl. A non-positive timeout uses DefaultGuardTimeout.
func NewGuard(ctrl *Controller, timeout time.Duration) *Guard {
	if timeout <= 0 {
		timeout = DefaultGuardTimeout
	}
	return &Guard{ctrl: ctrl, timeout: timeout}
}

// RequestLeave is called when the user tries to navigate to path. It returns
// true when the navigation went through immediately and false when the user
// has to confirm first.
func (g *Guard) RequestLeave(path string) bool {
	if g.ctrl.Status() != StatusActive {
		g.ctrl.Leave(path)
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	g.pending = path
	var timer *time.Timer
	timer = time.AfterFunc(g.timeout, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.timer == timer {
			g.pending = ""
			g.timer = nil
		}
	})
	g.timer = timer
	return false
}

// Pending returns the destination waiting for confirmation, if any.
func (g *Guard) Pending() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending, g.timer != nil
}

// Resolve applies the user's answer. With end set, the call is stopped and
// the original navigation proceeds. It reports whether a navigation happened.
func (g *Guard) Resolve(end bool) bool {
	path, ok := g.take()
	if !ok || !end {
		return false
	}
	g.ctrl.Leave(path)
	return true
}

// Unload handles the page going away without asking: the call is ended so
// the transcript collected so far is still evaluated.
func (g *Guard) Unload() {
	g.take()
	g.ctrl.Stop()
}

func (g *Guard) take() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer == nil {
		return "", false
	}
	g.timer.Stop()
	path := g.pending
	g.pending = ""
	g.timer = nil
	return path, true
}
