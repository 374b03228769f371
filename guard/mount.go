package guard

import (
	"context"
	"sync"

	"github.com/princinho/sahoadmin/clock"
	"github.com/princinho/sahoadmin/models"
)

type State int

const (
	Loading State = iota
	Allowed
	Denied
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Mount is the guard's view of one navigation to one path. It starts in
// Loading, denies as soon as any check fails and allows only after the
// delayed check agrees with the immediate one. At most one redirect is
// issued per mount.
type Mount struct {
	guard    *Guard
	path     string
	required models.Role
	nav      Navigator

	mu         sync.Mutex
	state      State
	target     string
	redirected bool
	unmounted  bool
	timer      clock.Timer
	done       chan struct{}
}

// Mount runs the immediate check for path and schedules the confirming one.
func (g *Guard) Mount(path string, required models.Role, nav Navigator) *Mount {
	m := &Mount{
		guard:    g,
		path:     path,
		required: required,
		nav:      nav,
		state:    Loading,
		done:     make(chan struct{}),
	}

	if g.IsPublic(path) {
		m.state = Allowed
		close(m.done)
		return m
	}

	m.mu.Lock()
	if d := g.Decide(path, required); d != Allow {
		target := m.denyLocked(d)
		m.mu.Unlock()
		nav.Replace(target)
		return m
	}
	m.timer = g.clock.AfterFunc(g.settle, m.recheck)
	m.mu.Unlock()
	return m
}

func (m *Mount) recheck() {
	m.mu.Lock()
	if m.state != Loading || m.unmounted {
		m.mu.Unlock()
		return
	}
	d := m.guard.Decide(m.path, m.required)
	if d == Allow {
		m.state = Allowed
		close(m.done)
		m.mu.Unlock()
		return
	}
	target := m.denyLocked(d)
	m.mu.Unlock()
	m.nav.Replace(target)
}

// denyLocked moves the mount to Denied and returns the redirect target.
// Callers must only redirect when it returns a non-empty target.
func (m *Mount) denyLocked(d Decision) string {
	if m.redirected {
		return ""
	}
	m.redirected = true
	m.state = Denied
	m.target = m.guard.Target(d)
	close(m.done)
	return m.target
}

func (m *Mount) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Target is the redirect issued by this mount, empty when none was.
func (m *Mount) Target() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target
}

// Done is closed once the mount settles or is unmounted.
func (m *Mount) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the mount settles, is unmounted, or ctx ends.
func (m *Mount) Wait(ctx context.Context) (State, error) {
	select {
	case <-m.done:
		return m.State(), nil
	case <-ctx.Done():
		return m.State(), ctx.Err()
	}
}

// CanRender re-checks the session at render time; an allowed mount stops
// rendering once the session no longer satisfies the route.
func (m *Mount) CanRender() bool {
	if m.State() != Allowed {
		return false
	}
	return m.guard.Decide(m.path, m.required) == Allow
}

// Unmount cancels a pending check. A mount still loading never settles
// afterwards.
func (m *Mount) Unmount() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unmounted {
		return
	}
	m.unmounted = true
	if m.timer != nil {
		m.timer.Stop()
	}
	if m.state == Loading {
		close(m.done)
	}
}
