// Package guard decides whether a console route may render for the current
// admin session, and settles that decision per navigation.
package guard

import (
	"time"

	"github.com/princinho/sahoadmin/clock"
	"github.com/princinho/sahoadmin/models"
)

const (
	DefaultLoginPath        = "/login"
	DefaultUnauthorizedPath = "/unauthorized"
	DefaultSettleDelay      = 200 * time.Millisecond
)

// Checker is the session capability the guard consults.
type Checker interface {
	IsAuthenticated() bool
	HasRole(role models.Role) bool
}

// Navigator performs a history-replacing redirect.
type Navigator interface {
	Replace(path string)
}

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "unknown"
	}
}

type Guard struct {
	checker          Checker
	clock            clock.Clock
	loginPath        string
	unauthorizedPath string
	settle           time.Duration
}

type Option func(*Guard)

func WithClock(c clock.Clock) Option {
	return func(g *Guard) { g.clock = c }
}

func WithLoginPath(p string) Option {
	return func(g *Guard) { g.loginPath = p }
}

func WithUnauthorizedPath(p string) Option {
	return func(g *Guard) { g.unauthorizedPath = p }
}

// WithSettleDelay sets how long after the first check the confirming
// check runs.
func WithSettleDelay(d time.Duration) Option {
	return func(g *Guard) {
		if d >= 0 {
			g.settle = d
		}
	}
}

func New(checker Checker, opts ...Option) *Guard {
	g := &Guard{
		checker:          checker,
		clock:            clock.System(),
		loginPath:        DefaultLoginPath,
		unauthorizedPath: DefaultUnauthorizedPath,
		settle:           DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) LoginPath() string {
	return g.loginPath
}

func (g *Guard) UnauthorizedPath() string {
	return g.unauthorizedPath
}

// IsPublic reports whether path bypasses the guard. The redirect targets
// are always public so a denied navigation cannot loop.
func (g *Guard) IsPublic(path string) bool {
	return path == g.loginPath || path == g.unauthorizedPath
}

// Decide evaluates one navigation. An empty required role only demands an
// authenticated session.
func (g *Guard) Decide(path string, required models.Role) Decision {
	if g.IsPublic(path) {
		return Allow
	}
	if !g.checker.IsAuthenticated() {
		return RedirectLogin
	}
	if required != "" && !g.checker.HasRole(required) {
		return RedirectUnauthorized
	}
	return Allow
}

// Target is the redirect destination for a deny decision.
func (g *Guard) Target(d Decision) string {
	switch d {
	case RedirectLogin:
		return g.loginPath
	case RedirectUnauthorized:
		return g.unauthorizedPath
	default:
		return ""
	}
}
