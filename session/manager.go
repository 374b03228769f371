package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/princinho/sahoadmin/backend"
	"github.com/princinho/sahoadmin/clock"
	"github.com/princinho/sahoadmin/models"
	"github.com/rs/zerolog"
)

type Manager struct {
	api     AuthAPI
	store   Store
	clock   clock.Clock
	log     zerolog.Logger
	ttl     time.Duration
	lead    time.Duration
	timeout time.Duration

	mu    sync.Mutex
	state Session
	timer clock.Timer
	// gen changes whenever the session is replaced or cleared; timer
	// callbacks and refresh results carrying an older gen are dropped.
	gen uint64
	// logins counts successful logins; a logout only clears the session it
	// started from.
	logins uint64

	subsMu sync.Mutex
	subs   map[int]func(Invalidation)
	nextID int
}

type Option func(*Manager)

func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func WithTokenTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

func WithRefreshLead(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.lead = d
		}
	}
}

// WithRequestTimeout bounds each backend call made by the manager.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// New builds a manager and hydrates it from store. An expired stored
// session is cleared without contacting the backend; a valid one is
// restored and its refresh timer scheduled.
func New(ctx context.Context, api AuthAPI, store Store, opts ...Option) *Manager {
	m := &Manager{
		api:     api,
		store:   store,
		clock:   clock.System(),
		log:     zerolog.Nop(),
		ttl:     DefaultTokenTTL,
		lead:    DefaultRefreshLead,
		timeout: DefaultRequestTimeout,
		state:   LoggedOut{},
		subs:    make(map[int]func(Invalidation)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.hydrate(ctx)
	return m
}

func (m *Manager) hydrate(ctx context.Context) {
	restored, found, err := load(ctx, m.store)
	if err != nil {
		m.log.Warn().Err(err).Msg("discarding unreadable stored session")
		m.mu.Lock()
		m.clearLocked(ctx)
		m.mu.Unlock()
		return
	}
	if !found {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clock.Now().After(restored.Expiry) {
		m.log.Info().Time("expiry", restored.Expiry).Msg("stored session expired")
		m.clearLocked(ctx)
		return
	}
	m.state = restored
	m.scheduleLocked()
	m.log.Info().Str("email", restored.User.Email).Time("expiry", restored.Expiry).Msg("session restored")
}

// Login signs in against the backend. The backend response is returned as
// is; the session only changes when it reports success with a token.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.api.SignIn(callCtx, email, password)
	if err != nil {
		authErr := &AuthenticationError{Message: "Login failed", Err: err}
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			authErr.StatusCode = apiErr.StatusCode
			if apiErr.Message != "" {
				authErr.Message = apiErr.Message
			}
		}
		m.log.Warn().Err(err).Str("email", email).Msg("login failed")
		return nil, authErr
	}

	if resp.Success && resp.Token != "" {
		m.mu.Lock()
		m.logins++
		m.setLocked(ctx, LoggedIn{
			Token:  resp.Token,
			User:   resp.User,
			Expiry: m.clock.Now().Add(m.ttl),
		})
		m.mu.Unlock()
		m.log.Info().Str("email", resp.User.Email).Str("role", string(resp.User.Role)).Msg("logged in")
	}
	return resp, nil
}

// Logout always ends the local session. The backend is told on a best
// effort basis; its failures are logged only. A login that completes
// while the backend call is in flight is kept.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	current, ok := m.state.(LoggedIn)
	logins := m.logins
	m.mu.Unlock()

	if ok {
		callCtx, cancel := context.WithTimeout(ctx, m.timeout)
		if err := m.api.Logout(callCtx, current.Token); err != nil {
			m.log.Warn().Err(err).Msg("backend logout failed")
		}
		cancel()
	}

	m.mu.Lock()
	if m.logins != logins {
		m.mu.Unlock()
		m.log.Info().Msg("logout skipped, signed in again meanwhile")
		return
	}
	m.clearLocked(ctx)
	m.mu.Unlock()
	if ok {
		m.log.Info().Str("email", current.User.Email).Msg("logged out")
	}
}

func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Current().(LoggedIn)
	return ok
}

// HasRole is an exact match: a super_admin does not hold the admin role.
func (m *Manager) HasRole(role models.Role) bool {
	s, ok := m.Current().(LoggedIn)
	return ok && s.User.Role == role
}

func (m *Manager) IsAdmin() bool {
	return m.HasRole(models.RoleAdmin)
}

func (m *Manager) IsSuperAdmin() bool {
	return m.HasRole(models.RoleSuperAdmin)
}

func (m *Manager) User() (models.AdminUser, bool) {
	s, ok := m.Current().(LoggedIn)
	return s.User, ok
}

func (m *Manager) Token() (string, bool) {
	s, ok := m.Current().(LoggedIn)
	return s.Token, ok
}

// AuthHeaders returns the headers every authenticated backend call carries.
func (m *Manager) AuthHeaders() (http.Header, error) {
	token, ok := m.Token()
	if !ok {
		return nil, &AuthenticationError{Message: ErrNoToken.Error(), StatusCode: http.StatusUnauthorized, Err: ErrNoToken}
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	h.Set("Content-Type", "application/json")
	return h, nil
}

// Subscribe registers fn for Invalidation events and returns a func that
// removes it. fn runs on the goroutine that detected the invalidation.
func (m *Manager) Subscribe(fn func(Invalidation)) func() {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) emit(inv Invalidation) {
	m.subsMu.Lock()
	subs := make([]func(Invalidation), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subsMu.Unlock()

	for _, fn := range subs {
		fn(inv)
	}
}

// Close cancels the pending refresh without touching the session, so a
// restarted console picks it up again from the store.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) setLocked(ctx context.Context, s LoggedIn) {
	m.state = s
	if err := persist(context.WithoutCancel(ctx), m.store, s); err != nil {
		m.log.Error().Err(err).Msg("persist session")
	}
	m.scheduleLocked()
}

func (m *Manager) clearLocked(ctx context.Context) {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.state = LoggedOut{}
	if err := m.store.Delete(context.WithoutCancel(ctx), storageKeys...); err != nil {
		m.log.Error().Err(err).Msg("clear stored session")
	}
}
