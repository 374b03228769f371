package session

import (
	"context"
	"errors"
	"time"
)

var errEmptyToken = errors.New("refresh returned an empty token")

// scheduleLocked replaces any pending refresh with one that fires lead
// before expiry, or right away when that moment has passed.
func (m *Manager) scheduleLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
	s, ok := m.state.(LoggedIn)
	if !ok {
		return
	}

	delay := s.Expiry.Sub(m.clock.Now()) - m.lead
	if delay < 0 {
		delay = 0
	}
	gen := m.gen
	m.timer = m.clock.AfterFunc(delay, func() {
		m.refresh(gen)
	})
	m.log.Debug().Dur("in", delay).Msg("token refresh scheduled")
}

func (m *Manager) refresh(gen uint64) {
	m.mu.Lock()
	s, ok := m.state.(LoggedIn)
	if gen != m.gen || !ok {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	token, err := m.api.Refresh(ctx, s.Token)
	if err == nil && token == "" {
		err = errEmptyToken
	}

	m.mu.Lock()
	if gen != m.gen {
		// Re-login or logout won the race.
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.clearLocked(context.Background())
		at := m.clock.Now()
		m.mu.Unlock()

		m.log.Warn().Err(err).Str("email", s.User.Email).Msg("token refresh failed, session cleared")
		m.emit(Invalidation{
			Reason: ReasonRefreshFailed,
			At:     at,
			Err:    &SessionExpiredError{Cause: err},
		})
		return
	}

	next := LoggedIn{
		Token:  token,
		User:   s.User,
		Expiry: m.clock.Now().Add(m.ttl),
	}
	m.setLocked(context.Background(), next)
	m.mu.Unlock()
	m.log.Info().Time("expiry", next.Expiry).Msg("token refreshed")
}

// Expiry reports when the current token stops being valid.
func (m *Manager) Expiry() (time.Time, bool) {
	s, ok := m.Current().(LoggedIn)
	return s.Expiry, ok
}
