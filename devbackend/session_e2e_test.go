package devbackend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/princinho/sahoadmin/clock/fakeclock"
	"github.com/princinho/sahoadmin/session"
	"github.com/princinho/sahoadmin/storage"
	"github.com/stretchr/testify/require"
)

// Login at T0, refresh at T0+25m, backend down at T0+50m.
func TestSessionLifecycleAgainstDevBackend(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clk := fakeclock.New(t0)
	store := storage.NewMemoryStore()

	m := session.New(ctx, h.client, store, session.WithClock(clk), session.WithRequestTimeout(2*time.Second))
	defer m.Close()
	var events []session.Invalidation
	m.Subscribe(func(inv session.Invalidation) { events = append(events, inv) })

	resp, err := m.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	require.True(t, m.IsAuthenticated())
	require.True(t, m.HasRole(resp.User.Role))
	require.Equal(t, 3, store.Len())
	first, _ := m.Token()

	clk.Advance(25 * time.Minute)
	second, ok := m.Token()
	require.True(t, ok)
	require.NotEqual(t, first, second)
	expiry, _ := m.Expiry()
	require.Equal(t, t0.Add(55*time.Minute), expiry)
	require.Equal(t, 1, clk.Pending())
	next, _ := clk.NextDeadline()
	require.Equal(t, t0.Add(50*time.Minute), next)

	stored, _, err := store.Get(ctx, session.KeyToken)
	require.NoError(t, err)
	require.Equal(t, second, stored)

	headers, err := m.AuthHeaders()
	require.NoError(t, err)
	cats, err := h.client.Categories(ctx, headers)
	require.NoError(t, err)
	require.NotEmpty(t, cats)

	h.srv.Close()
	clk.Advance(25 * time.Minute)

	require.False(t, m.IsAuthenticated())
	require.Equal(t, 0, store.Len())
	require.Equal(t, 0, clk.Pending())
	require.Len(t, events, 1)
	require.Equal(t, session.ReasonRefreshFailed, events[0].Reason)
	var expired *session.SessionExpiredError
	require.True(t, errors.As(events[0].Err, &expired))
}

func TestRestartRestoresSessionFromStore(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	clk := fakeclock.New(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	store := storage.NewMemoryStore()

	m := session.New(ctx, h.client, store, session.WithClock(clk))
	_, err := m.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	user, _ := m.User()
	m.Close()

	clk.Advance(10 * time.Minute)
	restored := session.New(ctx, h.client, store, session.WithClock(clk))
	defer restored.Close()
	require.True(t, restored.IsAuthenticated())
	got, _ := restored.User()
	require.Equal(t, user, got)

	restored.Logout(ctx)
	require.False(t, restored.IsAuthenticated())
	require.Equal(t, 0, store.Len())
}
