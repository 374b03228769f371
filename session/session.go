// Package session owns the console's admin session: the bearer token, the
// signed-in user and the token expiry. It persists them to a durable store,
// refreshes the token before it expires and answers capability queries for
// the route guard and authenticated API calls.
package session

import (
	"context"
	"time"

	"github.com/princinho/sahoadmin/models"
)

// Session is either LoggedOut or LoggedIn.
type Session interface {
	isSession()
}

type LoggedOut struct{}

type LoggedIn struct {
	Token  string
	User   models.AdminUser
	Expiry time.Time
}

func (LoggedOut) isSession() {}
func (LoggedIn) isSession()  {}

// Storage keys.
const (
	KeyToken  = "admin_token"
	KeyUser   = "admin_user"
	KeyExpiry = "admin_token_expiry"
)

var storageKeys = []string{KeyToken, KeyUser, KeyExpiry}

const (
	DefaultTokenTTL       = 30 * time.Minute
	DefaultRefreshLead    = 5 * time.Minute
	DefaultRequestTimeout = 15 * time.Second
)

// AuthAPI is the slice of the backend the manager talks to.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) (string, error)
}

// Store is the durable key/value store the session is mirrored into.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type Reason string

const ReasonRefreshFailed Reason = "refresh_failed"

// Invalidation is emitted when the session ends without the operator
// asking for it.
type Invalidation struct {
	Reason Reason
	At     time.Time
	Err    error
}
