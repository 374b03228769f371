package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/princinho/sahoadmin/models"
)

var errPartialSession = errors.New("stored session is incomplete")

func persist(ctx context.Context, store Store, s LoggedIn) error {
	user, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	values := [][2]string{
		{KeyToken, s.Token},
		{KeyUser, string(user)},
		{KeyExpiry, strconv.FormatInt(s.Expiry.UnixMilli(), 10)},
	}
	for _, kv := range values {
		if err := store.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("store %s: %w", kv[0], err)
		}
	}
	return nil
}

// load reads a stored session. found is false when nothing is stored at
// all; a partial or malformed record is an error.
func load(ctx context.Context, store Store) (s LoggedIn, found bool, err error) {
	token, hasToken, err := store.Get(ctx, KeyToken)
	if err != nil {
		return s, false, fmt.Errorf("read %s: %w", KeyToken, err)
	}
	userRaw, hasUser, err := store.Get(ctx, KeyUser)
	if err != nil {
		return s, false, fmt.Errorf("read %s: %w", KeyUser, err)
	}
	expiryRaw, hasExpiry, err := store.Get(ctx, KeyExpiry)
	if err != nil {
		return s, false, fmt.Errorf("read %s: %w", KeyExpiry, err)
	}

	if !hasToken && !hasUser && !hasExpiry {
		return s, false, nil
	}
	if !hasToken || !hasUser || !hasExpiry || token == "" {
		return s, false, errPartialSession
	}

	var user models.AdminUser
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		return s, false, fmt.Errorf("decode %s: %w", KeyUser, err)
	}
	ms, err := strconv.ParseInt(expiryRaw, 10, 64)
	if err != nil {
		return s, false, fmt.Errorf("decode %s: %w", KeyExpiry, err)
	}

	return LoggedIn{
		Token:  token,
		User:   user,
		Expiry: time.UnixMilli(ms),
	}, true, nil
}
