// Package devbackend is a development implementation of the Saho REST
// contract the admin console talks to: admin sign-in, token refresh,
// logout, category listing and category reordering.
package devbackend

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/princinho/sahoadmin/models"
)

var ErrTokenRevoked = errors.New("token revoked")

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 access tokens and remembers the ones revoked by
// logout or refresh until they would have expired anyway.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

func (ti *TokenIssuer) Issue(u models.User) (string, error) {
	now := ti.now()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (ti *TokenIssuer) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(ti.now))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	ti.mu.Lock()
	defer ti.mu.Unlock()
	if _, gone := ti.revoked[claims.ID]; gone {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (ti *TokenIssuer) Revoke(claims *Claims) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	now := ti.now()
	for id, exp := range ti.revoked {
		if now.After(exp) {
			delete(ti.revoked, id)
		}
	}
	exp := now.Add(ti.ttl)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	ti.revoked[claims.ID] = exp
}
