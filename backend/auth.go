package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/princinho/sahoadmin/dto"
	"github.com/princinho/sahoadmin/models"
)

var ErrMissingToken = errors.New("refresh response carried no token")

func (c *Client) SignIn(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	body := dto.LoginDTO{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, PathSignIn, nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout ignores the response body; any 2xx counts as success.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, PathLogout, bearer(token), nil, nil)
}

// Refresh exchanges the current bearer token for a new one.
func (c *Client) Refresh(ctx context.Context, token string) (string, error) {
	var resp dto.RefreshResponse
	if err := c.do(ctx, http.MethodPost, PathRefresh, bearer(token), nil, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrMissingToken
	}
	return resp.Token, nil
}
