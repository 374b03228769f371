package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/sahoadmin/dto"
	"github.com/princinho/sahoadmin/models"
	"github.com/princinho/sahoadmin/session"
	"github.com/rs/zerolog/log"
)

// SessionService is what the console handlers need from the session
// manager.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Logout(ctx context.Context)
	IsAuthenticated() bool
	HasRole(role models.Role) bool
	IsSuperAdmin() bool
	User() (models.AdminUser, bool)
	Expiry() (time.Time, bool)
	AuthHeaders() (http.Header, error)
}

const loginFailed = "Login failed"

func LoginPage(s SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.IsAuthenticated() {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		c.HTML(http.StatusOK, "login.html", gin.H{"title": "Sign in"})
	}
}

// Login handles the sign-in form. Failures are shown inline on the form.
func Login(s SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBind(&body); err != nil {
			c.HTML(http.StatusBadRequest, "login.html", gin.H{
				"title": "Sign in",
				"email": body.Email,
				"error": "Please enter a valid email and password",
			})
			return
		}
		email := strings.ToLower(strings.TrimSpace(body.Email))

		resp, err := s.Login(c.Request.Context(), email, body.Password)
		logLoginAttempt(c, email, err == nil && resp.Success && resp.Token != "")
		if err != nil {
			status := http.StatusUnauthorized
			msg := loginFailed
			var authErr *session.AuthenticationError
			if errors.As(err, &authErr) {
				msg = authErr.Message
				if authErr.StatusCode >= 500 || authErr.StatusCode == 0 {
					status = http.StatusBadGateway
				}
			}
			c.HTML(status, "login.html", gin.H{"title": "Sign in", "email": email, "error": msg})
			return
		}
		if !resp.Success || resp.Token == "" {
			msg := resp.Message
			if msg == "" {
				msg = loginFailed
			}
			c.HTML(http.StatusUnauthorized, "login.html", gin.H{"title": "Sign in", "email": email, "error": msg})
			return
		}

		c.Redirect(http.StatusSeeOther, "/")
	}
}

// Logout always lands on the login page, whatever the backend said.
func Logout(s SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.Logout(c.Request.Context())
		c.Redirect(http.StatusSeeOther, "/login")
	}
}

// SessionInfo exposes the current session to page scripts.
func SessionInfo(s SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := s.User()
		if !ok {
			c.JSON(http.StatusOK, gin.H{"authenticated": false})
			return
		}
		expiry, _ := s.Expiry()
		c.JSON(http.StatusOK, gin.H{
			"authenticated":  true,
			"user":           user,
			"expires_at":     expiry.UTC().Format(time.RFC3339),
			"is_admin":       user.Role == models.RoleAdmin,
			"is_super_admin": s.IsSuperAdmin(),
		})
	}
}

func logLoginAttempt(c *gin.Context, email string, ok bool) {
	log.Info().Str("email", email).Bool("ok", ok).Str("ip", c.ClientIP()).Msg("console login")
}
