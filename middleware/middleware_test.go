package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/princinho/sahoadmin/guard"
	"github.com/princinho/sahoadmin/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	authenticated bool
	role          models.Role
}

func (s stubChecker) IsAuthenticated() bool { return s.authenticated }

func (s stubChecker) HasRole(role models.Role) bool { return s.authenticated && s.role == role }

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func guardedEngine(checker guard.Checker) *gin.Engine {
	g := guard.New(checker, guard.WithSettleDelay(0))
	r := gin.New()
	r.GET("/login", RouteGuard(g, models.RoleAdmin), func(c *gin.Context) { c.String(http.StatusOK, "login") })
	r.GET("/categories", RouteGuard(g, models.RoleAdmin), func(c *gin.Context) { c.String(http.StatusOK, "categories") })
	r.GET("/extra-settings", RouteGuard(g, models.RoleSuperAdmin), func(c *gin.Context) { c.String(http.StatusOK, "settings") })
	return r
}

func TestRouteGuardRedirectsToLogin(t *testing.T) {
	r := guardedEngine(stubChecker{})

	w := serve(r, http.MethodGet, "/categories")
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))
	require.NotContains(t, w.Body.String(), "categories")
}

func TestRouteGuardRedirectsToUnauthorized(t *testing.T) {
	r := guardedEngine(stubChecker{authenticated: true, role: models.RoleAdmin})

	w := serve(r, http.MethodGet, "/extra-settings")
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/unauthorized", w.Header().Get("Location"))
}

func TestRouteGuardAllows(t *testing.T) {
	r := guardedEngine(stubChecker{authenticated: true, role: models.RoleAdmin})

	w := serve(r, http.MethodGet, "/categories")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "categories", w.Body.String())
}

func TestRouteGuardPublicPath(t *testing.T) {
	r := guardedEngine(stubChecker{})

	w := serve(r, http.MethodGet, "/login")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	build := func(checker guard.Checker) *gin.Engine {
		r := gin.New()
		r.GET("/api/session", AuthMiddleware(checker, ""), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		r.GET("/api/categories", AuthMiddleware(checker, models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	anon := build(stubChecker{})
	require.Equal(t, http.StatusUnauthorized, serve(anon, http.MethodGet, "/api/session").Code)

	super := build(stubChecker{authenticated: true, role: models.RoleSuperAdmin})
	require.Equal(t, http.StatusNoContent, serve(super, http.MethodGet, "/api/session").Code)
	w := serve(super, http.MethodGet, "/api/categories")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.JSONEq(t, `{"error":"insufficient role"}`, w.Body.String())
}

func TestPendingRedirectFiresOnce(t *testing.T) {
	p := &PendingRedirect{}
	r := gin.New()
	r.Use(p.Middleware(stubChecker{}))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "home") })
	r.GET("/login", func(c *gin.Context) { c.String(http.StatusOK, "login") })
	r.GET("/api/session", func(c *gin.Context) { c.String(http.StatusOK, "{}") })

	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/").Code)

	p.Replace("/login")
	target, ok := p.Pending()
	require.True(t, ok)
	require.Equal(t, "/login", target)

	w := serve(r, http.MethodGet, "/")
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))
	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/").Code)

	p.Replace("/login")
	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/login").Code)
	_, ok = p.Pending()
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/session").Code)
	_, ok = p.Pending()
	require.False(t, ok)
}

func TestPendingRedirectDroppedForNewSession(t *testing.T) {
	p := &PendingRedirect{}
	r := gin.New()
	r.Use(p.Middleware(stubChecker{authenticated: true, role: models.RoleAdmin}))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "home") })

	p.Replace("/login")
	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/").Code)
	_, ok := p.Pending()
	require.False(t, ok)
}

// roleLostChecker is authenticated throughout but loses its role after
// allowRoleChecks calls to HasRole.
type roleLostChecker struct {
	calls           atomic.Int32
	allowRoleChecks int32
}

func (s *roleLostChecker) IsAuthenticated() bool { return true }

func (s *roleLostChecker) HasRole(models.Role) bool {
	return s.calls.Add(1) <= s.allowRoleChecks
}

func TestRouteGuardRenderCheckUsesCurrentDecision(t *testing.T) {
	// mount and settle each check the role once; the render check is the third.
	r := guardedEngine(&roleLostChecker{allowRoleChecks: 2})

	w := serve(r, http.MethodGet, "/categories")
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/unauthorized", w.Header().Get("Location"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf)))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := serve(r, http.MethodGet, "/ping")
	id := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	require.Contains(t, buf.String(), `"path":"/ping"`)
	require.Contains(t, buf.String(), id)

	buf.Reset()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	require.Contains(t, buf.String(), `"request_id":"abc-123"`)
}
