package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/sahoadmin/backend"
	"github.com/princinho/sahoadmin/dto"
	"github.com/princinho/sahoadmin/models"
	"github.com/princinho/sahoadmin/session"
	"github.com/princinho/sahoadmin/views"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSessions struct {
	mu       sync.Mutex
	user     *models.AdminUser
	loginErr error
	resp     *models.AuthResponse
	logouts  int
}

func (f *fakeSessions) Login(_ context.Context, email, _ string) (*models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.resp.Success && f.resp.Token != "" {
		u := f.resp.User
		f.user = &u
	}
	return f.resp, nil
}

func (f *fakeSessions) Logout(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	f.user = nil
}

func (f *fakeSessions) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user != nil
}

func (f *fakeSessions) HasRole(role models.Role) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user != nil && f.user.Role == role
}

func (f *fakeSessions) IsSuperAdmin() bool {
	return f.HasRole(models.RoleSuperAdmin)
}

func (f *fakeSessions) User() (models.AdminUser, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return models.AdminUser{}, false
	}
	return *f.user, true
}

func (f *fakeSessions) Expiry() (time.Time, bool) {
	if !f.IsAuthenticated() {
		return time.Time{}, false
	}
	return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), true
}

func (f *fakeSessions) AuthHeaders() (http.Header, error) {
	if !f.IsAuthenticated() {
		return nil, &session.AuthenticationError{Message: session.ErrNoToken.Error(), Err: session.ErrNoToken}
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer tok")
	return h, nil
}

type fakeCategoryAPI struct {
	mu         sync.Mutex
	items      []models.Category
	reorderErr error
	reorders   [][]dto.CategoryPosition
	authHeader string
}

func (f *fakeCategoryAPI) Categories(_ context.Context, headers http.Header) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authHeader = headers.Get("Authorization")
	return append([]models.Category(nil), f.items...), nil
}

func (f *fakeCategoryAPI) ReorderCategories(_ context.Context, _ http.Header, positions []dto.CategoryPosition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reorders = append(f.reorders, positions)
	return f.reorderErr
}

var admin = models.AdminUser{ID: "u1", Email: "ana@saho.test", FirstName: "Ana", LastName: "Pop", Role: models.RoleAdmin, IsActive: true}

func categories() []models.Category {
	return []models.Category{
		{ID: 1, NameEN: "Chairs", Slug: "chairs"},
		{ID: 2, NameEN: "Tables", Slug: "tables"},
		{ID: 3, NameEN: "Lamps", Slug: "lamps"},
		{ID: 4, NameEN: "Rugs", Slug: "rugs"},
	}
}

func engine(t *testing.T) *gin.Engine {
	t.Helper()
	tmpl, err := views.Templates()
	require.NoError(t, err)
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	return r
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func TestLoginSuccessRedirectsHome(t *testing.T) {
	s := &fakeSessions{resp: &models.AuthResponse{Success: true, Token: "tok", User: admin}}
	r := engine(t)
	r.POST("/login", Login(s))

	w := postForm(r, "/login", url.Values{"email": {"Ana@Saho.test"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
	require.True(t, s.IsAuthenticated())
}

func TestLoginRejectedShowsBackendMessage(t *testing.T) {
	s := &fakeSessions{loginErr: &session.AuthenticationError{
		Message:    "Invalid credentials",
		StatusCode: http.StatusUnauthorized,
		Err:        &backend.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"},
	}}
	r := engine(t)
	r.POST("/login", Login(s))

	w := postForm(r, "/login", url.Values{"email": {"ana@saho.test"}, "password": {"nope"}})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid credentials")
	require.Contains(t, w.Body.String(), `value="ana@saho.test"`)
	require.False(t, s.IsAuthenticated())
}

func TestLoginBackendDown(t *testing.T) {
	s := &fakeSessions{loginErr: &session.AuthenticationError{Message: "Login failed", Err: errors.New("dial tcp: refused")}}
	r := engine(t)
	r.POST("/login", Login(s))

	w := postForm(r, "/login", url.Values{"email": {"ana@saho.test"}, "password": {"x"}})
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "Login failed")
}

func TestLoginUnsuccessfulBody(t *testing.T) {
	s := &fakeSessions{resp: &models.AuthResponse{Success: false, Message: "Account disabled"}}
	r := engine(t)
	r.POST("/login", Login(s))

	w := postForm(r, "/login", url.Values{"email": {"ana@saho.test"}, "password": {"x"}})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Account disabled")
}

func TestLoginInvalidForm(t *testing.T) {
	r := engine(t)
	r.POST("/login", Login(&fakeSessions{}))

	w := postForm(r, "/login", url.Values{"email": {"not-an-email"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Please enter a valid email and password")
}

func TestLoginPageRedirectsWhenSignedIn(t *testing.T) {
	u := admin
	r := engine(t)
	r.GET("/login", LoginPage(&fakeSessions{user: &u}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusSeeOther, w.Code)
}

func TestLogoutAlwaysRedirectsToLogin(t *testing.T) {
	u := admin
	s := &fakeSessions{user: &u}
	r := engine(t)
	r.POST("/logout", Logout(s))

	w := postForm(r, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))
	require.Equal(t, 1, s.logouts)
	require.False(t, s.IsAuthenticated())
}

func TestSessionInfo(t *testing.T) {
	u := admin
	s := &fakeSessions{user: &u}
	r := engine(t)
	r.GET("/api/session", SessionInfo(s))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"authenticated":true`)
	require.Contains(t, w.Body.String(), `"expires_at":"2025-03-01T09:30:00Z"`)
	require.Contains(t, w.Body.String(), `"is_admin":true`)
}

func TestPagesRender(t *testing.T) {
	u := admin
	s := &fakeSessions{user: &u}
	r := engine(t)
	r.GET("/", HomePage(s))
	r.GET("/profile", ProfilePage(s))
	r.GET("/unauthorized", UnauthorizedPage())

	for path, want := range map[string]string{
		"/":             "Welcome, Ana Pop",
		"/profile":      "ana@saho.test",
		"/unauthorized": "Access Denied",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Contains(t, w.Body.String(), want, path)
	}
}

func categoriesEngine(t *testing.T, api *fakeCategoryAPI) (*gin.Engine, *CategoriesController) {
	u := admin
	cc := NewCategoriesController(&fakeSessions{user: &u}, api)
	r := engine(t)
	r.GET("/categories", cc.Page())
	r.GET("/api/categories", cc.List())
	r.POST("/api/categories/reorder", cc.Reorder())
	r.POST("/api/categories/reload", cc.ReloadHandler())
	return r, cc
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCategoriesPageLoadsBoard(t *testing.T) {
	api := &fakeCategoryAPI{items: categories()}
	r, cc := categoriesEngine(t, api)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/categories", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Chairs")
	require.Contains(t, w.Body.String(), "Saving order...")
	require.Equal(t, "Bearer tok", api.authHeader)
	require.Len(t, cc.Board().Items(), 4)
}

func TestReorderSendsFullPositions(t *testing.T) {
	api := &fakeCategoryAPI{items: categories()}
	r, cc := categoriesEngine(t, api)
	require.NoError(t, cc.Reload(context.Background()))

	w := postJSON(r, "/api/categories/reorder", `{"active_id":3,"over_id":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []dto.CategoryPosition{
		{CategoryID: 3, NewPosition: 0},
		{CategoryID: 1, NewPosition: 1},
		{CategoryID: 2, NewPosition: 2},
		{CategoryID: 4, NewPosition: 3},
	}, api.reorders[0])

	ids := make([]int64, 0)
	for _, c := range cc.Board().Source() {
		ids = append(ids, c.ID)
	}
	require.Equal(t, []int64{3, 1, 2, 4}, ids)
}

func TestReorderFailureRollsBack(t *testing.T) {
	api := &fakeCategoryAPI{items: categories(), reorderErr: &backend.APIError{StatusCode: 500, Message: "boom"}}
	r, cc := categoriesEngine(t, api)
	require.NoError(t, cc.Reload(context.Background()))

	w := postJSON(r, "/api/categories/reorder", `{"active_id":3,"over_id":1}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), reorderFailed)
	require.Equal(t, categories(), cc.Board().Items())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Contains(t, w.Body.String(), reorderFailed)
}

func TestReorderUnknownCategory(t *testing.T) {
	api := &fakeCategoryAPI{items: categories()}
	r, cc := categoriesEngine(t, api)
	require.NoError(t, cc.Reload(context.Background()))

	w := postJSON(r, "/api/categories/reorder", `{"active_id":9,"over_id":1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, api.reorders)
}

func TestReloadRedirectsForms(t *testing.T) {
	api := &fakeCategoryAPI{items: categories()}
	r, _ := categoriesEngine(t, api)

	w := postForm(r, "/api/categories/reload", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = postJSON(r, "/api/categories/reload", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Lamps")
}
