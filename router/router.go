// Package router wires the console's gin engine.
package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/princinho/sahoadmin/controllers"
	"github.com/princinho/sahoadmin/guard"
	"github.com/princinho/sahoadmin/middleware"
	"github.com/princinho/sahoadmin/models"
	"github.com/princinho/sahoadmin/views"
	"github.com/rs/zerolog"
)

type Deps struct {
	Sessions       controllers.SessionService
	Guard          *guard.Guard
	Categories     *controllers.CategoriesController
	Pending        *middleware.PendingRedirect
	Logger         zerolog.Logger
	AllowedOrigins []string
}

func New(d Deps) (*gin.Engine, error) {
	tmpl, err := views.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(gin.Recovery())

	allowedOrigins := map[string]bool{}
	for _, origin := range d.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Everything but liveness sees a redirect left by an ended session.
	console := r.Group("")
	if d.Pending != nil {
		console.Use(d.Pending.Middleware(d.Sessions))
	}

	page := func(role models.Role) gin.HandlerFunc {
		return middleware.RouteGuard(d.Guard, role)
	}

	console.GET(d.Guard.LoginPath(), page(""), controllers.LoginPage(d.Sessions))
	console.POST(d.Guard.LoginPath(), controllers.Login(d.Sessions))
	console.GET(d.Guard.UnauthorizedPath(), page(""), controllers.UnauthorizedPage())
	console.GET("/logout", controllers.Logout(d.Sessions))
	console.POST("/logout", controllers.Logout(d.Sessions))

	// Protected pages require the admin role unless they say otherwise.
	console.GET("/", page(models.RoleAdmin), controllers.HomePage(d.Sessions))
	console.GET("/categories", page(models.RoleAdmin), d.Categories.Page())
	console.GET("/profile", page(models.RoleAdmin), controllers.ProfilePage(d.Sessions))
	console.GET("/extra-settings", page(models.RoleSuperAdmin), controllers.SettingsPage(d.Sessions))

	api := console.Group("/api")
	api.GET("/session", middleware.AuthMiddleware(d.Sessions, ""), controllers.SessionInfo(d.Sessions))
	admin := api.Group("")
	admin.Use(middleware.AuthMiddleware(d.Sessions, models.RoleAdmin))
	{
		admin.GET("/categories", d.Categories.List())
		admin.POST("/categories/reorder", d.Categories.Reorder())
		admin.POST("/categories/reload", d.Categories.ReloadHandler())
	}
	return r, nil
}
