package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// pageData is the layout data every signed-in page shares.
func pageData(s SessionService, title string) gin.H {
	user, _ := s.User()
	data := gin.H{
		"title":        title,
		"user":         user,
		"isSuperAdmin": s.IsSuperAdmin(),
	}
	if expiry, ok := s.Expiry(); ok {
		data["expiry"] = expiry.Local().Format(time.Kitchen)
	}
	return data
}

func HomePage(s SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "home.html", pageData(s, "Dashboard"))
	}
}

func ProfilePage(s SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "profile.html", pageData(s, "Profile"))
	}
}

func SettingsPage(s SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "settings.html", pageData(s, "Extra Settings"))
	}
}

func UnauthorizedPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusForbidden, "unauthorized.html", gin.H{"title": "Access Denied"})
	}
}
