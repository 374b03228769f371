package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/sahoadmin/guard"
	"github.com/princinho/sahoadmin/models"
)

// AuthMiddleware guards JSON routes. It answers 401 without a session and
// 403 when the session lacks role; an empty role only needs a session.
func AuthMiddleware(checker guard.Checker, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !checker.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		if role != "" && !checker.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}
