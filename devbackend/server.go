package devbackend

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princinho/sahoadmin/dto"
	"github.com/princinho/sahoadmin/models"
	"github.com/princinho/sahoadmin/utils"
	"github.com/rs/zerolog/log"
)

const claimsKey = "claims"

type Server struct {
	users      UserRepository
	categories CategoryRepository
	tokens     *TokenIssuer
}

func NewServer(users UserRepository, categories CategoryRepository, tokens *TokenIssuer) *Server {
	return &Server{users: users, categories: categories, tokens: tokens}
}

func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.POST("/auth/admin/signin", s.SignIn())

	authed := r.Group("")
	authed.Use(s.AuthMiddleware())
	{
		authed.POST("/auth/refresh", s.Refresh())
		authed.POST("/auth/logout", s.Logout())
		authed.GET("/categories", s.GetCategories())
		authed.POST("/categories/reorder", s.ReorderCategories())
	}
	return r
}

func (s *Server) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := s.tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*Claims)
	return claims
}

func (s *Server) SignIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		email := strings.ToLower(strings.TrimSpace(body.Email))
		user, err := s.users.FindByEmail(c.Request.Context(), email)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Error().Err(err).Msg("find user")
			}
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
			return
		}
		if err := utils.CheckPassword(user.PasswordHash, body.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Account disabled"})
			return
		}

		token, err := s.tokens.Issue(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to generate access token"})
			return
		}
		c.JSON(http.StatusOK, models.AuthResponse{
			Success: true,
			Message: "Signed in",
			Token:   token,
			User:    user.Public(),
		})
	}
}

// Refresh rotates the presented access token.
func (s *Server) Refresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFrom(c)
		user, err := s.users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user"})
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		token, err := s.tokens.Issue(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate access token"})
			return
		}
		s.tokens.Revoke(claims)
		c.JSON(http.StatusOK, dto.RefreshResponse{Token: token})
	}
}

func (s *Server) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.tokens.Revoke(claimsFrom(c))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func (s *Server) GetCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := s.categories.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"items": items,
			"total": len(items),
		})
	}
}

func (s *Server) ReorderCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.Role(claimsFrom(c).Role)
		if role != models.RoleAdmin && role != models.RoleSuperAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only Admins can reorder categories"})
			return
		}

		var body []dto.CategoryPosition
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := s.categories.Reorder(c.Request.Context(), body); err != nil {
			if errors.Is(err, ErrUnknownCategory) || errors.Is(err, ErrInvalidPositions) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
