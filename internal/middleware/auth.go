package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/service"
)

// Context keys set by the auth middlewares
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return header
}

// RequireAuth validates the bearer token and loads the live user record
// into the request context. Requests without a valid token get 401.
func RequireAuth(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			c.Abort()
			return
		}

		user, err := svc.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}

// OptionalAuth loads the user when a valid token is present but lets
// anonymous requests through. Read endpoints use it to enrich responses
// with viewer-relative flags.
func OptionalAuth(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token != "" {
			if user, err := svc.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set(ContextUserKey, user)
				c.Set(ContextUserIDKey, user.ID)
			}
		}
		c.Next()
	}
}

// RequireAdmin ensures the authenticated user holds the admin role. It
// must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// UserID returns the authenticated user's ID, or "" for anonymous requests
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}
