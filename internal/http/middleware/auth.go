package middleware

import (
	"net/http"
	"strings"

	"ekehi_engine/internal/logger"
	"ekehi_engine/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxRole     = "role"
)

// JWT validates the bearer token and puts the user id into the context.
// Browsers cannot set headers on websocket upgrades, so ?token= is accepted too.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""
		if h := c.GetHeader("Authorization"); h != "" {
			tokenStr = strings.TrimPrefix(h, "Bearer ")
			if tokenStr == h {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
				return
			}
		} else {
			tokenStr = c.Query("token")
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		claims, err := service.ParseJWT(tokenStr)
		if err != nil {
			logger.Debug("jwt parse error", "error", err, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// RequireAdmin lets through tokens with the admin role and users listed in
// adminIDs. Must run after JWT.
func RequireAdmin(adminIDs []int64) gin.HandlerFunc {
	allowed := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		allowed[id] = true
	}
	return func(c *gin.Context) {
		if c.GetString(CtxRole) == service.RoleAdmin || allowed[c.GetInt64(CtxUserID)] {
			c.Next()
			return
		}
		logger.Warn("admin access denied", "user_id", c.GetInt64(CtxUserID), "path", c.FullPath())
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
	}
}
