package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// Middleware resolves the caller identity and stores it on the context.
// Anonymous callers pass through; a presented but invalid token is refused.
func Middleware(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := v.Identify(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "reason": "InvalidToken"})
			return
		}
		if userID != "" {
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

// RequireUser refuses anonymous callers.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "reason": "AuthenticationRequired"})
			return
		}
		c.Next()
	}
}

// UserID returns the identity set by Middleware, or "".
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
