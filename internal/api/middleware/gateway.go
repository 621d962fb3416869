package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey    = "user_id"
	userEmailKey = "user_email"
	userRoleKey  = "user_role"

	anonymousUser = "anonymous"
)

// GatewayAuth trusts user info from gateway headers (X-User-ID, X-User-Email, X-User-Role).
// This is used when the API runs behind a gateway that handles JWT validation and billing.
//
// When AUTH_MODE=gateway, the API trusts these headers unconditionally.
// This should ONLY be used in the hosted environment with proper network isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Set(userEmailKey, c.GetHeader("X-User-Email"))
		c.Set(userRoleKey, c.GetHeader("X-User-Role"))

		c.Next()
	}
}

// UserID returns the authenticated user's ID, or "" when no auth middleware ran.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// UserEmail returns the user's email when the auth mode provides one
func UserEmail(c *gin.Context) string {
	return c.GetString(userEmailKey)
}

// UserRole returns the user's role when the auth mode provides one
func UserRole(c *gin.Context) string {
	return c.GetString(userRoleKey)
}

// RequestID returns the ID assigned by RequestTracking
func RequestID(c *gin.Context) string {
	return c.GetString("request_id")
}
