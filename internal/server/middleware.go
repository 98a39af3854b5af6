package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	headerUserID     = "X-User-Id"
	headerAdminToken = "X-Admin-Token"
)

// RequireUser extracts the opaque user identity issued by the external
// auth service. The gateway in front of this service has already verified
// it; here it is nothing but a string key.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(headerUserID))
		if userID == "" {
			AbortWithError(c, ErrUnauthenticated)
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// RequireAdmin gates operator endpoints behind a static token. An empty
// configured token disables the admin surface entirely.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			AbortWithError(c, ErrForbidden)
			return
		}
		provided := strings.TrimSpace(c.GetHeader(headerAdminToken))
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}
