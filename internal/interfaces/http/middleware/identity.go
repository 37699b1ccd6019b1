package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chartly/internal/shared/utils"
)

const (
	userIDHeader    = "X-User-ID"
	userEmailHeader = "X-User-Email"
)

// RequireIdentity trusts the identity headers injected by the auth proxy
// in front of the gateway. Requests arriving without a user id never got
// through the proxy and are rejected.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		if email := c.GetHeader(userEmailHeader); email != "" {
			c.Set("user_email", email)
		}

		c.Next()
	}
}

// UserID pulls the authenticated user id set by RequireIdentity.
func UserID(c *gin.Context) (string, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	userID, ok := value.(string)
	return userID, ok && userID != ""
}
