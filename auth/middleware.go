package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"speech-grader/dto"
)

// ContextUserKey is the gin context key holding the authenticated username.
const ContextUserKey = "username"

// RequireAuth aborts with 401 unless a valid bearer token is presented. The
// response is identical for missing, malformed and expired tokens.
func RequireAuth(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			abortUnauthorized(c)
			return
		}
		username, err := manager.Verify(token)
		if err != nil {
			abortUnauthorized(c)
			return
		}
		c.Set(ContextUserKey, username)
		c.Next()
	}
}

// Username returns the authenticated caller set by RequireAuth.
func Username(c *gin.Context) string {
	return c.GetString(ContextUserKey)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Status: "error",
		Error:  "invalid credentials",
	})
}
