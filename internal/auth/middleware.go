package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const usernameKey = "auth.username"

// RequireAuth returns gin middleware that validates the request's Bearer token
// and stores the authenticated username in the context. Requests without a
// valid token are aborted with 401.
func RequireAuth(service *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		username, err := service.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		c.Set(usernameKey, username)
		c.Next()
	}
}

// GetUsername returns the authenticated username set by RequireAuth.
func GetUsername(c *gin.Context) (string, bool) {
	v, ok := c.Get(usernameKey)
	if !ok {
		return "", false
	}
	username, ok := v.(string)
	return username, ok
}
