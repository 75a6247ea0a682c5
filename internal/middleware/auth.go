package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// OperatorKey is the gin context key holding the authenticated operator name.
const OperatorKey = "operator"

// TokenParser validates a session token and returns the operator it was issued to.
type TokenParser interface {
	Parse(token string) (string, error)
}

// BearerToken returns the session token from the Authorization header, or
// from the token query parameter for websocket upgrades where browsers can't
// set headers.
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return c.Query("token")
}

// RequireOperator rejects requests without a valid operator session.
func RequireOperator(auth TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Operator session required"})
			return
		}
		name, err := auth.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}
		c.Set(OperatorKey, name)
		c.Next()
	}
}

// OptionalOperator sets the operator when a valid session is presented and
// lets anonymous requests through. An invalid token is still rejected.
func OptionalOperator(auth TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		name, err := auth.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}
		c.Set(OperatorKey, name)
		c.Next()
	}
}

// Operator returns the operator set by RequireOperator or OptionalOperator.
func Operator(c *gin.Context) string {
	return c.GetString(OperatorKey)
}
