package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kidcare-platform/account-api/internal/utils"
)

const (
	ContextUserID   = "userID"
	ContextUserType = "userType"
	ContextScopes   = "scopes"
)

// Auth validates the bearer token and stores the subject, its user type
// and its scopes on the request context.
func Auth(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Authorization header is missing or malformed"})
			c.Abort()
			return
		}

		claims, err := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUserType, claims.SubType)
		c.Set(ContextScopes, claims.Scopes)
		c.Next()
	}
}

// RequireScope rejects requests whose token does not carry the scope.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		granted, _ := c.Get(ContextScopes)
		scopes, _ := granted.([]string)
		for _, s := range scopes {
			if s == scope {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"message": "Insufficient scope for this operation"})
		c.Abort()
	}
}
