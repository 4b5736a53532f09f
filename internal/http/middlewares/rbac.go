package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserIDFromContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope(
				http.StatusUnauthorized,
				"Unauthorized",
				"Authentication credentials were not provided or are invalid.",
				gin.H{"error": "Missing identity context"},
			))
			return
		}

		if !IsAdminFromContext(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, envelope(
				http.StatusForbidden,
				"Forbidden",
				"Administrator access is required for this action.",
				gin.H{"error": "Admin role required"},
			))
			return
		}
		c.Next()
	}
}
