package middlewares

import (
	"net/http"
	"strings"

	"github.com/danielokoye/staffhub/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// envelope mirrors the response envelope used by the handlers package;
// middlewares cannot import it without a cycle.
func envelope(statusCode int, title, message string, errs any) gin.H {
	return gin.H{
		"statusCode": statusCode,
		"title":      title,
		"data":       gin.H{},
		"errors":     errs,
		"message":    message,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.bearerClaims(c)

		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope(
				http.StatusUnauthorized,
				"Unauthorized",
				"Authentication credentials were not provided or are invalid.",
				gin.H{"error": "Missing or invalid access token"},
			))
			return
		}

		// Stash useful bits of identity on the context
		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxUsernameKey, claims.Username)
		c.Set(ctxIsAdminKey, claims.IsAdmin)

		c.Next()
	}
}

// RejectAuthenticated guards the open auth endpoints: a caller that
// already holds a valid session cannot register or log in again.
func (m *AuthMiddleware) RejectAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, ok := m.bearerClaims(c)

		if ok {
			c.AbortWithStatusJSON(http.StatusForbidden, envelope(
				http.StatusForbidden,
				"Forbidden",
				"You are already logged in. Log out first.",
				gin.H{"error": "Authenticated users cannot perform this action"},
			))
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) bearerClaims(c *gin.Context) (*auth.Claims, bool) {
	authHeader := c.GetHeader("Authorization")

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}

	raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))

	if raw == "" {
		return nil, false
	}

	claims, err := m.jwt.VerifyAccessToken(raw)

	if err != nil {
		return nil, false
	}

	return claims, true
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func UsernameFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUsernameKey)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

func IsAdminFromContext(c *gin.Context) bool {
	v, ok := c.Get(ctxIsAdminKey)
	if !ok {
		return false
	}
	isAdmin, ok := v.(bool)
	return ok && isAdmin
}
