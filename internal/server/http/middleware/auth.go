package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/wingbite/trackd/internal/pkg/auth"
)

const (
	// ClaimsContextKey is a gin context key for verified token claims.
	ClaimsContextKey = "authClaims"
	authCookieName   = "trackd_token"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	ParseToken(token string) (*pkgAuth.Claims, error)
}

// AuthRequired ensures the caller presents a valid token whose role is among
// the allowed ones before accessing the handler.
func AuthRequired(parser TokenParser, roles ...pkgAuth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := parser.ParseToken(token)
		if err != nil {
			if errors.Is(err, pkgAuth.ErrInvalidToken) {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		if len(roles) > 0 && !roleAllowed(claims.Role, roles) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

func roleAllowed(role pkgAuth.Role, allowed []pkgAuth.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}
	return ""
}
