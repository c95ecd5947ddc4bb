package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medcart/medcart/internal/domain/model"
	pkgAuth "github.com/medcart/medcart/internal/pkg/auth"
	"github.com/medcart/medcart/internal/server/http/dto"
)

const (
	// UserIDContextKey is a gin context key for the authenticated user id.
	UserIDContextKey = "userID"
	// UserRoleContextKey is a gin context key for the authenticated role.
	UserRoleContextKey = "userRole"
)

// TokenResolver validates an access token and returns the identity it encodes.
type TokenResolver interface {
	ResolveAccess(token string) (*pkgAuth.Identity, error)
}

// AuthRequired ensures the request carries a valid access token. Refresh
// tokens are rejected here.
func AuthRequired(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized", Message: "authorization token required"})
			return
		}

		identity, err := resolver.ResolveAccess(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid_token", Message: "token is expired or malformed"})
			return
		}

		c.Set(UserIDContextKey, identity.UserID)
		c.Set(UserRoleContextKey, identity.Role)
		c.Next()
	}
}

// StaffOnly restricts an endpoint to pharmacist and admin roles. It must run
// after AuthRequired.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		val, ok := c.Get(UserRoleContextKey)
		role, _ := val.(model.UserRole)
		if !ok || !role.Staff() {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Error: "forbidden", Message: "staff role required"})
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
