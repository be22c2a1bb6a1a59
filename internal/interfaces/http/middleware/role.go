package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schoolfee/backend/internal/domain/identity"
)

// RequireRole returns a middleware that only lets through users whose
// token role is one of the given roles. It must run after the JWT
// middleware since it reads claims from the gin context.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[string(r)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Authentication required",
				},
			})
			return
		}

		if _, ok := allowed[claims.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Insufficient role for this operation",
				},
			})
			return
		}

		c.Next()
	}
}

// RequireAdmin is shorthand for admin-only routes
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(identity.RoleAdmin)
}

// RequireAccountant allows accountants and admins
func RequireAccountant() gin.HandlerFunc {
	return RequireRole(identity.RoleAdmin, identity.RoleAccountant)
}
