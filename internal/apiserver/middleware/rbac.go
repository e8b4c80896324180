package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/bellalabs/bellaprep/internal/auth/rbac"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

// RequirePermission gates a route on the static role/permission matrix.
func RequirePermission(resource string, action rbac.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			abort(c, errorx.ErrUnauthorized)
			return
		}

		if !rbac.Can(rbac.Role(claims.Role), resource, action) {
			abort(c, errorx.ErrForbidden)
			return
		}

		c.Next()
	}
}

// RequireRole gates a route on an explicit role allow-list.
func RequireRole(roles ...rbac.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			abort(c, errorx.ErrUnauthorized)
			return
		}
		for _, role := range roles {
			if claims.Role == string(role) {
				c.Next()
				return
			}
		}
		abort(c, errorx.ErrForbidden)
	}
}
