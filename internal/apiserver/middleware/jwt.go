package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bellalabs/bellaprep/internal/auth/jwt"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

const claimsKey = "claims"

// JWTAuth creates a middleware that validates bearer tokens and stores
// the claims in the gin context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, errorx.ErrUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, errorx.ErrUnauthorized)
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			abort(c, errorx.ErrUnauthorized)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(c *gin.Context) (*jwt.Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*jwt.Claims)
	return claims, ok
}

func abort(c *gin.Context, err *errorx.APIError) {
	c.AbortWithStatusJSON(err.HTTPStatus, gin.H{"error": err})
}
