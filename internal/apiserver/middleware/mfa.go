package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bellalabs/bellaprep/internal/apiserver/database"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

// MFAGate rejects mutating requests from MFA-enabled users whose token
// does not carry proof of a recent MFA challenge. The gate is
// orthogonal to role permissions.
func MFAGate(db database.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		claims, ok := ClaimsFromContext(c)
		if !ok {
			c.Next()
			return
		}

		user, err := db.GetUserByID(c.Request.Context(), claims.TenantID, claims.UserID)
		if err != nil {
			// Unknown user rows fall through to the handler's own checks.
			c.Next()
			return
		}

		if user.MFAEnabled && !claims.MFAVerified {
			abort(c, errorx.ErrMFARequired)
			return
		}
		c.Next()
	}
}
