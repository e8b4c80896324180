package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bellalabs/bellaprep/internal/apiserver/database"
	"github.com/bellalabs/bellaprep/internal/auth/rbac"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

const tenantKey = "tenant"

// TenantResolver maps the request to a tenant via the subdomain (or the
// X-Tenant-Subdomain header for non-subdomain deployments) and pins the
// caller's claims to it. SUPER_ADMIN may cross tenant boundaries.
func TenantResolver(db database.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		subdomain := c.GetHeader("X-Tenant-Subdomain")
		if subdomain == "" {
			subdomain = subdomainFromHost(c.Request.Host)
		}
		if subdomain == "" {
			abort(c, errorx.NotFoundError("tenant"))
			return
		}

		tenant, err := db.GetTenantBySubdomain(c.Request.Context(), subdomain)
		if err != nil || !tenant.IsActive {
			abort(c, errorx.NotFoundError("tenant"))
			return
		}

		if claims, ok := ClaimsFromContext(c); ok {
			if claims.Role != string(rbac.RoleSuperAdmin) && claims.TenantID != tenant.ID {
				// Same payload as an unknown tenant; no existence leakage.
				abort(c, errorx.NotFoundError("tenant"))
				return
			}
		}

		c.Set(tenantKey, tenant)
		c.Next()
	}
}

// TenantFromContext returns the resolved tenant, if any.
func TenantFromContext(c *gin.Context) (*database.Tenant, bool) {
	value, ok := c.Get(tenantKey)
	if !ok {
		return nil, false
	}
	tenant, ok := value.(*database.Tenant)
	return tenant, ok
}

func subdomainFromHost(host string) string {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[0]
}
