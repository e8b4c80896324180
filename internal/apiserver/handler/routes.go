package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bellalabs/bellaprep/internal/apiserver/middleware"
	"github.com/bellalabs/bellaprep/internal/auth/rbac"
	"github.com/bellalabs/bellaprep/internal/common/cnst"
	"github.com/bellalabs/bellaprep/internal/common/config"
	"github.com/bellalabs/bellaprep/internal/ratelimit"
	"github.com/bellalabs/bellaprep/pkg/metrics"
	"github.com/bellalabs/bellaprep/pkg/version"
)

// RegisterRoutes wires the HTTP surface. Middleware order per group:
// metrics, tenant resolution, rate limit, then auth, MFA and
// permissions on protected routes.
func (h *Handler) RegisterRoutes(router *gin.Engine, limiter *ratelimit.Limiter, m *metrics.Metrics, cfg *config.RateLimitConfig) {
	router.Use(h.errs.RecoveryMiddleware())
	router.Use(m.Middleware())

	router.GET("/metrics", m.Handler())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
	})

	api := router.Group("/api",
		middleware.RateLimit(limiter, m, cfg.Points, cfg.Window))

	// Unauthenticated, tenant-resolved.
	public := api.Group("", middleware.TenantResolver(h.db))
	public.POST("/auth/login", h.Login)
	public.GET("/tenant/info", h.GetTenantInfo)
	public.GET("/qr-sessions/:token", h.ResolveQRSession)

	// The resolver runs after token validation here so a claims/tenant
	// mismatch rejects before any handler sees the request.
	authed := api.Group("",
		middleware.JWTAuth(h.jwt),
		middleware.TenantResolver(h.db),
		middleware.MFAGate(h.db))

	authed.GET("/me", h.Me)
	authed.PUT("/me/password", h.UpdatePassword)

	// Tenant administration.
	authed.GET("/tenants",
		middleware.RequireRole(rbac.RoleSuperAdmin), h.ListTenants)
	authed.POST("/tenants",
		middleware.RequireRole(rbac.RoleSuperAdmin), h.CreateTenant)
	authed.PUT("/tenant",
		middleware.RequirePermission(cnst.ResourceTenant, rbac.ActionEdit), h.UpdateTenant)
	authed.POST("/tenant/integrations",
		middleware.RequirePermission(cnst.ResourceTenant, rbac.ActionEdit), h.SaveIntegration)

	// Users.
	authed.GET("/users",
		middleware.RequirePermission(cnst.ResourceUser, rbac.ActionView), h.ListUsers)
	authed.POST("/users",
		middleware.RequirePermission(cnst.ResourceUser, rbac.ActionCreate), h.CreateUser)
	authed.PUT("/users/:id",
		middleware.RequirePermission(cnst.ResourceUser, rbac.ActionEdit), h.UpdateUser)

	// Loan products.
	authed.GET("/products",
		middleware.RequirePermission(cnst.ResourceProduct, rbac.ActionView), h.ListProducts)
	authed.POST("/products",
		middleware.RequirePermission(cnst.ResourceProduct, rbac.ActionCreate), h.CreateProduct)
	authed.PUT("/products/:id",
		middleware.RequirePermission(cnst.ResourceProduct, rbac.ActionEdit), h.UpdateProduct)

	// Loan applications.
	authed.POST("/borrowers",
		middleware.RequirePermission(cnst.ResourceBorrower, rbac.ActionCreate), h.CreateBorrower)
	authed.GET("/borrowers",
		middleware.RequirePermission(cnst.ResourceBorrower, rbac.ActionView), h.ListBorrowers)
	authed.GET("/borrowers/:id",
		middleware.RequirePermission(cnst.ResourceBorrower, rbac.ActionView), h.GetBorrower)
	authed.GET("/borrowers/:id/timeline",
		middleware.RequirePermission(cnst.ResourceBorrower, rbac.ActionView), h.GetBorrowerTimeline)
	authed.PATCH("/borrowers/:id",
		middleware.RequirePermission(cnst.ResourceBorrower, rbac.ActionEdit), h.UpdateBorrower)
	authed.POST("/borrowers/:id/submit",
		middleware.RequirePermission(cnst.ResourceBorrower, rbac.ActionEdit), h.SubmitBorrower)
	authed.PATCH("/borrowers/:id/status",
		middleware.RequirePermission(cnst.ResourceBorrower, rbac.ActionEdit), h.TransitionBorrower)
	authed.DELETE("/borrowers/:id",
		middleware.RequirePermission(cnst.ResourceBorrower, rbac.ActionDelete), h.DeleteBorrower)
	authed.POST("/borrowers/:id/qr-session",
		middleware.RequirePermission(cnst.ResourceDocument, rbac.ActionCreate), h.CreateQRSession)

	// Documents.
	authed.POST("/documents",
		middleware.RequirePermission(cnst.ResourceDocument, rbac.ActionCreate), h.CreateDocument)
	authed.GET("/borrowers/:id/documents",
		middleware.RequirePermission(cnst.ResourceDocument, rbac.ActionView), h.ListDocuments)
	authed.POST("/documents/:id/verify",
		middleware.RequirePermission(cnst.ResourceDocument, rbac.ActionEdit), h.VerifyDocument)
	authed.DELETE("/documents/:id",
		middleware.RequirePermission(cnst.ResourceDocument, rbac.ActionDelete), h.DeleteDocument)

	// Audit trail.
	authed.GET("/audit",
		middleware.RequirePermission(cnst.ResourceAudit, rbac.ActionView), h.QueryAudit)

	// Analytics.
	analytics := authed.Group("/analytics",
		middleware.RequirePermission(cnst.ResourceBorrower, rbac.ActionView))
	analytics.GET("/pipeline", h.GetPipeline)
	analytics.GET("/funnel", h.GetFunnel)
	analytics.GET("/lo-performance", h.GetLOPerformance)
	analytics.GET("/documents", h.GetDocumentStats)
	analytics.GET("/bella-usage", h.GetBellaUsage)
	authed.GET("/analytics/super-admin",
		middleware.RequireRole(rbac.RoleSuperAdmin), h.GetPlatformPipeline)

	// Bella runs on a tighter budget than the rest of the API.
	authed.POST("/bella/chat",
		middleware.RateLimit(limiter, m, cfg.BellaPts, cfg.Window), h.Chat)
}
