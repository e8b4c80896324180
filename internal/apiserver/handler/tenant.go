package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bellalabs/bellaprep/internal/apiserver/database"
	"github.com/bellalabs/bellaprep/internal/apiserver/middleware"
	"github.com/bellalabs/bellaprep/internal/audit"
	"github.com/bellalabs/bellaprep/internal/common/cnst"
	"github.com/bellalabs/bellaprep/internal/common/dto"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

// ListTenants handles listing all tenants. SUPER_ADMIN only.
func (h *Handler) ListTenants(c *gin.Context) {
	tenants, err := h.db.ListTenants(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tenants)
}

// CreateTenant provisions a lender organization. There is no delete
// path: tenants are deactivated, never removed (cascade semantics are
// deliberately restricted).
func (h *Handler) CreateTenant(c *gin.Context) {
	var req dto.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	if existing, err := h.db.GetTenantBySubdomain(c.Request.Context(), req.Subdomain); err == nil && existing != nil {
		h.fail(c, errorx.ErrConflict.WithDetail("field", "subdomain"))
		return
	}

	claims, _ := middleware.ClaimsFromContext(c)
	tenant := &database.Tenant{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Subdomain:     req.Subdomain,
		BrandSettings: req.BrandSettings,
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	err := h.db.Transaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.db.CreateTenant(txCtx, tenant); err != nil {
			return err
		}
		return h.sink.Record(txCtx, audit.Entry{
			TenantID:   tenant.ID,
			UserID:     claims.UserID,
			Action:     cnst.ActionTenantCreated,
			Resource:   cnst.ResourceTenant,
			ResourceID: tenant.ID,
		})
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, tenant)
}

// UpdateTenant patches the resolved tenant's settings.
func (h *Handler) UpdateTenant(c *gin.Context) {
	var req dto.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		h.fail(c, errorx.NotFoundError(cnst.ResourceTenant))
		return
	}

	if req.Name != "" {
		tenant.Name = req.Name
	}
	if req.BrandSettings != "" {
		tenant.BrandSettings = req.BrandSettings
	}
	if req.IsActive != nil {
		tenant.IsActive = *req.IsActive
	}
	tenant.UpdatedAt = time.Now()

	claims, _ := middleware.ClaimsFromContext(c)
	err := h.db.Transaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.db.UpdateTenant(txCtx, tenant); err != nil {
			return err
		}
		return h.sink.Record(txCtx, audit.Entry{
			TenantID:   tenant.ID,
			UserID:     claims.UserID,
			Action:     cnst.ActionTenantUpdated,
			Resource:   cnst.ResourceTenant,
			ResourceID: tenant.ID,
		})
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, tenant)
}

// GetTenantInfo returns the resolved tenant's public settings.
func (h *Handler) GetTenantInfo(c *gin.Context) {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		h.fail(c, errorx.NotFoundError(cnst.ResourceTenant))
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// SaveIntegration seals and stores a third-party credential for the
// resolved tenant.
func (h *Handler) SaveIntegration(c *gin.Context) {
	var req dto.SaveIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		h.fail(c, errorx.NotFoundError(cnst.ResourceTenant))
		return
	}

	ciphertext, err := h.sealer.Encrypt(req.Secret)
	if err != nil {
		h.fail(c, err)
		return
	}

	claims, _ := middleware.ClaimsFromContext(c)
	integration := &database.TenantIntegration{
		ID:         uuid.New().String(),
		TenantID:   tenant.ID,
		Provider:   req.Provider,
		Ciphertext: ciphertext,
		UpdatedAt:  time.Now(),
	}

	err = h.db.Transaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.db.UpsertTenantIntegration(txCtx, integration); err != nil {
			return err
		}
		return h.sink.Record(txCtx, audit.Entry{
			TenantID:   tenant.ID,
			UserID:     claims.UserID,
			Action:     cnst.ActionIntegrationSaved,
			Resource:   cnst.ResourceTenant,
			ResourceID: tenant.ID,
			Details:    map[string]any{"provider": req.Provider},
		})
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"provider": req.Provider, "updatedAt": integration.UpdatedAt})
}
