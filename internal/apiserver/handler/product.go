package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bellalabs/bellaprep/internal/apiserver/database"
	"github.com/bellalabs/bellaprep/internal/audit"
	"github.com/bellalabs/bellaprep/internal/common/cnst"
	"github.com/bellalabs/bellaprep/internal/common/dto"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

// ListProducts returns the tenant's loan product catalog.
func (h *Handler) ListProducts(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}
	products, err := h.db.ListProducts(c.Request.Context(), act.TenantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// CreateProduct adds a loan product to the tenant catalog.
func (h *Handler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	product := &database.LoanProduct{
		ID:             uuid.New().String(),
		TenantID:       act.TenantID,
		Name:           req.Name,
		Type:           req.Type,
		Enabled:        true,
		PropertyTypes:  req.PropertyTypes,
		RequiredFields: req.RequiredFields,
		Eligibility:    req.Eligibility,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	err := h.db.Transaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.db.CreateProduct(txCtx, product); err != nil {
			return err
		}
		return h.sink.Record(txCtx, audit.Entry{
			TenantID:   act.TenantID,
			UserID:     act.UserID,
			Action:     cnst.ActionProductCreated,
			Resource:   cnst.ResourceProduct,
			ResourceID: product.ID,
		})
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct patches a loan product.
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	product, err := h.db.GetProductByID(c.Request.Context(), act.TenantID, c.Param("id"))
	if err != nil {
		h.fail(c, errorx.NotFoundError(cnst.ResourceProduct))
		return
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Type != "" {
		product.Type = req.Type
	}
	if req.Enabled != nil {
		product.Enabled = *req.Enabled
	}
	if req.PropertyTypes != "" {
		product.PropertyTypes = req.PropertyTypes
	}
	if req.RequiredFields != "" {
		product.RequiredFields = req.RequiredFields
	}
	if req.Eligibility != "" {
		product.Eligibility = req.Eligibility
	}
	product.UpdatedAt = time.Now()

	err = h.db.Transaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.db.UpdateProduct(txCtx, product); err != nil {
			return err
		}
		return h.sink.Record(txCtx, audit.Entry{
			TenantID:   act.TenantID,
			UserID:     act.UserID,
			Action:     cnst.ActionProductUpdated,
			Resource:   cnst.ResourceProduct,
			ResourceID: product.ID,
		})
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}
