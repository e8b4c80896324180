package handler

import (
	"context"
	"errors"
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

// CreateDocument records metadata for an uploaded document. The blob
// itself lives in object storage under StorageKey.
func (h *Handler) CreateDocument(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	// The borrower lookup doubles as the tenant ownership check.
	if _, err := h.db.GetBorrower(c.Request.Context(), act.TenantID, req.BorrowerID); err != nil {
		h.fail(c, errorx.NotFoundError(cnst.ResourceBorrower))
		return
	}

	doc := &database.LoanDocument{
		ID:         uuid.New().String(),
		TenantID:   act.TenantID,
		BorrowerID: req.BorrowerID,
		Name:       req.Name,
		Type:       req.Type,
		Category:   req.Category,
		StorageKey: req.StorageKey,
		CreatedAt:  time.Now(),
	}

	err := h.db.Transaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.db.CreateDocument(txCtx, doc); err != nil {
			return err
		}
		return h.sink.Record(txCtx, audit.Entry{
			TenantID:   act.TenantID,
			UserID:     act.UserID,
			Action:     cnst.ActionDocumentUploaded,
			Resource:   cnst.ResourceDocument,
			ResourceID: doc.ID,
		})
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// ListDocuments lists a borrower's documents.
func (h *Handler) ListDocuments(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	if _, err := h.db.GetBorrower(c.Request.Context(), act.TenantID, c.Param("id")); err != nil {
		h.fail(c, errorx.NotFoundError(cnst.ResourceBorrower))
		return
	}

	docs, err := h.db.ListDocuments(c.Request.Context(), act.TenantID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// VerifyDocument marks a document verified by staff.
func (h *Handler) VerifyDocument(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	id := c.Param("id")
	err := h.db.Transaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.db.SetDocumentVerified(txCtx, act.TenantID, id, true); err != nil {
			return err
		}
		return h.sink.Record(txCtx, audit.Entry{
			TenantID:   act.TenantID,
			UserID:     act.UserID,
			Action:     cnst.ActionDocumentVerified,
			Resource:   cnst.ResourceDocument,
			ResourceID: id,
		})
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.fail(c, errorx.NotFoundError(cnst.ResourceDocument))
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

// DeleteDocument removes a document independently of its borrower.
func (h *Handler) DeleteDocument(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	id := c.Param("id")
	err := h.db.Transaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.db.DeleteDocument(txCtx, act.TenantID, id); err != nil {
			return err
		}
		return h.sink.Record(txCtx, audit.Entry{
			TenantID:   act.TenantID,
			UserID:     act.UserID,
			Action:     cnst.ActionDocumentDeleted,
			Resource:   cnst.ResourceDocument,
			ResourceID: id,
		})
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.fail(c, errorx.NotFoundError(cnst.ResourceDocument))
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
