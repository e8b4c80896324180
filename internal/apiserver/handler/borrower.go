package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bellalabs/bellaprep/internal/auth/rbac"
	"github.com/bellalabs/bellaprep/internal/common/dto"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
	"github.com/bellalabs/bellaprep/internal/loan"
)

// CreateBorrower starts a loan application in DRAFT.
func (h *Handler) CreateBorrower(c *gin.Context) {
	var req dto.CreateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	borrower, err := h.loans.Create(c.Request.Context(), act, loan.CreatePayload{
		Email:      req.Email,
		Phone:      req.Phone,
		ProductID:  req.ProductID,
		AssignedTo: req.AssignedTo,
		FormData:   req.FormData,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, borrower)
}

// ListBorrowers lists the tenant's applications, optionally filtered by
// status.
func (h *Handler) ListBorrowers(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	page, pageSize := pageParams(c)
	borrowers, total, err := h.loans.List(c.Request.Context(), act, c.Query("status"), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(borrowers, total, page, pageSize))
}

// GetBorrower returns one application.
func (h *Handler) GetBorrower(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	borrower, err := h.loans.Get(c.Request.Context(), act, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, borrower)
}

// GetBorrowerTimeline returns the application's timeline, oldest first.
func (h *Handler) GetBorrowerTimeline(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	events, err := h.loans.Timeline(c.Request.Context(), act, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// UpdateBorrower patches contact fields and merges form data.
func (h *Handler) UpdateBorrower(c *gin.Context) {
	var req dto.UpdateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	borrower, err := h.loans.Update(c.Request.Context(), act, c.Param("id"), loan.UpdatePayload{
		Email:      req.Email,
		Phone:      req.Phone,
		AssignedTo: req.AssignedTo,
		FormData:   req.FormData,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, borrower)
}

// SubmitBorrower submits (or amends) the application.
func (h *Handler) SubmitBorrower(c *gin.Context) {
	var req dto.SubmitBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	borrower, err := h.loans.Submit(c.Request.Context(), act, c.Param("id"), req.FormData, req.ProductID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, borrower)
}

// TransitionBorrower moves the application to a new lifecycle status.
func (h *Handler) TransitionBorrower(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	borrower, err := h.loans.Transition(c.Request.Context(), act, c.Param("id"), loan.Status(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, borrower)
}

// DeleteBorrower hard-deletes an application. Admin roles only.
func (h *Handler) DeleteBorrower(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}
	if act.Role != string(rbac.RoleLenderAdmin) && act.Role != string(rbac.RoleSuperAdmin) {
		h.fail(c, errorx.ErrForbidden)
		return
	}

	if err := h.loans.Remove(c.Request.Context(), act, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
