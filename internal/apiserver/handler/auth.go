package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bellalabs/bellaprep/internal/apiserver/middleware"
	"github.com/bellalabs/bellaprep/internal/audit"
	"github.com/bellalabs/bellaprep/internal/common/cnst"
	"github.com/bellalabs/bellaprep/internal/common/dto"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

// Login authenticates a user within the resolved tenant and issues a
// bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		h.fail(c, errorx.NotFoundError("tenant"))
		return
	}

	user, err := h.db.GetUserByEmail(c.Request.Context(), tenant.ID, req.Email)
	if err != nil || !user.IsActive {
		h.fail(c, errorx.ErrInvalidCredentials)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.fail(c, errorx.ErrInvalidCredentials)
		return
	}

	// MFAVerified in the claims is what the mutation gate trusts, so it
	// is only set after the TOTP code checks out against the user's
	// enrolled secret. A wrong code fails the login outright; an omitted
	// code yields an unverified token that the gate blocks on writes.
	mfaVerified := !user.MFAEnabled
	if user.MFAEnabled && req.MFACode != "" {
		if !totp.Validate(req.MFACode, user.MFASecret) {
			h.fail(c, errorx.ErrInvalidCredentials)
			return
		}
		mfaVerified = true
	}

	token, err := h.jwt.GenerateToken(user.ID, user.TenantID, user.Email, user.Role, mfaVerified)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.sink.Record(c.Request.Context(), audit.Entry{
		TenantID:   tenant.ID,
		UserID:     user.ID,
		Action:     cnst.ActionUserLogin,
		Resource:   cnst.ResourceUser,
		ResourceID: user.ID,
	}); err != nil {
		h.logger.Warn("login audit failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, dto.LoginResponse{Token: token, User: user})
}

// UpdatePassword rotates the caller's own password after verifying the
// current one.
func (h *Handler) UpdatePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), claims.TenantID, claims.UserID)
	if err != nil {
		h.fail(c, errorx.NotFoundError(cnst.ResourceUser))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		h.fail(c, errorx.ErrInvalidCredentials)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.fail(c, err)
		return
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now()

	err = h.db.Transaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.db.UpdateUser(txCtx, user); err != nil {
			return err
		}
		return h.sink.Record(txCtx, audit.Entry{
			TenantID:   user.TenantID,
			UserID:     user.ID,
			Action:     cnst.ActionUserUpdated,
			Resource:   cnst.ResourceUser,
			ResourceID: user.ID,
			Details:    map[string]any{"field": "password"},
		})
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), claims.TenantID, claims.UserID)
	if err != nil {
		h.fail(c, errorx.NotFoundError(cnst.ResourceUser))
		return
	}
	c.JSON(http.StatusOK, user)
}
