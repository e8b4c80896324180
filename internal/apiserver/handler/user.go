package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/bellalabs/bellaprep/internal/apiserver/database"
	"github.com/bellalabs/bellaprep/internal/audit"
	"github.com/bellalabs/bellaprep/internal/auth/rbac"
	"github.com/bellalabs/bellaprep/internal/common/cnst"
	"github.com/bellalabs/bellaprep/internal/common/dto"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

// ListUsers lists the tenant's users.
func (h *Handler) ListUsers(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}
	users, err := h.db.ListUsers(c.Request.Context(), act.TenantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser invites a user into the tenant.
func (h *Handler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}
	if !rbac.Role(req.Role).Valid() {
		h.fail(c, errorx.ValidationError("role", "unknown role"))
		return
	}

	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	if existing, err := h.db.GetUserByEmail(c.Request.Context(), act.TenantID, req.Email); err == nil && existing != nil {
		h.fail(c, errorx.ErrConflict.WithDetail("field", "email"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.fail(c, err)
		return
	}

	user := &database.User{
		ID:           uuid.New().String(),
		TenantID:     act.TenantID,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	err = h.db.Transaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.db.CreateUser(txCtx, user); err != nil {
			return err
		}
		return h.sink.Record(txCtx, audit.Entry{
			TenantID:   act.TenantID,
			UserID:     act.UserID,
			Action:     cnst.ActionUserCreated,
			Resource:   cnst.ResourceUser,
			ResourceID: user.ID,
		})
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// UpdateUser patches role, MFA or active flags. Users are disabled, not
// deleted.
func (h *Handler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), act.TenantID, c.Param("id"))
	if err != nil {
		h.fail(c, errorx.NotFoundError(cnst.ResourceUser))
		return
	}

	action := cnst.ActionUserUpdated
	if req.Role != "" {
		if !rbac.Role(req.Role).Valid() {
			h.fail(c, errorx.ValidationError("role", "unknown role"))
			return
		}
		user.Role = req.Role
	}
	var otpauthURL string
	if req.MFAEnabled != nil {
		if *req.MFAEnabled && !user.MFAEnabled {
			key, err := totp.Generate(totp.GenerateOpts{
				Issuer:      "BellaPrep",
				AccountName: user.Email,
			})
			if err != nil {
				h.fail(c, err)
				return
			}
			user.MFASecret = key.Secret()
			otpauthURL = key.URL()
		}
		if !*req.MFAEnabled {
			user.MFASecret = ""
		}
		user.MFAEnabled = *req.MFAEnabled
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
		if !user.IsActive {
			action = cnst.ActionUserDisabled
		}
	}
	user.UpdatedAt = time.Now()

	err = h.db.Transaction(c.Request.Context(), func(txCtx context.Context) error {
		if err := h.db.UpdateUser(txCtx, user); err != nil {
			return err
		}
		return h.sink.Record(txCtx, audit.Entry{
			TenantID:   act.TenantID,
			UserID:     act.UserID,
			Action:     action,
			Resource:   cnst.ResourceUser,
			ResourceID: user.ID,
		})
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	// The enrollment URL is shown once; the secret is never readable
	// again through the API.
	if otpauthURL != "" {
		c.JSON(http.StatusOK, gin.H{"user": user, "otpauthUrl": otpauthURL})
		return
	}
	c.JSON(http.StatusOK, user)
}
