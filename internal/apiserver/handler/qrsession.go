package handler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bellalabs/bellaprep/internal/apiserver/database"
	"github.com/bellalabs/bellaprep/internal/common/cnst"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

// qrSessionTTL bounds how long a phone handoff token stays valid.
const qrSessionTTL = time.Hour

// CreateQRSession issues a short-lived token that lets a borrower
// continue document upload on a phone. The token is single-tenant and
// expires; the scheduler sweeps expired rows.
func (h *Handler) CreateQRSession(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	borrowerID := c.Param("id")
	if _, err := h.loans.Get(c.Request.Context(), act, borrowerID); err != nil {
		h.fail(c, err)
		return
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		h.fail(c, err)
		return
	}

	session := &database.QRSession{
		ID:         uuid.New().String(),
		TenantID:   act.TenantID,
		BorrowerID: &borrowerID,
		Token:      hex.EncodeToString(raw),
		ExpiresAt:  time.Now().Add(qrSessionTTL),
		CreatedAt:  time.Now(),
	}
	if err := h.db.CreateQRSession(c.Request.Context(), session); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
	})
}

// ResolveQRSession exchanges a handoff token for its borrower binding.
// Expired or unknown tokens look identical to the caller.
func (h *Handler) ResolveQRSession(c *gin.Context) {
	session, err := h.db.GetQRSessionByToken(c.Request.Context(), c.Param("token"))
	if err != nil || time.Now().After(session.ExpiresAt) {
		h.fail(c, errorx.NotFoundError(cnst.ResourceQRSession))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tenantId":   session.TenantID,
		"borrowerId": session.BorrowerID,
		"expiresAt":  session.ExpiresAt,
	})
}
