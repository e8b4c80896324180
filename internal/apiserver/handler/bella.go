package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bellalabs/bellaprep/internal/common/dto"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

// Chat runs one Bella assistant turn for the caller.
func (h *Handler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errorx.ValidationError("body", err.Error()))
		return
	}

	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	reply, err := h.bella.Chat(c.Request.Context(), act.TenantID, act.UserID, req.Messages)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ChatResponse{Reply: reply})
}
