package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bellalabs/bellaprep/internal/audit"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

// QueryAudit returns a filtered page of the tenant's audit trail,
// newest first.
func (h *Handler) QueryAudit(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	filter := audit.Filter{
		UserID:     c.Query("userId"),
		ResourceID: c.Query("resourceId"),
	}
	if actions, present := c.GetQueryArray("action"); present {
		filter.Actions = actions
	}
	if resources, present := c.GetQueryArray("resource"); present {
		filter.Resources = resources
	}

	var parseErr *errorx.APIError
	if filter.From, parseErr = timeQuery(c, "from"); parseErr != nil {
		h.fail(c, parseErr)
		return
	}
	if filter.To, parseErr = timeQuery(c, "to"); parseErr != nil {
		h.fail(c, parseErr)
		return
	}

	page, pageSize := pageParams(c)
	result, err := h.sink.Query(c.Request.Context(), act.TenantID, filter, page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func timeQuery(c *gin.Context, name string) (*time.Time, *errorx.APIError) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errorx.ValidationError(name, "must be RFC 3339")
	}
	return &t, nil
}
