package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bellalabs/bellaprep/internal/common/cnst"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
	"github.com/bellalabs/bellaprep/internal/loan"
)

// funnelStages is the happy-path order applications move through.
var funnelStages = []loan.Status{
	loan.StatusDraft,
	loan.StatusSubmitted,
	loan.StatusInReview,
	loan.StatusProcessing,
	loan.StatusUnderwriting,
	loan.StatusConditionallyApproved,
	loan.StatusApproved,
	loan.StatusClosed,
}

// GetPipeline returns the tenant's application count per status.
func (h *Handler) GetPipeline(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	counts, err := h.db.CountBorrowersByStatus(c.Request.Context(), act.TenantID)
	if err != nil {
		h.fail(c, err)
		return
	}

	pipeline := make(map[string]int64, len(counts))
	for _, row := range counts {
		pipeline[row.Status] = row.Count
	}
	c.JSON(http.StatusOK, gin.H{"pipeline": pipeline})
}

// GetFunnel returns cumulative stage counts: each stage counts the
// applications at it or past it, so the series is monotonically
// non-increasing.
func (h *Handler) GetFunnel(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	counts, err := h.db.CountBorrowersByStatus(c.Request.Context(), act.TenantID)
	if err != nil {
		h.fail(c, err)
		return
	}

	byStatus := make(map[loan.Status]int64, len(counts))
	for _, row := range counts {
		byStatus[loan.Status(row.Status)] = row.Count
	}

	type stage struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	stages := make([]stage, 0, len(funnelStages))
	for i, s := range funnelStages {
		reached := int64(0)
		for _, later := range funnelStages[i:] {
			reached += byStatus[later]
		}
		stages = append(stages, stage{Status: string(s), Count: reached})
	}
	c.JSON(http.StatusOK, gin.H{"funnel": stages})
}

// GetLOPerformance returns per-loan-officer application counts.
func (h *Handler) GetLOPerformance(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	counts, err := h.db.CountBorrowersByAssignee(c.Request.Context(), act.TenantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"officers": counts})
}

// GetDocumentStats returns the tenant's document totals.
func (h *Handler) GetDocumentStats(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	total, verified, err := h.db.CountDocuments(c.Request.Context(), act.TenantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":      total,
		"verified":   verified,
		"unverified": total - verified,
	})
}

// GetBellaUsage returns the tenant's assistant chat volume over the
// trailing 30 days.
func (h *Handler) GetBellaUsage(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		h.fail(c, errorx.ErrUnauthorized)
		return
	}

	since := time.Now().AddDate(0, 0, -30)
	count, err := h.db.CountAuditActionsSince(c.Request.Context(), act.TenantID, cnst.ActionBellaChat, since)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": count, "since": since})
}

// GetPlatformPipeline returns per-tenant status counts across the
// whole platform. SUPER_ADMIN only, enforced at the route.
func (h *Handler) GetPlatformPipeline(c *gin.Context) {
	counts, err := h.db.CountBorrowersByStatusAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	byTenant := make(map[string]map[string]int64)
	for _, row := range counts {
		if byTenant[row.TenantID] == nil {
			byTenant[row.TenantID] = make(map[string]int64)
		}
		byTenant[row.TenantID][row.Status] = row.Count
	}
	c.JSON(http.StatusOK, gin.H{"tenants": byTenant})
}
