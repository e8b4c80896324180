// Package audit provides the append-only audit trail write and query
// paths. Writes are transactional with the business mutation that
// caused them: a failed audit write aborts the whole operation rather
// than being dropped.
package audit

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bellalabs/bellaprep/internal/apiserver/database"
)

// Entry describes one audited mutation.
type Entry struct {
	TenantID   string
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	Details    map[string]any
}

// Filter selects audit entries; all fields optional, AND semantics.
type Filter struct {
	UserID     string
	Actions    []string
	Resources  []string
	ResourceID string
	From       *time.Time
	To         *time.Time
}

// Page is a stable-ordered (newest first) query result.
type Page struct {
	Items      []*database.AuditLog `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	TotalPages int                  `json:"totalPages"`
}

// Sink records and queries audit entries.
type Sink struct {
	db     database.Database
	logger *zap.Logger
}

// NewSink creates an audit sink over the store.
func NewSink(db database.Database, logger *zap.Logger) *Sink {
	return &Sink{db: db, logger: logger.Named("audit")}
}

// Record appends one audit entry. When called inside a store
// transaction the write joins it, so the entry commits or rolls back
// together with the mutation it describes.
func (s *Sink) Record(ctx context.Context, e Entry) error {
	details := ""
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		details = string(raw)
	}

	var userID *string
	if e.UserID != "" {
		userID = &e.UserID
	}

	entry := &database.AuditLog{
		ID:         uuid.New().String(),
		TenantID:   e.TenantID,
		UserID:     userID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if err := s.db.AppendAuditLog(ctx, entry); err != nil {
		s.logger.Error("audit write failed",
			zap.String("action", e.Action),
			zap.String("resource", e.Resource),
			zap.Error(err))
		return err
	}
	return nil
}

// Query returns a tenant-scoped page of audit entries, newest first.
func (s *Sink) Query(ctx context.Context, tenantID string, f Filter, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	items, total, err := s.db.QueryAuditLogs(ctx, tenantID, database.AuditFilter{
		UserID:     f.UserID,
		Actions:    f.Actions,
		Resources:  f.Resources,
		ResourceID: f.ResourceID,
		From:       f.From,
		To:         f.To,
	}, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}
