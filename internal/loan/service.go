package loan

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/bellalabs/bellaprep/internal/apiserver/database"
	"github.com/bellalabs/bellaprep/internal/audit"
	"github.com/bellalabs/bellaprep/internal/common/cnst"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

// Actor identifies the authenticated caller of a lifecycle operation.
type Actor struct {
	UserID   string
	TenantID string
	Role     string
}

// CreatePayload carries the fields accepted at borrower creation.
type CreatePayload struct {
	Email      string
	Phone      string
	ProductID  *string
	AssignedTo *string
	FormData   map[string]any
}

// Service governs the borrower lifecycle. Every mutating operation
// writes the borrower record, a timeline event and exactly one audit
// entry inside a single transaction.
type Service struct {
	db     database.Database
	sink   *audit.Sink
	logger *zap.Logger
}

// NewService creates a lifecycle service.
func NewService(db database.Database, sink *audit.Sink, logger *zap.Logger) *Service {
	return &Service{db: db, sink: sink, logger: logger.Named("loan")}
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return errorx.NotFoundError(cnst.ResourceBorrower)
	case errors.Is(err, database.ErrVersionConflict):
		return errorx.ErrConflict
	default:
		return err
	}
}

// Create creates a borrower in DRAFT with an empty form-data bag by
// default.
func (s *Service) Create(ctx context.Context, actor Actor, payload CreatePayload) (*database.Borrower, error) {
	formData := "{}"
	if len(payload.FormData) > 0 {
		raw, err := json.Marshal(payload.FormData)
		if err != nil {
			return nil, errorx.ValidationError("formData", "not serializable")
		}
		formData = string(raw)
	}

	b := &database.Borrower{
		ID:         uuid.New().String(),
		TenantID:   actor.TenantID,
		Email:      payload.Email,
		Phone:      payload.Phone,
		ProductID:  payload.ProductID,
		AssignedTo: payload.AssignedTo,
		Status:     string(StatusDraft),
		FormData:   formData,
		Version:    1,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		if err := s.db.CreateBorrower(ctx, b); err != nil {
			return err
		}
		if err := s.db.AppendTimelineEvent(ctx, &database.TimelineEvent{
			ID:         uuid.New().String(),
			TenantID:   actor.TenantID,
			BorrowerID: b.ID,
			Type:       cnst.TimelineCreated,
			ToStatus:   b.Status,
			Actor:      actor.UserID,
			CreatedAt:  time.Now(),
		}); err != nil {
			return err
		}
		return s.sink.Record(ctx, audit.Entry{
			TenantID:   actor.TenantID,
			UserID:     actor.UserID,
			Action:     cnst.ActionBorrowerCreated,
			Resource:   cnst.ResourceBorrower,
			ResourceID: b.ID,
		})
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.logger.Info("borrower created",
		zap.String("borrower_id", b.ID),
		zap.String("tenant_id", actor.TenantID))
	return b, nil
}

// Get returns a borrower owned by the actor's tenant.
func (s *Service) Get(ctx context.Context, actor Actor, borrowerID string) (*database.Borrower, error) {
	b, err := s.db.GetBorrower(ctx, actor.TenantID, borrowerID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return b, nil
}

// List returns a page of the tenant's borrowers, optionally filtered by
// status.
func (s *Service) List(ctx context.Context, actor Actor, status string, page, pageSize int) ([]*database.Borrower, int64, error) {
	if status != "" && !Status(status).Valid() {
		return nil, 0, errorx.ValidationError("status", "unknown status")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.db.ListBorrowers(ctx, actor.TenantID, status, page, pageSize)
}

// Timeline returns the borrower's timeline, oldest first.
func (s *Service) Timeline(ctx context.Context, actor Actor, borrowerID string) ([]*database.TimelineEvent, error) {
	if _, err := s.db.GetBorrower(ctx, actor.TenantID, borrowerID); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.db.ListTimeline(ctx, actor.TenantID, borrowerID)
}

// UpdatePayload carries PATCH fields for a borrower.
type UpdatePayload struct {
	Email      *string
	Phone      *string
	AssignedTo *string
	FormData   map[string]any
}

// Update patches contact fields and merges form data without touching
// the status.
func (s *Service) Update(ctx context.Context, actor Actor, borrowerID string, payload UpdatePayload) (*database.Borrower, error) {
	var updated *database.Borrower
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		b, err := s.db.GetBorrower(ctx, actor.TenantID, borrowerID)
		if err != nil {
			return err
		}
		if Status(b.Status).IsTerminal() {
			return errorx.InvalidTransitionError(b.Status, b.Status)
		}

		if payload.Email != nil {
			b.Email = *payload.Email
		}
		if payload.Phone != nil {
			b.Phone = *payload.Phone
		}
		if payload.AssignedTo != nil {
			b.AssignedTo = payload.AssignedTo
		}
		if len(payload.FormData) > 0 {
			merged, err := mergeFormData(b.FormData, payload.FormData)
			if err != nil {
				return err
			}
			b.FormData = merged
		}

		if err := s.db.UpdateBorrower(ctx, b); err != nil {
			return err
		}
		updated = b
		return s.sink.Record(ctx, audit.Entry{
			TenantID:   actor.TenantID,
			UserID:     actor.UserID,
			Action:     cnst.ActionBorrowerUpdated,
			Resource:   cnst.ResourceBorrower,
			ResourceID: b.ID,
		})
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return updated, nil
}

// Submit merges incoming form data (incoming keys win), moves a DRAFT
// borrower to SUBMITTED and stamps submittedAt. Re-submitting an
// already-SUBMITTED borrower is treated as an amend: the bag re-merges,
// submittedAt advances and the audit action becomes BORROWER_AMENDED.
// Submitting past SUBMITTED or out of a terminal state is rejected.
func (s *Service) Submit(ctx context.Context, actor Actor, borrowerID string, formData map[string]any, productID *string) (*database.Borrower, error) {
	var updated *database.Borrower
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		b, err := s.db.GetBorrower(ctx, actor.TenantID, borrowerID)
		if err != nil {
			return err
		}

		from := Status(b.Status)
		amend := false
		switch from {
		case StatusDraft:
		case StatusSubmitted:
			amend = true
		default:
			return errorx.InvalidTransitionError(b.Status, string(StatusSubmitted))
		}

		merged, err := mergeFormData(b.FormData, formData)
		if err != nil {
			return err
		}

		if productID != nil {
			b.ProductID = productID
		}
		if b.ProductID != nil {
			product, err := s.db.GetProductByID(ctx, actor.TenantID, *b.ProductID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return errorx.NotFoundError(cnst.ResourceProduct)
				}
				return err
			}
			if !product.Enabled {
				return errorx.ValidationError("productId", "product is disabled")
			}
			if missing := missingRequiredFields(product.RequiredFields, merged); len(missing) > 0 {
				return errorx.ValidationError("formData", "required fields missing").
					WithDetail("missing", missing)
			}
		}

		now := time.Now()
		b.FormData = merged
		b.Status = string(StatusSubmitted)
		b.SubmittedAt = &now

		if err := s.db.UpdateBorrower(ctx, b); err != nil {
			return err
		}

		eventType := cnst.TimelineSubmitted
		action := cnst.ActionBorrowerSubmitted
		if amend {
			eventType = cnst.TimelineAmended
			action = cnst.ActionBorrowerAmended
		}
		if err := s.db.AppendTimelineEvent(ctx, &database.TimelineEvent{
			ID:         uuid.New().String(),
			TenantID:   actor.TenantID,
			BorrowerID: b.ID,
			Type:       eventType,
			FromStatus: string(from),
			ToStatus:   b.Status,
			Actor:      actor.UserID,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		updated = b
		return s.sink.Record(ctx, audit.Entry{
			TenantID:   actor.TenantID,
			UserID:     actor.UserID,
			Action:     action,
			Resource:   cnst.ResourceBorrower,
			ResourceID: b.ID,
		})
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return updated, nil
}

// Transition moves a borrower to newStatus if the state graph allows
// it. The current status is re-read inside the transaction and the
// write compares-and-swaps on the record version, so an interleaved
// writer surfaces as Conflict rather than a lost update.
func (s *Service) Transition(ctx context.Context, actor Actor, borrowerID string, newStatus Status) (*database.Borrower, error) {
	if !newStatus.Valid() {
		return nil, errorx.ValidationError("status", "unknown status")
	}
	// Submission stamps submittedAt and runs the product checks, so the
	// SUBMITTED edge only exists through Submit.
	if newStatus == StatusSubmitted {
		return nil, errorx.ValidationError("status", "use the submit operation to reach SUBMITTED")
	}

	var updated *database.Borrower
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		b, err := s.db.GetBorrower(ctx, actor.TenantID, borrowerID)
		if err != nil {
			return err
		}

		from := Status(b.Status)
		if !CanTransition(from, newStatus) {
			return errorx.InvalidTransitionError(b.Status, string(newStatus))
		}

		now := time.Now()
		b.Status = string(newStatus)
		if err := s.db.UpdateBorrower(ctx, b); err != nil {
			return err
		}

		if err := s.db.AppendTimelineEvent(ctx, &database.TimelineEvent{
			ID:         uuid.New().String(),
			TenantID:   actor.TenantID,
			BorrowerID: b.ID,
			Type:       cnst.TimelineStatusChanged,
			FromStatus: string(from),
			ToStatus:   string(newStatus),
			Actor:      actor.UserID,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		updated = b
		return s.sink.Record(ctx, audit.Entry{
			TenantID:   actor.TenantID,
			UserID:     actor.UserID,
			Action:     cnst.ActionLoanStatusChanged,
			Resource:   cnst.ResourceBorrower,
			ResourceID: b.ID,
			Details: map[string]any{
				"from": string(from),
				"to":   string(newStatus),
			},
		})
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.logger.Info("loan status changed",
		zap.String("borrower_id", borrowerID),
		zap.String("to", string(newStatus)))
	return updated, nil
}

// Remove hard-deletes a borrower with its documents and timeline. The
// audit entry commits in the same transaction and intentionally
// outlives the record it references.
func (s *Service) Remove(ctx context.Context, actor Actor, borrowerID string) error {
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		b, err := s.db.GetBorrower(ctx, actor.TenantID, borrowerID)
		if err != nil {
			return err
		}
		if err := s.db.DeleteDocumentsByBorrower(ctx, actor.TenantID, b.ID); err != nil {
			return err
		}
		if err := s.db.DeleteTimelineByBorrower(ctx, actor.TenantID, b.ID); err != nil {
			return err
		}
		if err := s.db.DeleteBorrower(ctx, actor.TenantID, b.ID); err != nil {
			return err
		}
		return s.sink.Record(ctx, audit.Entry{
			TenantID:   actor.TenantID,
			UserID:     actor.UserID,
			Action:     cnst.ActionBorrowerDeleted,
			Resource:   cnst.ResourceBorrower,
			ResourceID: b.ID,
		})
	})
	return mapStoreErr(err)
}

// mergeFormData shallow-merges incoming keys over the stored JSON bag;
// incoming keys win.
func mergeFormData(stored string, incoming map[string]any) (string, error) {
	base := map[string]any{}
	if stored != "" {
		if err := json.Unmarshal([]byte(stored), &base); err != nil {
			return "", errorx.ValidationError("formData", "stored bag is corrupt")
		}
	}
	for k, v := range incoming {
		base[k] = v
	}
	raw, err := json.Marshal(base)
	if err != nil {
		return "", errorx.ValidationError("formData", "not serializable")
	}
	return string(raw), nil
}

// missingRequiredFields probes the merged bag for each key the product
// requires. requiredFields is a JSON array of gjson paths.
func missingRequiredFields(requiredFields, formData string) []string {
	var missing []string
	for _, field := range gjson.Parse(requiredFields).Array() {
		path := field.String()
		if path == "" {
			continue
		}
		if !gjson.Get(formData, path).Exists() {
			missing = append(missing, path)
		}
	}
	return missing
}
