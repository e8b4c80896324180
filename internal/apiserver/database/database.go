package database

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a row is absent or owned by another
	// tenant; callers cannot tell the two cases apart.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when an optimistic update loses the
	// race against an interleaved writer.
	ErrVersionConflict = errors.New("record version conflict")
)

// AuditFilter selects audit entries. All fields are optional and
// combine with AND semantics.
type AuditFilter struct {
	UserID     string
	Actions    []string
	Resources  []string
	ResourceID string
	From       *time.Time
	To         *time.Time
}

// Database defines the methods for database operations. Every method
// that reads or writes a tenant-owned entity takes the caller's tenant
// id and filters by it, so cross-tenant access is unreachable here.
type Database interface {
	// Close closes the database connection.
	Close() error

	// Transaction runs fn inside a single transaction. The transaction
	// travels in the context, so nested store calls join it.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Tenants
	CreateTenant(ctx context.Context, t *Tenant) error
	GetTenantByID(ctx context.Context, id string) (*Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	ListTenants(ctx context.Context) ([]*Tenant, error)
	UpdateTenant(ctx context.Context, t *Tenant) error

	// Users
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, tenantID, email string) (*User, error)
	GetUserByID(ctx context.Context, tenantID, id string) (*User, error)
	ListUsers(ctx context.Context, tenantID string) ([]*User, error)
	UpdateUser(ctx context.Context, u *User) error

	// Loan products
	CreateProduct(ctx context.Context, p *LoanProduct) error
	GetProductByID(ctx context.Context, tenantID, id string) (*LoanProduct, error)
	ListProducts(ctx context.Context, tenantID string) ([]*LoanProduct, error)
	UpdateProduct(ctx context.Context, p *LoanProduct) error

	// Borrowers
	CreateBorrower(ctx context.Context, b *Borrower) error
	GetBorrower(ctx context.Context, tenantID, id string) (*Borrower, error)
	ListBorrowers(ctx context.Context, tenantID, status string, page, pageSize int) ([]*Borrower, int64, error)
	// UpdateBorrower compares-and-swaps on Version; ErrVersionConflict
	// when an interleaved writer got there first.
	UpdateBorrower(ctx context.Context, b *Borrower) error
	DeleteBorrower(ctx context.Context, tenantID, id string) error

	// Documents
	CreateDocument(ctx context.Context, d *LoanDocument) error
	GetDocument(ctx context.Context, tenantID, id string) (*LoanDocument, error)
	ListDocuments(ctx context.Context, tenantID, borrowerID string) ([]*LoanDocument, error)
	SetDocumentVerified(ctx context.Context, tenantID, id string, verified bool) error
	DeleteDocument(ctx context.Context, tenantID, id string) error
	DeleteDocumentsByBorrower(ctx context.Context, tenantID, borrowerID string) error

	// Timeline
	AppendTimelineEvent(ctx context.Context, e *TimelineEvent) error
	ListTimeline(ctx context.Context, tenantID, borrowerID string) ([]*TimelineEvent, error)
	DeleteTimelineByBorrower(ctx context.Context, tenantID, borrowerID string) error

	// Audit log (append-only)
	AppendAuditLog(ctx context.Context, entry *AuditLog) error
	QueryAuditLogs(ctx context.Context, tenantID string, filter AuditFilter, page, pageSize int) ([]*AuditLog, int64, error)
	CountAuditLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountAuditActionsSince(ctx context.Context, tenantID, action string, since time.Time) (int64, error)

	// Integrations
	UpsertTenantIntegration(ctx context.Context, i *TenantIntegration) error
	GetTenantIntegration(ctx context.Context, tenantID, provider string) (*TenantIntegration, error)

	// QR sessions
	CreateQRSession(ctx context.Context, q *QRSession) error
	GetQRSessionByToken(ctx context.Context, token string) (*QRSession, error)
	DeleteExpiredQRSessions(ctx context.Context, now time.Time) (int64, error)

	// Analytics aggregations
	CountBorrowersByStatus(ctx context.Context, tenantID string) ([]*StatusCount, error)
	CountBorrowersByStatusAll(ctx context.Context) ([]*TenantStatusCount, error)
	CountBorrowersByAssignee(ctx context.Context, tenantID string) ([]*AssigneeCount, error)
	CountDocuments(ctx context.Context, tenantID string) (total int64, verified int64, err error)
}
