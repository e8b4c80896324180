package database

import "time"

// Tenant is an isolated lender organization, the unit of data
// partitioning. Every other entity carries its TenantID.
type Tenant struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string    `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Subdomain     string    `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	BrandSettings string    `json:"brandSettings" gorm:"type:text"` // opaque JSON
	IsActive      bool      `json:"isActive" gorm:"not null"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// User is a tenant member. Email is unique within a tenant. Users are
// soft-disabled via IsActive rather than deleted.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID     string    `json:"tenantId" gorm:"type:varchar(36);uniqueIndex:idx_tenant_email;not null"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex:idx_tenant_email;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         string    `json:"role" gorm:"type:varchar(20);not null"`
	MFAEnabled   bool      `json:"mfaEnabled" gorm:"not null"`
	MFASecret    string    `json:"-" gorm:"type:varchar(64)"`
	IsActive     bool      `json:"isActive" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LoanProduct is a per-tenant mortgage product offering.
type LoanProduct struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID       string    `json:"tenantId" gorm:"type:varchar(36);index;not null"`
	Name           string    `json:"name" gorm:"type:varchar(100);not null"`
	Type           string    `json:"type" gorm:"type:varchar(50)"`
	Enabled        bool      `json:"enabled" gorm:"not null"`
	PropertyTypes  string    `json:"propertyTypes" gorm:"type:text"`  // JSON array
	RequiredFields string    `json:"requiredFields" gorm:"type:text"` // JSON array of formData keys
	Eligibility    string    `json:"eligibility" gorm:"type:text"`    // JSON rules (LTV/DTI/credit bounds)
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Borrower is a loan application record. Despite the name it is the
// application, not merely the person. Version backs optimistic
// concurrency on status transitions.
type Borrower struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID    string     `json:"tenantId" gorm:"type:varchar(36);index;not null"`
	Email       string     `json:"email" gorm:"type:varchar(255)"`
	Phone       string     `json:"phone" gorm:"type:varchar(30)"`
	ProductID   *string    `json:"productId" gorm:"type:varchar(36)"`
	AssignedTo  *string    `json:"assignedTo" gorm:"type:varchar(36)"` // loan officer user id
	Status      string     `json:"status" gorm:"type:varchar(30);index;not null"`
	FormData    string     `json:"formData" gorm:"type:text"` // opaque JSON bag
	Version     int64      `json:"version" gorm:"not null"`
	SubmittedAt *time.Time `json:"submittedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// LoanDocument is an uploaded document attached to a borrower.
type LoanDocument struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID   string    `json:"tenantId" gorm:"type:varchar(36);index;not null"`
	BorrowerID string    `json:"borrowerId" gorm:"type:varchar(36);index;not null"`
	Name       string    `json:"name" gorm:"type:varchar(255);not null"`
	Type       string    `json:"type" gorm:"type:varchar(50)"`
	Category   string    `json:"category" gorm:"type:varchar(50)"`
	StorageKey string    `json:"storageKey" gorm:"type:varchar(512)"`
	Verified   bool      `json:"verified" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TimelineEvent is an append-only narrative entry attached to a
// borrower, distinct from but often paired with an audit entry.
type TimelineEvent struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID   string    `json:"tenantId" gorm:"type:varchar(36);index;not null"`
	BorrowerID string    `json:"borrowerId" gorm:"type:varchar(36);index;not null"`
	Type       string    `json:"type" gorm:"type:varchar(30);not null"`
	FromStatus string    `json:"fromStatus" gorm:"type:varchar(30)"`
	ToStatus   string    `json:"toStatus" gorm:"type:varchar(30)"`
	Actor      string    `json:"actor" gorm:"type:varchar(36)"`
	Note       string    `json:"note" gorm:"type:text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AuditLog is the append-only who-did-what-when record. Entries are
// never mutated; the daily sweep only counts entries past retention.
type AuditLog struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID   string    `json:"tenantId" gorm:"type:varchar(36);index;not null"`
	UserID     *string   `json:"userId" gorm:"type:varchar(36);index"`
	Action     string    `json:"action" gorm:"type:varchar(50);index;not null"`
	Resource   string    `json:"resource" gorm:"type:varchar(30);index;not null"`
	ResourceID string    `json:"resourceId" gorm:"type:varchar(36);index"`
	Details    string    `json:"details" gorm:"type:text"` // opaque JSON
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`
}

// TenantIntegration stores a sealed third-party credential for a tenant
// (Plaid, SendGrid, Twilio, Calendar). Ciphertext is an AES-256-GCM
// envelope, decrypted only on use.
type TenantIntegration struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID   string    `json:"tenantId" gorm:"type:varchar(36);uniqueIndex:idx_tenant_provider;not null"`
	Provider   string    `json:"provider" gorm:"type:varchar(30);uniqueIndex:idx_tenant_provider;not null"`
	Ciphertext string    `json:"-" gorm:"type:text;not null"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// QRSession is a short-lived handoff token (borrower device linking).
// Expired rows are removed by the hourly sweep.
type QRSession struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID   string    `json:"tenantId" gorm:"type:varchar(36);index;not null"`
	BorrowerID *string   `json:"borrowerId" gorm:"type:varchar(36)"`
	Token      string    `json:"token" gorm:"type:varchar(64);uniqueIndex;not null"`
	ExpiresAt  time.Time `json:"expiresAt" gorm:"index;not null"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StatusCount is an aggregation row for pipeline/funnel analytics.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// TenantStatusCount is the platform-wide variant, SUPER_ADMIN only.
type TenantStatusCount struct {
	TenantID string `json:"tenantId"`
	Status   string `json:"status"`
	Count    int64  `json:"count"`
}

// AssigneeCount aggregates borrowers per loan officer.
type AssigneeCount struct {
	AssignedTo string `json:"assignedTo"`
	Status     string `json:"status"`
	Count      int64  `json:"count"`
}
