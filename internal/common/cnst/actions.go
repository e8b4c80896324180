package cnst

// Audit action names. Each successful mutating operation writes exactly
// one audit entry carrying one of these actions.
const (
	ActionTenantCreated     = "TENANT_CREATED"
	ActionTenantUpdated     = "TENANT_UPDATED"
	ActionUserCreated       = "USER_CREATED"
	ActionUserUpdated       = "USER_UPDATED"
	ActionUserDisabled      = "USER_DISABLED"
	ActionUserLogin         = "USER_LOGIN"
	ActionProductCreated    = "PRODUCT_CREATED"
	ActionProductUpdated    = "PRODUCT_UPDATED"
	ActionBorrowerCreated   = "BORROWER_CREATED"
	ActionBorrowerUpdated   = "BORROWER_UPDATED"
	ActionBorrowerSubmitted = "BORROWER_SUBMITTED"
	ActionBorrowerAmended   = "BORROWER_AMENDED"
	ActionBorrowerDeleted   = "BORROWER_DELETED"
	ActionLoanStatusChanged = "LOAN_STATUS_CHANGED"
	ActionDocumentUploaded  = "DOCUMENT_UPLOADED"
	ActionDocumentVerified  = "DOCUMENT_VERIFIED"
	ActionDocumentDeleted   = "DOCUMENT_DELETED"
	ActionIntegrationSaved  = "INTEGRATION_SAVED"
	ActionBellaChat         = "BELLA_CHAT"
)

// Resource names used in audit entries and permission checks.
const (
	ResourceTenant    = "tenant"
	ResourceUser      = "user"
	ResourceProduct   = "product"
	ResourceBorrower  = "borrower"
	ResourceDocument  = "document"
	ResourceAudit     = "audit"
	ResourceQRSession = "qr_session"
)

// Timeline event types attached to a borrower.
const (
	TimelineCreated       = "CREATED"
	TimelineSubmitted     = "SUBMITTED"
	TimelineAmended       = "AMENDED"
	TimelineStatusChanged = "STATUS_CHANGED"
	TimelineNote          = "NOTE"
)
