package dto

import "github.com/bellalabs/bellaprep/internal/bella"

// LoginRequest authenticates a user within the resolved tenant.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	MFACode  string `json:"mfaCode"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// CreateTenantRequest provisions a lender organization.
type CreateTenantRequest struct {
	Name          string `json:"name" binding:"required"`
	Subdomain     string `json:"subdomain" binding:"required"`
	BrandSettings string `json:"brandSettings"`
}

// UpdateTenantRequest patches a tenant.
type UpdateTenantRequest struct {
	Name          string `json:"name"`
	BrandSettings string `json:"brandSettings"`
	IsActive      *bool  `json:"isActive"`
}

// CreateUserRequest invites a user into the tenant.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// UpdateUserRequest patches a user.
type UpdateUserRequest struct {
	Role       string `json:"role"`
	MFAEnabled *bool  `json:"mfaEnabled"`
	IsActive   *bool  `json:"isActive"`
}

// CreateProductRequest adds a loan product to the tenant catalog.
type CreateProductRequest struct {
	Name           string `json:"name" binding:"required"`
	Type           string `json:"type"`
	PropertyTypes  string `json:"propertyTypes"`
	RequiredFields string `json:"requiredFields"`
	Eligibility    string `json:"eligibility"`
}

// UpdateProductRequest patches a loan product.
type UpdateProductRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Enabled        *bool  `json:"enabled"`
	PropertyTypes  string `json:"propertyTypes"`
	RequiredFields string `json:"requiredFields"`
	Eligibility    string `json:"eligibility"`
}

// CreateBorrowerRequest starts a loan application.
type CreateBorrowerRequest struct {
	Email      string         `json:"email"`
	Phone      string         `json:"phone"`
	ProductID  *string        `json:"productId"`
	AssignedTo *string        `json:"assignedTo"`
	FormData   map[string]any `json:"formData"`
}

// UpdateBorrowerRequest patches a loan application.
type UpdateBorrowerRequest struct {
	Email      *string        `json:"email"`
	Phone      *string        `json:"phone"`
	AssignedTo *string        `json:"assignedTo"`
	FormData   map[string]any `json:"formData"`
}

// SubmitBorrowerRequest submits (or amends) a loan application.
type SubmitBorrowerRequest struct {
	FormData  map[string]any `json:"formData"`
	ProductID *string        `json:"productId"`
}

// TransitionRequest moves a loan application to a new status.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangePasswordRequest rotates the caller's own password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// CreateDocumentRequest records uploaded document metadata.
type CreateDocumentRequest struct {
	BorrowerID string `json:"borrowerId" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Type       string `json:"type"`
	Category   string `json:"category"`
	StorageKey string `json:"storageKey" binding:"required"`
}

// SaveIntegrationRequest stores a sealed third-party credential.
type SaveIntegrationRequest struct {
	Provider string `json:"provider" binding:"required"`
	Secret   string `json:"secret" binding:"required"`
}

// ChatRequest is one Bella conversation turn.
type ChatRequest struct {
	Messages []bella.Message `json:"messages" binding:"required"`
}

// ChatResponse carries Bella's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ListResponse is the standard paginated envelope.
type ListResponse struct {
	Items      any   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}
