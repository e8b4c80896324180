package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bellalabs/bellaprep/internal/apiserver/database"
	"github.com/bellalabs/bellaprep/internal/audit"
	"github.com/bellalabs/bellaprep/internal/auth/jwt"
	"github.com/bellalabs/bellaprep/internal/auth/rbac"
	"github.com/bellalabs/bellaprep/internal/bella"
	"github.com/bellalabs/bellaprep/internal/common/config"
	"github.com/bellalabs/bellaprep/internal/loan"
	"github.com/bellalabs/bellaprep/internal/ratelimit"
	"github.com/bellalabs/bellaprep/pkg/crypto"
	"github.com/bellalabs/bellaprep/pkg/metrics"
)

const testJWTSecret = "handler-test-secret-key-32-chars-min"

type testServer struct {
	router *gin.Engine
	db     database.Database
	jwt    *jwt.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLite(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zap.NewNop()
	sink := audit.NewSink(db, logger)
	loans := loan.NewService(db, sink, logger)

	jwtService, err := jwt.NewService(jwt.Config{SecretKey: testJWTSecret, Duration: time.Hour})
	require.NoError(t, err)

	sealer, err := crypto.NewSealer("handler-test-master-key")
	require.NoError(t, err)

	bellaClient := bella.NewClient(&config.BellaConfig{
		APIKey: "test", Model: "gpt-4.1", Timeout: time.Second,
	}, sink, logger)

	h := New(db, loans, sink, jwtService, bellaClient, sealer, logger)

	router := gin.New()
	h.RegisterRoutes(router, ratelimit.NewLimiter(ratelimit.NewMemoryStore()), metrics.New(),
		&config.RateLimitConfig{Points: 1000, Window: time.Minute, BellaPts: 1000})

	return &testServer{router: router, db: db, jwt: jwtService}
}

func (ts *testServer) seedTenant(t *testing.T, subdomain string) *database.Tenant {
	t.Helper()
	tenant := &database.Tenant{
		ID:        uuid.New().String(),
		Name:      "Lender " + subdomain,
		Subdomain: subdomain,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, ts.db.CreateTenant(context.Background(), tenant))
	return tenant
}

func (ts *testServer) seedUser(t *testing.T, tenantID, email, password string, role rbac.Role, mfaEnabled bool) *database.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &database.User{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: string(hash),
		Role:         string(role),
		MFAEnabled:   mfaEnabled,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if mfaEnabled {
		key, err := totp.Generate(totp.GenerateOpts{Issuer: "BellaPrep", AccountName: email})
		require.NoError(t, err)
		user.MFASecret = key.Secret()
	}
	require.NoError(t, ts.db.CreateUser(context.Background(), user))
	return user
}

func (ts *testServer) token(t *testing.T, user *database.User, mfaVerified bool) string {
	t.Helper()
	token, err := ts.jwt.GenerateToken(user.ID, user.TenantID, user.Email, user.Role, mfaVerified)
	require.NoError(t, err)
	return token
}

func (ts *testServer) request(t *testing.T, method, path, subdomain, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Subdomain", subdomain)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func TestLoginAndMe(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)

	rec := ts.request(t, http.MethodPost, "/api/auth/login", "acme", "",
		gin.H{"email": "jo@acme.com", "password": "hunter2pass"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	token := gjson.Get(rec.Body.String(), "token").String()
	require.NotEmpty(t, token)

	rec = ts.request(t, http.MethodGet, "/api/me", "acme", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jo@acme.com", gjson.Get(rec.Body.String(), "email").String())
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)

	rec := ts.request(t, http.MethodPost, "/api/auth/login", "acme", "",
		gin.H{"email": "jo@acme.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown emails get the same answer.
	rec = ts.request(t, http.MethodPost, "/api/auth/login", "acme", "",
		gin.H{"email": "ghost@acme.com", "password": "hunter2pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	user := ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)
	user.IsActive = false
	require.NoError(t, ts.db.UpdateUser(context.Background(), user))

	rec := ts.request(t, http.MethodPost, "/api/auth/login", "acme", "",
		gin.H{"email": "jo@acme.com", "password": "hunter2pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBorrowerLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	officer := ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)
	token := ts.token(t, officer, false)

	rec := ts.request(t, http.MethodPost, "/api/borrowers", "acme", token,
		gin.H{"email": "buyer@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	borrowerID := gjson.Get(rec.Body.String(), "id").String()
	assert.Equal(t, "DRAFT", gjson.Get(rec.Body.String(), "status").String())

	rec = ts.request(t, http.MethodPost, "/api/borrowers/"+borrowerID+"/submit", "acme", token,
		gin.H{"formData": gin.H{"income": 85000}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "SUBMITTED", gjson.Get(rec.Body.String(), "status").String())
	assert.NotEmpty(t, gjson.Get(rec.Body.String(), "submittedAt").String())

	// Skipping straight to APPROVED is rejected with the transition kind.
	rec = ts.request(t, http.MethodPatch, "/api/borrowers/"+borrowerID+"/status", "acme", token,
		gin.H{"status": "APPROVED"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_transition", gjson.Get(rec.Body.String(), "error.kind").String())

	rec = ts.request(t, http.MethodPatch, "/api/borrowers/"+borrowerID+"/status", "acme", token,
		gin.H{"status": "IN_REVIEW"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/borrowers/"+borrowerID+"/timeline", "acme", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := gjson.Parse(rec.Body.String()).Array()
	require.Len(t, events, 3)
	assert.Equal(t, "CREATED", events[0].Get("type").String())
	assert.Equal(t, "SUBMITTED", events[1].Get("type").String())
	assert.Equal(t, "STATUS_CHANGED", events[2].Get("type").String())

	rec = ts.request(t, http.MethodGet, "/api/borrowers?status=IN_REVIEW", "acme", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, gjson.Get(rec.Body.String(), "total").Int())
}

func TestCrossTenantBorrowerLooksAbsent(t *testing.T) {
	ts := newTestServer(t)
	acme := ts.seedTenant(t, "acme")
	rival := ts.seedTenant(t, "rival")
	acmeOfficer := ts.seedUser(t, acme.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)
	rivalOfficer := ts.seedUser(t, rival.ID, "sam@rival.com", "hunter2pass", rbac.RoleLoanOfficer, false)

	rec := ts.request(t, http.MethodPost, "/api/borrowers", "acme", ts.token(t, acmeOfficer, false),
		gin.H{"email": "buyer@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	borrowerID := gjson.Get(rec.Body.String(), "id").String()

	// The rival's token against its own tenant cannot see the record.
	rec = ts.request(t, http.MethodGet, "/api/borrowers/"+borrowerID, "rival",
		ts.token(t, rivalOfficer, false), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// An acme token pointed at the rival subdomain is rejected as if the
	// tenant did not exist.
	rec = ts.request(t, http.MethodGet, "/api/borrowers/"+borrowerID, "rival",
		ts.token(t, acmeOfficer, false), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRBACForbidsOutOfRoleActions(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	closer := ts.seedUser(t, tenant.ID, "close@acme.com", "hunter2pass", rbac.RoleCloser, false)
	officer := ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)

	// A closer cannot open applications.
	rec := ts.request(t, http.MethodPost, "/api/borrowers", "acme", ts.token(t, closer, false),
		gin.H{"email": "buyer@example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", gjson.Get(rec.Body.String(), "error.kind").String())

	// A loan officer cannot invite users.
	rec = ts.request(t, http.MethodPost, "/api/users", "acme", ts.token(t, officer, false),
		gin.H{"email": "new@acme.com", "password": "password123", "role": "PROCESSOR"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Nor list tenants.
	rec = ts.request(t, http.MethodGet, "/api/tenants", "acme", ts.token(t, officer, false), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBorrowerDeleteRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	admin := ts.seedUser(t, tenant.ID, "admin@acme.com", "hunter2pass", rbac.RoleLenderAdmin, false)
	officer := ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)

	rec := ts.request(t, http.MethodPost, "/api/borrowers", "acme", ts.token(t, admin, false),
		gin.H{"email": "buyer@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	borrowerID := gjson.Get(rec.Body.String(), "id").String()

	rec = ts.request(t, http.MethodDelete, "/api/borrowers/"+borrowerID, "acme",
		ts.token(t, officer, false), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.request(t, http.MethodDelete, "/api/borrowers/"+borrowerID, "acme",
		ts.token(t, admin, false), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMFAGateBlocksMutations(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	officer := ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, true)

	unverified := ts.token(t, officer, false)

	// Reads pass.
	rec := ts.request(t, http.MethodGet, "/api/borrowers", "acme", unverified, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Mutations do not.
	rec = ts.request(t, http.MethodPost, "/api/borrowers", "acme", unverified,
		gin.H{"email": "buyer@example.com"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "mfa_required", gjson.Get(rec.Body.String(), "error.kind").String())

	// A token attesting the challenge passes.
	rec = ts.request(t, http.MethodPost, "/api/borrowers", "acme", ts.token(t, officer, true),
		gin.H{"email": "buyer@example.com"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestLoginVerifiesMFACode(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	user := ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, true)

	// A made-up code is an authentication failure, not a pass.
	rec := ts.request(t, http.MethodPost, "/api/auth/login", "acme", "",
		gin.H{"email": "jo@acme.com", "password": "hunter2pass", "mfaCode": "totally-bogus"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Omitting the code logs in, but the token stays unverified and the
	// gate blocks mutations.
	rec = ts.request(t, http.MethodPost, "/api/auth/login", "acme", "",
		gin.H{"email": "jo@acme.com", "password": "hunter2pass"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unverified := gjson.Get(rec.Body.String(), "token").String()
	rec = ts.request(t, http.MethodPost, "/api/borrowers", "acme", unverified,
		gin.H{"email": "buyer@example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The enrolled secret's current code mints a verified token.
	code, err := totp.GenerateCode(user.MFASecret, time.Now())
	require.NoError(t, err)
	rec = ts.request(t, http.MethodPost, "/api/auth/login", "acme", "",
		gin.H{"email": "jo@acme.com", "password": "hunter2pass", "mfaCode": code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	verified := gjson.Get(rec.Body.String(), "token").String()
	rec = ts.request(t, http.MethodPost, "/api/borrowers", "acme", verified,
		gin.H{"email": "buyer@example.com"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestEnablingMFAReturnsEnrollmentURL(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	admin := ts.seedUser(t, tenant.ID, "admin@acme.com", "hunter2pass", rbac.RoleLenderAdmin, false)
	target := ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)

	rec := ts.request(t, http.MethodPut, "/api/users/"+target.ID, "acme",
		ts.token(t, admin, false), gin.H{"mfaEnabled": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, gjson.Get(rec.Body.String(), "otpauthUrl").String(), "otpauth://totp/")

	stored, err := ts.db.GetUserByID(context.Background(), tenant.ID, target.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.MFASecret)
	// After enrollment the secret is not readable through the user
	// resource.
	rec = ts.request(t, http.MethodGet, "/api/users", "acme", ts.token(t, admin, false), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), stored.MFASecret)
}

func TestRateLimitOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	gin.SetMode(gin.TestMode)

	// Rebuild the router with a 3-point budget.
	db := ts.db
	logger := zap.NewNop()
	sink := audit.NewSink(db, logger)
	loans := loan.NewService(db, sink, logger)
	sealer, err := crypto.NewSealer("handler-test-master-key")
	require.NoError(t, err)
	bellaClient := bella.NewClient(&config.BellaConfig{APIKey: "test", Model: "gpt-4.1", Timeout: time.Second}, sink, logger)
	h := New(db, loans, sink, ts.jwt, bellaClient, sealer, logger)

	router := gin.New()
	h.RegisterRoutes(router, ratelimit.NewLimiter(ratelimit.NewMemoryStore()), metrics.New(),
		&config.RateLimitConfig{Points: 3, Window: time.Second, BellaPts: 3})
	ts.router = router

	ts.seedTenant(t, "acme")
	for i := 0; i < 3; i++ {
		rec := ts.request(t, http.MethodGet, "/api/tenant/info", "acme", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := ts.request(t, http.MethodGet, "/api/tenant/info", "acme", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", gjson.Get(rec.Body.String(), "error.kind").String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.GreaterOrEqual(t, gjson.Get(rec.Body.String(), "error.details.retry_after_seconds").Int(), int64(1))
}

func TestAuditEndpoint(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	admin := ts.seedUser(t, tenant.ID, "admin@acme.com", "hunter2pass", rbac.RoleLenderAdmin, false)
	token := ts.token(t, admin, false)

	rec := ts.request(t, http.MethodPost, "/api/borrowers", "acme", token,
		gin.H{"email": "buyer@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	borrowerID := gjson.Get(rec.Body.String(), "id").String()

	rec = ts.request(t, http.MethodGet,
		"/api/audit?action=BORROWER_CREATED&resourceId="+borrowerID, "acme", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, gjson.Get(rec.Body.String(), "total").Int())
	assert.Equal(t, "BORROWER_CREATED",
		gjson.Get(rec.Body.String(), "items.0.action").String())

	// A processor has no audit permission.
	processor := ts.seedUser(t, tenant.ID, "proc@acme.com", "hunter2pass", rbac.RoleProcessor, false)
	rec = ts.request(t, http.MethodGet, "/api/audit", "acme", ts.token(t, processor, false), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuditRejectsBadTimeFilter(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	admin := ts.seedUser(t, tenant.ID, "admin@acme.com", "hunter2pass", rbac.RoleLenderAdmin, false)

	rec := ts.request(t, http.MethodGet, "/api/audit?from=yesterday", "acme",
		ts.token(t, admin, false), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsPipelineAndFunnel(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	officer := ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)
	token := ts.token(t, officer, false)

	for i := 0; i < 2; i++ {
		rec := ts.request(t, http.MethodPost, "/api/borrowers", "acme", token, gin.H{})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := ts.request(t, http.MethodPost, "/api/borrowers", "acme", token, gin.H{})
	require.Equal(t, http.StatusCreated, rec.Code)
	borrowerID := gjson.Get(rec.Body.String(), "id").String()
	rec = ts.request(t, http.MethodPost, "/api/borrowers/"+borrowerID+"/submit", "acme", token, gin.H{})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/analytics/pipeline", "acme", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, gjson.Get(rec.Body.String(), "pipeline.DRAFT").Int())
	assert.EqualValues(t, 1, gjson.Get(rec.Body.String(), "pipeline.SUBMITTED").Int())

	rec = ts.request(t, http.MethodGet, "/api/analytics/funnel", "acme", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stages := gjson.Get(rec.Body.String(), "funnel").Array()
	require.NotEmpty(t, stages)
	assert.Equal(t, "DRAFT", stages[0].Get("status").String())
	assert.EqualValues(t, 3, stages[0].Get("count").Int())
	assert.EqualValues(t, 1, stages[1].Get("count").Int())
}

func TestSuperAdminAnalyticsRestricted(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	officer := ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)
	super := ts.seedUser(t, tenant.ID, "root@platform.com", "hunter2pass", rbac.RoleSuperAdmin, false)

	rec := ts.request(t, http.MethodGet, "/api/analytics/super-admin", "acme",
		ts.token(t, officer, false), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/analytics/super-admin", "acme",
		ts.token(t, super, false), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSaveIntegrationSealsSecret(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	admin := ts.seedUser(t, tenant.ID, "admin@acme.com", "hunter2pass", rbac.RoleLenderAdmin, false)

	rec := ts.request(t, http.MethodPost, "/api/tenant/integrations", "acme",
		ts.token(t, admin, false),
		gin.H{"provider": "plaid", "secret": "plaid-secret-123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := ts.db.GetTenantIntegration(context.Background(), tenant.ID, "plaid")
	require.NoError(t, err)
	assert.NotEqual(t, "plaid-secret-123", stored.Ciphertext)
	assert.NotContains(t, stored.Ciphertext, "plaid-secret-123")
}

func TestDocumentFlow(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	officer := ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)
	token := ts.token(t, officer, false)

	rec := ts.request(t, http.MethodPost, "/api/borrowers", "acme", token, gin.H{})
	require.Equal(t, http.StatusCreated, rec.Code)
	borrowerID := gjson.Get(rec.Body.String(), "id").String()

	rec = ts.request(t, http.MethodPost, "/api/documents", "acme", token, gin.H{
		"borrowerId": borrowerID,
		"name":       "paystub.pdf",
		"category":   "income",
		"storageKey": "tenants/acme/docs/paystub.pdf",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	docID := gjson.Get(rec.Body.String(), "id").String()

	rec = ts.request(t, http.MethodPost, "/api/documents/"+docID+"/verify", "acme", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/borrowers/"+borrowerID+"/documents", "acme", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	docs := gjson.Parse(rec.Body.String()).Array()
	require.Len(t, docs, 1)
	assert.True(t, docs[0].Get("verified").Bool())

	// Attaching to a foreign borrower id reads as absent.
	rec = ts.request(t, http.MethodPost, "/api/documents", "acme", token, gin.H{
		"borrowerId": uuid.New().String(),
		"name":       "w2.pdf",
		"storageKey": "tenants/acme/docs/w2.pdf",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQRSessionHandoff(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	officer := ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)
	token := ts.token(t, officer, false)

	rec := ts.request(t, http.MethodPost, "/api/borrowers", "acme", token, gin.H{})
	require.Equal(t, http.StatusCreated, rec.Code)
	borrowerID := gjson.Get(rec.Body.String(), "id").String()

	rec = ts.request(t, http.MethodPost, "/api/borrowers/"+borrowerID+"/qr-session", "acme", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	handoff := gjson.Get(rec.Body.String(), "token").String()
	require.NotEmpty(t, handoff)

	// The phone resolves the token without a bearer credential.
	rec = ts.request(t, http.MethodGet, "/api/qr-sessions/"+handoff, "acme", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, borrowerID, gjson.Get(rec.Body.String(), "borrowerId").String())

	rec = ts.request(t, http.MethodGet, "/api/qr-sessions/"+fmt.Sprintf("%064d", 0), "acme", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserManagementFlow(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	admin := ts.seedUser(t, tenant.ID, "admin@acme.com", "hunter2pass", rbac.RoleLenderAdmin, false)
	token := ts.token(t, admin, false)

	rec := ts.request(t, http.MethodPost, "/api/users", "acme", token,
		gin.H{"email": "proc@acme.com", "password": "password123", "role": "PROCESSOR"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	userID := gjson.Get(rec.Body.String(), "id").String()
	// The hash never leaves the server.
	assert.NotContains(t, rec.Body.String(), "password123")
	assert.Empty(t, gjson.Get(rec.Body.String(), "passwordHash").String())

	// Duplicate email within the tenant conflicts.
	rec = ts.request(t, http.MethodPost, "/api/users", "acme", token,
		gin.H{"email": "proc@acme.com", "password": "password456", "role": "CLOSER"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown roles are rejected before any write.
	rec = ts.request(t, http.MethodPost, "/api/users", "acme", token,
		gin.H{"email": "x@acme.com", "password": "password123", "role": "WIZARD"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Disabling flips the audit action.
	rec = ts.request(t, http.MethodPut, "/api/users/"+userID, "acme", token,
		gin.H{"isActive": false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/audit?action=USER_DISABLED", "acme", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, gjson.Get(rec.Body.String(), "total").Int())
}

func TestUpdatePassword(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	officer := ts.seedUser(t, tenant.ID, "jo@acme.com", "hunter2pass", rbac.RoleLoanOfficer, false)
	token := ts.token(t, officer, false)

	rec := ts.request(t, http.MethodPut, "/api/me/password", "acme", token,
		gin.H{"oldPassword": "wrong", "newPassword": "brandnewpass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.request(t, http.MethodPut, "/api/me/password", "acme", token,
		gin.H{"oldPassword": "hunter2pass", "newPassword": "brandnewpass"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(t, http.MethodPost, "/api/auth/login", "acme", "",
		gin.H{"email": "jo@acme.com", "password": "brandnewpass"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.request(t, http.MethodPost, "/api/auth/login", "acme", "",
		gin.H{"email": "jo@acme.com", "password": "hunter2pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInactiveTenantIsInvisible(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.seedTenant(t, "acme")
	tenant.IsActive = false
	require.NoError(t, ts.db.UpdateTenant(context.Background(), tenant))

	rec := ts.request(t, http.MethodGet, "/api/tenant/info", "acme", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.request(t, http.MethodGet, "/api/tenant/info", "ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
