package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// store is the shared gorm-backed implementation used by every driver.
type store struct {
	db *gorm.DB
}

func newStore(gormDB *gorm.DB) (*store, error) {
	if err := gormDB.AutoMigrate(
		&Tenant{}, &User{}, &LoanProduct{}, &Borrower{}, &LoanDocument{},
		&TimelineEvent{}, &AuditLog{}, &TenantIntegration{}, &QRSession{},
	); err != nil {
		return nil, err
	}
	return &store{db: gormDB}, nil
}

func (s *store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// txKey marks the open transaction carried by a context. Store methods
// given such a context join the transaction through conn, which is how
// a borrower write, its timeline event and its audit row commit or roll
// back as one unit.
type txKey struct{}

// Transaction runs fn inside a single transaction. Nested calls join
// the transaction already in flight rather than opening a second one.
func (s *store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or the root connection.
func (s *store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Tenants

func (s *store) CreateTenant(ctx context.Context, t *Tenant) error {
	return s.conn(ctx).Create(t).Error
}

func (s *store) GetTenantByID(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	if err := s.conn(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *store) GetTenantBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	var t Tenant
	if err := s.conn(ctx).Where("subdomain = ?", subdomain).First(&t).Error; err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *store) ListTenants(ctx context.Context) ([]*Tenant, error) {
	var tenants []*Tenant
	err := s.conn(ctx).Order("created_at desc").Find(&tenants).Error
	return tenants, err
}

func (s *store) UpdateTenant(ctx context.Context, t *Tenant) error {
	return s.conn(ctx).Save(t).Error
}

// Users

func (s *store) CreateUser(ctx context.Context, u *User) error {
	return s.conn(ctx).Create(u).Error
}

func (s *store) GetUserByEmail(ctx context.Context, tenantID, email string) (*User, error) {
	var u User
	err := s.conn(ctx).
		Where("tenant_id = ? AND email = ?", tenantID, email).
		First(&u).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *store) GetUserByID(ctx context.Context, tenantID, id string) (*User, error) {
	var u User
	err := s.conn(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&u).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *store) ListUsers(ctx context.Context, tenantID string) ([]*User, error) {
	var users []*User
	err := s.conn(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at desc").
		Find(&users).Error
	return users, err
}

func (s *store) UpdateUser(ctx context.Context, u *User) error {
	return s.conn(ctx).Save(u).Error
}

// Loan products

func (s *store) CreateProduct(ctx context.Context, p *LoanProduct) error {
	return s.conn(ctx).Create(p).Error
}

func (s *store) GetProductByID(ctx context.Context, tenantID, id string) (*LoanProduct, error) {
	var p LoanProduct
	err := s.conn(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&p).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *store) ListProducts(ctx context.Context, tenantID string) ([]*LoanProduct, error) {
	var products []*LoanProduct
	err := s.conn(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name asc").
		Find(&products).Error
	return products, err
}

func (s *store) UpdateProduct(ctx context.Context, p *LoanProduct) error {
	return s.conn(ctx).Save(p).Error
}

// Borrowers

func (s *store) CreateBorrower(ctx context.Context, b *Borrower) error {
	return s.conn(ctx).Create(b).Error
}

func (s *store) GetBorrower(ctx context.Context, tenantID, id string) (*Borrower, error) {
	var b Borrower
	err := s.conn(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&b).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (s *store) ListBorrowers(ctx context.Context, tenantID, status string, page, pageSize int) ([]*Borrower, int64, error) {
	db := s.conn(ctx).Model(&Borrower{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var borrowers []*Borrower
	err := db.Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&borrowers).Error
	return borrowers, total, err
}

// UpdateBorrower writes the record only if the stored version still
// matches, then bumps the version. RowsAffected zero means either the
// row vanished or another writer interleaved.
func (s *store) UpdateBorrower(ctx context.Context, b *Borrower) error {
	expected := b.Version
	b.Version = expected + 1
	b.UpdatedAt = time.Now()

	res := s.conn(ctx).
		Model(&Borrower{}).
		Where("tenant_id = ? AND id = ? AND version = ?", b.TenantID, b.ID, expected).
		Select("*").
		Omit("created_at").
		Updates(b)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *store) DeleteBorrower(ctx context.Context, tenantID, id string) error {
	res := s.conn(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&Borrower{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Documents

func (s *store) CreateDocument(ctx context.Context, d *LoanDocument) error {
	return s.conn(ctx).Create(d).Error
}

func (s *store) GetDocument(ctx context.Context, tenantID, id string) (*LoanDocument, error) {
	var d LoanDocument
	err := s.conn(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&d).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (s *store) ListDocuments(ctx context.Context, tenantID, borrowerID string) ([]*LoanDocument, error) {
	var docs []*LoanDocument
	err := s.conn(ctx).
		Where("tenant_id = ? AND borrower_id = ?", tenantID, borrowerID).
		Order("created_at desc").
		Find(&docs).Error
	return docs, err
}

func (s *store) SetDocumentVerified(ctx context.Context, tenantID, id string, verified bool) error {
	res := s.conn(ctx).
		Model(&LoanDocument{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("verified", verified)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *store) DeleteDocument(ctx context.Context, tenantID, id string) error {
	res := s.conn(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&LoanDocument{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *store) DeleteDocumentsByBorrower(ctx context.Context, tenantID, borrowerID string) error {
	return s.conn(ctx).
		Where("tenant_id = ? AND borrower_id = ?", tenantID, borrowerID).
		Delete(&LoanDocument{}).Error
}

// Timeline

func (s *store) AppendTimelineEvent(ctx context.Context, e *TimelineEvent) error {
	return s.conn(ctx).Create(e).Error
}

func (s *store) ListTimeline(ctx context.Context, tenantID, borrowerID string) ([]*TimelineEvent, error) {
	var events []*TimelineEvent
	err := s.conn(ctx).
		Where("tenant_id = ? AND borrower_id = ?", tenantID, borrowerID).
		Order("created_at asc").
		Find(&events).Error
	return events, err
}

func (s *store) DeleteTimelineByBorrower(ctx context.Context, tenantID, borrowerID string) error {
	return s.conn(ctx).
		Where("tenant_id = ? AND borrower_id = ?", tenantID, borrowerID).
		Delete(&TimelineEvent{}).Error
}

// Audit log

func (s *store) AppendAuditLog(ctx context.Context, entry *AuditLog) error {
	return s.conn(ctx).Create(entry).Error
}

func (s *store) QueryAuditLogs(ctx context.Context, tenantID string, filter AuditFilter, page, pageSize int) ([]*AuditLog, int64, error) {
	db := s.conn(ctx).Model(&AuditLog{}).Where("tenant_id = ?", tenantID)
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if len(filter.Actions) > 0 {
		db = db.Where("action IN ?", filter.Actions)
	}
	if len(filter.Resources) > 0 {
		db = db.Where("resource IN ?", filter.Resources)
	}
	if filter.ResourceID != "" {
		db = db.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.From != nil {
		db = db.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []*AuditLog
	err := db.Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error
	return entries, total, err
}

func (s *store) CountAuditLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := s.conn(ctx).
		Model(&AuditLog{}).
		Where("created_at < ?", cutoff).
		Count(&count).Error
	return count, err
}

func (s *store) CountAuditActionsSince(ctx context.Context, tenantID, action string, since time.Time) (int64, error) {
	var count int64
	err := s.conn(ctx).
		Model(&AuditLog{}).
		Where("tenant_id = ? AND action = ? AND created_at >= ?", tenantID, action, since).
		Count(&count).Error
	return count, err
}

// Integrations

func (s *store) UpsertTenantIntegration(ctx context.Context, i *TenantIntegration) error {
	db := s.conn(ctx)
	var existing TenantIntegration
	err := db.Where("tenant_id = ? AND provider = ?", i.TenantID, i.Provider).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(i).Error
	}
	if err != nil {
		return err
	}
	existing.Ciphertext = i.Ciphertext
	existing.UpdatedAt = time.Now()
	return db.Save(&existing).Error
}

func (s *store) GetTenantIntegration(ctx context.Context, tenantID, provider string) (*TenantIntegration, error) {
	var i TenantIntegration
	err := s.conn(ctx).
		Where("tenant_id = ? AND provider = ?", tenantID, provider).
		First(&i).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &i, nil
}

// QR sessions

func (s *store) CreateQRSession(ctx context.Context, q *QRSession) error {
	return s.conn(ctx).Create(q).Error
}

// GetQRSessionByToken is the one read without a tenant filter: the
// caller is an unauthenticated phone and the 256-bit random token is
// the sole credential. The row carries the tenant binding back out.
func (s *store) GetQRSessionByToken(ctx context.Context, token string) (*QRSession, error) {
	var q QRSession
	err := s.conn(ctx).Where("token = ?", token).First(&q).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &q, nil
}

func (s *store) DeleteExpiredQRSessions(ctx context.Context, now time.Time) (int64, error) {
	res := s.conn(ctx).
		Where("expires_at < ?", now).
		Delete(&QRSession{})
	return res.RowsAffected, res.Error
}

// Analytics

func (s *store) CountBorrowersByStatus(ctx context.Context, tenantID string) ([]*StatusCount, error) {
	var counts []*StatusCount
	err := s.conn(ctx).
		Model(&Borrower{}).
		Select("status, count(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&counts).Error
	return counts, err
}

func (s *store) CountBorrowersByStatusAll(ctx context.Context) ([]*TenantStatusCount, error) {
	var counts []*TenantStatusCount
	err := s.conn(ctx).
		Model(&Borrower{}).
		Select("tenant_id, status, count(*) as count").
		Group("tenant_id").
		Group("status").
		Scan(&counts).Error
	return counts, err
}

func (s *store) CountBorrowersByAssignee(ctx context.Context, tenantID string) ([]*AssigneeCount, error) {
	var counts []*AssigneeCount
	err := s.conn(ctx).
		Model(&Borrower{}).
		Select("assigned_to, status, count(*) as count").
		Where("tenant_id = ? AND assigned_to IS NOT NULL", tenantID).
		Group("assigned_to").
		Group("status").
		Scan(&counts).Error
	return counts, err
}

func (s *store) CountDocuments(ctx context.Context, tenantID string) (int64, int64, error) {
	db := s.conn(ctx).Model(&LoanDocument{}).Where("tenant_id = ?", tenantID)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, 0, err
	}
	var verified int64
	err := s.conn(ctx).
		Model(&LoanDocument{}).
		Where("tenant_id = ? AND verified = ?", tenantID, true).
		Count(&verified).Error
	return total, verified, err
}
