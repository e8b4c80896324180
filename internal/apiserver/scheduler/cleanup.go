// Package scheduler runs the server's periodic maintenance loops.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bellalabs/bellaprep/internal/apiserver/database"
	"github.com/bellalabs/bellaprep/internal/common/config"
	"github.com/bellalabs/bellaprep/pkg/metrics"
)

// CleanupScheduler sweeps expired QR sessions and accounts for audit
// entries past retention. Audit rows are never deleted here; entries
// past the cutoff are only counted until cold-storage archival exists.
type CleanupScheduler struct {
	db      database.Database
	metrics *metrics.Metrics
	cfg     config.SchedulerConfig
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a cleanup scheduler.
func New(db database.Database, m *metrics.Metrics, cfg config.SchedulerConfig, logger *zap.Logger) *CleanupScheduler {
	return &CleanupScheduler{
		db:      db,
		metrics: m,
		cfg:     cfg,
		logger:  logger.Named("scheduler"),
	}
}

// Start launches the maintenance loops. Call Stop to shut them down.
func (s *CleanupScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.loop(ctx, s.cfg.QRSweepInterval, s.sweepQRSessions)
	go s.loop(ctx, s.cfg.AuditSweepInterval, s.accountAuditBacklog)

	s.logger.Info("cleanup scheduler started",
		zap.Duration("qr_sweep_interval", s.cfg.QRSweepInterval),
		zap.Duration("audit_sweep_interval", s.cfg.AuditSweepInterval))
}

// Stop cancels the loops and waits for them to drain.
func (s *CleanupScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("cleanup scheduler stopped")
}

func (s *CleanupScheduler) loop(ctx context.Context, interval time.Duration, run func(ctx context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run(ctx)
		}
	}
}

func (s *CleanupScheduler) sweepQRSessions(ctx context.Context) {
	removed, err := s.db.DeleteExpiredQRSessions(ctx, time.Now())
	if err != nil {
		s.logger.Error("qr session sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("swept expired qr sessions", zap.Int64("removed", removed))
	}
}

func (s *CleanupScheduler) accountAuditBacklog(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.AuditRetention)
	count, err := s.db.CountAuditLogsBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("audit retention accounting failed", zap.Error(err))
		return
	}

	if s.metrics != nil {
		s.metrics.SetAuditBacklog(count)
	}
	s.logger.Info("audit retention accounting",
		zap.Time("cutoff", cutoff),
		zap.Int64("entries_past_retention", count))
}
