package store

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/carbonreport/carbonreport/pkg/logger"
	"github.com/carbonreport/carbonreport/pkg/telemetry"
)

// DefaultCleanupSchedule runs the retention job daily at 3 AM.
const DefaultCleanupSchedule = "0 3 * * *"

// CleanupService periodically purges reports older than the retention period.
type CleanupService struct {
	store     ReportStore
	cron      *cron.Cron
	schedule  string
	retention time.Duration
	now       func() time.Time
	entryID   cron.EntryID
	mu        sync.RWMutex
}

// NewCleanupService creates a retention job. A non-positive retention disables purging.
func NewCleanupService(store ReportStore, retention time.Duration, schedule string) *CleanupService {
	if schedule == "" {
		schedule = DefaultCleanupSchedule
	}
	return &CleanupService{
		store:     store,
		cron:      cron.New(),
		schedule:  schedule,
		retention: retention,
		now:       time.Now,
	}
}

// Start schedules the job and runs one cleanup immediately in the background.
func (s *CleanupService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retention <= 0 {
		logger.Info("Report retention disabled, cleanup service not started")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) })
	if err != nil {
		logger.Error("Failed to schedule report cleanup", zap.String("schedule", s.schedule), zap.Error(err))
		return err
	}
	s.entryID = entryID
	s.cron.Start()

	logger.Info("Report cleanup service started",
		zap.String("schedule", s.schedule),
		zap.Duration("retention", s.retention),
	)

	go s.RunOnce(context.Background())
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *CleanupService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID == 0 {
		return
	}
	logger.Info("Stopping report cleanup service")
	<-s.cron.Stop().Done()
	s.entryID = 0
	logger.Info("Report cleanup service stopped")
}

// SetRetention updates the retention period; it applies to the next run.
func (s *CleanupService) SetRetention(retention time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retention = retention
	logger.Info("Report retention updated", zap.Duration("retention", retention))
}

// RunOnce deletes every report created before now minus the retention period.
func (s *CleanupService) RunOnce(ctx context.Context) (int64, error) {
	s.mu.RLock()
	retention := s.retention
	s.mu.RUnlock()

	if retention <= 0 {
		return 0, nil
	}

	cutoff := s.now().Add(-retention)
	start := time.Now()
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logger.Error("Failed to clean up old reports", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0, err
	}

	telemetry.GetMetrics().RecordReportsPurged(ctx, deleted)
	logger.Info("Report cleanup completed",
		zap.Int64("deleted_count", deleted),
		zap.Time("cutoff", cutoff),
		zap.Duration("duration", time.Since(start)),
	)
	return deleted, nil
}
