package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// AuditJob loads the current ledger and audits it
type AuditJob func(ctx context.Context) (AuditReport, error)

// CronService manages scheduled background jobs
type CronService struct {
	cron     *cron.Cron
	schedule string
	audit    AuditJob
	logger   *logrus.Logger

	mu         sync.Mutex
	lastReport *AuditReport
}

// NewCronService creates a new CronService. Schedules use the six-field
// format with seconds: "0 */15 * * * *" runs every 15 minutes.
func NewCronService(schedule string, audit AuditJob, logger *logrus.Logger) *CronService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CronService{
		cron: cron.New(cron.WithSeconds(), cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		schedule: schedule,
		audit:    audit,
		logger:   logger,
	}
}

// Start schedules the ledger audit and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.ledgerAuditJob); err != nil {
		return fmt.Errorf("failed to schedule ledger audit job: %w", err)
	}
	s.cron.Start()
	s.logger.WithField("schedule", s.schedule).Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// RunAuditNow runs the ledger audit immediately
func (s *CronService) RunAuditNow() {
	s.ledgerAuditJob()
}

// LastReport returns the most recent audit report, or nil before the first run
func (s *CronService) LastReport() *AuditReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}

func (s *CronService) ledgerAuditJob() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	report, err := s.audit(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Ledger audit failed")
		return
	}
	s.mu.Lock()
	s.lastReport = &report
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"violations": len(report.Violations),
		"duration":   time.Since(start).String(),
	}).Info("[CRON] Ledger audit finished")
}
