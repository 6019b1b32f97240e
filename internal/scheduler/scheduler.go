// Package scheduler runs the periodic refresh and retention jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mvillard/patrimoine/internal/aggregator"
	"github.com/mvillard/patrimoine/internal/config"
	"github.com/mvillard/patrimoine/internal/history"
)

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron    *cron.Cron
	service *aggregator.Service
	history *history.Recorder
	cfg     config.UpdatesConfig
	logger  *zap.Logger
}

// New creates a scheduler. Jobs are registered by Start.
func New(service *aggregator.Service, recorder *history.Recorder, cfg config.UpdatesConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{logger}))),
		service: service,
		history: recorder,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start registers the jobs and launches the cron runner. A disabled
// updates section makes Start a no-op so price refresh stays strictly
// on demand.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduled updates disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.RefreshSchedule, s.refreshJob); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.CleanupSchedule, s.cleanupJob); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("refresh_schedule", s.cfg.RefreshSchedule),
		zap.String("cleanup_schedule", s.cfg.CleanupSchedule),
		zap.Int("retention_days", s.cfg.RetentionDays),
	)
	return nil
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) refreshJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	report, err := s.service.UpdateAll(ctx)
	if err != nil {
		s.logger.Error("scheduled refresh failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled refresh completed",
		zap.Int("success", report.Success),
		zap.Int("failed", report.Failed),
	)
}

func (s *Scheduler) cleanupJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	removed, err := s.history.Prune(ctx, s.cfg.RetentionDays)
	if err != nil {
		s.logger.Error("history cleanup failed", zap.Error(err))
		return
	}
	s.logger.Info("history cleanup completed", zap.Int("removed", removed))
}

// cronLogger adapts zap to the cron logger interface used by the
// recovery chain.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
