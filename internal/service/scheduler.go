package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/replydigest/replydigest/internal/biz/usecase"
	"github.com/replydigest/replydigest/internal/infra/metrics"
)

// ReportRunner produces and posts one summary report
type ReportRunner interface {
	Run(ctx context.Context, hours int) (*usecase.DigestResult, error)
}

// DigestScheduler posts the summary report on a cron schedule
type DigestScheduler struct {
	runner   ReportRunner
	schedule string
	hours    int
	metrics  *metrics.Metrics
	logger   *slog.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex // one report at a time
}

// NewDigestScheduler creates a new digest scheduler
func NewDigestScheduler(runner ReportRunner, schedule string, hours int, m *metrics.Metrics, logger *slog.Logger) *DigestScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DigestScheduler{
		runner:   runner,
		schedule: schedule,
		hours:    hours,
		metrics:  m,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start registers the schedule and starts the cron loop
func (s *DigestScheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.cron = cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))

	if _, err := s.cron.AddFunc(s.schedule, func() {
		_, _ = s.RunOnce(s.ctx)
	}); err != nil {
		s.cancel()
		return fmt.Errorf("invalid digest schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.schedule, "hours", s.hours)
	return nil
}

// Stop stops the cron loop and waits for a running report
func (s *DigestScheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		// Wait for running jobs to finish (with timeout)
		select {
		case <-ctx.Done():
		case <-time.After(10 * time.Second):
			s.logger.Warn("scheduler stop timed out")
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("scheduler stopped")
}

// RunOnce runs a single scheduled report
func (s *DigestScheduler) RunOnce(ctx context.Context) (*usecase.DigestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result, err := s.runner.Run(ctx, s.hours)
	if err != nil {
		s.observe("error")
		s.logger.Error("scheduled report failed", "hours", s.hours, "error", err)
		return nil, err
	}

	s.observe("posted")
	s.logger.Info("scheduled report posted",
		"hours", s.hours,
		"users", result.Report.TotalUsers,
		"ts", result.PostTimestamp,
		"duration", time.Since(start))
	return result, nil
}

func (s *DigestScheduler) observe(result string) {
	if s.metrics != nil {
		s.metrics.Reports.WithLabelValues("schedule", result).Inc()
	}
}
