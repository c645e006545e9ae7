package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bellsc7/hrsyncad/pkg/requestcontext"
)

// TriggerSchedule tags runs started by the scheduler.
const TriggerSchedule = "schedule"

// Scheduler triggers a run every interval until its context is cancelled.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(svc *Service, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{svc: svc, interval: interval, logger: logger}
}

// Start blocks until ctx is done. A zero interval disables scheduling.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.InfoContext(ctx, "scheduled sync disabled")
		<-ctx.Done()
		return nil
	}
	s.logger.InfoContext(ctx, "scheduled sync enabled", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	ctx = requestcontext.WithTrigger(ctx, TriggerSchedule)
	result, err := s.svc.Reconcile(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "scheduled sync not started", "error", err)
		return
	}
	if !result.Success {
		msg := ""
		if result.Failure != nil {
			msg = result.Failure.Message
		}
		s.logger.ErrorContext(ctx, "scheduled sync failed", "run_id", result.RunID.String(), "error", msg)
	}
}
