package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bellsc7/hrsyncad/internal/reconcile/metrics"
	"github.com/bellsc7/hrsyncad/internal/reconcile/models"
	"github.com/bellsc7/hrsyncad/internal/runlock"
	smodels "github.com/bellsc7/hrsyncad/internal/syncrun/models"
	dErrors "github.com/bellsc7/hrsyncad/pkg/domain-errors"
	"github.com/bellsc7/hrsyncad/pkg/platform/sentinel"
)

const (
	lockKey        = smodels.KindDirectory
	defaultLockTTL = 30 * time.Minute
)

// Runner executes one reconciliation pass.
type Runner interface {
	Run(ctx context.Context) *models.Result
}

// RunHistory reads finished and in-flight runs.
type RunHistory interface {
	Get(ctx context.Context, id uuid.UUID) (*smodels.Run, error)
	Recent(ctx context.Context, limit int) ([]*smodels.Run, error)
}

// Service is the entry point used by the HTTP handler, the scheduler and
// the CLI. It guarantees at most one run per lock scope.
type Service struct {
	runner  Runner
	history RunHistory
	locker  runlock.Locker
	lockTTL time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type ServiceOption func(*Service)

func WithLockTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

func WithServiceMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func NewService(runner Runner, history RunHistory, locker runlock.Locker, opts ...ServiceOption) *Service {
	s := &Service{
		runner:  runner,
		history: history,
		locker:  locker,
		lockTTL: defaultLockTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reconcile runs a pass while holding the run lock. The only error returned
// is lock acquisition failure; run failures are reported in the result.
func (s *Service) Reconcile(ctx context.Context) (*models.Result, error) {
	lease, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			s.metrics.IncLockConflicts()
			return nil, dErrors.New(dErrors.CodeConflict, "a directory sync is already running")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "acquire run lock")
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "failed to release run lock", "error", err)
		}
	}()
	return s.runner.Run(ctx), nil
}

func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*smodels.Run, error) {
	run, err := s.history.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "sync run not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load sync run")
	}
	return run, nil
}

func (s *Service) ListRuns(ctx context.Context, limit int) ([]*smodels.Run, error) {
	if limit < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "limit must not be negative")
	}
	runs, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list sync runs")
	}
	return runs, nil
}
