// Package syncrun records every reconciliation run so it can be audited and
// shown on the dashboard.
package syncrun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bellsc7/hrsyncad/internal/syncrun/models"
	"github.com/bellsc7/hrsyncad/pkg/platform/clock"
	"github.com/bellsc7/hrsyncad/pkg/platform/sentinel"
	"github.com/bellsc7/hrsyncad/pkg/requestcontext"
)

// Store persists run records.
type Store interface {
	Create(ctx context.Context, run *models.Run) error
	// Finalize updates a running record. It returns sentinel.ErrInvalidState
	// when the stored record is already final.
	Finalize(ctx context.Context, run *models.Run) error
	Get(ctx context.Context, id uuid.UUID) (*models.Run, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Run, error)
}

// Recorder opens and closes run records. Timestamps come from its clock,
// which shares the reconciler's fixed offset.
type Recorder struct {
	store  Store
	logger *slog.Logger
	clock  clock.Clock
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

func WithClock(c clock.Clock) Option {
	return func(r *Recorder) {
		if c != nil {
			r.clock = c
		}
	}
}

func New(store Store, opts ...Option) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("run store is required")
	}
	r := &Recorder{store: store, logger: slog.Default(), clock: clock.Local{}}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start persists a new running record of kind.
func (r *Recorder) Start(ctx context.Context, kind string) (*models.Run, error) {
	run := &models.Run{
		ID:          uuid.New(),
		Kind:        kind,
		Status:      models.StatusRunning,
		TriggeredBy: requestcontext.Trigger(ctx),
		StartedAt:   r.clock.Now(),
	}
	if err := r.store.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run record: %w", err)
	}
	r.logger.InfoContext(ctx, "run started",
		"run_id", run.ID,
		"sync_type", kind,
		"triggered_by", run.TriggeredBy,
	)
	return run, nil
}

// Finish moves run to its final state. Finishing an already final run
// returns sentinel.ErrInvalidState and leaves the record untouched.
func (r *Recorder) Finish(ctx context.Context, run *models.Run, final models.FinalState) error {
	if run == nil {
		return errors.New("run is required")
	}
	if run.IsFinal() {
		return fmt.Errorf("finish run %s: %w", run.ID, sentinel.ErrInvalidState)
	}
	if final.Status != models.StatusSuccess && final.Status != models.StatusFailed {
		return fmt.Errorf("finish run %s with status %q: %w", run.ID, final.Status, sentinel.ErrInvalidState)
	}

	var details json.RawMessage
	if final.Details != nil {
		b, err := json.Marshal(final.Details)
		if err != nil {
			return fmt.Errorf("marshal run details: %w", err)
		}
		details = b
	}

	next := *run
	ended := r.clock.Now()
	next.Status = final.Status
	next.EndedAt = &ended
	next.UpdatedCount = final.UpdatedCount
	next.NotFoundCount = final.NotFoundCount
	next.SkippedCount = final.SkippedCount
	next.ErrorCount = final.ErrorCount
	next.Message = final.Message
	next.ErrorMessage = final.ErrorMessage
	next.Details = details

	if err := r.store.Finalize(ctx, &next); err != nil {
		return fmt.Errorf("finalize run record: %w", err)
	}
	*run = next

	r.logger.InfoContext(ctx, "run finished",
		"run_id", run.ID,
		"status", run.Status,
		"updated", run.UpdatedCount,
		"not_found", run.NotFoundCount,
		"skipped", run.SkippedCount,
		"errors", run.ErrorCount,
		"duration", run.Duration(),
	)
	return nil
}

// Get returns a single run.
func (r *Recorder) Get(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	return r.store.Get(ctx, id)
}

// Recent returns up to limit runs, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.store.ListRecent(ctx, limit)
}
