package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bellsc7/hrsyncad/internal/directory"
	"github.com/bellsc7/hrsyncad/internal/netcheck"
	pmodels "github.com/bellsc7/hrsyncad/internal/personnel/models"
	"github.com/bellsc7/hrsyncad/internal/reconcile/metrics"
	"github.com/bellsc7/hrsyncad/internal/reconcile/models"
	smodels "github.com/bellsc7/hrsyncad/internal/syncrun/models"
	"github.com/bellsc7/hrsyncad/pkg/platform/audit"
	"github.com/bellsc7/hrsyncad/pkg/platform/clock"
	platstrings "github.com/bellsc7/hrsyncad/pkg/platform/strings"
	"github.com/bellsc7/hrsyncad/pkg/requestcontext"
)

const finalizeTimeout = 10 * time.Second

// PersonnelStore is the local system of record.
type PersonnelStore interface {
	ListPending(ctx context.Context) ([]pmodels.Record, error)
	// SaveBatch writes the markers and returns the IDs of records that were
	// edited or removed since ListPending and so were left pending.
	SaveBatch(ctx context.Context, records []pmodels.Record) ([]int64, error)
}

// RunRecorder persists the run history.
type RunRecorder interface {
	Start(ctx context.Context, kind string) (*smodels.Run, error)
	Finish(ctx context.Context, run *smodels.Run, final smodels.FinalState) error
}

// Session is an open directory session.
type Session interface {
	BaseDN() string
	Search(ctx context.Context, baseDN, filter string, attrs []string) ([]directory.Entry, error)
	Modify(ctx context.Context, dn string, cs directory.ChangeSet) error
	Close()
}

// Directory opens sessions against the configured directory.
type Directory interface {
	Open(ctx context.Context) (Session, error)
	Config() directory.Config
}

// Diagnoser explains why the directory could not be reached.
type Diagnoser interface {
	Diagnose(ctx context.Context, host string, port int) *netcheck.Report
}

// AuditPublisher receives lifecycle and run events after a run commits.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// FromManager adapts a directory.Manager to Directory.
func FromManager(m *directory.Manager) Directory {
	return managerDirectory{m: m}
}

type managerDirectory struct {
	m *directory.Manager
}

func (d managerDirectory) Open(ctx context.Context) (Session, error) {
	s, err := d.m.Open(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d managerDirectory) Config() directory.Config {
	return d.m.Config()
}

// Engine runs one reconciliation pass at a time. Callers serialize runs.
type Engine struct {
	personnel PersonnelStore
	runs      RunRecorder
	dir       Directory
	diagnoser Diagnoser
	auditor   AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	clock     clock.Clock

	offsetHours  int
	matchByEmpID bool
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(e *Engine) { e.auditor = p }
}

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithTimezoneOffset sets the offset, in hours east of UTC, that separation
// dates and "today" are interpreted in.
func WithTimezoneOffset(hours int) Option {
	return func(e *Engine) { e.offsetHours = hours }
}

// WithMatchByEmployeeID looks entries up by employeeID before falling back
// to the name filter.
func WithMatchByEmployeeID(enabled bool) Option {
	return func(e *Engine) { e.matchByEmpID = enabled }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// NewEngine wires the collaborators of a run. The diagnoser may be nil.
func NewEngine(personnel PersonnelStore, runs RunRecorder, dir Directory, diagnoser Diagnoser, opts ...Option) (*Engine, error) {
	if personnel == nil {
		return nil, errors.New("personnel store is required")
	}
	if runs == nil {
		return nil, errors.New("run recorder is required")
	}
	if dir == nil {
		return nil, errors.New("directory is required")
	}
	e := &Engine{
		personnel:   personnel,
		runs:        runs,
		dir:         dir,
		diagnoser:   diagnoser,
		logger:      slog.Default(),
		tracer:      otel.Tracer("github.com/bellsc7/hrsyncad/internal/reconcile/service"),
		clock:       clock.Local{},
		offsetHours: clock.DefaultOffsetHours,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// storageError marks failures of the personnel store.
type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string { return e.op + ": " + e.err.Error() }
func (e *storageError) Unwrap() error { return e.err }

type panicError struct {
	value any
}

func (e *panicError) Error() string { return fmt.Sprintf("panic during run: %v", e.value) }

// Run performs one reconciliation pass. It always returns a result; failures
// are described by Result.Failure.
func (e *Engine) Run(ctx context.Context) *models.Result {
	ctx, span := e.tracer.Start(ctx, "reconcile.run")
	defer span.End()

	started := e.clock.Now()
	result := &models.Result{LogMessages: []string{}}

	run, err := e.runs.Start(ctx, smodels.KindDirectory)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to create run record", "error", err)
		result.Failure = &models.RunFailure{
			Class:   models.FailureStorage,
			Message: "create run record: " + err.Error(),
		}
		span.SetStatus(codes.Error, "create run record")
		e.metrics.ObserveRun(string(smodels.StatusFailed), e.clock.Now().Sub(started))
		return result
	}
	result.RunID = run.ID
	span.SetAttributes(attribute.String("run.id", run.ID.String()))
	logger := e.logger.With("run_id", run.ID.String())
	logger.InfoContext(ctx, "directory reconciliation started", "triggered_by", run.TriggeredBy)

	events, runErr := e.execute(ctx, logger, run, result)

	final := smodels.FinalState{
		UpdatedCount:  result.UpdatedCount,
		NotFoundCount: result.NotFoundCount,
		SkippedCount:  result.SkippedCount,
		ErrorCount:    result.ErrorCount,
	}
	if runErr != nil {
		result.Failure = &models.RunFailure{Class: classify(runErr), Message: runErr.Error()}
		logger.ErrorContext(ctx, "directory reconciliation failed",
			"class", string(result.Failure.Class),
			"error", runErr,
		)
		span.RecordError(runErr)
		span.SetStatus(codes.Error, string(result.Failure.Class))

		final.Status = smodels.StatusFailed
		final.Message = result.Summary()
		final.ErrorMessage = runErr.Error()
		final.Details = result.LogMessages
		if result.Failure.Class == models.FailureConnectivity && e.diagnoser != nil {
			cfg := e.dir.Config()
			result.Diagnostics = e.diagnoser.Diagnose(context.WithoutCancel(ctx), cfg.Host, cfg.Port)
			final.Details = result.Diagnostics
		}
	} else {
		result.Success = true
		final.Status = smodels.StatusSuccess
		final.Message = result.Summary()
		final.Details = result.LogMessages
	}

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := e.runs.Finish(fctx, run, final); err != nil {
		logger.ErrorContext(ctx, "failed to finalize run record", "error", err)
		if result.Success {
			result.Success = false
			result.Failure = &models.RunFailure{
				Class:   models.FailureStorage,
				Message: "finalize run record: " + err.Error(),
			}
		}
	}

	e.publish(fctx, run, result, events)

	status := smodels.StatusFailed
	if result.Success {
		status = smodels.StatusSuccess
		e.metrics.SetLastSuccess(e.clock.Now())
	}
	e.metrics.ObserveRun(string(status), e.clock.Now().Sub(started))
	logger.InfoContext(ctx, "directory reconciliation finished",
		"status", string(status),
		"updated", result.UpdatedCount,
		"unchanged", result.NoChangeCount,
		"not_found", result.NotFoundCount,
		"skipped", result.SkippedCount,
		"errors", result.ErrorCount,
	)
	return result
}

// execute holds the directory session for the whole pass. Markers are only
// persisted when every record has been visited.
func (e *Engine) execute(ctx context.Context, logger *slog.Logger, run *smodels.Run, result *models.Result) (events []audit.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			events = nil
			err = &panicError{value: r}
		}
	}()

	session, err := e.dir.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	records, err := e.personnel.ListPending(ctx)
	if err != nil {
		return nil, &storageError{op: "list pending personnel", err: err}
	}
	logger.InfoContext(ctx, "loaded pending personnel", "count", len(records))

	today := civil.DateOf(e.clock.Now().In(clock.Zone(e.offsetHours)))
	synced := make([]pmodels.Record, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome, changed, err := e.reconcileRecord(ctx, logger, session, rec, today)
		if err != nil {
			return nil, err
		}
		result.Record(outcome)
		e.metrics.IncOutcome(string(outcome.Kind))

		switch outcome.Kind {
		case models.OutcomeUpdated, models.OutcomeNoChanges:
			rec.DirectorySynced = true
			synced = append(synced, rec)
		}
		for _, action := range changed {
			events = append(events, audit.Event{
				Action:     string(action),
				Subject:    outcome.DN,
				RunID:      run.ID.String(),
				EmployeeID: rec.EmployeeID,
				Reason:     outcome.Fields,
			})
		}
	}

	stale, err := e.personnel.SaveBatch(ctx, synced)
	if err != nil {
		return nil, &storageError{op: "save sync markers", err: err}
	}
	for _, id := range stale {
		label := labelFor(synced, id)
		logger.WarnContext(ctx, "record changed during run, left pending", "record_id", id)
		result.LogMessages = append(result.LogMessages, "changed during run, left pending: "+label)
	}
	return events, nil
}

func labelFor(records []pmodels.Record, id int64) string {
	for _, r := range records {
		if r.ID == id {
			return r.Label()
		}
	}
	return "record #" + strconv.FormatInt(id, 10)
}

func (e *Engine) reconcileRecord(ctx context.Context, logger *slog.Logger, session Session, rec pmodels.Record, today civil.Date) (models.Outcome, []audit.AuditEvent, error) {
	outcome := models.Outcome{RecordID: rec.ID, Label: rec.Label()}
	if !rec.HasName() {
		outcome.Kind = models.OutcomeSkipped
		logger.WarnContext(ctx, "skipping record without a full name", "record_id", rec.ID)
		return outcome, nil, nil
	}

	entry, found, err := e.lookup(ctx, logger, session, rec)
	if err != nil {
		return outcome, nil, err
	}
	if !found {
		outcome.Kind = models.OutcomeNotFound
		logger.InfoContext(ctx, "no directory account for record",
			"record_id", rec.ID,
			"employee_id", rec.EmployeeID,
		)
		return outcome, nil, nil
	}
	outcome.DN = entry.DN

	cs := Plan(rec, entry, today, e.offsetHours)
	if cs.Empty() {
		outcome.Kind = models.OutcomeNoChanges
		return outcome, nil, nil
	}

	if err := session.Modify(ctx, entry.DN, cs); err != nil {
		if !directory.IsProtocol(err) {
			return outcome, nil, fmt.Errorf("modify %s: %w", entry.DN, err)
		}
		outcome.Kind = models.OutcomeError
		outcome.Error = err.Error()
		logger.WarnContext(ctx, "directory rejected modification",
			"record_id", rec.ID,
			"dn", entry.DN,
			"error", err,
		)
		return outcome, nil, nil
	}

	outcome.Kind = models.OutcomeUpdated
	outcome.Fields = cs.Fields()
	logger.InfoContext(ctx, "directory account updated",
		"record_id", rec.ID,
		"employee_id", rec.EmployeeID,
		"dn", entry.DN,
		"fields", outcome.Fields,
	)
	return outcome, transitions(entry, cs), nil
}

// lookup finds the account for rec. Only the first match is used.
func (e *Engine) lookup(ctx context.Context, logger *slog.Logger, session Session, rec pmodels.Record) (directory.Entry, bool, error) {
	var filters []string
	if e.matchByEmpID && rec.EmployeeID != "" {
		filters = append(filters, directory.UserByEmployeeIDFilter(rec.EmployeeID))
	}
	filters = append(filters, directory.UserByNameFilter(
		platstrings.NormalizeName(rec.GivenName),
		platstrings.NormalizeName(rec.FamilyName),
	))

	for _, filter := range filters {
		entries, err := session.Search(ctx, session.BaseDN(), filter, directory.UserAttributes)
		if err != nil {
			return directory.Entry{}, false, fmt.Errorf("search for %s: %w", rec.Label(), err)
		}
		if len(entries) == 0 {
			continue
		}
		if len(entries) > 1 {
			logger.WarnContext(ctx, "multiple directory accounts matched, using the first",
				"record_id", rec.ID,
				"matches", len(entries),
				"dn", entries[0].DN,
			)
		}
		return entries[0], true, nil
	}
	return directory.Entry{}, false, nil
}

func (e *Engine) publish(ctx context.Context, run *smodels.Run, result *models.Result, events []audit.Event) {
	if e.auditor == nil {
		return
	}
	requestID := requestcontext.RequestID(ctx)
	actor := requestcontext.Subject(ctx)

	runEvent := audit.Event{
		Action:  string(audit.EventSyncCompleted),
		Subject: run.ID.String(),
		RunID:   run.ID.String(),
		Reason:  result.Summary(),
	}
	if !result.Success {
		runEvent.Action = string(audit.EventSyncFailed)
		events = nil
	}
	for _, ev := range append(events, runEvent) {
		ev.RequestID = requestID
		ev.ActorID = actor
		if err := e.auditor.Emit(ctx, ev); err != nil {
			e.logger.WarnContext(ctx, "failed to emit audit event",
				"run_id", run.ID.String(),
				"action", ev.Action,
				"error", err,
			)
		}
	}
}

func classify(err error) models.FailureClass {
	var se *storageError
	switch {
	case directory.IsConnectivity(err):
		return models.FailureConnectivity
	case directory.IsProtocol(err):
		return models.FailureProtocol
	case errors.As(err, &se):
		return models.FailureStorage
	default:
		return models.FailureUnexpected
	}
}
