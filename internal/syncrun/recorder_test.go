package syncrun

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/bellsc7/hrsyncad/internal/syncrun/models"
	"github.com/bellsc7/hrsyncad/internal/syncrun/store/memory"
	"github.com/bellsc7/hrsyncad/pkg/platform/clock"
	"github.com/bellsc7/hrsyncad/pkg/platform/sentinel"
	"github.com/bellsc7/hrsyncad/pkg/requestcontext"
)

// =============================================================================
// Run Recorder Test Suite
// =============================================================================
// Justification for unit tests: a run record is written before any directory
// I/O and must be finalized exactly once, whatever path the run takes.

type RecorderSuite struct {
	suite.Suite
	store    *memory.InMemoryStore
	recorder *Recorder
	clock    *manualClock
	start    time.Time
}

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) advance(d time.Duration) { c.now = c.now.Add(d) }
func (c *manualClock) set(t time.Time)         { c.now = t }

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.store = memory.New()
	s.start = time.Date(2025, 6, 1, 15, 0, 0, 0, clock.Zone(7))
	s.clock = &manualClock{now: s.start}
	var err error
	s.recorder, err = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(s.clock),
	)
	s.Require().NoError(err)
}

func (s *RecorderSuite) TestNew() {
	_, err := New(nil)
	s.ErrorContains(err, "run store is required")
}

func (s *RecorderSuite) TestStartPersistsRunningRecord() {
	ctx := requestcontext.WithTrigger(context.Background(), "cli")

	run, err := s.recorder.Start(ctx, models.KindDirectory)
	s.Require().NoError(err)

	stored, err := s.store.Get(ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRunning, stored.Status)
	s.Equal("ad", stored.Kind)
	s.Equal("cli", stored.TriggeredBy)
	s.Equal(s.start, stored.StartedAt)
	s.Nil(stored.EndedAt)
}

func (s *RecorderSuite) TestFinish() {
	s.Run("records counts and outcome log", func() {
		ctx := context.Background()
		s.clock.set(s.start)
		run, err := s.recorder.Start(ctx, models.KindDirectory)
		s.Require().NoError(err)

		s.clock.advance(90 * time.Second)
		err = s.recorder.Finish(ctx, run, models.FinalState{
			Status:        models.StatusSuccess,
			UpdatedCount:  2,
			NotFoundCount: 1,
			Message:       "updated 2, not found 1",
			Details:       []string{"updated: E-1", "updated: E-2", "not found: E-3"},
		})
		s.Require().NoError(err)
		s.Equal(90*time.Second, run.Duration())

		stored, err := s.recorder.Get(ctx, run.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusSuccess, stored.Status)
		s.Equal(2, stored.UpdatedCount)
		s.Equal(1, stored.NotFoundCount)
		var lines []string
		s.Require().NoError(json.Unmarshal(stored.Details, &lines))
		s.Len(lines, 3)
	})

	s.Run("second finish is rejected", func() {
		run, err := s.recorder.Start(context.Background(), models.KindDirectory)
		s.Require().NoError(err)
		s.Require().NoError(s.recorder.Finish(context.Background(), run, models.FinalState{Status: models.StatusFailed, ErrorMessage: "boom"}))

		err = s.recorder.Finish(context.Background(), run, models.FinalState{Status: models.StatusSuccess})
		s.ErrorIs(err, sentinel.ErrInvalidState)

		stored, err := s.store.Get(context.Background(), run.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusFailed, stored.Status)
		s.Equal("boom", stored.ErrorMessage)
	})

	s.Run("stale copy cannot refinalize", func() {
		run, err := s.recorder.Start(context.Background(), models.KindDirectory)
		s.Require().NoError(err)
		stale := *run
		s.Require().NoError(s.recorder.Finish(context.Background(), run, models.FinalState{Status: models.StatusSuccess}))

		err = s.recorder.Finish(context.Background(), &stale, models.FinalState{Status: models.StatusFailed})
		s.ErrorIs(err, sentinel.ErrInvalidState)
		s.Equal(models.StatusRunning, stale.Status)
	})

	s.Run("running is not a final status", func() {
		run, err := s.recorder.Start(context.Background(), models.KindDirectory)
		s.Require().NoError(err)
		err = s.recorder.Finish(context.Background(), run, models.FinalState{Status: models.StatusRunning})
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unmarshalable details leave the run running", func() {
		run, err := s.recorder.Start(context.Background(), models.KindDirectory)
		s.Require().NoError(err)
		err = s.recorder.Finish(context.Background(), run, models.FinalState{Status: models.StatusSuccess, Details: make(chan int)})
		s.Error(err)
		s.False(errors.Is(err, sentinel.ErrInvalidState))
		s.False(run.IsFinal())
	})
}

func (s *RecorderSuite) TestTimestampsUseRecorderClock() {
	// A pinned request time must not freeze the end of a long run.
	requestStart := time.Date(2025, 6, 1, 7, 59, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), requestStart)

	run, err := s.recorder.Start(ctx, models.KindDirectory)
	s.Require().NoError(err)
	s.clock.advance(3 * time.Minute)
	s.Require().NoError(s.recorder.Finish(ctx, run, models.FinalState{Status: models.StatusSuccess}))

	stored, err := s.store.Get(ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(s.start, stored.StartedAt)
	s.Require().NotNil(stored.EndedAt)
	s.Equal(s.start.Add(3*time.Minute), *stored.EndedAt)
	_, offset := stored.StartedAt.Zone()
	s.Equal(7*3600, offset)
}

func (s *RecorderSuite) TestRecent() {
	for i := range 3 {
		s.clock.set(s.start.Add(time.Duration(i) * time.Minute))
		_, err := s.recorder.Start(context.Background(), models.KindDirectory)
		s.Require().NoError(err)
	}

	runs, err := s.recorder.Recent(context.Background(), 2)
	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal(s.start.Add(2*time.Minute), runs[0].StartedAt)
}
