//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/bellsc7/hrsyncad/internal/syncrun"
	"github.com/bellsc7/hrsyncad/internal/syncrun/models"
	"github.com/bellsc7/hrsyncad/internal/syncrun/store/postgres"
	"github.com/bellsc7/hrsyncad/pkg/platform/sentinel"
	"github.com/bellsc7/hrsyncad/pkg/testutil/containers"
)

type RunStoreSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	store    *postgres.Store
	recorder *syncrun.Recorder
}

func TestRunStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RunStoreSuite))
}

func (s *RunStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.pg.DB)
	rec, err := syncrun.New(s.store)
	s.Require().NoError(err)
	s.recorder = rec
}

func (s *RunStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "sync_history"))
}

func (s *RunStoreSuite) TestRunLifecycle() {
	ctx := context.Background()
	run, err := s.recorder.Start(ctx, models.KindDirectory)
	s.Require().NoError(err)

	got, err := s.store.Get(ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRunning, got.Status)
	s.Nil(got.EndedAt)

	s.Require().NoError(s.recorder.Finish(ctx, run, models.FinalState{
		Status:        models.StatusSuccess,
		UpdatedCount:  3,
		NotFoundCount: 1,
		Message:       "sync completed",
		Details:       []string{"updated E-1 (Ann Lee) [telephoneNumber]"},
	}))

	got, err = s.store.Get(ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSuccess, got.Status)
	s.Equal(3, got.UpdatedCount)
	s.Equal(1, got.NotFoundCount)
	s.Require().NotNil(got.EndedAt)
	s.False(got.EndedAt.Before(got.StartedAt))

	var details []string
	s.Require().NoError(json.Unmarshal(got.Details, &details))
	s.Equal([]string{"updated E-1 (Ann Lee) [telephoneNumber]"}, details)
}

func (s *RunStoreSuite) TestFinalizeOnlyOnce() {
	ctx := context.Background()
	run, err := s.recorder.Start(ctx, models.KindDirectory)
	s.Require().NoError(err)
	s.Require().NoError(s.recorder.Finish(ctx, run, models.FinalState{Status: models.StatusFailed, ErrorMessage: "unreachable"}))

	err = s.recorder.Finish(ctx, run, models.FinalState{Status: models.StatusSuccess})

	s.Require().Error(err)
	stale := *run
	stale.Status = models.StatusSuccess
	s.ErrorIs(s.store.Finalize(ctx, &stale), sentinel.ErrInvalidState)
	got, err := s.store.Get(ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusFailed, got.Status)
}

func (s *RunStoreSuite) TestGetUnknown() {
	_, err := s.store.Get(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RunStoreSuite) TestListRecentNewestFirst() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	var ids []uuid.UUID
	for i := range 3 {
		r := &models.Run{
			ID:        uuid.New(),
			Kind:      models.KindDirectory,
			Status:    models.StatusRunning,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		s.Require().NoError(s.store.Create(ctx, r))
		ids = append(ids, r.ID)
	}

	runs, err := s.store.ListRecent(ctx, 2)

	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal(ids[2], runs[0].ID)
	s.Equal(ids[1], runs[1].ID)
}
