package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/bellsc7/hrsyncad/internal/platform/middleware"
	"github.com/bellsc7/hrsyncad/internal/reconcile/handler/mocks"
	"github.com/bellsc7/hrsyncad/internal/reconcile/models"
	smodels "github.com/bellsc7/hrsyncad/internal/syncrun/models"
	dErrors "github.com/bellsc7/hrsyncad/pkg/domain-errors"
	"github.com/bellsc7/hrsyncad/pkg/requestcontext"
	"github.com/bellsc7/hrsyncad/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

const signingKey = "handler-test-key"

type SyncHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	token   string
}

func TestSyncHandlerSuite(t *testing.T) {
	suite.Run(t, new(SyncHandlerSuite))
}

func (s *SyncHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(s.service, logger, middleware.NewHMACValidator(signingKey, ""))
	s.router = chi.NewRouter()
	h.Register(s.router)

	s.token = testutil.SignToken(s.T(), signingKey, "hr-admin")
}

func (s *SyncHandlerSuite) authed(method, path string) *http.Request {
	return testutil.WithBearer(testutil.NewRequest(s.T(), method, path), s.token)
}

func (s *SyncHandlerSuite) TestTriggerSync() {
	s.Run("returns the run result", func() {
		runID := uuid.New()
		s.service.EXPECT().Reconcile(gomock.Any()).DoAndReturn(func(ctx context.Context) (*models.Result, error) {
			s.Equal("hr-admin", requestcontext.Subject(ctx))
			s.Equal(middleware.TriggerAPI, requestcontext.Trigger(ctx))
			return &models.Result{
				RunID:        runID,
				Success:      true,
				UpdatedCount: 2,
				LogMessages:  []string{"updated E-1 (Ann Lee) [telephoneNumber]"},
			}, nil
		})

		rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/api/sync/ad"))

		res := testutil.AssertRunResult(s.T(), rr, true)
		s.Equal(2, res.UpdatedCount)
		s.Equal(runID.String(), res.RunID)
		s.Equal([]string{"updated E-1 (Ann Lee) [telephoneNumber]"}, res.LogMessages)
	})

	s.Run("failed run is still a structured 200", func() {
		s.service.EXPECT().Reconcile(gomock.Any()).Return(&models.Result{
			Failure: &models.RunFailure{Class: models.FailureConnectivity, Message: "unreachable"},
		}, nil)

		rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/api/sync/ad"))

		res := testutil.AssertRunResult(s.T(), rr, false)
		s.Equal("connectivity", res.Error.Class)
	})

	s.Run("concurrent run is a conflict", func() {
		s.service.EXPECT().Reconcile(gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "a directory sync is already running"))

		rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/api/sync/ad"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("requires a token", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/api/sync/ad"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *SyncHandlerSuite) TestListRuns() {
	s.Run("default limit", func() {
		runs := []*smodels.Run{{ID: uuid.New(), Kind: smodels.KindDirectory, Status: smodels.StatusSuccess}}
		s.service.EXPECT().ListRuns(gomock.Any(), 0).Return(runs, nil)

		rr := testutil.DoRequest(s.router, s.authed(http.MethodGet, "/api/sync/runs"))

		testutil.AssertStatusOK(s.T(), rr)
		body := testutil.UnmarshalResponse[struct {
			Runs []smodels.Run `json:"runs"`
		}](s.T(), rr)
		require.Len(s.T(), body.Runs, 1)
		s.Equal(runs[0].ID, body.Runs[0].ID)
	})

	s.Run("explicit limit", func() {
		s.service.EXPECT().ListRuns(gomock.Any(), 5).Return(nil, nil)

		rr := testutil.DoRequest(s.router, s.authed(http.MethodGet, "/api/sync/runs?limit=5"))

		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("invalid limit", func() {
		rr := testutil.DoRequest(s.router, s.authed(http.MethodGet, "/api/sync/runs?limit=abc"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("store failure hides detail", func() {
		s.service.EXPECT().ListRuns(gomock.Any(), 0).
			Return(nil, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "list sync runs"))

		rr := testutil.DoRequest(s.router, s.authed(http.MethodGet, "/api/sync/runs"))

		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		s.NotContains(rr.Body.String(), "connection refused")
	})
}

func (s *SyncHandlerSuite) TestGetRun() {
	s.Run("found", func() {
		id := uuid.New()
		s.service.EXPECT().GetRun(gomock.Any(), id).Return(&smodels.Run{
			ID:           id,
			Kind:         smodels.KindDirectory,
			Status:       smodels.StatusFailed,
			ErrorMessage: "directory unreachable",
		}, nil)

		rr := testutil.DoRequest(s.router, s.authed(http.MethodGet, "/api/sync/runs/"+id.String()))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "failed")
	})

	s.Run("unknown id", func() {
		id := uuid.New()
		s.service.EXPECT().GetRun(gomock.Any(), id).Return(nil, dErrors.New(dErrors.CodeNotFound, "sync run not found"))

		rr := testutil.DoRequest(s.router, s.authed(http.MethodGet, "/api/sync/runs/"+id.String()))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("malformed id", func() {
		rr := testutil.DoRequest(s.router, s.authed(http.MethodGet, "/api/sync/runs/not-a-uuid"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}
