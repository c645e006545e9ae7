package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bellsc7/hrsyncad/internal/platform/middleware"
	"github.com/bellsc7/hrsyncad/internal/reconcile/models"
	smodels "github.com/bellsc7/hrsyncad/internal/syncrun/models"
	dErrors "github.com/bellsc7/hrsyncad/pkg/domain-errors"
	"github.com/bellsc7/hrsyncad/pkg/platform/httputil"
)

const maxListLimit = 200

// Service defines the interface for directory sync operations.
type Service interface {
	Reconcile(ctx context.Context) (*models.Result, error)
	GetRun(ctx context.Context, id uuid.UUID) (*smodels.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*smodels.Run, error)
}

// Handler serves the sync trigger and run history endpoints.
type Handler struct {
	logger       *slog.Logger
	sync         Service
	jwtValidator middleware.JWTValidator
}

// New creates a new sync Handler.
func New(sync Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		sync:         sync,
		jwtValidator: jwtValidator,
	}
}

// Register registers the sync routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/sync", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/ad", h.handleSyncDirectory)
		r.Group(func(r chi.Router) {
			r.Use(timeout(30 * time.Second))
			r.Get("/runs", h.handleListRuns)
			r.Get("/runs/{id}", h.handleGetRun)
		})
	})
}

// handleSyncDirectory runs a reconciliation and returns its result. The
// run outlives a dropped client so it is never cut off halfway.
func (h *Handler) handleSyncDirectory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	result, err := h.sync.Reconcile(context.WithoutCancel(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "directory sync not started",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if !result.Success {
		h.logger.ErrorContext(ctx, "directory sync failed",
			"request_id", requestID,
			"run_id", result.RunID.String(),
		)
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 200"))
			return
		}
		limit = n
	}

	runs, err := h.sync.ListRuns(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list sync runs",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid run id"))
		return
	}

	run, err := h.sync.GetRun(ctx, id)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to load sync run",
				"request_id", middleware.GetRequestID(ctx),
				"run_id", id.String(),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, run)
}

func timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
