package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bellsc7/hrsyncad/internal/platform/httpserver"
	"github.com/bellsc7/hrsyncad/internal/platform/kafka"
	"github.com/bellsc7/hrsyncad/internal/platform/middleware"
	"github.com/bellsc7/hrsyncad/internal/reconcile/handler"
	"github.com/bellsc7/hrsyncad/internal/reconcile/service"
	"github.com/bellsc7/hrsyncad/pkg/platform/clock"
)

const auditBuffer = 256

// NewServeCommand runs the HTTP API, the scheduler and the audit relay.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the sync API and run scheduled reconciliations",
		Long: `Serve the sync trigger API, health and metrics endpoints.

When sync.interval is set a reconciliation runs on that schedule. When both
a database and Kafka brokers are configured, audit events are relayed from
the outbox to Kafka.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := rootOpts.load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Server.JWTSigningKey == "" {
				return exitf(1, "JWT_SIGNING_KEY is required to serve the sync API")
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger, appOptions{asyncAudit: auditBuffer})
			if err != nil {
				return err
			}
			defer a.Close()

			relay, err := a.relay()
			if err != nil {
				return err
			}
			if relay != nil {
				if err := kafka.EnsureTopic(ctx, a.kafka, cfg.Kafka.Topic, 1, 1); err != nil {
					logger.WarnContext(ctx, "could not ensure audit topic", "topic", cfg.Kafka.Topic, "error", err)
				}
			}

			checks := map[string]httpserver.HealthCheck{}
			if a.db != nil {
				checks["database"] = a.db.PingContext
			}
			if a.redis != nil {
				checks["redis"] = a.redis.Health
			}
			router := httpserver.NewRouter(httpserver.RouterOptions{
				Logger:   logger,
				Metrics:  a.httpMetrics,
				Gatherer: a.registry,
				Clock:    clock.NewLocal(cfg.Sync.TimezoneOffsetHours),
				Checks:   checks,
			}, handler.New(a.service, logger, middleware.NewHMACValidator(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)))
			srv := httpserver.New(cfg.Server.Addr, router)
			scheduler := service.NewScheduler(a.service, cfg.Sync.Interval, logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.InfoContext(gctx, "starting hrsync", "addr", cfg.Server.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			g.Go(func() error {
				return scheduler.Start(gctx)
			})
			if relay != nil {
				g.Go(func() error {
					if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				})
			}
			return g.Wait()
		},
	}
}
