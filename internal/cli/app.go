package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/bellsc7/hrsyncad/internal/directory"
	"github.com/bellsc7/hrsyncad/internal/directory/ldapconn"
	"github.com/bellsc7/hrsyncad/internal/netcheck"
	pmemory "github.com/bellsc7/hrsyncad/internal/personnel/store/memory"
	ppostgres "github.com/bellsc7/hrsyncad/internal/personnel/store/postgres"
	"github.com/bellsc7/hrsyncad/internal/platform/config"
	"github.com/bellsc7/hrsyncad/internal/platform/database"
	"github.com/bellsc7/hrsyncad/internal/platform/kafka"
	pmetrics "github.com/bellsc7/hrsyncad/internal/platform/metrics"
	platredis "github.com/bellsc7/hrsyncad/internal/platform/redis"
	rmetrics "github.com/bellsc7/hrsyncad/internal/reconcile/metrics"
	"github.com/bellsc7/hrsyncad/internal/reconcile/service"
	"github.com/bellsc7/hrsyncad/internal/runlock"
	"github.com/bellsc7/hrsyncad/internal/syncrun"
	smemory "github.com/bellsc7/hrsyncad/internal/syncrun/store/memory"
	spostgres "github.com/bellsc7/hrsyncad/internal/syncrun/store/postgres"
	"github.com/bellsc7/hrsyncad/pkg/platform/audit"
	"github.com/bellsc7/hrsyncad/pkg/platform/audit/publisher"
	amemory "github.com/bellsc7/hrsyncad/pkg/platform/audit/store/memory"
	apostgres "github.com/bellsc7/hrsyncad/pkg/platform/audit/store/postgres"
	"github.com/bellsc7/hrsyncad/pkg/platform/audit/worker"
	"github.com/bellsc7/hrsyncad/pkg/platform/clock"
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	registry    *prometheus.Registry
	syncMetrics *rmetrics.Metrics
	httpMetrics *pmetrics.Metrics

	db     *sql.DB
	redis  *platredis.Client
	kafka  *kgo.Client
	outbox *apostgres.Store

	checker   *netcheck.Checker
	publisher *publisher.Publisher
	runs      *syncrun.Recorder
	service   *service.Service

	closers []func()
}

type appOptions struct {
	// asyncAudit buffers audit events instead of writing them inline.
	asyncAudit int
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, opts appOptions) (a *app, err error) {
	a = &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.syncMetrics = rmetrics.New(a.registry)
	a.httpMetrics = pmetrics.New(a.registry)
	a.checker = netcheck.New(netcheck.WithLogger(logger))

	var (
		personnel  service.PersonnelStore
		runStore   syncrun.Store
		auditStore audit.Store
	)
	if cfg.Database.URL != "" {
		a.db, err = database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = a.db.Close() })
		if err := database.Migrate(ctx, a.db); err != nil {
			return nil, err
		}
		personnel = ppostgres.New(a.db)
		runStore = spostgres.New(a.db)
		a.outbox = apostgres.New(a.db)
		auditStore = a.outbox
	} else {
		logger.WarnContext(ctx, "no database configured, using in-memory stores")
		personnel = pmemory.New()
		runStore = smemory.New()
		auditStore = amemory.NewInMemoryStore()
	}

	a.redis, err = platredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	var locker runlock.Locker = runlock.NewMemory()
	if a.redis != nil {
		a.closers = append(a.closers, func() { _ = a.redis.Close() })
		locker = runlock.NewRedis(a.redis.Client)
	}

	a.kafka, err = kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if a.kafka != nil {
		a.closers = append(a.closers, a.kafka.Close)
	}

	pubOpts := []publisher.Option{publisher.WithLogger(logger)}
	if opts.asyncAudit > 0 {
		pubOpts = append(pubOpts, publisher.WithAsyncBuffer(opts.asyncAudit))
	}
	a.publisher = publisher.NewPublisher(auditStore, pubOpts...)
	a.closers = append(a.closers, a.publisher.Close)

	local := clock.NewLocal(cfg.Sync.TimezoneOffsetHours)
	a.runs, err = syncrun.New(runStore, syncrun.WithLogger(logger), syncrun.WithClock(local))
	if err != nil {
		return nil, err
	}

	manager := directory.NewManager(directoryConfig(cfg.Directory), ldapconn.Dialer{}, a.checker,
		directory.WithLogger(logger),
		directory.WithAttemptObserver(a.syncMetrics),
	)
	engine, err := service.NewEngine(personnel, a.runs, service.FromManager(manager), a.checker,
		service.WithLogger(logger),
		service.WithMetrics(a.syncMetrics),
		service.WithAuditPublisher(a.publisher),
		service.WithClock(local),
		service.WithTimezoneOffset(cfg.Sync.TimezoneOffsetHours),
		service.WithMatchByEmployeeID(cfg.Sync.MatchByEmployeeID),
	)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	a.service = service.NewService(engine, a.runs, locker,
		service.WithLockTTL(cfg.Sync.LockTTL),
		service.WithServiceLogger(logger),
		service.WithServiceMetrics(a.syncMetrics),
	)
	return a, nil
}

// relay returns the outbox worker, or nil when either Postgres or Kafka is
// not configured.
func (a *app) relay() (*worker.Worker, error) {
	if a.outbox == nil || a.kafka == nil {
		return nil, nil
	}
	return worker.NewWorker(a.outbox, a.kafka, a.cfg.Kafka.Topic,
		worker.WithInterval(a.cfg.Kafka.RelayInterval),
		worker.WithLogger(a.logger),
	)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func directoryConfig(c config.Directory) directory.Config {
	return directory.Config{
		Host:                  c.Host,
		Port:                  c.Port,
		UseTLS:                c.UseTLS,
		TLSInsecureSkipVerify: c.InsecureSkipVerify,
		Domain:                c.Domain,
		BindUser:              c.BindUser,
		BindPassword:          c.BindPassword,
		BaseDN:                c.BaseDN,
		ConnectTimeout:        c.ConnectTimeout,
		ReadTimeout:           c.ReadTimeout,
		MaxRetries:            c.MaxRetries,
		RetryDelay:            c.RetryDelay,
		ModifyRate:            c.ModifyRate,
	}.WithDefaults()
}
