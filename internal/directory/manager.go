// Package directory opens authenticated sessions against an LDAP directory
// and exposes the narrow search/modify surface the reconciler needs.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/bellsc7/hrsyncad/internal/directory"

// Conn is a protocol connection to the directory.
type Conn interface {
	Bind(username, password string) error
	Search(ctx context.Context, baseDN, filter string, attrs []string) ([]Entry, error)
	Modify(ctx context.Context, dn string, changes []AttributeChange) error
	Close() error
}

// Dialer opens protocol connections.
type Dialer interface {
	Dial(ctx context.Context, cfg Config) (Conn, error)
}

// PortChecker checks that host:port accepts TCP connections.
type PortChecker interface {
	CheckTCP(ctx context.Context, host string, port int, timeout time.Duration) error
}

// AttemptObserver receives the result of every bind attempt.
type AttemptObserver interface {
	ObserveConnectAttempt(ok bool)
}

// Manager opens sessions with a pre-flight port check and bounded retries.
type Manager struct {
	cfg      Config
	dialer   Dialer
	ports    PortChecker
	logger   *slog.Logger
	observer AttemptObserver
	tracer   trace.Tracer
	sleep    func(ctx context.Context, d time.Duration) error
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithAttemptObserver(o AttemptObserver) Option {
	return func(m *Manager) { m.observer = o }
}

func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Manager) { m.sleep = sleep }
}

func NewManager(cfg Config, dialer Dialer, ports PortChecker, opts ...Option) *Manager {
	m := &Manager{
		cfg:    cfg.WithDefaults(),
		dialer: dialer,
		ports:  ports,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Open checks the endpoint and then dials and binds, retrying up to
// MaxRetries times with a fixed delay. A failed check returns immediately
// without attempting a bind.
func (m *Manager) Open(ctx context.Context) (*Session, error) {
	ctx, span := m.tracer.Start(ctx, "directory.open", trace.WithAttributes(
		attribute.String("directory.address", m.cfg.Address()),
		attribute.Bool("directory.tls", m.cfg.UseTLS),
	))
	defer span.End()

	if err := m.ports.CheckTCP(ctx, m.cfg.Host, m.cfg.Port, m.cfg.ConnectTimeout); err != nil {
		m.logger.ErrorContext(ctx, "directory endpoint unreachable",
			"address", m.cfg.Address(),
			"error", err,
		)
		cerr := &ConnectError{Kind: ConnectUnreachable, Address: m.cfg.Address(), Cause: err}
		span.RecordError(cerr)
		span.SetStatus(codes.Error, string(ConnectUnreachable))
		return nil, cerr
	}

	var lastErr error
	for attempt := 1; attempt <= m.cfg.MaxRetries; attempt++ {
		conn, err := m.connect(ctx)
		m.observe(err == nil)
		if err == nil {
			m.logger.InfoContext(ctx, "directory session opened",
				"address", m.cfg.Address(),
				"attempt", attempt,
			)
			span.SetAttributes(attribute.Int("directory.attempts", attempt))
			return newSession(conn, m.cfg, m.logger, m.tracer), nil
		}
		lastErr = err
		m.logger.WarnContext(ctx, "directory connection attempt failed",
			"address", m.cfg.Address(),
			"attempt", attempt,
			"max_retries", m.cfg.MaxRetries,
			"error", err,
		)
		if attempt == m.cfg.MaxRetries {
			break
		}
		if err := m.sleep(ctx, m.cfg.RetryDelay); err != nil {
			lastErr = fmt.Errorf("retry wait interrupted: %w", err)
			cerr := &ConnectError{Kind: ConnectExhausted, Address: m.cfg.Address(), Attempts: attempt, Cause: lastErr}
			span.RecordError(cerr)
			span.SetStatus(codes.Error, string(ConnectExhausted))
			return nil, cerr
		}
	}

	cerr := &ConnectError{Kind: ConnectExhausted, Address: m.cfg.Address(), Attempts: m.cfg.MaxRetries, Cause: lastErr}
	m.logger.ErrorContext(ctx, "directory connection retries exhausted",
		"address", m.cfg.Address(),
		"attempts", m.cfg.MaxRetries,
		"error", lastErr,
	)
	span.RecordError(cerr)
	span.SetStatus(codes.Error, string(ConnectExhausted))
	return nil, cerr
}

func (m *Manager) connect(ctx context.Context) (Conn, error) {
	conn, err := m.dialer.Dial(ctx, m.cfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", m.cfg.URL(), err)
	}
	if err := conn.Bind(m.cfg.BindName(), m.cfg.BindPassword); err != nil {
		if cerr := conn.Close(); cerr != nil {
			m.logger.DebugContext(ctx, "closing connection after failed bind", "error", cerr)
		}
		return nil, fmt.Errorf("bind as %s: %w", m.cfg.BindName(), err)
	}
	return conn, nil
}

func (m *Manager) observe(ok bool) {
	if m.observer != nil {
		m.observer.ObserveConnectAttempt(ok)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
