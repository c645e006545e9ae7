package directory

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Session is a bound connection. It is not safe for concurrent use.
type Session struct {
	conn    Conn
	cfg     Config
	logger  *slog.Logger
	tracer  trace.Tracer
	limiter *rate.Limiter

	closeOnce sync.Once
	closed    bool
}

func newSession(conn Conn, cfg Config, logger *slog.Logger, tracer trace.Tracer) *Session {
	return &Session{
		conn:    conn,
		cfg:     cfg,
		logger:  logger,
		tracer:  tracer,
		limiter: newLimiter(cfg.ModifyRate),
	}
}

// BaseDN is the configured search base.
func (s *Session) BaseDN() string {
	return s.cfg.BaseDN
}

// Search returns every entry matching filter under baseDN. An empty slice
// means no match.
func (s *Session) Search(ctx context.Context, baseDN, filter string, attrs []string) ([]Entry, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	ctx, span := s.tracer.Start(ctx, "directory.search", trace.WithAttributes(
		attribute.String("ldap.base_dn", baseDN),
		attribute.String("ldap.filter", filter),
	))
	defer span.End()

	entries, err := s.conn.Search(ctx, baseDN, filter, attrs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("ldap.results", len(entries)))
	return entries, nil
}

// Modify replaces the attributes named by cs on dn. An empty change set is a
// no-op.
func (s *Session) Modify(ctx context.Context, dn string, cs ChangeSet) error {
	if s.closed {
		return ErrSessionClosed
	}
	changes := cs.Replacements()
	if len(changes) == 0 {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "directory.modify", trace.WithAttributes(
		attribute.String("ldap.dn", dn),
		attribute.String("ldap.attributes", cs.Fields()),
	))
	defer span.End()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			return err
		}
	}
	if err := s.conn.Modify(ctx, dn, changes); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "modify failed")
		return err
	}
	return nil
}

// Close unbinds and releases the connection. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed = true
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("closing directory session", "error", err)
		}
	})
}
