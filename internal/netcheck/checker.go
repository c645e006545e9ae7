// Package netcheck runs cheap reachability checks against the directory host.
// The checks enrich failure reports after a connection attempt has given up;
// none of them gate a healthy connection path.
package netcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	defaultDialTimeout = 10 * time.Second
	defaultPingCount   = 3
)

// Resolver resolves host names. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DialFunc opens a network connection.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Check is the outcome of a single check.
type Check struct {
	OK     bool
	Detail string
}

// Checker bundles the DNS, ICMP and TCP checks.
type Checker struct {
	resolver    Resolver
	pinger      Pinger
	dial        DialFunc
	logger      *slog.Logger
	dialTimeout time.Duration
	pingCount   int
}

type Option func(*Checker)

func WithResolver(r Resolver) Option {
	return func(p *Checker) { p.resolver = r }
}

func WithPinger(pinger Pinger) Option {
	return func(p *Checker) { p.pinger = pinger }
}

func WithDialer(dial DialFunc) Option {
	return func(p *Checker) { p.dial = dial }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Checker) { p.logger = logger }
}

// WithDialTimeout bounds each TCP check made by Diagnose.
func WithDialTimeout(d time.Duration) Option {
	return func(p *Checker) {
		if d > 0 {
			p.dialTimeout = d
		}
	}
}

func WithPingCount(n int) Option {
	return func(p *Checker) {
		if n > 0 {
			p.pingCount = n
		}
	}
}

// New constructs a Checker backed by the system resolver, an unprivileged
// ICMP pinger and net.Dialer unless overridden.
func New(opts ...Option) *Checker {
	p := &Checker{
		resolver:    net.DefaultResolver,
		pinger:      ICMPPinger{Timeout: 10 * time.Second},
		dial:        (&net.Dialer{}).DialContext,
		logger:      slog.Default(),
		dialTimeout: defaultDialTimeout,
		pingCount:   defaultPingCount,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve checks that host resolves to at least one address. IP literals
// pass without a lookup.
func (p *Checker) Resolve(ctx context.Context, host string) Check {
	if ip := net.ParseIP(host); ip != nil {
		return Check{OK: true, Detail: ip.String()}
	}
	addrs, err := p.resolver.LookupHost(ctx, host)
	if err != nil {
		p.logger.ErrorContext(ctx, "dns resolution failed", "host", host, "error", err)
		return Check{Detail: err.Error()}
	}
	if len(addrs) == 0 {
		return Check{Detail: "no addresses returned"}
	}
	p.logger.InfoContext(ctx, "dns resolution succeeded", "host", host, "addresses", addrs)
	return Check{OK: true, Detail: strings.Join(addrs, ", ")}
}

// CheckTCP opens and immediately closes a TCP connection to host:port.
func (p *Checker) CheckTCP(ctx context.Context, host string, port int, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.dialTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := p.dial(ctx, "tcp", addr)
	if err != nil {
		p.logger.ErrorContext(ctx, "tcp check failed", "address", addr, "error", err)
		return fmt.Errorf("tcp check %s: %w", addr, err)
	}
	_ = conn.Close()
	return nil
}

// Reachable sends attempts echo requests to host. The result is advisory:
// many networks drop ICMP while LDAP works fine.
func (p *Checker) Reachable(ctx context.Context, host string, attempts int) Check {
	if attempts <= 0 {
		attempts = p.pingCount
	}
	stats, err := p.pinger.Ping(ctx, host, attempts)
	if err != nil {
		p.logger.WarnContext(ctx, "ping failed", "host", host, "error", err)
		return Check{Detail: err.Error()}
	}
	detail := fmt.Sprintf("%d/%d packets received, avg rtt %s", stats.Received, stats.Sent, stats.AvgRTT)
	if stats.Received == 0 {
		p.logger.WarnContext(ctx, "ping got no replies", "host", host, "sent", stats.Sent)
		return Check{Detail: detail}
	}
	return Check{OK: true, Detail: detail}
}
