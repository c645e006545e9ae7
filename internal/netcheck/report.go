package netcheck

import (
	"context"
	"fmt"

	"github.com/bellsc7/hrsyncad/pkg/platform/strings"
)

// Status is the overall verdict of a diagnostic run.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

const (
	recommendDNS = "DNS resolution failed: verify the directory hostname, check the resolver configuration, " +
		"or configure the server by IP address"
	recommendPing = "Ping failed: check routing between this host and the directory server, " +
		"firewall rules for ICMP, and that the server is powered on"
	recommendPortFmt = "Port %d is not accessible: check that the LDAP service is running, " +
		"firewall rules for LDAP (389) or LDAPS (636), and that the server accepts connections from this host"
	recommendAuth = "Basic connectivity checks passed: check the bind credentials, the bind account's " +
		"directory permissions, and TLS settings when LDAPS is enabled"
)

// Details carries the free-text result of each check.
type Details struct {
	DNS  string `json:"dns"`
	Ping string `json:"ping"`
	Port string `json:"port"`
}

// Report is the diagnostic payload embedded in failed run records.
type Report struct {
	Host             string   `json:"host"`
	Port             int      `json:"port"`
	DNSResolution    bool     `json:"dns_resolution"`
	Ping             bool     `json:"ping"`
	PortConnectivity bool     `json:"port_connectivity"`
	Details          Details  `json:"details"`
	OverallStatus    Status   `json:"overall_status"`
	Recommendations  []string `json:"recommendations"`
}

// Passed reports whether the checks that matter for LDAP succeeded.
func (r *Report) Passed() bool {
	return r.OverallStatus == StatusPass
}

// Diagnose runs every check against host:port and suggests remediation for
// the ones that failed. Ping is advisory and does not affect the verdict.
func (p *Checker) Diagnose(ctx context.Context, host string, port int) *Report {
	p.logger.InfoContext(ctx, "starting directory connectivity diagnostics", "host", host, "port", port)

	r := &Report{Host: host, Port: port}

	dns := p.Resolve(ctx, host)
	r.DNSResolution, r.Details.DNS = dns.OK, dns.Detail

	ping := p.Reachable(ctx, host, p.pingCount)
	r.Ping, r.Details.Ping = ping.OK, ping.Detail

	if err := p.CheckTCP(ctx, host, port, p.dialTimeout); err != nil {
		r.Details.Port = err.Error()
	} else {
		r.PortConnectivity = true
		r.Details.Port = "open"
	}

	r.OverallStatus = StatusFail
	if r.DNSResolution && r.PortConnectivity {
		r.OverallStatus = StatusPass
	}
	r.Recommendations = recommend(r)

	p.logger.InfoContext(ctx, "directory connectivity diagnostics completed",
		"overall_status", r.OverallStatus,
		"dns", r.DNSResolution,
		"ping", r.Ping,
		"port", r.PortConnectivity,
	)
	return r
}

func recommend(r *Report) []string {
	var recs []string
	if !r.DNSResolution {
		recs = append(recs, recommendDNS)
	}
	if !r.Ping {
		recs = append(recs, recommendPing)
	}
	if !r.PortConnectivity {
		recs = append(recs, fmt.Sprintf(recommendPortFmt, r.Port))
	}
	if r.OverallStatus == StatusPass {
		recs = append(recs, recommendAuth)
	}
	return strings.DedupeAndTrim(recs)
}
