package netcheck

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// PingStats summarises an echo run.
type PingStats struct {
	Sent     int
	Received int
	AvgRTT   time.Duration
}

// Pinger sends ICMP echo requests.
type Pinger interface {
	Ping(ctx context.Context, host string, count int) (PingStats, error)
}

// ICMPPinger pings with pro-bing. Unprivileged mode uses datagram ICMP
// sockets, which Linux allows when net.ipv4.ping_group_range covers the
// process group.
type ICMPPinger struct {
	Privileged bool
	Timeout    time.Duration
}

func (p ICMPPinger) Ping(ctx context.Context, host string, count int) (PingStats, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return PingStats{}, fmt.Errorf("ping %s: %w", host, err)
	}
	pinger.Count = count
	if p.Timeout > 0 {
		pinger.Timeout = p.Timeout
	}
	pinger.SetPrivileged(p.Privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		return PingStats{}, fmt.Errorf("ping %s: %w", host, err)
	}
	st := pinger.Statistics()
	return PingStats{Sent: st.PacketsSent, Received: st.PacketsRecv, AvgRTT: st.AvgRtt}, nil
}
