package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for directory reconciliation.
type Metrics struct {
	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	Outcomes        *prometheus.CounterVec
	ConnectAttempts *prometheus.CounterVec
	LastSuccess     prometheus.Gauge
	LockConflicts   prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrsync_runs_total",
			Help: "Total number of reconciliation runs by final status",
		}, []string{"status"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrsync_run_duration_seconds",
			Help:    "Wall time of reconciliation runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrsync_record_outcomes_total",
			Help: "Per-record reconciliation outcomes",
		}, []string{"outcome"}),
		ConnectAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrsync_directory_connect_attempts_total",
			Help: "Directory bind attempts by result",
		}, []string{"result"}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "hrsync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		LockConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "hrsync_run_lock_conflicts_total",
			Help: "Runs rejected because another run held the lock",
		}),
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// IncOutcome counts one per-record outcome.
func (m *Metrics) IncOutcome(kind string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(kind).Inc()
}

// ObserveConnectAttempt counts one bind attempt.
func (m *Metrics) ObserveConnectAttempt(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.ConnectAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) SetLastSuccess(t time.Time) {
	if m == nil {
		return
	}
	m.LastSuccess.Set(float64(t.Unix()))
}

func (m *Metrics) IncLockConflicts() {
	if m == nil {
		return
	}
	m.LockConflicts.Inc()
}
