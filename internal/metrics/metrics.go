package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records scheduled and admin-triggered job runs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
}

// NewJobMetrics registers the job metrics on reg. A nil reg yields a no-op recorder.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of background jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed job executions.",
	}, []string{"job"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_skipped",
		Help: "Job executions skipped because another run held the lock.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure, skipped)
	return &JobMetrics{duration: duration, success: success, failure: failure, skipped: skipped}
}

func (m *JobMetrics) ObserveDuration(job string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(d.Seconds())
}

func (m *JobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

func (m *JobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func (m *JobMetrics) IncSkipped(job string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(job)).Inc()
}

// ReconcileMetrics tracks the state the ownership rules keep converging.
type ReconcileMetrics struct {
	orphans         *prometheus.GaugeVec
	corruptVersions prometheus.Gauge
	invites         *prometheus.CounterVec
	messages        *prometheus.CounterVec
	installs        *prometheus.CounterVec
}

func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	m := &ReconcileMetrics{
		orphans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "orphaned_entities",
			Help: "Sites and plugins whose owner no longer exists, as of the last scan.",
		}, []string{"entity"}),
		corruptVersions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corrupt_plugin_versions",
			Help: "Plugin versions without a download URL, as of the last scan.",
		}),
		invites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "team_invites_resolved_total",
			Help: "Team invites accepted or declined.",
		}, []string{"outcome"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Messages sent by stored recipient type.",
		}, []string{"recipient_type"}),
		installs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plugin_installs_total",
			Help: "Per-site plugin install attempts.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.orphans, m.corruptVersions, m.invites, m.messages, m.installs)
	return m
}

func (m *ReconcileMetrics) SetOrphans(sites, plugins int) {
	if m == nil || m.orphans == nil {
		return
	}
	m.orphans.WithLabelValues("site").Set(float64(sites))
	m.orphans.WithLabelValues("plugin").Set(float64(plugins))
}

func (m *ReconcileMetrics) SetCorruptVersions(n int) {
	if m == nil || m.corruptVersions == nil {
		return
	}
	m.corruptVersions.Set(float64(n))
}

func (m *ReconcileMetrics) IncInvite(outcome string) {
	if m == nil || m.invites == nil {
		return
	}
	m.invites.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *ReconcileMetrics) IncMessage(recipientType string) {
	if m == nil || m.messages == nil {
		return
	}
	m.messages.WithLabelValues(normalizeLabel(recipientType)).Inc()
}

func (m *ReconcileMetrics) IncInstall(ok bool) {
	if m == nil || m.installs == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.installs.WithLabelValues(result).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
