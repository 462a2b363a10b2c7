// internal/metrics/metrics.go

// Package metrics holds the Prometheus collectors of the mirror engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mirror"

// Metrics is the set of collectors registered against one registry.
type Metrics struct {
	registry *prometheus.Registry

	TasksAdmitted    *prometheus.CounterVec
	TasksRejected    *prometheus.CounterVec
	TasksFinished    *prometheus.CounterVec
	TransferDuration prometheus.Histogram
	SweepAccounts    *prometheus.CounterVec
	TasksReaped      prometheus.Counter
}

// New registers the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TasksAdmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_admitted_total",
			Help:      "Mirror tasks created, by trigger.",
		}, []string{"trigger"}),
		TasksRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_rejected_total",
			Help:      "Triggers refused because the repository already had an active task.",
		}, []string{"trigger"}),
		TasksFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_finished_total",
			Help:      "Mirror tasks that reached a terminal state, by status and push mode.",
		}, []string{"status", "mode"}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_duration_seconds",
			Help:      "Wall time of clone and push for one repository.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		SweepAccounts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_accounts_total",
			Help:      "Accounts visited by the scheduled sweep, by result.",
		}, []string{"result"}),
		TasksReaped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_reaped_total",
			Help:      "Syncing tasks failed by the stale task reaper.",
		}),
	}
}

// ObserveTransfer records the duration of a transfer that started at start.
func (m *Metrics) ObserveTransfer(start time.Time) {
	m.TransferDuration.Observe(time.Since(start).Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
