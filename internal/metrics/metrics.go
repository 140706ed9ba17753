// Package metrics holds the Prometheus collectors for portal events and HTTP
// traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a set of collectors registered on their own registry.
type Metrics struct {
	Registry *prometheus.Registry

	ItemsReported   *prometheus.CounterVec
	ClaimEvents     *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	ItemsByStatus   *prometheus.GaugeVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ItemsReported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lostfound",
			Name:      "items_reported_total",
			Help:      "Items reported, by type.",
		}, []string{"type"}),
		ClaimEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lostfound",
			Name:      "claim_events_total",
			Help:      "Claim lifecycle transitions, by event.",
		}, []string{"event"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lostfound",
			Name:      "logins_total",
			Help:      "Login and registration attempts, by result.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lostfound",
			Name:      "notifications_total",
			Help:      "Notification deliveries, by kind and result.",
		}, []string{"kind", "result"}),
		ItemsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lostfound",
			Name:      "items",
			Help:      "Stored items, by status.",
		}, []string{"status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lostfound",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "code"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ItemsReported,
		m.ClaimEvents,
		m.Logins,
		m.Notifications,
		m.ItemsByStatus,
		m.RequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method string, code int, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, strconv.Itoa(code)).Observe(d.Seconds())
}

// ObserveNotification records one delivery attempt.
func (m *Metrics) ObserveNotification(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Notifications.WithLabelValues(kind, result).Inc()
}

// SetItemCounts replaces the per-status item gauge.
func (m *Metrics) SetItemCounts(counts map[string]int) {
	m.ItemsByStatus.Reset()
	for status, n := range counts {
		m.ItemsByStatus.WithLabelValues(status).Set(float64(n))
	}
}
