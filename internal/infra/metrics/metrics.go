package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	Events       *prometheus.CounterVec   // webhook decisions by kind
	Ingests      *prometheus.CounterVec   // ingestion outcomes by status
	Summaries    *prometheus.CounterVec   // per-user generation outcomes
	Deliveries   *prometheus.CounterVec   // direct message outcomes
	Reports      *prometheus.CounterVec   // report runs by trigger and result
	HTTPRequests *prometheus.CounterVec   // requests by route and status code
	HTTPLatency  *prometheus.HistogramVec // request latency by route
}

// New creates and registers all collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "replydigest",
			Name:      "webhook_events_total",
			Help:      "Webhook payloads by classification.",
		}, []string{"kind"}),
		Ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "replydigest",
			Name:      "ingest_total",
			Help:      "Reply ingestion outcomes.",
		}, []string{"status"}),
		Summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "replydigest",
			Name:      "user_summaries_total",
			Help:      "Per-user summary generation outcomes.",
		}, []string{"outcome"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "replydigest",
			Name:      "direct_messages_total",
			Help:      "Direct message delivery outcomes.",
		}, []string{"outcome"}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "replydigest",
			Name:      "reports_total",
			Help:      "Summary report runs.",
		}, []string{"trigger", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "replydigest",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "replydigest",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(m.Events, m.Ingests, m.Summaries, m.Deliveries, m.Reports, m.HTTPRequests, m.HTTPLatency)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
