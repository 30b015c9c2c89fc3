// Package metrics holds the Prometheus collectors for the dashboard server.
// Collectors live on a private registry so tests and multiple servers in
// one process never collide on the global default.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/ratelimit"
)

const namespace = "dashboard"

// Metrics is the set of collectors recorded by the MCP facades and the HTTP
// mirror. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	rateLimited   prometheus.Counter
	toolCalls     *prometheus.CounterVec
	resourceReads *prometheus.CounterVec
	promptGets    *prometheus.CounterVec
	snapshotBytes prometheus.Gauge
	buildInfo     *prometheus.GaugeVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests served by the mirror, by route, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"route"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_rate_limited_total",
				Help:      "HTTP requests rejected by the rate limiter.",
			},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mcp_tool_calls_total",
				Help:      "MCP tool invocations.",
			},
			[]string{"tool"},
		),
		resourceReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mcp_resource_reads_total",
				Help:      "MCP resource reads.",
			},
			[]string{"uri"},
		),
		promptGets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mcp_prompt_gets_total",
				Help:      "MCP prompt requests.",
			},
			[]string{"prompt"},
		),
		snapshotBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "snapshot_bytes",
				Help:      "Size of the canonical snapshot encoding in bytes.",
			},
		),
		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "build_info",
				Help:      "Always 1; labelled with the server version.",
			},
			[]string{"version"},
		),
	}

	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.rateLimited,
		m.toolCalls,
		m.resourceReads,
		m.promptGets,
		m.snapshotBytes,
		m.buildInfo,
	}
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	m.buildInfo.WithLabelValues(defaults.Version).Set(1)
	return m, nil
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          m.registry,
	})
}

// ObserveHTTP records one finished HTTP request.
func (m *Metrics) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RateLimited counts one request rejected with 429.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// ToolCalled counts one tool invocation.
func (m *Metrics) ToolCalled(tool string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool).Inc()
}

// ResourceRead counts one resource read.
func (m *Metrics) ResourceRead(uri string) {
	if m == nil {
		return
	}
	m.resourceReads.WithLabelValues(uri).Inc()
}

// PromptServed counts one prompt request.
func (m *Metrics) PromptServed(prompt string) {
	if m == nil {
		return
	}
	m.promptGets.WithLabelValues(prompt).Inc()
}

// SetSnapshotSize records the canonical snapshot size.
func (m *Metrics) SetSnapshotSize(n int) {
	if m == nil {
		return
	}
	m.snapshotBytes.Set(float64(n))
}

// TrackRateLimiter exports the counters of l, read at scrape time. It is a
// no-op for a nil limiter and may be called once per registry.
func (m *Metrics) TrackRateLimiter(l *ratelimit.Limiter) error {
	if m == nil || l == nil {
		return nil
	}
	cs := []prometheus.Collector{
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_allowed_total",
				Help:      "HTTP requests admitted by the rate limiter while limiting is on.",
			},
			func() float64 { return float64(l.Stats().Allowed) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ratelimit_tracked_hosts",
				Help:      "Client hosts holding a token bucket.",
			},
			func() float64 { return float64(l.Stats().Hosts) },
		),
	}
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}
