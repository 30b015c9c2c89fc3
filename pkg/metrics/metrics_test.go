package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/ratelimit"
)

func findFamily(t *testing.T, m *Metrics, name string) *dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func labelValue(metric *dto.Metric, name string) string {
	for _, l := range metric.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestNew_RegistersBuildInfo(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	f := findFamily(t, m, "dashboard_build_info")
	require.NotNil(t, f)
	require.Len(t, f.GetMetric(), 1)
	assert.Equal(t, defaults.Version, labelValue(f.GetMetric()[0], "version"))
	assert.Equal(t, float64(1), f.GetMetric()[0].GetGauge().GetValue())
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)

	a.ToolCalled(defaults.ToolShowDashboard)
	assert.NotNil(t, findFamily(t, a, "dashboard_mcp_tool_calls_total"))
	assert.Nil(t, findFamily(t, b, "dashboard_mcp_tool_calls_total"))
}

func TestObserveHTTP(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.ObserveHTTP("/mcp", http.MethodGet, 200, 3*time.Millisecond)
	m.ObserveHTTP("/mcp", http.MethodGet, 200, 5*time.Millisecond)
	m.ObserveHTTP("/mcp", http.MethodGet, 304, time.Millisecond)

	f := findFamily(t, m, "dashboard_http_requests_total")
	require.NotNil(t, f)
	counts := map[string]float64{}
	for _, metric := range f.GetMetric() {
		counts[labelValue(metric, "code")] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"200": 2, "304": 1}, counts)

	h := findFamily(t, m, "dashboard_http_request_duration_seconds")
	require.NotNil(t, h)
	assert.Equal(t, uint64(3), h.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestCountersAndGauge(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.RateLimited()
	m.RateLimited()
	m.ResourceRead(defaults.ResourceWidgetURI)
	m.PromptServed(defaults.PromptBriefing)
	m.SetSnapshotSize(2048)

	assert.Equal(t, float64(2), findFamily(t, m, "dashboard_http_rate_limited_total").GetMetric()[0].GetCounter().GetValue())
	reads := findFamily(t, m, "dashboard_mcp_resource_reads_total").GetMetric()[0]
	assert.Equal(t, defaults.ResourceWidgetURI, labelValue(reads, "uri"))
	assert.Equal(t, float64(1), findFamily(t, m, "dashboard_mcp_prompt_gets_total").GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, float64(2048), findFamily(t, m, "dashboard_snapshot_bytes").GetMetric()[0].GetGauge().GetValue())
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("/", http.MethodGet, 200, time.Millisecond)
		m.RateLimited()
		m.ToolCalled("x")
		m.ResourceRead("x")
		m.PromptServed("x")
		m.SetSnapshotSize(1)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Exposition(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.ToolCalled(defaults.ToolShowDashboard)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `dashboard_mcp_tool_calls_total{tool="show-dashboard"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestTrackRateLimiter(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	l := ratelimit.New(&ratelimit.Config{RequestsPerSecond: 0.001, Burst: 2, PerHost: true})
	require.NoError(t, m.TrackRateLimiter(l))

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.1")
	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")

	allowed := findFamily(t, m, "dashboard_ratelimit_allowed_total")
	require.NotNil(t, allowed)
	assert.Equal(t, float64(3), allowed.GetMetric()[0].GetCounter().GetValue())

	hosts := findFamily(t, m, "dashboard_ratelimit_tracked_hosts")
	require.NotNil(t, hosts)
	assert.Equal(t, float64(2), hosts.GetMetric()[0].GetGauge().GetValue())

	assert.Error(t, m.TrackRateLimiter(l), "second registration collides")
}

func TestTrackRateLimiter_Nil(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	assert.NoError(t, m.TrackRateLimiter(nil))
	assert.Nil(t, findFamily(t, m, "dashboard_ratelimit_tracked_hosts"))

	var none *Metrics
	assert.NoError(t, none.TrackRateLimiter(ratelimit.New(nil)))
}
