package metrics

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	HTTPRequestDuration    metric.Float64Histogram
	AuthRequestsTotal      metric.Int64Counter
	ToolRunsTotal          metric.Int64Counter
	ToolRunDuration        metric.Float64Histogram
	BackendRequestDuration metric.Float64Histogram
	BackendRefreshTotal    metric.Int64Counter
	CacheLookupsTotal      metric.Int64Counter
	RateLimitedTotal       metric.Int64Counter
	BackendUp              metric.Int64Gauge
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments from the global MeterProvider, once.
// Before a provider is installed the otel no-op provider is used.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("helixdash")
		m := &AppMetrics{}
		var err error

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		must("http_requests_total", err)

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		must("http_request_duration_seconds", err)

		m.AuthRequestsTotal, err = meter.Int64Counter(
			"auth_requests_total",
			metric.WithDescription("Sign-in, sign-up, refresh and sign-out attempts"),
			metric.WithUnit("{request}"),
		)
		must("auth_requests_total", err)

		m.ToolRunsTotal, err = meter.Int64Counter(
			"tool_runs_total",
			metric.WithDescription("Tool submissions by tool and outcome"),
			metric.WithUnit("{run}"),
		)
		must("tool_runs_total", err)

		m.ToolRunDuration, err = meter.Float64Histogram(
			"tool_run_duration_seconds",
			metric.WithDescription("End-to-end duration of tool runs in seconds"),
			metric.WithUnit("s"),
		)
		must("tool_run_duration_seconds", err)

		m.BackendRequestDuration, err = meter.Float64Histogram(
			"backend_request_duration_seconds",
			metric.WithDescription("Duration of calls to the analysis backend in seconds"),
			metric.WithUnit("s"),
		)
		must("backend_request_duration_seconds", err)

		m.BackendRefreshTotal, err = meter.Int64Counter(
			"backend_token_refresh_total",
			metric.WithDescription("Access token refreshes triggered by 401 responses"),
			metric.WithUnit("{refresh}"),
		)
		must("backend_token_refresh_total", err)

		m.CacheLookupsTotal, err = meter.Int64Counter(
			"result_cache_lookups_total",
			metric.WithDescription("Result cache lookups by outcome"),
			metric.WithUnit("{lookup}"),
		)
		must("result_cache_lookups_total", err)

		m.RateLimitedTotal, err = meter.Int64Counter(
			"tool_runs_rate_limited_total",
			metric.WithDescription("Tool submissions rejected by the per-user limiter"),
			metric.WithUnit("{run}"),
		)
		must("tool_runs_rate_limited_total", err)

		m.BackendUp, err = meter.Int64Gauge(
			"backend_up",
			metric.WithDescription("1 when the last backend health check succeeded"),
		)
		must("backend_up", err)

		appMetrics = m
	})
}

func must(name string, err error) {
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
}

// Get returns the instruments, initializing them on first use so packages and
// tests never observe a nil instance.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func RecordToolRun(ctx context.Context, tool, status string, seconds float64) {
	m := Get()
	attrs := metric.WithAttributes(attribute.String("tool", tool), attribute.String("status", status))
	m.ToolRunsTotal.Add(ctx, 1, attrs)
	m.ToolRunDuration.Record(ctx, seconds, attrs)
}

func RecordCacheLookup(ctx context.Context, cache string, hit bool) {
	Get().CacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", cache),
		attribute.Bool("hit", hit),
	))
}

func RecordAuth(ctx context.Context, action, status string) {
	Get().AuthRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("status", status),
	))
}
