package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics records dataset and HTTP measurements and exposes them in the
// Prometheus text format. A nil *Metrics discards every measurement.
type Metrics struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler

	loads            metric.Int64Counter
	loadDuration     metric.Float64Histogram
	filters          metric.Int64Counter
	filterRows       metric.Int64Histogram
	httpRequests     metric.Int64Counter
	httpRequestTimer metric.Float64Histogram
}

func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(ServiceName, metric.WithInstrumentationVersion(ServiceVersion))

	m := &Metrics{
		provider: provider,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	if m.loads, err = meter.Int64Counter("sales_loads",
		metric.WithDescription("Spreadsheet loads by outcome"),
	); err != nil {
		return nil, err
	}
	if m.loadDuration, err = meter.Float64Histogram("sales_load_duration",
		metric.WithDescription("Spreadsheet load duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.filters, err = meter.Int64Counter("sales_filters",
		metric.WithDescription("Filter evaluations"),
	); err != nil {
		return nil, err
	}
	if m.filterRows, err = meter.Int64Histogram("sales_filter_rows",
		metric.WithDescription("Rows returned by a filter evaluation"),
	); err != nil {
		return nil, err
	}
	if m.httpRequests, err = meter.Int64Counter("http_requests",
		metric.WithDescription("HTTP requests by route and status"),
	); err != nil {
		return nil, err
	}
	if m.httpRequestTimer, err = meter.Float64Histogram("http_request_duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// Handler serves the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

// RecordLoad counts one load. outcome is "ok" or a load error kind.
func (m *Metrics) RecordLoad(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.loads.Add(ctx, 1, attrs)
	m.loadDuration.Record(ctx, d.Seconds(), attrs)
}

func (m *Metrics) RecordFilter(ctx context.Context, rows int) {
	if m == nil {
		return
	}
	m.filters.Add(ctx, 1)
	m.filterRows.Record(ctx, int64(rows))
}

func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpRequestTimer.Record(ctx, d.Seconds(), attrs)
}

func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
