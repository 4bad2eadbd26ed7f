package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
)

const (
	// ServiceName identifies this process in telemetry resources.
	ServiceName = "cotpulse"
	// MeterName is the instrumentation scope for gateway metrics.
	MeterName = "cotpulse"
)

// OTelProviders holds the OpenTelemetry providers and the HTTP handler
// that exposes every metric. OTel instruments and native Prometheus
// collectors share one registry, so /metrics serves both.
type OTelProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
}

// InitializeOTel sets up the metrics pipeline: an OTel meter provider
// exporting through the Prometheus bridge into the default registry.
func InitializeOTel(version string, logger *slog.Logger) (*OTelProviders, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(promclient.DefaultRegisterer))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	logger.Info("telemetry initialized",
		slog.String("service", ServiceName),
		slog.String("exporter", "prometheus"))

	return &OTelProviders{
		MeterProvider:  mp,
		Meter:          mp.Meter(MeterName),
		PrometheusHTTP: promhttp.Handler(),
	}, nil
}

// Shutdown flushes and stops the meter provider.
func (p *OTelProviders) Shutdown() error {
	if p == nil || p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(context.Background())
}
