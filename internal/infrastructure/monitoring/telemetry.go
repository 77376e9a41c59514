// Package monitoring wires OpenTelemetry tracing and metrics and the
// Prometheus HTTP metrics served on the metrics endpoint.
package monitoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/gourmetguru/api/internal/infrastructure/config"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.uber.org/zap"
)

// Telemetry owns the process-wide tracer and meter providers and the
// Prometheus registry they export to
type Telemetry struct {
	Registry       *prom.Registry
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	logger         *zap.Logger
}

// NewTelemetry installs global OpenTelemetry providers. Metrics are always
// collected into the returned registry; spans are exported only when
// tracing is enabled and an OTLP endpoint is set.
func NewTelemetry(cfg *config.Config, logger *zap.Logger) (*Telemetry, error) {
	logger = logger.Named("telemetry")

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(cfg.App.Name),
		semconv.ServiceVersion(cfg.App.Version),
		semconv.DeploymentEnvironmentName(cfg.App.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	t := &Telemetry{
		Registry:      registry,
		meterProvider: meterProvider,
		logger:        logger,
	}

	if cfg.Monitoring.EnableTracing && cfg.Monitoring.OTLPEndpoint != "" {
		spanExporter, err := otlptracehttp.New(context.Background(),
			otlptracehttp.WithEndpoint(cfg.Monitoring.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		t.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Monitoring.SamplingRate))),
			sdktrace.WithBatcher(spanExporter),
		)
		otel.SetTracerProvider(t.tracerProvider)
		logger.Info("OTLP trace exporter configured", zap.String("endpoint", cfg.Monitoring.OTLPEndpoint))
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Telemetry initialized",
		zap.String("service", cfg.App.Name),
		zap.Bool("tracing_enabled", t.tracerProvider != nil))
	return t, nil
}

// Shutdown flushes pending spans and metrics
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.tracerProvider != nil {
		errs = append(errs, t.tracerProvider.Shutdown(ctx))
	}
	errs = append(errs, t.meterProvider.Shutdown(ctx))
	return errors.Join(errs...)
}
