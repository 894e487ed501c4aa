package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"student-roster/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Service identifies the process in exported resource attributes.
type Service struct {
	Name    string
	Version string
	Env     string
}

// InitMeterProvider installs a global SDK meter provider that pushes to the
// configured OTLP collector. It returns nil when metrics are disabled, in
// which case instruments stay no-ops.
func InitMeterProvider(ctx context.Context, cfg config.MetricsConfig, svc Service, logger *slog.Logger) (*metric.MeterProvider, error) {
	if !cfg.Enabled {
		logger.Info("metrics export disabled")
		return nil, nil
	}

	logger.Info("initializing OTel metrics", "endpoint", cfg.Endpoint)

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	metricExporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}

	meterProvider, err := NewMeterProvider(ctx, svc,
		metric.NewPeriodicReader(metricExporter, metric.WithInterval(interval)))
	if err != nil {
		return nil, err
	}

	logger.Info("OTel metrics initialized successfully")
	return meterProvider, nil
}

// NewMeterProvider builds a provider around reader and sets it as the global
// meter provider.
func NewMeterProvider(ctx context.Context, svc Service, reader metric.Reader) (*metric.MeterProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(svc.Name),
			semconv.ServiceVersion(svc.Version),
			semconv.DeploymentEnvironment(svc.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(reader),
	)

	otel.SetMeterProvider(meterProvider)
	return meterProvider, nil
}

// Shutdown flushes pending measurements. A nil provider is a no-op.
func Shutdown(ctx context.Context, meterProvider *metric.MeterProvider, logger *slog.Logger) error {
	if meterProvider == nil {
		return nil
	}
	logger.Info("shutting down OTel meter provider")
	if err := meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
