package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/infra/config"
)

// ConsoleVersion is reported as service.version on every span.
var ConsoleVersion = "dev"

// TracerProvider owns the span pipeline of one console gateway process.
type TracerProvider struct {
	provider   *sdktrace.TracerProvider
	propagator propagation.TextMapPropagator
	logger     *zap.Logger
	service    string
}

type tracerOptions struct {
	exporter sdktrace.SpanExporter
}

// TracerOption customises NewTracerProvider.
type TracerOption func(*tracerOptions)

// WithExporter replaces the OTLP exporter.
func WithExporter(exporter sdktrace.SpanExporter) TracerOption {
	return func(o *tracerOptions) { o.exporter = exporter }
}

// NewTracerProvider builds the gateway tracer. Spans carry the console
// service name, deployment environment and a per-process instance id.
// Nothing global is touched until Install is called.
func NewTracerProvider(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, opts ...TracerOption) (*TracerProvider, error) {
	o := tracerOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.exporter == nil {
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.Telemetry.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
			otlptracehttp.WithTimeout(10*time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("create OTLP exporter: %w", err)
		}
		o.exporter = exporter
	}

	service := ServiceName(cfg)
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(service),
			semconv.ServiceVersion(ConsoleVersion),
			semconv.DeploymentEnvironment(cfg.App.Env),
			semconv.ServiceInstanceID(uuid.NewString()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	rate := SamplingRate(cfg.Telemetry.SamplingRate)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(o.exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	)

	logger.Info("tracer provider initialized",
		zap.String("otlp_endpoint", cfg.Telemetry.OTLPEndpoint),
		zap.String("service_name", service),
		zap.String("environment", cfg.App.Env),
		zap.Float64("sampling_rate", rate),
	)

	return &TracerProvider{
		provider: tp,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
		logger:  logger,
		service: service,
	}, nil
}

// ServiceName prefers the telemetry override and falls back to the app name.
func ServiceName(cfg *config.AppConfig) string {
	if cfg.Telemetry.ServiceName != "" {
		return cfg.Telemetry.ServiceName
	}
	if cfg.App.Name != "" {
		return cfg.App.Name
	}
	return "ivony-console"
}

// SamplingRate clamps rate into [0, 1].
func SamplingRate(rate float64) float64 {
	switch {
	case rate < 0:
		return 0
	case rate > 1:
		return 1
	}
	return rate
}

// Install registers the provider and propagator as the otel globals.
func (tp *TracerProvider) Install() {
	otel.SetTracerProvider(tp.provider)
	otel.SetTextMapPropagator(tp.propagator)
}

func (tp *TracerProvider) TracerProvider() trace.TracerProvider {
	return tp.provider
}

func (tp *TracerProvider) Propagator() propagation.TextMapPropagator {
	return tp.propagator
}

// Tracer returns a tracer for the given instrumentation name.
func (tp *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return tp.provider.Tracer(name, opts...)
}

// Shutdown flushes pending spans and stops the exporter.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	tp.logger.Info("shutting down tracer provider", zap.String("service_name", tp.service))

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := tp.provider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}

func (tp *TracerProvider) ForceFlush(ctx context.Context) error {
	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := tp.provider.ForceFlush(flushCtx); err != nil {
		return fmt.Errorf("force flush tracer provider: %w", err)
	}
	return nil
}
