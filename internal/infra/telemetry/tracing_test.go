package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zaptest"

	"github.com/claudemarjean/Ivony/internal/infra/config"
)

func resourceValue(attrs []attribute.KeyValue, key attribute.Key) string {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestTracerProviderTagsSpansWithConsoleResource(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	cfg := &config.AppConfig{
		App:       config.AppSettings{Name: "ivony-console", Env: "staging"},
		Telemetry: config.TelemetrySettings{ServiceName: "ivony-admin", SamplingRate: 1},
	}

	tp, err := NewTracerProvider(context.Background(), cfg, zaptest.NewLogger(t), WithExporter(exporter))
	if err != nil {
		t.Fatalf("new tracer provider: %v", err)
	}
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "console.login")
	span.End()
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 exported span, got %d", len(spans))
	}
	attrs := spans[0].Resource.Attributes()
	if got := resourceValue(attrs, semconv.ServiceNameKey); got != "ivony-admin" {
		t.Fatalf("service.name = %q", got)
	}
	if got := resourceValue(attrs, semconv.DeploymentEnvironmentKey); got != "staging" {
		t.Fatalf("deployment.environment = %q", got)
	}
	if got := resourceValue(attrs, semconv.ServiceInstanceIDKey); got == "" {
		t.Fatal("expected a service.instance.id")
	}
}

func TestTracerProviderHonoursRemoteSamplingDecision(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	cfg := &config.AppConfig{
		App:       config.AppSettings{Name: "ivony-console", Env: "test"},
		Telemetry: config.TelemetrySettings{SamplingRate: 0},
	}

	tp, err := NewTracerProvider(context.Background(), cfg, zaptest.NewLogger(t), WithExporter(exporter))
	if err != nil {
		t.Fatalf("new tracer provider: %v", err)
	}
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	parent := trace.ContextWithRemoteSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))

	_, sampled := tp.Tracer("test").Start(parent, "sampled upstream")
	sampled.End()
	_, local := tp.Tracer("test").Start(context.Background(), "local root")
	local.End()
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected only the upstream-sampled span, got %d", len(spans))
	}
	if spans[0].SpanContext.TraceID() != traceID {
		t.Fatalf("span lost the upstream trace id: %s", spans[0].SpanContext.TraceID())
	}
}

func TestServiceNameAndSamplingRateDefaults(t *testing.T) {
	cfg := &config.AppConfig{App: config.AppSettings{Name: "ivony-console"}}
	if got := ServiceName(cfg); got != "ivony-console" {
		t.Fatalf("expected app name fallback, got %q", got)
	}
	if got := ServiceName(&config.AppConfig{}); got != "ivony-console" {
		t.Fatalf("expected built-in fallback, got %q", got)
	}

	for rate, want := range map[float64]float64{-0.5: 0, 0.25: 0.25, 3: 1} {
		if got := SamplingRate(rate); got != want {
			t.Fatalf("SamplingRate(%v) = %v, want %v", rate, got, want)
		}
	}
}
