package interceptors

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/stats"
)

// TracingOptions customises the tracing handler behaviour.
type TracingOptions struct {
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
	Additional     []otelgrpc.Option
}

// TracingInterceptor carries the OpenTelemetry options for gRPC server traffic.
type TracingInterceptor struct {
	options []otelgrpc.Option
}

// NewTracingInterceptor collects the otelgrpc options. Unset providers fall back to the globals.
func NewTracingInterceptor(opts TracingOptions) *TracingInterceptor {
	options := make([]otelgrpc.Option, 0, len(opts.Additional)+2)
	if opts.TracerProvider != nil {
		options = append(options, otelgrpc.WithTracerProvider(opts.TracerProvider))
	}
	if opts.Propagators != nil {
		options = append(options, otelgrpc.WithPropagators(opts.Propagators))
	}
	options = append(options, opts.Additional...)

	return &TracingInterceptor{options: options}
}

// ServerHandler returns the stats handler to install with grpc.StatsHandler. It traces unary
// and streaming calls alike.
func (ti *TracingInterceptor) ServerHandler() stats.Handler {
	if ti == nil {
		return otelgrpc.NewServerHandler()
	}
	return otelgrpc.NewServerHandler(ti.options...)
}
