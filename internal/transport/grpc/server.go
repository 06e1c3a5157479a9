package transportgrpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcinterceptors "github.com/claudemarjean/Ivony/internal/transport/grpc/interceptors"
)

const stopTimeout = 5 * time.Second

// ServerDependencies encapsulates what the operator gRPC server needs.
type ServerDependencies struct {
	Logger         *zap.Logger
	Metrics        *grpcinterceptors.GRPCMetrics
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
	Checks         map[string]Check
	CheckInterval  time.Duration
}

// Server is the operator-facing gRPC endpoint: standard health checking fed by the readiness
// checks, plus reflection for grpcurl.
type Server struct {
	server *grpc.Server
	health *HealthReporter
	logger *zap.Logger
}

// NewServer wires the gRPC server with tracing, metrics and panic recovery.
func NewServer(deps ServerDependencies) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tracing := grpcinterceptors.NewTracingInterceptor(grpcinterceptors.TracingOptions{
		TracerProvider: deps.TracerProvider,
		Propagators:    deps.Propagators,
	})
	recovery := grpcinterceptors.NewRecoveryInterceptor(logger)

	server := grpc.NewServer(
		grpc.StatsHandler(tracing.ServerHandler()),
		grpc.ChainUnaryInterceptor(
			recovery.Unary(),
			deps.Metrics.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			recovery.Stream(),
			deps.Metrics.StreamServerInterceptor(),
		),
		grpc.ConnectionTimeout(30*time.Second),
	)

	reporter := NewHealthReporter(deps.Checks, HealthOptions{
		Interval: deps.CheckInterval,
		Logger:   logger,
	})
	grpc_health_v1.RegisterHealthServer(server, reporter.Server())

	// Register reflection service for tools like Postman, grpcurl, etc.
	reflection.Register(server)

	return &Server{server: server, health: reporter, logger: logger}, nil
}

// Health returns the reporter feeding the health service.
func (s *Server) Health() *HealthReporter {
	return s.health
}

// Serve starts probing and blocks serving lis until the server stops.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go s.health.Run(ctx)

	s.logger.Info("gRPC server starting", zap.String("address", lis.Addr().String()))
	if err := s.server.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Stop marks the server as not serving and stops it gracefully, forcing it after a timeout.
func (s *Server) Stop() {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info("gRPC server stopped gracefully")
	case <-time.After(stopTimeout):
		s.logger.Warn("gRPC server forced to stop after timeout")
		s.server.Stop()
	}
}
