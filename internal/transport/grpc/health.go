package transportgrpc

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ConsoleService is the health service name reported alongside the overall status.
const ConsoleService = "ivony.console.v1.Console"

const (
	defaultCheckInterval = 15 * time.Second
	defaultCheckTimeout  = 3 * time.Second
)

// Check tests one dependency.
type Check func(ctx context.Context) error

// HealthOptions configures a HealthReporter.
type HealthOptions struct {
	Interval time.Duration
	Timeout  time.Duration
	Logger   *zap.Logger
}

// HealthReporter translates the readiness checks into gRPC serving statuses.
type HealthReporter struct {
	server   *health.Server
	checks   map[string]Check
	names    []string
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewHealthReporter builds a reporter. Until the first check the service reports SERVING.
func NewHealthReporter(checks map[string]Check, opts HealthOptions) *HealthReporter {
	r := &HealthReporter{
		server:   health.NewServer(),
		checks:   make(map[string]Check, len(checks)),
		interval: opts.Interval,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
	for name, check := range checks {
		if check == nil {
			continue
		}
		r.checks[name] = check
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	if r.interval <= 0 {
		r.interval = defaultCheckInterval
	}
	if r.timeout <= 0 {
		r.timeout = defaultCheckTimeout
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	r.set(healthpb.HealthCheckResponse_SERVING)
	return r
}

// Server returns the grpc health service implementation.
func (r *HealthReporter) Server() *health.Server {
	return r.server
}

// Refresh runs every check once and publishes the result.
func (r *HealthReporter) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	for _, name := range r.names {
		if err := r.checks[name](ctx); err != nil {
			r.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	r.set(status)
	return status
}

// Run checks on every interval until ctx is done.
func (r *HealthReporter) Run(ctx context.Context) {
	r.Refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Shutdown reports NOT_SERVING for good; later checks are ignored.
func (r *HealthReporter) Shutdown() {
	r.server.Shutdown()
}

func (r *HealthReporter) set(status healthpb.HealthCheckResponse_ServingStatus) {
	r.server.SetServingStatus("", status)
	r.server.SetServingStatus(ConsoleService, status)
}
