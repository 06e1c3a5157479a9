package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/console"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/backend"
	"github.com/claudemarjean/Ivony/internal/infra/config"
	"github.com/claudemarjean/Ivony/internal/infra/database"
	kafkainfra "github.com/claudemarjean/Ivony/internal/infra/kafka"
	"github.com/claudemarjean/Ivony/internal/infra/logger"
	redisinfra "github.com/claudemarjean/Ivony/internal/infra/redis"
	"github.com/claudemarjean/Ivony/internal/infra/telemetry"
	postgresrepo "github.com/claudemarjean/Ivony/internal/repository/postgres"
	redisrepo "github.com/claudemarjean/Ivony/internal/repository/redis"
	"github.com/claudemarjean/Ivony/internal/repository/rest"
	transportgrpc "github.com/claudemarjean/Ivony/internal/transport/grpc"
	grpcinterceptors "github.com/claudemarjean/Ivony/internal/transport/grpc/interceptors"
	"github.com/claudemarjean/Ivony/internal/transport/http/handlers"
	"github.com/claudemarjean/Ivony/internal/transport/http/middleware"
	"github.com/claudemarjean/Ivony/internal/transport/http/routes"
	"github.com/claudemarjean/Ivony/internal/usecase"
)

type Application struct {
	cfg        *config.AppConfig
	engine     *gin.Engine
	logger     *zap.Logger
	registry   *console.Registry
	store      *postgresrepo.Store
	redis      *redisinfra.Client
	producer   *kafkainfra.Producer
	tracer     *telemetry.TracerProvider
	grpcServer *transportgrpc.Server
	grpcAddr   string
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}
	if err := a.build(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *Application) build(ctx context.Context) error {
	cfg, log := a.cfg, a.logger

	var tracerProvider trace.TracerProvider = otel.GetTracerProvider()
	propagator := otel.GetTextMapPropagator()
	if cfg.Telemetry.TracingEnabled {
		tp, err := telemetry.NewTracerProvider(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		tp.Install()
		a.tracer = tp
		tracerProvider = tp.TracerProvider()
		propagator = tp.Propagator()
	}

	client, err := backend.New(backend.Options{
		URL:            cfg.Backend.URL,
		AnonKey:        cfg.Backend.AnonKey,
		Timeout:        cfg.Backend.Timeout,
		RequestsPerSec: cfg.Backend.RequestsPerSec,
		Burst:          cfg.Backend.Burst,
		MaxBodyBytes:   cfg.Backend.MaxBodyBytes,
		Logger:         log.Named("backend"),
		TracerProvider: tracerProvider,
		Propagator:     propagator,
	})
	if err != nil {
		return fmt.Errorf("init backend client: %w", err)
	}
	repos := rest.NewRepositories(client)

	checks := map[string]handlers.HealthCheck{"backend": client.Ping}

	// Initialize Kafka event publisher
	var eventPublisher port.EventPublisher
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			a.producer = producer
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka disabled, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var visits port.VisitStore = repos.Visits
	if cfg.Postgres.Enabled {
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, telemetry.ServiceName(cfg), log)
		if err != nil {
			return fmt.Errorf("init postgres: %w", err)
		}
		store, err := postgresrepo.NewStore(ctx, pool)
		if err != nil {
			return fmt.Errorf("init visit store: %w", err)
		}
		a.store = store
		visits = store.Visits()
		checks["postgres"] = store.Ping
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.Redis.Enabled {
		redisClient, err := redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		a.redis = redisClient
		checks["redis"] = redisClient.HealthCheck

		rateLimitWindow := cfg.RateLimit.WindowDuration
		if rateLimitWindow <= 0 {
			rateLimitWindow = time.Minute
		}
		rateLimitStore := redisrepo.NewWindowStore(redisClient.Client(), redisrepo.WindowConfig{
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       rateLimitWindow * 2,
		})
		rateLimiter = middleware.NewRateLimiter(rateLimitStore, log)
	} else {
		log.Info("redis disabled, public endpoints are not rate limited")
	}

	consoleMetrics := telemetry.NewConsoleMetrics(prometheus.DefaultRegisterer)
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return fmt.Errorf("init http metrics: %w", err)
	}

	ipAccess := usecase.NewIPAccessService(repos.IPAccess, usecase.IPAccessOptions{
		CacheSize: cfg.Console.IPCacheSize,
		CacheTTL:  cfg.Console.IPCacheTTL,
		Events:    eventPublisher,
		Logger:    log,
	})
	admin := usecase.NewAdminService(usecase.AdminDeps{
		Users:        repos.Users,
		Applications: repos.Applications,
		AuditLogs:    repos.AuditLogs,
		Procedures:   repos.Procedures,
		Events:       eventPublisher,
		Logger:       log,
	})
	consultations := usecase.NewConsultationService(usecase.ConsultationDeps{
		Consultations: repos.Consultations,
		Applications:  repos.Applications,
		IPAccess:      ipAccess,
		Events:        eventPublisher,
		Metrics:       consoleMetrics,
		Logger:        log,
		MaxRecords:    cfg.Consultations.MaxRecords,
	})
	tracking := usecase.NewTrackingService(visits, usecase.TrackingOptions{
		Enabled:      cfg.Tracking.Enabled,
		UniqueWindow: cfg.Tracking.UniqueWindow,
		Events:       eventPublisher,
		Metrics:      consoleMetrics,
		Logger:       log,
	})

	registry, err := console.NewRegistry(
		func() port.AuthBackend { return client.NewAuth(backend.WithRefreshMargin(cfg.Backend.RefreshMargin)) },
		console.Services{Admin: admin, Consultations: consultations, IPAccess: ipAccess},
		console.Options{
			MaxSessions:  cfg.Console.MaxSessions,
			MaxAnonymous: cfg.Console.MaxAnonymous,
			KPIRefresh:   cfg.Console.KPIRefresh,
			Limiter: usecase.LimiterPolicy{
				MaxAttempts:     cfg.Auth.MaxAttempts,
				LockoutDuration: cfg.Auth.LockoutDuration,
				AttemptWindow:   cfg.Auth.AttemptWindow,
			},
			SessionTimeout: cfg.Auth.SessionTimeout,
			ProfileTimeout: cfg.Auth.ProfileTimeout,
			Profiles:       repos.Profiles,
			Events:         eventPublisher,
			Metrics:        consoleMetrics,
			Logger:         log,
		},
	)
	if err != nil {
		return fmt.Errorf("init console registry: %w", err)
	}
	a.registry = registry

	a.engine = routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Registry:    registry,
		RateLimiter: rateLimiter,
		Metrics:     httpMetrics,
		Services: routes.ServiceSet{
			Admin:         admin,
			Consultations: consultations,
			IPAccess:      ipAccess,
			Tracking:      tracking,
		},
		Checks:         checks,
		TracerProvider: tracerProvider,
		Propagator:     propagator,
	})

	if cfg.GRPC.Enabled {
		grpcMetrics, err := grpcinterceptors.NewGRPCMetrics(grpcinterceptors.GRPCMetricsOptions{})
		if err != nil {
			return fmt.Errorf("init grpc metrics: %w", err)
		}
		grpcChecks := make(map[string]transportgrpc.Check, len(checks))
		for name, check := range checks {
			grpcChecks[name] = transportgrpc.Check(check)
		}
		grpcSrv, err := transportgrpc.NewServer(transportgrpc.ServerDependencies{
			Logger:         log,
			Metrics:        grpcMetrics,
			TracerProvider: tracerProvider,
			Propagators:    propagator,
			Checks:         grpcChecks,
		})
		if err != nil {
			return fmt.Errorf("init grpc server: %w", err)
		}
		a.grpcServer = grpcSrv
		a.grpcAddr = fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	}

	return nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.close()

	grpcErrCh := make(chan error, 1)
	if a.grpcServer != nil {
		lis, err := net.Listen("tcp", a.grpcAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		go func() {
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("gRPC server panicked", zap.Any("panic", r))
					grpcErrCh <- fmt.Errorf("grpc server panicked: %v", r)
				}
			}()
			if err := a.grpcServer.Serve(ctx, lis); err != nil {
				a.logger.Error("gRPC server error", zap.Error(err))
				grpcErrCh <- err
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting Ivony console gateway",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.Bool("tracking_enabled", a.cfg.Tracking.Enabled),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		if a.grpcServer != nil {
			a.grpcServer.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	case err := <-grpcErrCh:
		return err
	}
}

// close releases everything build acquired. Consoles are closed first so their dashboard
// tickers stop before the stores go away.
func (a *Application) close() {
	if a.registry != nil {
		a.registry.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("close kafka producer", zap.Error(err))
		}
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.redis != nil {
		a.redis.LogStats()
		_ = a.redis.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			a.logger.Warn("shutdown tracer provider", zap.Error(err))
		}
	}
}
