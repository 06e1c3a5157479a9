package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/console"
	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/infra/config"
	"github.com/claudemarjean/Ivony/internal/transport/http/handlers"
	"github.com/claudemarjean/Ivony/internal/transport/http/middleware"
	"github.com/claudemarjean/Ivony/internal/usecase"
)

var (
	everyRole  = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleViewer}
	moderators = []domain.Role{domain.RoleAdmin, domain.RoleManager}
	adminsOnly = []domain.Role{domain.RoleAdmin}
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Admin         *usecase.AdminService
	Consultations *usecase.ConsultationService
	IPAccess      *usecase.IPAccessService
	Tracking      *usecase.TrackingService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Registry    *console.Registry
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Services    ServiceSet
	Checks      map[string]handlers.HealthCheck
	// TracerProvider and Propagator default to the otel globals.
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config == nil {
		deps.Config = &config.AppConfig{}
	}
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Tracing(deps.TracerProvider, deps.Propagator))
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.Metrics.Handler())
	if len(deps.Config.App.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	}

	healthHandler := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if deps.Registry != nil {
		registerConsoleAPI(r, deps)
	}

	if deps.Services.Tracking != nil {
		portal := r.Group("/portal/v1")
		trackingHandler := handlers.NewTrackingHandler(deps.Services.Tracking)
		trackingHandler.RegisterPortalRoutes(portal, buildTrackMiddlewares(deps)...)
	}

	handlers.RegisterSwagger(r)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.NewErrorResponse(c, "not found"))
	})

	return r
}

func registerConsoleAPI(r *gin.Engine, deps Dependencies) {
	cookie := middleware.ConsoleCookie{
		Name:   deps.Config.Console.CookieName,
		Secure: deps.Config.Console.CookieSecure,
		MaxAge: int(deps.Config.Auth.SessionTimeout / time.Second),
	}

	api := r.Group("/api/v1")
	api.Use(middleware.BindConsole(deps.Registry, cookie, deps.Logger))

	consoleHandler := handlers.NewConsoleHandler(deps.Logger)
	consoleHandler.RegisterRoutes(api.Group("/console"), buildLoginMiddlewares(deps)...)

	signedIn := api.Group("")
	signedIn.Use(middleware.RequireSignedIn())

	moderate := middleware.RequireRole(moderators...)

	if deps.Services.Consultations != nil {
		consultations := signedIn.Group("/consultations", middleware.RequireRole(everyRole...))
		handlers.NewConsultationHandler(deps.Services.Consultations).RegisterRoutes(consultations, moderate)
	}

	if deps.Services.IPAccess != nil {
		ipAccess := signedIn.Group("/ip-access", moderate)
		handlers.NewIPAccessHandler(deps.Services.IPAccess).RegisterRoutes(ipAccess)
	}

	if deps.Services.Admin != nil {
		adminHandler := handlers.NewAdminHandler(deps.Services.Admin, deps.Logger)
		adminHandler.RegisterUserRoutes(signedIn.Group("/users", moderate))
		adminHandler.RegisterApplicationRoutes(signedIn.Group("/applications", moderate))
		adminHandler.RegisterAuditRoutes(signedIn.Group("/audit-logs", middleware.RequireRole(adminsOnly...)))
		adminHandler.RegisterInsightRoutes(signedIn.Group("", middleware.RequireRole(everyRole...)))
	}

	if deps.Services.Tracking != nil {
		tracking := signedIn.Group("/tracking", middleware.RequireRole(adminsOnly...))
		handlers.NewTrackingHandler(deps.Services.Tracking).RegisterAdminRoutes(tracking)
	}
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(
		middleware.RateLimitRule{
			Name:       "console_login_ip",
			Limit:      limit,
			Window:     window,
			Identifier: middleware.ClientIPIdentifier(),
		},
		middleware.RateLimitRule{
			Name:       "console_login_console",
			Limit:      limit,
			Window:     window,
			Identifier: middleware.ConsoleIdentifier(),
		},
	)}
}

func buildTrackMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil {
		return nil
	}

	limit := deps.Config.RateLimit.TrackMaxRequests
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "portal_track_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
