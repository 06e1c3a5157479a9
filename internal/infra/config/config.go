package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/claudemarjean/Ivony/internal/infra/backend"
)

// ErrServiceKey is returned when the configured backend key carries the service_role claim.
var ErrServiceKey = errors.New("config: backend key must be the public anon key, not a service key")

type AppConfig struct {
	App           AppSettings          `mapstructure:"app"`
	Backend       BackendSettings      `mapstructure:"backend"`
	Auth          AuthSettings         `mapstructure:"auth"`
	Console       ConsoleSettings      `mapstructure:"console"`
	Consultations ConsultationSettings `mapstructure:"consultations"`
	Tracking      TrackingSettings     `mapstructure:"tracking"`
	Postgres      PostgresSettings     `mapstructure:"postgres"`
	Redis         RedisSettings        `mapstructure:"redis"`
	Kafka         KafkaSettings        `mapstructure:"kafka"`
	GRPC          GRPCSettings         `mapstructure:"grpc"`
	Telemetry     TelemetrySettings    `mapstructure:"telemetry"`
	RateLimit     RateLimitSettings    `mapstructure:"rate_limit"`
}

type AppSettings struct {
	Name           string   `mapstructure:"name"`
	Env            string   `mapstructure:"env"`
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type GRPCSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// BackendSettings locates the managed backend. AnonKey must be the public key.
type BackendSettings struct {
	URL            string        `mapstructure:"url"`
	AnonKey        string        `mapstructure:"anon_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Burst          int           `mapstructure:"burst"`
	RefreshMargin  time.Duration `mapstructure:"refresh_margin"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// AuthSettings drives the login limiter and the idle session monitor.
type AuthSettings struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	LockoutDuration time.Duration `mapstructure:"lockout_duration"`
	AttemptWindow   time.Duration `mapstructure:"attempt_window"`
	SessionTimeout  time.Duration `mapstructure:"session_timeout"`
	ProfileTimeout  time.Duration `mapstructure:"profile_timeout"`
}

// ConsoleSettings bounds the console session registry.
type ConsoleSettings struct {
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	MaxSessions  int           `mapstructure:"max_sessions"`
	MaxAnonymous int           `mapstructure:"max_anonymous"`
	KPIRefresh   time.Duration `mapstructure:"kpi_refresh"`
	IPCacheSize  int           `mapstructure:"ip_cache_size"`
	IPCacheTTL   time.Duration `mapstructure:"ip_cache_ttl"`
}

type ConsultationSettings struct {
	MaxRecords int `mapstructure:"max_records"`
}

// TrackingSettings configures public portal visit ingestion.
type TrackingSettings struct {
	Enabled      bool          `mapstructure:"enabled"`
	UniqueWindow time.Duration `mapstructure:"unique_window"`
}

type PostgresSettings struct {
	Enabled           bool          `mapstructure:"enabled"`
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures Redis connection and TLS
type RedisSettings struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
	KeyPrefix  string `mapstructure:"key_prefix"`
}

// KafkaSettings configures Kafka producer
type KafkaSettings struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// RateLimitSettings configures the per-IP sliding windows on public endpoints
type RateLimitSettings struct {
	WindowDuration   time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts int           `mapstructure:"login_max_attempts"`
	TrackMaxRequests int           `mapstructure:"track_max_requests"`
}

type TelemetrySettings struct {
	TracingEnabled bool    `mapstructure:"tracing_enabled"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("IVONY")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.allowed_origins",
		"backend.url",
		"backend.anon_key",
		"backend.timeout",
		"backend.requests_per_sec",
		"backend.burst",
		"backend.refresh_margin",
		"backend.max_body_bytes",
		"auth.max_attempts",
		"auth.lockout_duration",
		"auth.attempt_window",
		"auth.session_timeout",
		"auth.profile_timeout",
		"console.cookie_name",
		"console.cookie_secure",
		"console.max_sessions",
		"console.max_anonymous",
		"console.kpi_refresh",
		"console.ip_cache_size",
		"console.ip_cache_ttl",
		"consultations.max_records",
		"tracking.enabled",
		"tracking.unique_window",
		"grpc.enabled",
		"grpc.host",
		"grpc.port",
		"postgres.enabled",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.enabled",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.key_prefix",
		"kafka.enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"telemetry.tracing_enabled",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.track_max_requests",
	}); err != nil {
		return nil, err
	}
	// The hosted frontend historically exported these two names.
	if err := v.BindEnv("backend.url", "IVONY_BACKEND_URL", "BACKEND_URL", "VITE_SUPABASE_URL"); err != nil {
		return nil, fmt.Errorf("bind env for backend.url: %w", err)
	}
	if err := v.BindEnv("backend.anon_key", "IVONY_BACKEND_ANON_KEY", "BACKEND_ANON_KEY", "VITE_SUPABASE_ANON_KEY"); err != nil {
		return nil, fmt.Errorf("bind env for backend.anon_key: %w", err)
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Backend.URL) == "" {
		return errors.New("config: backend.url is required")
	}
	if strings.TrimSpace(c.Backend.AnonKey) == "" {
		return errors.New("config: backend.anon_key is required")
	}
	if backend.IsServiceKey(c.Backend.AnonKey) {
		return ErrServiceKey
	}
	if c.Auth.MaxAttempts <= 0 {
		return fmt.Errorf("config: auth.max_attempts must be positive, got %d", c.Auth.MaxAttempts)
	}
	if c.Consultations.MaxRecords <= 0 {
		return fmt.Errorf("config: consultations.max_records must be positive, got %d", c.Consultations.MaxRecords)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ivony-console")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("backend.timeout", "10s")
	v.SetDefault("backend.requests_per_sec", 20.0)
	v.SetDefault("backend.burst", 40)
	v.SetDefault("backend.refresh_margin", "60s")
	v.SetDefault("backend.max_body_bytes", 8<<20)

	v.SetDefault("auth.max_attempts", 5)
	v.SetDefault("auth.lockout_duration", "5m")
	v.SetDefault("auth.attempt_window", "15m")
	v.SetDefault("auth.session_timeout", "24h")
	v.SetDefault("auth.profile_timeout", "3s")

	v.SetDefault("console.cookie_name", "ivony_console")
	v.SetDefault("console.cookie_secure", false)
	v.SetDefault("console.max_sessions", 1024)
	v.SetDefault("console.max_anonymous", 1024)
	v.SetDefault("console.kpi_refresh", "30s")
	v.SetDefault("console.ip_cache_size", 4096)
	v.SetDefault("console.ip_cache_ttl", "1m")

	v.SetDefault("consultations.max_records", 500)

	v.SetDefault("tracking.enabled", true)
	v.SetDefault("tracking.unique_window", "24h")

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "postgres")
	v.SetDefault("postgres.ssl_mode", "require")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.key_prefix", "ivony:rate_limit")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "ivony")
	v.SetDefault("kafka.async", true)

	v.SetDefault("telemetry.tracing_enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "ivony-console")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 20)
	v.SetDefault("rate_limit.track_max_requests", 120)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "IVONY_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
