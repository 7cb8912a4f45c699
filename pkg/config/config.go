package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/tenantgate/pkg/catalog"
	"github.com/platinummonkey/tenantgate/pkg/observability"
)

// Cache store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQL    = "sql"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Permission catalog and its cache
	Catalog CatalogConfig

	// Session and authorization
	Auth AuthConfig

	// RoutesFile is the YAML route table; empty serves no guarded routes
	RoutesFile string

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	// UpstreamURL receives requests admitted by the route table
	UpstreamURL string

	// CORSAllowedOrigins is a comma separated list; empty disables CORS
	CORSAllowedOrigins []string
}

// CatalogConfig holds the catalog endpoint and cache settings
type CatalogConfig struct {
	APIURL       string
	FetchTimeout time.Duration

	CacheKey      string
	CacheDuration time.Duration
	L1CacheSize   int
	L1CacheTTL    time.Duration

	// Store is memory, redis or sql
	Store string

	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// SQLDriver is postgres or sqlite3
	SQLDriver string
	SQLDSN    string
	SQLTable  string
}

// AuthConfig holds session and gate settings
type AuthConfig struct {
	JWTSecret  string
	JWTIssuer  string
	CookieName string

	// SuperAdminCode is the grant code that bypasses role checks; empty disables it
	SuperAdminCode string
	CheckTimeout   time.Duration

	SignInPath      string
	DefaultPath     string
	DefaultLanguage string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection

	// AuditLogDir receives the JSON lines audit trail; empty disables it
	AuditLogDir string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Catalog:       loadCatalogConfig(),
		Auth:          loadAuthConfig(),
		RoutesFile:    getEnv("TENANTGATE_ROUTES_FILE", ""),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:               getEnv("TENANTGATE_HOST", "0.0.0.0"),
		Port:               getEnv("TENANTGATE_PORT", "8080"),
		ReadTimeout:        getEnvDuration("TENANTGATE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("TENANTGATE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:        getEnvDuration("TENANTGATE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:    getEnvDuration("TENANTGATE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:         getEnv("TENANTGATE_HEALTH_PORT", "9090"),
		UpstreamURL:        getEnv("TENANTGATE_UPSTREAM_URL", ""),
		CORSAllowedOrigins: getEnvList("TENANTGATE_CORS_ALLOWED_ORIGINS"),
	}
}

// loadCatalogConfig loads catalog and cache configuration from environment
func loadCatalogConfig() CatalogConfig {
	defaults := catalog.DefaultCacheConfig()
	return CatalogConfig{
		APIURL:        getEnv("TENANTGATE_API_URL", ""),
		FetchTimeout:  getEnvDuration("TENANTGATE_FETCH_TIMEOUT", 10*time.Second),
		CacheKey:      getEnv("TENANTGATE_CACHE_KEY", defaults.Key),
		CacheDuration: getEnvDuration("TENANTGATE_CACHE_DURATION", defaults.Duration),
		L1CacheSize:   getEnvInt("TENANTGATE_L1_CACHE_SIZE", defaults.L1Size),
		L1CacheTTL:    getEnvDuration("TENANTGATE_L1_CACHE_TTL", defaults.L1TTL),
		Store:         strings.ToLower(getEnv("TENANTGATE_CACHE_STORE", StoreMemory)),
		RedisURL:      getEnv("TENANTGATE_REDIS_URL", ""),
		RedisPassword: getEnv("TENANTGATE_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("TENANTGATE_REDIS_DB", -1),
		RedisPoolSize: getEnvInt("TENANTGATE_REDIS_POOL_SIZE", 0),
		SQLDriver:     getEnv("TENANTGATE_SQL_DRIVER", "postgres"),
		SQLDSN:        getEnv("TENANTGATE_SQL_DSN", ""),
		SQLTable:      getEnv("TENANTGATE_SQL_TABLE", catalog.DefaultSQLTable),
	}
}

// loadAuthConfig loads session and gate configuration from environment
func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:       getEnv("TENANTGATE_JWT_SECRET", ""),
		JWTIssuer:       getEnv("TENANTGATE_JWT_ISSUER", ""),
		CookieName:      getEnv("TENANTGATE_COOKIE_NAME", "tenantgate_token"),
		SuperAdminCode:  getEnv("TENANTGATE_SUPER_ADMIN_CODE", "a"),
		CheckTimeout:    getEnvDuration("TENANTGATE_CHECK_TIMEOUT", 5*time.Second),
		SignInPath:      getEnv("TENANTGATE_SIGN_IN_PATH", "/signin"),
		DefaultPath:     getEnv("TENANTGATE_DEFAULT_PATH", "/"),
		DefaultLanguage: getEnv("TENANTGATE_DEFAULT_LANGUAGE", "en"),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("TENANTGATE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("TENANTGATE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("TENANTGATE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("TENANTGATE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("TENANTGATE_OTEL_SERVICE_NAME", "tenantgate"),
		OTelServiceVersion: getEnv("TENANTGATE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("TENANTGATE_OTEL_INSECURE", true),
		AuditLogDir:        getEnv("TENANTGATE_AUDIT_LOG_DIR", ""),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate catalog config
	if c.Catalog.APIURL == "" {
		return fmt.Errorf("catalog API URL is required")
	}
	if c.Catalog.CacheDuration <= 0 {
		return fmt.Errorf("cache duration must be positive")
	}

	switch c.Catalog.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Catalog.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis cache store")
		}
	case StoreSQL:
		if c.Catalog.SQLDriver != "postgres" && c.Catalog.SQLDriver != "sqlite3" {
			return fmt.Errorf("invalid SQL driver: %s (must be postgres or sqlite3)", c.Catalog.SQLDriver)
		}
		if c.Catalog.SQLDSN == "" {
			return fmt.Errorf("SQL DSN is required for sql cache store")
		}
	default:
		return fmt.Errorf("invalid cache store: %s (must be memory, redis, or sql)", c.Catalog.Store)
	}

	// Validate auth config
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if code := c.Auth.SuperAdminCode; len(code) > 1 || (code != "" && code[0] > 0x7f) {
		return fmt.Errorf("super admin code must be a single ASCII character")
	}
	if !strings.HasPrefix(c.Auth.SignInPath, "/") || !strings.HasPrefix(c.Auth.DefaultPath, "/") {
		return fmt.Errorf("sign-in and default paths must be absolute")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// CacheConfig converts the catalog settings into cache tunables
func (c CatalogConfig) CacheConfig() catalog.CacheConfig {
	return catalog.CacheConfig{
		Key:      c.CacheKey,
		Duration: c.CacheDuration,
		L1Size:   c.L1CacheSize,
		L1TTL:    c.L1CacheTTL,
	}
}

// RedisConfig converts the catalog settings into Redis store options
func (c CatalogConfig) RedisConfig() catalog.RedisConfig {
	return catalog.RedisConfig{
		URL:      c.RedisURL,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		PoolSize: c.RedisPoolSize,
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns the non-empty comma separated entries of an environment variable
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
