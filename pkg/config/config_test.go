package config

import (
	"strings"
	"testing"
	"time"

	"github.com/platinummonkey/tenantgate/pkg/catalog"
	"github.com/platinummonkey/tenantgate/pkg/observability"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.envValue)

			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{"returns true for 'true'", false, "true", true},
		{"returns true for '1'", false, "1", true},
		{"returns false for 'false'", true, "false", false},
		{"returns default when not set", true, "", true},
		{"returns true for 'TRUE' (case insensitive)", false, "TRUE", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.envValue)

			if got := getEnvBool("TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     int
	}{
		{"parses integer", "42", 42},
		{"parses negative", "-1", -1},
		{"invalid falls back to default", "many", 7},
		{"unset falls back to default", "", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.envValue)

			if got := getEnvInt("TEST_INT", 7); got != tt.want {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     time.Duration
	}{
		{"parses duration", "90s", 90 * time.Second},
		{"parses hours", "12h", 12 * time.Hour},
		{"bare number is invalid", "30", time.Minute},
		{"unset falls back to default", "", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.envValue)

			if got := getEnvDuration("TEST_DURATION", time.Minute); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvList tests the getEnvList helper function
func TestGetEnvList(t *testing.T) {
	t.Setenv("TEST_LIST", " https://a.example , ,https://b.example")
	got := getEnvList("TEST_LIST")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("getEnvList() = %v", got)
	}

	t.Setenv("TEST_LIST", "")
	if got := getEnvList("TEST_LIST"); got != nil {
		t.Errorf("getEnvList() = %v, want nil", got)
	}
}

// validConfig returns a configuration that passes Validate
func validConfig() Config {
	return Config{
		Server: ServerConfig{Port: "8080", HealthPort: "9090"},
		Catalog: CatalogConfig{
			APIURL:        "https://api.example.com",
			CacheDuration: 24 * time.Hour,
			Store:         StoreMemory,
		},
		Auth: AuthConfig{
			JWTSecret:      "secret",
			SuperAdminCode: "a",
			SignInPath:     "/signin",
			DefaultPath:    "/",
		},
	}
}

// TestConfigValidate tests the Config.Validate method
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing server port", func(c *Config) { c.Server.Port = "" }, "server port is required"},
		{"missing health port", func(c *Config) { c.Server.HealthPort = "" }, "health port is required"},
		{"same server and health port", func(c *Config) { c.Server.HealthPort = "8080" }, "server port and health port must be different"},
		{"missing API URL", func(c *Config) { c.Catalog.APIURL = "" }, "catalog API URL is required"},
		{"zero cache duration", func(c *Config) { c.Catalog.CacheDuration = 0 }, "cache duration must be positive"},
		{"unknown store", func(c *Config) { c.Catalog.Store = "s3" }, "invalid cache store"},
		{"redis without URL", func(c *Config) { c.Catalog.Store = StoreRedis }, "redis URL is required"},
		{"redis with URL", func(c *Config) {
			c.Catalog.Store = StoreRedis
			c.Catalog.RedisURL = "redis://localhost:6379"
		}, ""},
		{"sql bad driver", func(c *Config) {
			c.Catalog.Store = StoreSQL
			c.Catalog.SQLDriver = "mysql"
			c.Catalog.SQLDSN = "x"
		}, "invalid SQL driver"},
		{"sql without DSN", func(c *Config) {
			c.Catalog.Store = StoreSQL
			c.Catalog.SQLDriver = "sqlite3"
		}, "SQL DSN is required"},
		{"sqlite", func(c *Config) {
			c.Catalog.Store = StoreSQL
			c.Catalog.SQLDriver = "sqlite3"
			c.Catalog.SQLDSN = "file:tenantgate.db"
		}, ""},
		{"missing JWT secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT secret is required"},
		{"multi-char super admin code", func(c *Config) { c.Auth.SuperAdminCode = "ab" }, "super admin code"},
		{"super admin disabled", func(c *Config) { c.Auth.SuperAdminCode = "" }, ""},
		{"relative sign-in path", func(c *Config) { c.Auth.SignInPath = "signin" }, "must be absolute"},
		{"otel enabled without endpoint", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelServiceName = "test"
		}, "OpenTelemetry endpoint is required when OTel is enabled"},
		{"otel enabled without service name", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelEndpoint = "localhost:4317"
		}, "OpenTelemetry service name is required when OTel is enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

// TestLoadConfig tests the LoadConfig function
func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("TENANTGATE_API_URL", "https://api.example.com")
		t.Setenv("TENANTGATE_JWT_SECRET", "secret")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Server.Port != "8080" || cfg.Server.HealthPort != "9090" {
			t.Errorf("ports = %s/%s", cfg.Server.Port, cfg.Server.HealthPort)
		}
		if cfg.Catalog.Store != StoreMemory {
			t.Errorf("Store = %s, want memory", cfg.Catalog.Store)
		}
		if cfg.Catalog.CacheKey != catalog.DefaultCacheKey || cfg.Catalog.CacheDuration != catalog.DefaultCacheDuration {
			t.Errorf("cache = %s/%v", cfg.Catalog.CacheKey, cfg.Catalog.CacheDuration)
		}
		if cfg.Auth.SuperAdminCode != "a" {
			t.Errorf("SuperAdminCode = %q, want a", cfg.Auth.SuperAdminCode)
		}
		if cfg.Observability.LogLevel != observability.InfoLevel {
			t.Errorf("LogLevel = %v, want info", cfg.Observability.LogLevel)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("TENANTGATE_API_URL", "https://api.example.com")
		t.Setenv("TENANTGATE_JWT_SECRET", "secret")
		t.Setenv("TENANTGATE_CACHE_STORE", "REDIS")
		t.Setenv("TENANTGATE_REDIS_URL", "redis://cache:6379/2")
		t.Setenv("TENANTGATE_CACHE_DURATION", "1h")
		t.Setenv("TENANTGATE_L1_CACHE_SIZE", "0")
		t.Setenv("TENANTGATE_LOG_LEVEL", "debug")
		t.Setenv("TENANTGATE_ROUTES_FILE", "/etc/tenantgate/routes.yaml")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Catalog.Store != StoreRedis {
			t.Errorf("Store = %s, want redis", cfg.Catalog.Store)
		}
		cc := cfg.Catalog.CacheConfig()
		if cc.Duration != time.Hour || cc.L1Size != 0 {
			t.Errorf("CacheConfig() = %+v", cc)
		}
		if rc := cfg.Catalog.RedisConfig(); rc.URL != "redis://cache:6379/2" || rc.DB != -1 {
			t.Errorf("RedisConfig() = %+v", rc)
		}
		if cfg.Observability.LogLevel != observability.DebugLevel {
			t.Errorf("LogLevel = %v, want debug", cfg.Observability.LogLevel)
		}
		if cfg.RoutesFile != "/etc/tenantgate/routes.yaml" {
			t.Errorf("RoutesFile = %s", cfg.RoutesFile)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("TENANTGATE_API_URL", "https://api.example.com")
		t.Setenv("TENANTGATE_JWT_SECRET", "secret")
		t.Setenv("TENANTGATE_PORT", "9090")

		if _, err := LoadConfig(); err == nil {
			t.Error("LoadConfig() expected error for clashing ports")
		}
	})
}
