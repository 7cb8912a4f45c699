// Package config loads tenantgate configuration from environment variables.
//
// Server settings:
//
//	TENANTGATE_HOST="0.0.0.0"
//	TENANTGATE_PORT="8080"
//	TENANTGATE_HEALTH_PORT="9090"
//	TENANTGATE_UPSTREAM_URL="http://app:3000"
//	TENANTGATE_CORS_ALLOWED_ORIGINS="https://app.example.com"
//
// Catalog and cache settings:
//
//	TENANTGATE_API_URL="https://api.example.com"
//	TENANTGATE_CACHE_STORE="redis"  # memory, redis, sql
//	TENANTGATE_CACHE_DURATION="24h"
//	TENANTGATE_REDIS_URL="redis://localhost:6379/0"
//	TENANTGATE_SQL_DRIVER="postgres"  # postgres, sqlite3
//	TENANTGATE_SQL_DSN="postgres://localhost/tenantgate?sslmode=disable"
//	TENANTGATE_L1_CACHE_SIZE="8"
//
// Auth settings:
//
//	TENANTGATE_JWT_SECRET="..."
//	TENANTGATE_SUPER_ADMIN_CODE="a"
//	TENANTGATE_SIGN_IN_PATH="/signin"
//	TENANTGATE_DEFAULT_LANGUAGE="en"
//	TENANTGATE_ROUTES_FILE="/etc/tenantgate/routes.yaml"
//
// Observability settings:
//
//	TENANTGATE_LOG_LEVEL="info"  # debug, info, warn, error
//	TENANTGATE_METRICS_ENABLED="true"
//	TENANTGATE_OTEL_ENABLED="true"
//	TENANTGATE_OTEL_ENDPOINT="otel-collector:4317"
//	TENANTGATE_AUDIT_LOG_DIR="/var/log/tenantgate/audit"
//
// Usage:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
