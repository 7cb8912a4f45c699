// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry setup, health checks and shutdown sequencing.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("company_id", id).Info("role check denied")
//
// Request-scoped logging picks up the request and user IDs:
//
//	observability.FromContext(ctx).Warn("catalog fetch failed")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordCacheHit("store")
//	router.Handle("/metrics", observability.Handler(registry))
//
// All Record helpers are no-ops on a nil *Metrics.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version)
//	checker.Register("catalog_store", cache, true)
//	observability.RegisterHealthRoutes(router, checker)
//
// # OpenTelemetry
//
// InitOTel installs OTLP gRPC trace and metric providers when enabled and
// returns nil providers otherwise.
package observability
