package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/tenantgate/pkg/api"
	"github.com/platinummonkey/tenantgate/pkg/audit"
	"github.com/platinummonkey/tenantgate/pkg/catalog"
	"github.com/platinummonkey/tenantgate/pkg/codec"
	"github.com/platinummonkey/tenantgate/pkg/config"
	"github.com/platinummonkey/tenantgate/pkg/gate"
	"github.com/platinummonkey/tenantgate/pkg/httputil"
	"github.com/platinummonkey/tenantgate/pkg/language"
	"github.com/platinummonkey/tenantgate/pkg/observability"
	"github.com/platinummonkey/tenantgate/pkg/rbac"
	"github.com/platinummonkey/tenantgate/pkg/session"
)

var version = "dev"

// maxRequestBodyBytes bounds JSON bodies on the public listener
const maxRequestBodyBytes = 1 << 20

func main() {
	routesFile := flag.String("routes", "", "Route table YAML (overrides TENANTGATE_ROUTES_FILE)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *routesFile != "" {
		cfg.RoutesFile = *routesFile
	}

	log := setupLogger(cfg.Observability.LogLevel.String())
	log.WithFields(logrus.Fields{
		"version": version,
		"store":   cfg.Catalog.Store,
		"port":    cfg.Server.Port,
	}).Info("Starting tenantgate")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatalf("tenantgate exited: %v", err)
	}
	log.Info("tenantgate stopped")
}

func setupLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).
		WithField("service", cfg.Observability.OTelServiceName)
	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	shutdown.Register("otel", providers.Shutdown)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	store, closeStore, err := openStore(ctx, cfg.Catalog)
	if err != nil {
		return err
	}
	shutdown.Register("catalog store", func(context.Context) error { return closeStore() })
	log.WithField("store", cfg.Catalog.Store).Info("Catalog store ready")

	trail := audit.NopLogger()
	if dir := cfg.Observability.AuditLogDir; dir != "" {
		auditCfg := audit.DefaultFileLoggerConfig()
		auditCfg.BasePath = dir
		fileLogger, err := audit.NewFileLogger(auditCfg)
		if err != nil {
			return err
		}
		trail = fileLogger
		log.WithField("dir", dir).Info("Audit trail enabled")
	}
	shutdown.Register("audit trail", func(context.Context) error { return trail.Close() })

	lang := language.NewSignal(cfg.Auth.DefaultLanguage)
	client := catalog.NewClient(cfg.Catalog.APIURL, cfg.Catalog.FetchTimeout)
	cache := catalog.NewCache(cfg.Catalog.CacheConfig(), store, client, lang,
		catalog.WithLogger(logger),
		catalog.WithMetrics(metrics),
	)
	unwatch := cache.WatchLanguage(lang)
	shutdown.Register("language watch", func(context.Context) error {
		unwatch()
		return nil
	})

	permissions := codec.New(cache, logger)
	checker := rbac.NewRoleChecker(permissions,
		rbac.WithSuperAdminCode(cfg.Auth.SuperAdminCode),
		rbac.WithLogger(logger),
		rbac.WithMetrics(metrics),
	)
	gates := gate.NewMiddleware(checker, gate.MiddlewareConfig{
		CheckTimeout: cfg.Auth.CheckTimeout,
		SignInPath:   cfg.Auth.SignInPath,
		DefaultPath:  cfg.Auth.DefaultPath,
	}, logger, metrics).WithAudit(trail)
	sessions := session.NewMiddleware(
		session.NewJWTProvider([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer),
		cfg.Auth.CookieName,
		logger,
	)

	router := mux.NewRouter()
	router.Use(metrics.HTTPMiddleware(routeTemplate))
	api.NewPermissionsHandlers(cache, permissions, gates, lang, logger).
		WithAudit(trail).
		WithAdminCode(cfg.Auth.SuperAdminCode).
		RegisterRoutes(router)

	if cfg.RoutesFile != "" {
		table, err := gate.LoadRouteTable(cfg.RoutesFile)
		if err != nil {
			return err
		}
		upstream, err := newUpstream(cfg.Server.UpstreamURL, logger)
		if err != nil {
			return err
		}
		table.Register(router, gates, upstream)
		log.WithFields(logrus.Fields{
			"file":     cfg.RoutesFile,
			"routes":   len(table.Routes),
			"upstream": cfg.Server.UpstreamURL,
		}).Info("Route table loaded")
	}

	handler := publicChain(logger, sessions)(router)
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders:   []string{"Authorization", "Content-Type", session.TokenHeader, httputil.RequestIDHeader},
			AllowCredentials: true,
		}).Handler(handler)
	}
	handler = otelhttp.NewHandler(handler, "tenantgate")

	health := observability.NewHealthChecker(version)
	health.Register("catalog_store", cache, true)
	healthRouter := mux.NewRouter()
	observability.RegisterHealthRoutes(healthRouter, health)
	if cfg.Observability.MetricsEnabled {
		healthRouter.Handle("/metrics", observability.Handler(registry))
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthRouter,
	}
	// Registered last so the listeners stop before the store they use closes
	shutdown.Register("health server", healthServer.Shutdown)
	shutdown.Register("http server", server.Shutdown)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Serving on %s", server.Addr)
		return serve(server)
	})
	g.Go(func() error {
		log.Infof("Health and metrics on %s", healthServer.Addr)
		return serve(healthServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully...")
		return shutdown.Shutdown(context.Background())
	})
	return g.Wait()
}

func serve(server *http.Server) error {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", server.Addr, err)
	}
	return nil
}

// routeTemplate labels metrics by mux path template instead of the raw path
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return ""
}

// publicChain is the middleware stack in front of every public route
func publicChain(logger *observability.Logger, sessions *session.Middleware) func(http.Handler) http.Handler {
	return httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.RecoveryMiddleware(logger),
		httputil.LoggingMiddleware(logger),
		httputil.MaxBytesMiddleware(maxRequestBodyBytes),
		sessions.Handler,
	)
}
