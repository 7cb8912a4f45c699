package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Catalog metrics
	CatalogCacheHitsTotal   *prometheus.CounterVec
	CatalogCacheMissesTotal *prometheus.CounterVec
	CatalogFetchesTotal     *prometheus.CounterVec
	CatalogFetchDuration    prometheus.Histogram
	CatalogCacheClearsTotal prometheus.Counter

	// Authorization metrics
	RoleChecksTotal    *prometheus.CounterVec
	GateDecisionsTotal *prometheus.CounterVec
	GatesPending       prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantgate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenantgate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		CatalogCacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantgate_catalog_cache_hits_total",
				Help: "Permission catalog cache hits by layer",
			},
			[]string{"layer"},
		),
		CatalogCacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantgate_catalog_cache_misses_total",
				Help: "Permission catalog cache misses by reason",
			},
			[]string{"reason"},
		),
		CatalogFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantgate_catalog_fetches_total",
				Help: "Remote permission catalog fetches by outcome",
			},
			[]string{"status"},
		),
		CatalogFetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tenantgate_catalog_fetch_duration_seconds",
				Help:    "Remote permission catalog fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		CatalogCacheClearsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tenantgate_catalog_cache_clears_total",
				Help: "Explicit permission catalog cache invalidations",
			},
		),

		RoleChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantgate_role_checks_total",
				Help: "Role checks by result and reason",
			},
			[]string{"result", "reason"},
		),
		GateDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantgate_gate_decisions_total",
				Help: "Resolved authorization gate decisions",
			},
			[]string{"decision", "guard"},
		),
		GatesPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tenantgate_gates_pending",
				Help: "Gates currently waiting for a decision",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CatalogCacheHitsTotal,
		m.CatalogCacheMissesTotal,
		m.CatalogFetchesTotal,
		m.CatalogFetchDuration,
		m.CatalogCacheClearsTotal,
		m.RoleChecksTotal,
		m.GateDecisionsTotal,
		m.GatesPending,
	)

	return m
}

// The Record* helpers are nil-safe so components can run without metrics.

// RecordCacheHit records a catalog cache hit for a layer ("l1" or "store")
func (m *Metrics) RecordCacheHit(layer string) {
	if m == nil {
		return
	}
	m.CatalogCacheHitsTotal.WithLabelValues(layer).Inc()
}

// RecordCacheMiss records a catalog cache miss with its reason
func (m *Metrics) RecordCacheMiss(reason string) {
	if m == nil {
		return
	}
	m.CatalogCacheMissesTotal.WithLabelValues(reason).Inc()
}

// RecordFetch records a remote catalog fetch
func (m *Metrics) RecordFetch(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.CatalogFetchesTotal.WithLabelValues(status).Inc()
	m.CatalogFetchDuration.Observe(duration.Seconds())
}

// RecordCacheClear records an explicit cache invalidation
func (m *Metrics) RecordCacheClear() {
	if m == nil {
		return
	}
	m.CatalogCacheClearsTotal.Inc()
}

// RecordRoleCheck records a role check outcome
func (m *Metrics) RecordRoleCheck(allowed bool, reason string) {
	if m == nil {
		return
	}
	m.RoleChecksTotal.WithLabelValues(strconv.FormatBool(allowed), reason).Inc()
}

// RecordGateDecision records a resolved gate decision for a guard kind
func (m *Metrics) RecordGateDecision(decision, guard string) {
	if m == nil {
		return
	}
	m.GateDecisionsTotal.WithLabelValues(decision, guard).Inc()
}

// GatePending adjusts the pending gates gauge by delta
func (m *Metrics) GatePending(delta float64) {
	if m == nil {
		return
	}
	m.GatesPending.Add(delta)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler for a registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// HTTPMiddleware records request counts and durations per route template
func (m *Metrics) HTTPMiddleware(routeName func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			path := r.URL.Path
			if routeName != nil {
				if name := routeName(r); name != "" {
					path = name
				}
			}
			m.RecordHTTPRequest(r.Method, path, rec.status, time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
