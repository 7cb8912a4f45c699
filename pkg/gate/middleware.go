package gate

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tenantgate/pkg/audit"
	"github.com/platinummonkey/tenantgate/pkg/contextkeys"
	"github.com/platinummonkey/tenantgate/pkg/httputil"
	"github.com/platinummonkey/tenantgate/pkg/observability"
	"github.com/platinummonkey/tenantgate/pkg/rbac"
	"github.com/platinummonkey/tenantgate/pkg/session"
)

// DefaultTenantParam is the route variable holding the company ID
const DefaultTenantParam = "company_id"

// UnauthorizedView is the fixed body of a denied request
type UnauthorizedView struct {
	Error     string   `json:"error"`
	Message   string   `json:"message"`
	CompanyID string   `json:"company_id,omitempty"`
	Roles     []string `json:"required_roles,omitempty"`
}

// MiddlewareConfig configures the HTTP guards
type MiddlewareConfig struct {
	// TenantParam is the mux route variable carrying the company ID
	TenantParam string
	// CheckTimeout bounds one role check
	CheckTimeout time.Duration
	// SignInPath is where RequireAuth sends anonymous users
	SignInPath string
	// DefaultPath is where RequireGuest sends authenticated users
	DefaultPath string
}

// Middleware turns gates into HTTP route guards
type Middleware struct {
	checker rbac.Checker
	cfg     MiddlewareConfig
	logger  *observability.Logger
	metrics *observability.Metrics
	audit   audit.Logger
}

// NewMiddleware creates route guards over checker
func NewMiddleware(checker rbac.Checker, cfg MiddlewareConfig, logger *observability.Logger, metrics *observability.Metrics) *Middleware {
	if cfg.TenantParam == "" {
		cfg.TenantParam = DefaultTenantParam
	}
	if cfg.SignInPath == "" {
		cfg.SignInPath = "/signin"
	}
	if cfg.DefaultPath == "" {
		cfg.DefaultPath = "/"
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Middleware{
		checker: checker,
		cfg:     cfg,
		logger:  logger.WithField("component", "gate"),
		metrics: metrics,
		audit:   audit.NopLogger(),
	}
}

// WithAudit records every route decision in the audit trail
func (m *Middleware) WithAudit(logger audit.Logger) *Middleware {
	if logger != nil {
		m.audit = logger
	}
	return m
}

// Tenant returns the company ID of the request: the route variable when
// present, otherwise one already stored in the context
func (m *Middleware) Tenant(r *http.Request) string {
	if companyID := mux.Vars(r)[m.cfg.TenantParam]; companyID != "" {
		return companyID
	}
	return contextkeys.GetTenant(r.Context())
}

// Decide runs one gate for the request session and waits for the outcome
func (m *Middleware) Decide(r *http.Request, companyID string, roles []string, fullMatch bool) (Decision, error) {
	sess := session.FromContext(r.Context())

	g := New(m.checker,
		WithGuard("route"),
		WithTimeout(m.cfg.CheckTimeout),
		WithLogger(m.logger.WithContext(r.Context())),
		WithMetrics(m.metrics),
	)
	defer g.Close()

	g.Update(Input{
		User:      sess.User,
		Token:     sess.Token,
		CompanyID: companyID,
		Roles:     roles,
		FullMatch: fullMatch,
	})
	return g.Wait(r.Context())
}

// RequireRoles admits the request only when the session holds roles for the
// request tenant. Denied requests get the unauthorized view.
func (m *Middleware) RequireRoles(roles []string, fullMatch bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			companyID := m.Tenant(r)

			decision, err := m.Decide(r, companyID, roles, fullMatch)
			if err != nil {
				// The client went away or the gate was torn down; there is no one to answer.
				if !errors.Is(err, r.Context().Err()) {
					m.logger.WithContext(r.Context()).WithError(err).Warn("route gate did not resolve")
				}
				return
			}

			m.record(r, decision, companyID, roles)
			if decision != Granted {
				m.logger.WithContext(r.Context()).WithFields(map[string]interface{}{
					"company_id": companyID,
					"roles":      roles,
					"path":       r.URL.Path,
				}).Info("access denied")
				WriteUnauthorized(w, companyID, roles)
				return
			}

			ctx := r.Context()
			if companyID != "" {
				ctx = contextkeys.WithTenant(ctx, companyID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *Middleware) record(r *http.Request, decision Decision, companyID string, roles []string) {
	eventType, status := audit.EventTypeAccessGranted, audit.EventStatusSuccess
	if decision != Granted {
		eventType, status = audit.EventTypeAccessDenied, audit.EventStatusDenied
	}

	event := audit.NewEvent(r.Context(), r, eventType, status)
	event.CompanyID = companyID
	event.Roles = roles
	if sess := session.FromContext(r.Context()); sess.Authenticated() {
		event.UserID = sess.User.ID
	}
	if err := m.audit.Log(r.Context(), event); err != nil {
		m.logger.WithContext(r.Context()).WithError(err).Warn("failed to write audit event")
	}
}

// WriteUnauthorized renders the 403 view
func WriteUnauthorized(w http.ResponseWriter, companyID string, roles []string) {
	httputil.WriteJSON(w, http.StatusForbidden, UnauthorizedView{
		Error:     "unauthorized",
		Message:   "you do not have permission to view this page",
		CompanyID: companyID,
		Roles:     roles,
	})
}
