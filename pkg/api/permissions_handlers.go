package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tenantgate/pkg/audit"
	"github.com/platinummonkey/tenantgate/pkg/catalog"
	"github.com/platinummonkey/tenantgate/pkg/gate"
	"github.com/platinummonkey/tenantgate/pkg/httputil"
	"github.com/platinummonkey/tenantgate/pkg/language"
	"github.com/platinummonkey/tenantgate/pkg/observability"
	"github.com/platinummonkey/tenantgate/pkg/rbac"
	"github.com/platinummonkey/tenantgate/pkg/session"
)

// PermissionsHandlers serves the catalog, the display language and
// per-company grants
type PermissionsHandlers struct {
	catalog CatalogService
	decoder GrantDecoder
	auth    Authorizer
	lang    *language.Signal
	logger  *observability.Logger
	audit   audit.Logger

	// adminCode is the grant code required to clear the cache or change the language
	adminCode string
}

// NewPermissionsHandlers creates the permission API handlers
func NewPermissionsHandlers(cache CatalogService, decoder GrantDecoder, auth Authorizer, lang *language.Signal, logger *observability.Logger) *PermissionsHandlers {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &PermissionsHandlers{
		catalog:   cache,
		decoder:   decoder,
		auth:      auth,
		lang:      lang,
		logger:    logger.WithField("component", "api"),
		audit:     audit.NopLogger(),
		adminCode: rbac.DefaultSuperAdminCode,
	}
}

// WithAdminCode sets the grant code that allows process-wide administration.
// An empty code leaves those endpoints closed to everyone.
func (h *PermissionsHandlers) WithAdminCode(code string) *PermissionsHandlers {
	h.adminCode = code
	return h
}

// WithAudit records cache and language administration in the audit trail
func (h *PermissionsHandlers) WithAudit(logger audit.Logger) *PermissionsHandlers {
	if logger != nil {
		h.audit = logger
	}
	return h
}

// RegisterRoutes registers the permission API routes
func (h *PermissionsHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/permissions", h.getPermissions).Methods("GET")
	r.HandleFunc("/api/permissions/cache/clear", h.requireAdmin(h.clearCache)).Methods("POST")

	r.HandleFunc("/api/language", h.getLanguage).Methods("GET")
	r.HandleFunc("/api/language", h.requireAdmin(h.setLanguage)).Methods("PUT")

	r.HandleFunc("/api/companies/{company_id}/permissions", h.getCompanyPermissions).Methods("GET")
	r.HandleFunc("/api/authorize", h.requireSession(h.authorize)).Methods("POST")
}

// requireSession rejects anonymous callers with 401
func (h *PermissionsHandlers) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).Authenticated() {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		next(w, r)
	}
}

// requireAdmin guards endpoints that change state shared by every tenant.
// The caller must hold the admin code in at least one of its grants.
func (h *PermissionsHandlers) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.requireSession(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if !holdsCode(sess.User, h.adminCode) {
			h.logger.WithContext(r.Context()).WithField("user_id", sess.User.ID).
				Warn("administration denied")
			httputil.WriteForbidden(w, "administrator role required")
			return
		}
		next(w, r)
	})
}

func holdsCode(user *rbac.User, code string) bool {
	if user == nil || code == "" {
		return false
	}
	for _, g := range user.Permissions {
		if rbac.ParseCodes(g.Permissions).Has(code) {
			return true
		}
	}
	return false
}

// getPermissions handles GET /api/permissions
// Returns the catalog for the active language, grouped by category as well
func (h *PermissionsHandlers) getPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	perms, err := h.catalog.GetPermissions(ctx, sess.Token)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingToken) {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		h.logger.WithContext(ctx).WithError(err).Warn("permission catalog unavailable")
		httputil.WriteBadGateway(w, "permission catalog unavailable")
		return
	}

	httputil.WriteJSONOrError(w, http.StatusOK, PermissionsResponse{
		Language:    h.lang.Current(),
		Permissions: perms,
		Categories:  perms.ByCategory(),
	}, "failed to encode permissions")
}

// clearCache handles POST /api/permissions/cache/clear
func (h *PermissionsHandlers) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Clear(r.Context()); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	h.logger.WithContext(r.Context()).Info("permission cache cleared via API")
	h.record(r, audit.EventTypeCacheClear, nil)
	httputil.WriteNoContent(w)
}

// getLanguage handles GET /api/language
func (h *PermissionsHandlers) getLanguage(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, LanguageResponse{Language: h.lang.Current()})
}

// setLanguage handles PUT /api/language
// Changing the language clears the permission cache through its subscription.
func (h *PermissionsHandlers) setLanguage(w http.ResponseWriter, r *http.Request) {
	var req LanguageRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Language, "lang") {
		return
	}

	previous := h.lang.Current()
	changed := h.lang.Set(req.Language)
	if changed {
		h.record(r, audit.EventTypeLanguageChange, map[string]interface{}{
			"from": previous,
			"to":   h.lang.Current(),
		})
	}
	httputil.WriteSuccess(w, LanguageResponse{Language: h.lang.Current(), Changed: changed})
}

// getCompanyPermissions handles GET /api/companies/{company_id}/permissions
// Returns the caller's grant for the company as permission keys
func (h *PermissionsHandlers) getCompanyPermissions(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httputil.ParsePathStringOrError(w, r, gate.DefaultTenantParam)
	if !ok {
		return
	}

	sess := session.FromContext(r.Context())
	if !sess.Authenticated() {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	resp := CompanyPermissionsResponse{CompanyID: companyID, Permissions: []string{}}
	if grant, found := sess.User.GrantFor(companyID); found {
		resp.Permissions = h.decoder.DecodeOrEmpty(r.Context(), sess.Token, grant.Permissions)
	}
	for _, key := range resp.Permissions {
		if key == catalog.SuperAdminKey {
			resp.SuperAdmin = true
		}
	}

	httputil.WriteSuccess(w, resp)
}

// authorize handles POST /api/authorize
// Runs the role check for the caller and reports the resolved decision.
// Callers must be signed in; an empty roles list is then granted without a
// check, as it is for guarded routes.
func (h *PermissionsHandlers) authorize(w http.ResponseWriter, r *http.Request) {
	var req AuthorizeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	decision, err := h.auth.Decide(r, req.CompanyID, req.Roles, req.FullMatch)
	if err != nil {
		httputil.WriteServiceUnavailable(w, "authorization did not resolve")
		return
	}

	httputil.WriteSuccess(w, AuthorizeResponse{
		CompanyID: req.CompanyID,
		Decision:  decision,
		Allowed:   decision == gate.Granted,
	})
}

func (h *PermissionsHandlers) record(r *http.Request, eventType audit.EventType, metadata map[string]interface{}) {
	event := audit.NewEvent(r.Context(), r, eventType, audit.EventStatusSuccess)
	if sess := session.FromContext(r.Context()); sess.Authenticated() {
		event.UserID = sess.User.ID
	}
	for k, v := range metadata {
		event.Metadata[k] = v
	}
	if err := h.audit.Log(r.Context(), event); err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Warn("failed to write audit event")
	}
}
