package session

import (
	"net/http"

	"github.com/platinummonkey/tenantgate/pkg/observability"
)

// Middleware attaches a Session to every request. Requests without a valid
// token continue as anonymous; access policy is enforced by the gate.
type Middleware struct {
	provider   Provider
	cookieName string
	logger     *observability.Logger
}

// NewMiddleware creates the session middleware
func NewMiddleware(provider Provider, cookieName string, logger *observability.Logger) *Middleware {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Middleware{
		provider:   provider,
		cookieName: cookieName,
		logger:     logger.WithField("component", "session"),
	}
}

// Handler wraps an HTTP handler with session resolution
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := &Session{}

		if token := ExtractToken(r, m.cookieName); token != "" {
			user, err := m.provider.Resolve(r.Context(), token)
			if err != nil {
				m.logger.WithContext(r.Context()).WithError(err).Debug("ignoring unverifiable identity token")
			} else {
				sess = &Session{Token: token, User: user}
			}
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}
