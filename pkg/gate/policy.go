package gate

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/platinummonkey/tenantgate/pkg/session"
)

// ReturnToParam carries the location to go back to after a redirect
const ReturnToParam = "returnTo"

// RequireGuest keeps authenticated users off guest-only routes such as the
// sign-in page. They are sent to the returnTo location when it is local,
// otherwise to target (the configured default when empty).
func (m *Middleware) RequireGuest(target string) func(http.Handler) http.Handler {
	if target == "" {
		target = m.cfg.DefaultPath
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.FromContext(r.Context()).Authenticated() {
				next.ServeHTTP(w, r)
				return
			}

			dest := target
			if returnTo := r.URL.Query().Get(ReturnToParam); IsLocalPath(returnTo) {
				dest = returnTo
			}
			http.Redirect(w, r, dest, http.StatusSeeOther)
		})
	}
}

// RequireAuth sends anonymous users to signIn (the configured sign-in path
// when empty) with the original location in returnTo
func (m *Middleware) RequireAuth(signIn string) func(http.Handler) http.Handler {
	if signIn == "" {
		signIn = m.cfg.SignInPath
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session.FromContext(r.Context()).Authenticated() {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, WithReturnTo(signIn, r.URL.RequestURI()), http.StatusSeeOther)
		})
	}
}

// WithReturnTo appends returnTo to target
func WithReturnTo(target, returnTo string) string {
	if !IsLocalPath(returnTo) {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(ReturnToParam, returnTo)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsLocalPath reports whether p is a same-origin absolute path, which rules
// out open redirects through returnTo
func IsLocalPath(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}
