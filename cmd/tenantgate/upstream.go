package main

import (
	"fmt"
	"net/http"
	stdhttputil "net/http/httputil"
	"net/url"

	"github.com/platinummonkey/tenantgate/pkg/contextkeys"
	"github.com/platinummonkey/tenantgate/pkg/httputil"
	"github.com/platinummonkey/tenantgate/pkg/observability"
	"github.com/platinummonkey/tenantgate/pkg/session"
)

// Headers passed to the upstream for admitted requests
const (
	userHeader   = "X-Tenantgate-User"
	tenantHeader = "X-Tenantgate-Company"
)

// newUpstream returns the handler behind the route table. With no upstream
// URL tenantgate runs as a forward-auth endpoint and answers admitted
// requests itself.
func newUpstream(rawURL string, logger *observability.Logger) (http.Handler, error) {
	if rawURL == "" {
		return http.HandlerFunc(allowed), nil
	}

	target, err := url.Parse(rawURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL %q", rawURL)
	}

	proxy := stdhttputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		r.Header.Del(userHeader)
		r.Header.Del(tenantHeader)
		if sess := session.FromContext(r.Context()); sess.Authenticated() {
			r.Header.Set(userHeader, sess.User.ID)
		}
		if tenant := contextkeys.GetTenant(r.Context()); tenant != "" {
			r.Header.Set(tenantHeader, tenant)
		}
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.WithContext(r.Context()).WithError(err).WithField("upstream", target.Host).Error("upstream request failed")
		httputil.WriteBadGateway(w, "upstream unavailable")
	}
	return proxy, nil
}

func allowed(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess.Authenticated() {
		w.Header().Set(userHeader, sess.User.ID)
	}
	if tenant := contextkeys.GetTenant(r.Context()); tenant != "" {
		w.Header().Set(tenantHeader, tenant)
	}
	w.WriteHeader(http.StatusNoContent)
}
