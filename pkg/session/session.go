// Package session resolves the caller's identity token and user.
//
// The token is opaque to the rest of the system: it is forwarded to the
// catalog endpoint and, through a Provider, decoded into an rbac.User.
// Token issuance happens elsewhere.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/tenantgate/pkg/contextkeys"
	"github.com/platinummonkey/tenantgate/pkg/rbac"
)

// TokenHeader is the header the identity token travels in
const TokenHeader = "x-access-token"

// DefaultCookieName is the cookie consulted when no header carries a token
const DefaultCookieName = "tenantgate_token"

var (
	// ErrInvalidToken means the token could not be verified
	ErrInvalidToken = errors.New("invalid identity token")
)

// Session is the identity of the current request. The zero value is an
// anonymous session.
type Session struct {
	Token string
	User  *rbac.User
}

// Authenticated reports whether the session carries both a token and a user
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.User != nil
}

// Provider decodes an identity token into a user
type Provider interface {
	Resolve(ctx context.Context, token string) (*rbac.User, error)
}

// FromContext returns the request session, or an anonymous one
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(contextkeys.SessionKey).(*Session); ok && sess != nil {
		return sess
	}
	return &Session{}
}

// WithSession stores sess in ctx
func WithSession(ctx context.Context, sess *Session) context.Context {
	ctx = contextkeys.WithSession(ctx, sess)
	if sess != nil && sess.User != nil {
		ctx = contextkeys.WithUserID(ctx, sess.User.ID)
	}
	return ctx
}

// ExtractToken reads the identity token from the x-access-token header, an
// Authorization Bearer header or the named cookie, in that order
func ExtractToken(r *http.Request, cookieName string) string {
	if token := strings.TrimSpace(r.Header.Get(TokenHeader)); token != "" {
		return token
	}

	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}
