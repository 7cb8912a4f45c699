// Package contextkeys provides centralized context key definitions
//
// All context keys used across tenantgate are defined here so that setters
// and readers agree on one typed key.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/tenantgate/pkg/contextkeys"
//	ctx = contextkeys.WithSession(ctx, sess)
//	sess, _ := ctx.Value(contextkeys.SessionKey).(*session.Session)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// SessionKey contains *session.Session
	// Set by: session.Middleware (pkg/session/middleware.go)
	// Required by: gate.Middleware route guards
	SessionKey Key = "session"

	// TenantKey contains the active company ID string
	// Set by: gate.Middleware after resolving the {company_id} route variable
	TenantKey Key = "tenant"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestID middleware
	// Used by: Logger
	RequestIDKey Key = "request_id"

	// UserIDKey contains user ID string
	// Set by: session.Middleware after decoding the identity token
	// Used by: Logger
	UserIDKey Key = "user_id"

	// LoggerKey contains *observability.Logger
	LoggerKey Key = "logger"
)

// WithSession adds the authenticated session to the context
func WithSession(ctx context.Context, sess interface{}) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// WithTenant adds the active company ID to the context
func WithTenant(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, TenantKey, companyID)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUserID adds user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetTenant retrieves the active company ID from context
func GetTenant(ctx context.Context) string {
	if companyID, ok := ctx.Value(TenantKey).(string); ok {
		return companyID
	}
	return ""
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetUserID retrieves user ID from context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}
