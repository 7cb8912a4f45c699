package rbac

import (
	"context"
	"fmt"

	"github.com/platinummonkey/tenantgate/pkg/observability"
)

// Checker evaluates tenant role requirements
type Checker interface {
	// CheckUserRoles reports whether user satisfies roles for companyID
	CheckUserRoles(ctx context.Context, token string, user *User, companyID string, roles []string, fullMatch bool) bool
}

// KeyEncoder maps permission keys to their concatenated codes, skipping
// unknown keys. *codec.Codec implements it.
type KeyEncoder interface {
	Encode(ctx context.Context, token string, keys []string) (string, error)
}

// RoleChecker implements Checker over the permission catalog
type RoleChecker struct {
	encoder        KeyEncoder
	superAdminCode string
	logger         *observability.Logger
	metrics        *observability.Metrics
}

// Option configures a RoleChecker
type Option func(*RoleChecker)

// WithSuperAdminCode overrides the code that bypasses every check
func WithSuperAdminCode(code string) Option {
	return func(rc *RoleChecker) { rc.superAdminCode = code }
}

// WithLogger sets the logger
func WithLogger(logger *observability.Logger) Option {
	return func(rc *RoleChecker) { rc.logger = logger }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *observability.Metrics) Option {
	return func(rc *RoleChecker) { rc.metrics = m }
}

// NewRoleChecker creates a role checker
func NewRoleChecker(encoder KeyEncoder, opts ...Option) *RoleChecker {
	rc := &RoleChecker{
		encoder:        encoder,
		superAdminCode: DefaultSuperAdminCode,
		logger:         observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(rc)
	}
	rc.logger = rc.logger.WithField("component", "role_checker")
	return rc
}

// CheckUserRoles reports whether user satisfies roles for companyID. It
// fails closed: every error path returns false.
func (rc *RoleChecker) CheckUserRoles(ctx context.Context, token string, user *User, companyID string, roles []string, fullMatch bool) bool {
	return rc.Evaluate(ctx, token, user, companyID, roles, fullMatch).Allowed
}

// Evaluate is CheckUserRoles with the reason for the outcome
func (rc *RoleChecker) Evaluate(ctx context.Context, token string, user *User, companyID string, roles []string, fullMatch bool) (result CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			rc.logger.WithContext(ctx).WithField("panic", fmt.Sprint(r)).Error("role check panicked")
			result = CheckResult{Reason: ReasonPanic}
		}
		rc.metrics.RecordRoleCheck(result.Allowed, string(result.Reason))
	}()

	if user == nil || len(user.Permissions) == 0 {
		return CheckResult{Reason: ReasonNoUser}
	}

	grant, ok := user.GrantFor(companyID)
	if !ok {
		return CheckResult{Reason: ReasonNoGrant}
	}

	held := ParseCodes(grant.Permissions)
	if rc.superAdminCode != "" && held.Has(rc.superAdminCode) {
		return CheckResult{Allowed: true, Reason: ReasonSuperAdmin}
	}

	encoded, err := rc.encoder.Encode(ctx, token, roles)
	if err != nil {
		rc.logger.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"company_id": companyID,
			"roles":      roles,
		}).Warn("role check denied: permission catalog unavailable")
		return CheckResult{Reason: ReasonCatalogError}
	}

	required := make([]string, 0, len(encoded))
	for _, r := range encoded {
		required = append(required, string(r))
	}
	if len(required) == 0 {
		return CheckResult{Reason: ReasonUnknownRoles}
	}

	if matches(held, required, fullMatch) {
		return CheckResult{Allowed: true, Reason: ReasonMatched, Required: required}
	}
	return CheckResult{Reason: ReasonNotMatched, Required: required}
}

func matches(held CodeSet, required []string, all bool) bool {
	for _, code := range required {
		has := held.Has(code)
		if all && !has {
			return false
		}
		if !all && has {
			return true
		}
	}
	return all
}
