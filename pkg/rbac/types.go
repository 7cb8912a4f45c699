package rbac

// DefaultSuperAdminCode is the code conventionally assigned to sys_admin
const DefaultSuperAdminCode = "a"

// Grant is a user's permission string for one tenant
type Grant struct {
	CompanyID   string `json:"companyId"`
	Permissions string `json:"permissions"`
}

// User is the authenticated identity as seen by the checker. It is owned by
// the session and never modified here.
type User struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Permissions []Grant `json:"permissions"`
}

// GrantFor returns the grant whose CompanyID equals companyID exactly
func (u *User) GrantFor(companyID string) (Grant, bool) {
	if u == nil {
		return Grant{}, false
	}
	for _, g := range u.Permissions {
		if g.CompanyID == companyID {
			return g, true
		}
	}
	return Grant{}, false
}

// CodeSet is the set of codes held in a grant
type CodeSet map[string]struct{}

// ParseCodes splits a grant string into its codes. Duplicates collapse.
func ParseCodes(permissions string) CodeSet {
	set := make(CodeSet, len(permissions))
	for _, r := range permissions {
		set[string(r)] = struct{}{}
	}
	return set
}

// Has reports whether code is in the set
func (s CodeSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Reason labels why a check ended the way it did
type Reason string

const (
	ReasonNoUser       Reason = "no_user"
	ReasonNoGrant      Reason = "no_grant"
	ReasonSuperAdmin   Reason = "super_admin"
	ReasonCatalogError Reason = "catalog_error"
	ReasonUnknownRoles Reason = "unknown_roles"
	ReasonMatched      Reason = "matched"
	ReasonNotMatched   Reason = "not_matched"
	ReasonPanic        Reason = "panic"
)

// CheckResult is the outcome of a role check
type CheckResult struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
	// Required holds the codes the required roles resolved to
	Required []string `json:"required,omitempty"`
}
